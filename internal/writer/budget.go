// Package writer generates article body text section by section, in
// outline order, against a running word-budget ledger, with streaming
// output and an optional strict-mode condense pass.
package writer

import (
	"math"
	"strings"
)

// Band bounds around the effective target: strict mode narrows the
// acceptable range to +-10%, non-strict allows +-15%.
const (
	strictBand    = 0.10
	nonStrictBand = 0.15

	// trimThreshold is the overshoot ratio that triggers the condense
	// pass in strict mode.
	trimThreshold = 1.20
)

// BudgetInput is the allocator state for one section.
type BudgetInput struct {
	// GlobalTarget is the article-wide word target; zero means none.
	GlobalTarget int
	Strict       bool

	TotalSections int
	WordsWritten  int
	SectionIndex  int // zero-based position in outline order

	// SectionTarget is the node's explicit target_word_count; it wins
	// over the global allocation when set.
	SectionTarget int
}

// SectionBudget is the effective per-section target and acceptable range.
// A zero Target means the section is unconstrained.
type SectionBudget struct {
	Target int
	Min    int
	Max    int
}

// Allocate computes the word budget for the current section: an explicit
// section target wins; otherwise the remaining global budget is divided
// evenly across the remaining sections.
func Allocate(in BudgetInput) SectionBudget {
	target := in.SectionTarget
	if target == 0 && in.GlobalTarget > 0 {
		remainingSections := in.TotalSections - in.SectionIndex
		if remainingSections < 1 {
			remainingSections = 1
		}
		remaining := in.GlobalTarget - in.WordsWritten
		if remaining < 0 {
			remaining = 0
		}
		target = remaining / remainingSections
	}
	if target <= 0 {
		return SectionBudget{}
	}

	band := nonStrictBand
	if in.Strict {
		band = strictBand
	}
	return SectionBudget{
		Target: target,
		Min:    int(math.Round(float64(target) * (1 - band))),
		Max:    int(math.Round(float64(target) * (1 + band))),
	}
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
