package writer

import (
	"fmt"
	"strings"

	"briefcraft/internal/brief"
)

const sectionSystemPrompt = `You are an expert long-form content writer. Write the body text for ONE
section of an article, continuing naturally from the content so far. Output
only the section body in markdown. Never repeat the section heading in the
body. Never write headings for other sections. Transition naturally toward
the upcoming sections where it helps flow.`

const condenseSystemPrompt = `You condense article sections. Rewrite the given section body to the
requested word count. Preserve every key fact, example, and keyword; cut
filler and redundancy only. Output only the condensed body text.`

// sectionPrompt assembles the user prompt for one section.
func sectionPrompt(b *brief.Brief, node *brief.OutlineItem, budget SectionBudget, trailing string, upcoming []string, gapNotes []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Article target keyword: %s\n\n", b.Keyword)

	if briefCtx, err := brief.CompactJSON(map[string]any{
		"search_intent":   b.SearchIntent,
		"page_goal":       b.PageGoal,
		"target_audience": b.TargetAudience,
	}); err == nil {
		sb.WriteString("## Brief context\n```json\n" + briefCtx + "\n```\n\n")
	}

	fmt.Fprintf(&sb, "## Section to write\nHeading (%s): %s\n", node.Level, node.Heading)
	if len(node.Guidelines) > 0 {
		sb.WriteString("Guidelines:\n")
		for _, g := range node.Guidelines {
			sb.WriteString("- " + g + "\n")
		}
	}
	if len(node.TargetedKeywords) > 0 {
		sb.WriteString("Work in these keywords naturally: " + strings.Join(node.TargetedKeywords, ", ") + "\n")
	}
	if budget.Target > 0 {
		fmt.Fprintf(&sb, "Target length: about %d words (stay between %d and %d).\n", budget.Target, budget.Min, budget.Max)
	}
	if node.FeaturedSnippet != nil && node.FeaturedSnippet.IsTarget {
		format := node.FeaturedSnippet.Format
		if format == "" {
			format = "paragraph"
		}
		fmt.Fprintf(&sb, "This section targets the featured snippet: open with a direct, self-contained %s answer of 40-60 words.\n", format)
	}
	sb.WriteString("\n")

	if trailing != "" {
		sb.WriteString("## Content so far (trailing excerpt)\n" + trailing + "\n\n")
	}
	if len(upcoming) > 0 {
		sb.WriteString("## Upcoming sections\n")
		for _, h := range upcoming {
			sb.WriteString("- " + h + "\n")
		}
		sb.WriteString("\n")
	}

	if len(gapNotes) > 0 {
		sb.WriteString("## Improvement notes to address in this section\n")
		for _, n := range gapNotes {
			sb.WriteString("- " + n + "\n")
		}
		sb.WriteString("\n")
	}

	if sig := b.EEATSignals; sig != nil {
		var hints []string
		hints = append(hints, sig.Experience...)
		hints = append(hints, sig.Expertise...)
		hints = append(hints, sig.Authoritativeness...)
		hints = append(hints, sig.Trust...)
		if len(hints) > 0 {
			sb.WriteString("## E-E-A-T signals to weave in where natural\n")
			for _, h := range hints {
				sb.WriteString("- " + h + "\n")
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// gapNotesFor selects the brief-validation improvement notes this section
// must address: every note for the first section, otherwise only notes
// that mention the section heading.
func gapNotesFor(b *brief.Brief, node *brief.OutlineItem, sectionIndex int) []string {
	if b.Validation == nil {
		return nil
	}
	var notes []string
	for _, c := range b.Validation.Changes {
		note := c.Description
		if note == "" {
			continue
		}
		switch {
		case sectionIndex == 0:
			notes = append(notes, note)
		case c.Location.SectionHeading != "" && strings.EqualFold(c.Location.SectionHeading, node.Heading):
			notes = append(notes, note)
		case strings.Contains(strings.ToLower(note), strings.ToLower(node.Heading)):
			notes = append(notes, note)
		}
	}
	return notes
}
