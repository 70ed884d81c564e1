package brief

// Severity ranks a proposed change.
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
)

// severityRank orders severities critical-first for sorting.
var severityRank = map[Severity]int{
	SeverityCritical:   0,
	SeverityWarning:    1,
	SeveritySuggestion: 2,
}

// Rank returns the sort rank for the severity; unknown severities sort last.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// ChangeLocation pins a proposed change to a place in the article.
// ParagraphIndex is a pointer so "no index" is distinguishable from
// paragraph zero.
type ChangeLocation struct {
	SectionHeading string `json:"sectionHeading,omitempty"`
	ParagraphIndex *int   `json:"paragraphIndex,omitempty"`
}

// ProposedChange is a structured, severity-ranked suggested edit to the
// generated article. Changes are created by validation, selected by the
// caller, consumed exactly once by diff application, then discarded.
type ProposedChange struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Severity     Severity       `json:"severity"`
	Location     ChangeLocation `json:"location"`
	Description  string         `json:"description"`
	CurrentText  string         `json:"currentText,omitempty"`
	ProposedText string         `json:"proposedText,omitempty"`
	Reasoning    string         `json:"reasoning,omitempty"`
}

// Applicable reports whether the change carries both text fields needed for
// mechanical application. Changes lacking either are inert.
func (c *ProposedChange) Applicable() bool {
	return c.CurrentText != "" && c.ProposedText != ""
}

// CategoryScores are the five validation category scores, each 1-100.
type CategoryScores struct {
	Alignment  int `json:"alignment"`
	Structure  int `json:"structure"`
	Keywords   int `json:"keywords"`
	Paragraphs int `json:"paragraphs"`
	WordCount  int `json:"word_count"`
}

// Overall computes the weighted overall score: alignment 30%, structure
// 25%, keywords 20%, paragraphs 15%, word count 10%.
func (cs CategoryScores) Overall() float64 {
	return float64(cs.Alignment)*0.30 +
		float64(cs.Structure)*0.25 +
		float64(cs.Keywords)*0.20 +
		float64(cs.Paragraphs)*0.15 +
		float64(cs.WordCount)*0.10
}

// ValidationResult is the output of a content-validation pass.
type ValidationResult struct {
	Scores       CategoryScores   `json:"scores"`
	OverallScore float64          `json:"overall_score"`
	Summary      string           `json:"summary,omitempty"`
	Changes      []ProposedChange `json:"proposed_changes"`
}
