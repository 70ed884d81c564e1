package validation

import (
	"sort"
	"strings"

	"briefcraft/internal/brief"
)

// ApplyReport summarizes a diff-application run.
type ApplyReport struct {
	Applied int
	Skipped int
}

// Apply performs the selected changes against the article text and returns
// the edited article. Changes are processed in descending paragraphIndex
// order so earlier edits cannot shift the text later edits target. Each
// change is a first-occurrence literal substitution of currentText with
// proposedText; if currentText is not unique the first match is replaced.
// Changes lacking either text field are inert and counted as skipped.
// An empty selected list selects every change.
func Apply(articleText string, changes []brief.ProposedChange, selected []string) (string, ApplyReport) {
	selectedSet := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		selectedSet[id] = struct{}{}
	}

	var toApply []brief.ProposedChange
	var report ApplyReport
	for _, c := range changes {
		if _, ok := selectedSet[c.ID]; len(selected) > 0 && !ok {
			continue
		}
		if !c.Applicable() {
			report.Skipped++
			continue
		}
		toApply = append(toApply, c)
	}

	sort.SliceStable(toApply, func(i, j int) bool {
		return paragraphIndex(toApply[i]) > paragraphIndex(toApply[j])
	})

	for _, c := range toApply {
		replaced := strings.Replace(articleText, c.CurrentText, c.ProposedText, 1)
		if replaced == articleText {
			report.Skipped++
			continue
		}
		articleText = replaced
		report.Applied++
	}

	return articleText, report
}

// paragraphIndex orders changes for application; changes without a
// location index sort last.
func paragraphIndex(c brief.ProposedChange) int {
	if c.Location.ParagraphIndex == nil {
		return -1
	}
	return *c.Location.ParagraphIndex
}
