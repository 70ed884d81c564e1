package brief

import (
	"fmt"
	"sort"
	"strings"
)

// KeywordEntry is one categorized keyword with placement notes.
type KeywordEntry struct {
	Keyword string `json:"keyword"`
	Notes   string `json:"notes,omitempty"`
}

// SuppliedKeyword is an externally provided keyword with its search volume.
// The supplied list is authoritative: the generated strategy must contain
// exactly these keywords and nothing else.
type SuppliedKeyword struct {
	Keyword string `json:"keyword"`
	Volume  int    `json:"volume"`
}

// KeywordStrategy is the stage-2 categorization of the supplied keywords.
type KeywordStrategy struct {
	Primary   []KeywordEntry `json:"primary_keywords"`
	Secondary []KeywordEntry `json:"secondary_keywords"`
}

// All returns every keyword string in the strategy, primary first.
func (ks *KeywordStrategy) All() []string {
	out := make([]string, 0, len(ks.Primary)+len(ks.Secondary))
	for _, e := range ks.Primary {
		out = append(out, e.Keyword)
	}
	for _, e := range ks.Secondary {
		out = append(out, e.Keyword)
	}
	return out
}

// VerifyKeywordIdentity checks that the union of primary and secondary
// keywords is exactly the supplied multiset: no additions, omissions, or
// renamings. A mismatch is a hard failure requiring regeneration; silent
// repair could mask prompt drift.
func VerifyKeywordIdentity(ks *KeywordStrategy, supplied []string) error {
	got := ks.All()
	if len(got) != len(supplied) {
		return fmt.Errorf("keyword identity violation: strategy has %d keywords, %d were supplied", len(got), len(supplied))
	}

	want := make([]string, len(supplied))
	copy(want, supplied)
	sort.Strings(want)
	sort.Strings(got)

	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("keyword identity violation: got %q where %q was expected", got[i], want[i])
		}
	}
	return nil
}

// FormatSuppliedKeywords renders the authoritative keyword+volume list for
// inclusion in the stage-2 prompt.
func FormatSuppliedKeywords(kws []SuppliedKeyword) string {
	var b strings.Builder
	for _, kw := range kws {
		fmt.Fprintf(&b, "- %s (monthly volume: %d)\n", kw.Keyword, kw.Volume)
	}
	return b.String()
}
