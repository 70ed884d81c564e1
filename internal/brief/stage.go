package brief

import "fmt"

// Stage identifies one of the seven logical generation stages. The logical
// order is the dependency order; the UI display order differs (the UI shows
// Keywords after Competitor Analysis, but Keywords is logical stage 2).
type Stage int

const (
	StageGoal        Stage = iota + 1 // search intent, page goal, audience
	StageKeywords                     // keyword strategy
	StageCompetitors                  // competitor insights
	StageGaps                         // content gap analysis
	StageOutline                      // article structure
	StageFAQs                         // FAQs
	StageOnPageSeo                    // on-page SEO metadata

	StageCount = 7
)

var stageNames = map[Stage]string{
	StageGoal:        "goal",
	StageKeywords:    "keywords",
	StageCompetitors: "competitor-insights",
	StageGaps:        "content-gaps",
	StageOutline:     "outline",
	StageFAQs:        "faqs",
	StageOnPageSeo:   "on-page-seo",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage-%d", int(s))
}

// Valid reports whether s is one of the seven defined stages.
func (s Stage) Valid() bool {
	return s >= StageGoal && s <= StageOnPageSeo
}

// ParseStage resolves a stage by name or 1-based index.
func ParseStage(name string) (Stage, error) {
	for s, n := range stageNames {
		if n == name {
			return s, nil
		}
	}
	var idx int
	if _, err := fmt.Sscanf(name, "%d", &idx); err == nil {
		s := Stage(idx)
		if s.Valid() {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", name)
}

// Stages returns all stages in logical (dependency) order.
func Stages() []Stage {
	out := make([]Stage, 0, StageCount)
	for s := StageGoal; s <= StageOnPageSeo; s++ {
		out = append(out, s)
	}
	return out
}

// DisplayOrder returns the stages in the order the UI presents them.
// Keywords is shown after competitor analysis even though it is logical
// stage 2.
func DisplayOrder() []Stage {
	return []Stage{
		StageGoal,
		StageCompetitors,
		StageKeywords,
		StageGaps,
		StageOutline,
		StageFAQs,
		StageOnPageSeo,
	}
}

// StalenessSet tracks which stages are stale relative to an upstream
// regeneration. The zero value is an empty set.
type StalenessSet uint8

// IsStale reports whether stage s is marked stale.
func (ss StalenessSet) IsStale(s Stage) bool {
	return ss&(1<<uint(s-1)) != 0
}

// MarkDownstream marks every stage with a logical index greater than s as
// stale and clears s itself. Propagation is strictly forward: no other
// stage's bit changes.
func (ss *StalenessSet) MarkDownstream(s Stage) {
	for j := s + 1; j <= StageOnPageSeo; j++ {
		*ss |= 1 << uint(j-1)
	}
	ss.Clear(s)
}

// Clear removes the staleness bit for s. Only an explicit regeneration of
// the stale stage itself clears its bit.
func (ss *StalenessSet) Clear(s Stage) {
	*ss &^= 1 << uint(s-1)
}

// Stale returns the stale stages in logical order.
func (ss StalenessSet) Stale() []Stage {
	var out []Stage
	for _, s := range Stages() {
		if ss.IsStale(s) {
			out = append(out, s)
		}
	}
	return out
}
