package brief

import "testing"

func TestParseStage(t *testing.T) {
	tests := []struct {
		input   string
		want    Stage
		wantErr bool
	}{
		{"goal", StageGoal, false},
		{"keywords", StageKeywords, false},
		{"competitor-insights", StageCompetitors, false},
		{"on-page-seo", StageOnPageSeo, false},
		{"1", StageGoal, false},
		{"7", StageOnPageSeo, false},
		{"0", 0, true},
		{"8", 0, true},
		{"nope", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseStage(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseStage(%q) expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStage(%q) returned %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStage(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestMarkDownstreamOnlyMarksForward(t *testing.T) {
	var ss StalenessSet
	ss.MarkDownstream(StageKeywords)

	for s := StageGoal; s <= StageKeywords; s++ {
		if ss.IsStale(s) {
			t.Errorf("stage %v should not be stale after regenerating keywords", s)
		}
	}
	for s := StageCompetitors; s <= StageOnPageSeo; s++ {
		if !ss.IsStale(s) {
			t.Errorf("stage %v should be stale after regenerating keywords", s)
		}
	}
}

func TestMarkDownstreamClearsOwnBit(t *testing.T) {
	var ss StalenessSet
	ss.MarkDownstream(StageGoal) // keywords..seo now stale

	// Regenerating a stale stage clears it and re-marks downstream.
	ss.MarkDownstream(StageGaps)
	if ss.IsStale(StageGaps) {
		t.Error("regenerated stage must not remain stale")
	}
	if !ss.IsStale(StageKeywords) || !ss.IsStale(StageCompetitors) {
		t.Error("upstream staleness must survive a downstream regeneration")
	}
	if !ss.IsStale(StageOutline) || !ss.IsStale(StageOnPageSeo) {
		t.Error("downstream stages must stay stale")
	}
}

func TestMarkDownstreamLastStage(t *testing.T) {
	var ss StalenessSet
	ss.MarkDownstream(StageOnPageSeo)
	if len(ss.Stale()) != 0 {
		t.Errorf("regenerating the last stage should mark nothing, got %v", ss.Stale())
	}
}

func TestStalenessIsMonotoneUnderRepeatedRegeneration(t *testing.T) {
	// Regenerating the same stage twice is a no-op the second time.
	var a, b StalenessSet
	a.MarkDownstream(StageCompetitors)
	b.MarkDownstream(StageCompetitors)
	b.MarkDownstream(StageCompetitors)
	if a != b {
		t.Errorf("repeated regeneration diverged: %08b vs %08b", a, b)
	}
}

func TestClear(t *testing.T) {
	var ss StalenessSet
	ss.MarkDownstream(StageGoal)

	ss.Clear(StageOutline)
	if ss.IsStale(StageOutline) {
		t.Error("Clear did not remove the bit")
	}
	if !ss.IsStale(StageFAQs) {
		t.Error("Clear must only affect the named stage")
	}
}

func TestDisplayOrderIsAPermutation(t *testing.T) {
	seen := map[Stage]bool{}
	for _, s := range DisplayOrder() {
		if seen[s] {
			t.Fatalf("stage %v repeated in display order", s)
		}
		seen[s] = true
	}
	if len(seen) != StageCount {
		t.Fatalf("display order has %d stages, want %d", len(seen), StageCount)
	}
	if DisplayOrder()[1] != StageCompetitors || DisplayOrder()[2] != StageKeywords {
		t.Error("keywords must display after competitor analysis")
	}
}

func TestHasStage(t *testing.T) {
	b := &Brief{}
	for _, s := range Stages() {
		if b.HasStage(s) {
			t.Errorf("empty brief should not have stage %v", s)
		}
	}

	b.SearchIntent = &SearchIntent{}
	if b.HasStage(StageGoal) {
		t.Error("goal stage needs both intent and page goal")
	}
	b.PageGoal = &PageGoal{}
	if !b.HasStage(StageGoal) {
		t.Error("goal stage should be complete")
	}

	b.FAQs = []FAQ{{Question: "q", Answer: "a"}}
	if !b.HasStage(StageFAQs) {
		t.Error("faq stage should be complete")
	}
}
