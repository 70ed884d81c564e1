package tokens

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abcd", 1},
		{"abcdefg", 1},
		{"abcdefgh", 2},
		{strings.Repeat("x", 4000), 1000},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%d chars) = %d, want %d", len(tt.text), got, tt.want)
		}
	}
}

func TestCheckBudget(t *testing.T) {
	g := NewGuard(nil)

	small := strings.Repeat("x", 400) // ~100 tokens
	if g.CheckBudget("test", small, 1000, 2000) {
		t.Error("payload under both limits must pass")
	}
	warn := strings.Repeat("x", 6000) // ~1500 tokens
	if g.CheckBudget("test", warn, 1000, 2000) {
		t.Error("payload between warn and hard limit must still pass")
	}
	over := strings.Repeat("x", 10000) // ~2500 tokens
	if !g.CheckBudget("test", over, 1000, 2000) {
		t.Error("payload over the hard limit must be flagged")
	}
	if g.CheckBudget("test", over, 0, 0) {
		t.Error("zero limits disable the check")
	}
}

func competitorPayload(fullTextLen int, records int) string {
	recs := make([]map[string]any, records)
	for i := range recs {
		recs[i] = map[string]any{
			"URL":        "https://example.com",
			"Word_Count": fullTextLen / 5,
			"H1s":        []string{"Title"},
			"Full_Text":  strings.Repeat("a", fullTextLen),
		}
	}
	data, _ := json.Marshal(recs)
	return string(data)
}

func TestTruncateNoOpUnderBudget(t *testing.T) {
	g := NewGuard(nil)
	payload := competitorPayload(100, 2)
	if got := g.Truncate(payload, 100_000); got != payload {
		t.Error("payload under budget must be returned unchanged")
	}
}

func TestTruncateShrinksProportionally(t *testing.T) {
	g := NewGuard(nil)
	payload := competitorPayload(40_000, 3)
	est := EstimateTokens(payload)
	maxTokens := est / 3

	out := g.Truncate(payload, maxTokens)

	var records []map[string]any
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("truncated payload is not valid JSON: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("record count changed: %d", len(records))
	}
	for i, rec := range records {
		ft, _ := rec["Full_Text"].(string)
		if !strings.HasSuffix(ft, TruncationMarker) {
			t.Errorf("record %d missing truncation marker", i)
		}
		// Kept text should be near ratio * original length.
		kept := len(ft) - len(TruncationMarker)
		wantKeep := 40_000 / 3
		if kept < wantKeep-1000 || kept > wantKeep+1000 {
			t.Errorf("record %d kept %d chars, want about %d", i, kept, wantKeep)
		}
		if rec["URL"] != "https://example.com" {
			t.Errorf("record %d lost non-text fields", i)
		}
	}
	if EstimateTokens(out) > est {
		t.Error("truncation increased payload size")
	}
}

func TestTruncateIdempotent(t *testing.T) {
	g := NewGuard(nil)
	payload := competitorPayload(40_000, 2)
	maxTokens := EstimateTokens(payload) / 2

	once := g.Truncate(payload, maxTokens)
	twice := g.Truncate(once, maxTokens)
	if once != twice {
		t.Error("truncating an already-truncated payload must be a no-op")
	}
}

func TestTruncateFallbackOnInvalidJSON(t *testing.T) {
	g := NewGuard(nil)
	payload := strings.Repeat("not json ", 10_000)
	maxTokens := 100

	out := g.Truncate(payload, maxTokens)
	if !strings.HasSuffix(out, TruncationMarker) {
		t.Error("fallback truncation must append the marker")
	}
	if len(out) != maxTokens*4+len(TruncationMarker) {
		t.Errorf("fallback kept %d chars, want %d", len(out)-len(TruncationMarker), maxTokens*4)
	}
}

func TestTruncateMultiByteTextStaysValidUTF8(t *testing.T) {
	g := NewGuard(nil)
	recs := []map[string]any{
		{"URL": "https://a.example", "Word_Count": 10_000, "Full_Text": strings.Repeat("güteklassen ", 10_000)},
	}
	data, _ := json.Marshal(recs)

	out := g.Truncate(string(data), EstimateTokens(string(data))/4)
	if !utf8.ValidString(out) {
		t.Fatal("truncated payload contains invalid UTF-8")
	}

	var got []map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("truncated payload is not valid JSON: %v", err)
	}
	fullText := got[0]["Full_Text"].(string)
	if !utf8.ValidString(fullText) {
		t.Error("truncated full text contains invalid UTF-8")
	}
	if !strings.HasSuffix(fullText, TruncationMarker) {
		t.Error("truncated full text must end with the marker")
	}
}

func TestTruncateFallbackMultiByteStaysValidUTF8(t *testing.T) {
	g := NewGuard(nil)
	// 3-byte runes, so the naive cut at maxTokens*4 bytes lands mid-rune.
	payload := strings.Repeat("日", 10_000)

	out := g.Truncate(payload, 100)
	if !utf8.ValidString(out) {
		t.Error("fallback truncation must not split a rune")
	}
	if !strings.HasSuffix(out, TruncationMarker) {
		t.Error("fallback truncation must append the marker")
	}
}

func TestClampToRune(t *testing.T) {
	s := "a日b" // bytes: a=0, 日=1..3, b=4
	tests := []struct{ in, want int }{
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 1},
		{4, 4},
		{5, 5},
		{9, 5},
	}
	for _, tt := range tests {
		if got := clampToRune(s, tt.in); got != tt.want {
			t.Errorf("clampToRune(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTruncateRecordsWithoutFullText(t *testing.T) {
	g := NewGuard(nil)
	recs := []map[string]any{
		{"URL": "https://a.example", "H1s": []string{"PARSE_FAILED"}, "Word_Count": 0, "Full_Text": strings.Repeat("b", 50_000)},
		{"URL": "https://b.example", "Word_Count": 10},
	}
	data, _ := json.Marshal(recs)

	out := g.Truncate(string(data), EstimateTokens(string(data))/4)

	var got []map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("record count changed: %d", len(got))
	}
	if _, ok := got[1]["Full_Text"]; ok {
		t.Error("record without Full_Text gained the field")
	}
}
