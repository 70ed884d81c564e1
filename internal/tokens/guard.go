// Package tokens estimates and bounds the size of text payloads before
// they reach the generation backend.
package tokens

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// TruncationMarker is appended to any full-text field that was shortened.
const TruncationMarker = "\n[... truncated for length ...]"

// charsPerToken is the length/4 estimation heuristic.
const charsPerToken = 4

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	return len(text) / charsPerToken
}

// Guard checks and truncates payloads against token budgets.
type Guard struct {
	logger *zap.Logger
}

// NewGuard creates a budget guard.
func NewGuard(logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{logger: logger}
}

// CheckBudget reports whether text exceeds the hard token limit. Crossing
// warnAt emits a warning, crossing hardLimit emits an error; the check
// itself never fails.
func (g *Guard) CheckBudget(label, text string, warnAt, hardLimit int) bool {
	est := EstimateTokens(text)
	switch {
	case hardLimit > 0 && est > hardLimit:
		g.logger.Error("payload over hard token limit",
			zap.String("label", label),
			zap.Int("estimated_tokens", est),
			zap.Int("hard_limit", hardLimit))
		return true
	case warnAt > 0 && est > warnAt:
		g.logger.Warn("payload approaching token limit",
			zap.String("label", label),
			zap.Int("estimated_tokens", est),
			zap.Int("warn_at", warnAt))
	}
	return false
}

// competitorRecord mirrors just enough of the competitor wire schema to
// rewrite the Full_Text field while round-tripping everything else.
type competitorRecord map[string]json.RawMessage

// Truncate bounds a JSON array of competitor records to roughly maxTokens
// by shrinking each record's Full_Text proportionally to
// maxTokens/estimatedTokens, preserving the record count and appending a
// truncation marker. On JSON parse failure it falls back to character-level
// truncation of the raw payload. Truncating an already-short payload is a
// no-op, so the operation is idempotent.
func (g *Guard) Truncate(payload string, maxTokens int) string {
	est := EstimateTokens(payload)
	if maxTokens <= 0 || est <= maxTokens {
		return payload
	}
	ratio := float64(maxTokens) / float64(est)

	var records []competitorRecord
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		g.logger.Warn("truncate: payload is not a JSON array, falling back to raw truncation",
			zap.Error(err))
		return payload[:clampToRune(payload, maxTokens*charsPerToken)] + TruncationMarker
	}

	for _, rec := range records {
		raw, ok := rec["Full_Text"]
		if !ok {
			continue
		}
		var fullText string
		if err := json.Unmarshal(raw, &fullText); err != nil {
			continue
		}
		// A marker means a previous pass already bounded this record.
		if strings.HasSuffix(fullText, TruncationMarker) {
			continue
		}
		keep := clampToRune(fullText, int(float64(len(fullText))*ratio))
		if keep >= len(fullText) {
			continue
		}
		truncated, err := json.Marshal(fullText[:keep] + TruncationMarker)
		if err != nil {
			continue
		}
		rec["Full_Text"] = truncated
	}

	out, err := json.Marshal(records)
	if err != nil {
		return payload[:clampToRune(payload, maxTokens*charsPerToken)] + TruncationMarker
	}

	g.logger.Info("competitor payload truncated",
		zap.Int("records", len(records)),
		zap.Int("estimated_tokens", est),
		zap.Int("max_tokens", maxTokens))
	return string(out)
}

// clampToRune backs a cut index up to the nearest rune start so a slice
// at that index never splits a multi-byte character.
func clampToRune(s string, i int) int {
	if i >= len(s) {
		return len(s)
	}
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
