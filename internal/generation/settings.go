package generation

import "strings"

// Tier selects between the main reasoning model and the fast model.
type Tier string

const (
	TierMain Tier = "main"
	TierFast Tier = "fast"
)

// Effort is the requested thinking depth for a generation call.
type Effort string

const (
	EffortHigh    Effort = "high"
	EffortMedium  Effort = "medium"
	EffortLow     Effort = "low"
	EffortMinimal Effort = "minimal"
)

// effortBudgets maps effort to a thinking-token budget.
var effortBudgets = map[Effort]int{
	EffortHigh:    24576,
	EffortMedium:  8192,
	EffortLow:     2048,
	EffortMinimal: 1024,
}

// Budget resolves the thinking budget for a tier. Minimal is only legal on
// the fast tier; on the main tier it is silently upgraded to low.
func (e Effort) Budget(tier Tier) int {
	eff := e
	if eff == EffortMinimal && tier == TierMain {
		eff = EffortLow
	}
	if b, ok := effortBudgets[eff]; ok {
		return b
	}
	return effortBudgets[EffortMedium]
}

// Settings are the per-session model settings threaded explicitly through
// every orchestration call. There is no process-wide mutable default.
type Settings struct {
	MainModel       string  `yaml:"main_model" json:"main_model"`
	FastModel       string  `yaml:"fast_model" json:"fast_model"`
	Temperature     float64 `yaml:"temperature" json:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens" json:"max_output_tokens"`
}

// DefaultSettings returns the stock model configuration.
func DefaultSettings() Settings {
	return Settings{
		MainModel:       "gemini-2.5-pro",
		FastModel:       "gemini-2.5-flash",
		Temperature:     1.0,
		MaxOutputTokens: 65536,
	}
}

// ModelFor resolves the model name for a tier.
func (s Settings) ModelFor(tier Tier) string {
	if tier == TierFast {
		return s.FastModel
	}
	return s.MainModel
}

// SupportsThinking reports whether the model accepts a variable reasoning
// budget. The thinking config is only attached for such models.
func SupportsThinking(model string) bool {
	m := strings.ToLower(model)
	return strings.Contains(m, "gemini-2.5") || strings.Contains(m, "gemini-3")
}
