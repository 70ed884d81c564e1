package generation

import (
	"regexp"
	"strings"
)

// Models occasionally wrap structured output in markdown fences or emit
// trailing commas even when a response schema was requested. These patterns
// recover the JSON payload before parsing.
var (
	jsonFencePattern      = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	jsonObjectPattern     = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	jsonArrayFencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\[.*\\])\\s*```")
	jsonArrayPattern      = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
	trailingCommaPattern  = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON pulls a JSON object out of model output, handling markdown
// fences and trailing commas. Returns "" when no object is found.
func ExtractJSON(content string) string {
	if m := jsonFencePattern.FindStringSubmatch(content); len(m) > 1 {
		return cleanJSON(m[1])
	}
	if m := jsonObjectPattern.FindString(content); m != "" {
		return cleanJSON(m)
	}
	return ""
}

// ExtractJSONArray pulls a JSON array out of model output.
func ExtractJSONArray(content string) string {
	if m := jsonArrayFencePattern.FindStringSubmatch(content); len(m) > 1 {
		return cleanJSON(m[1])
	}
	if m := jsonArrayPattern.FindString(content); m != "" {
		return cleanJSON(m)
	}
	return ""
}

func cleanJSON(raw string) string {
	return strings.TrimSpace(trailingCommaPattern.ReplaceAllString(raw, "$1"))
}
