package brief

import "encoding/json"

// StripReasoning removes every key literally named "reasoning" at any depth
// of a decoded JSON value and leaves everything else untouched. Callers use
// it to produce the compact brief shipped to downstream prompts.
func StripReasoning(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if k == "reasoning" {
				continue
			}
			out[k] = StripReasoning(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = StripReasoning(val)
		}
		return out
	default:
		return v
	}
}

// StripReasoningJSON applies StripReasoning to a raw JSON document.
func StripReasoningJSON(data []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.Marshal(StripReasoning(v))
}

// CompactJSON marshals v and strips reasoning keys in one step. It is the
// standard way prior-stage context is embedded into prompts.
func CompactJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	out, err := StripReasoningJSON(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
