package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StateError represents an error that occurred while loading a state
// file.
type StateError struct {
	Code    string
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadStateFile reads a YAML (or JSON, which YAML subsumes) mapping
// from path and normalizes it for the evaluator: integer scalars
// become float64 so that arithmetic and equality behave like the
// expression grammar expects.
func LoadStateFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StateError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading state file: %v", err)}
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &StateError{Code: ErrCodeBadState, Message: fmt.Sprintf("parsing state file: %v", err)}
	}
	if raw == nil {
		return map[string]any{}, nil
	}

	normalized := normalizeValue(raw)
	state, ok := normalized.(map[string]any)
	if !ok {
		return nil, &StateError{Code: ErrCodeBadState, Message: fmt.Sprintf("state file must contain a mapping, got %T", raw)}
	}
	return state, nil
}

// normalizeValue rewrites a decoded YAML tree into evaluator-native
// shapes: string-keyed maps, []any slices, float64 numbers.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprintf("%v", k)] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	default:
		return val
	}
}
