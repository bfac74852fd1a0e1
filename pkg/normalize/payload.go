package normalize

import (
	"encoding/json"
	"fmt"
)

// coercePayload flattens an already-deserialized vendor payload into one
// canonical nested map through a JSON round-trip, so validation and the
// document walk never probe per-field for attribute-vs-key access. It
// accepts native SDK response structs, plain maps, or pre-encoded JSON
// ([]byte / json.RawMessage / string). The returned raw message is the
// JSON-safe form embedded in the canonical record ([]byte fields become
// base64 per encoding/json).
func coercePayload(raw any) (map[string]any, json.RawMessage, error) {
	var encoded []byte
	switch v := raw.(type) {
	case nil:
		return nil, nil, fmt.Errorf("nil payload")
	case json.RawMessage:
		encoded = v
	case []byte:
		encoded = v
	case string:
		encoded = []byte(v)
	default:
		var err error
		encoded, err = json.Marshal(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("payload is not JSON-representable: %w", err)
		}
	}
	if !json.Valid(encoded) {
		return nil, nil, fmt.Errorf("payload is not valid JSON")
	}
	var doc map[string]any
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return nil, nil, fmt.Errorf("payload is not a JSON object: %w", err)
	}
	return doc, json.RawMessage(encoded), nil
}

// Accessors over the coerced map. All tolerate missing keys and wrong
// types by returning zero values.

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func num(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func intField(m map[string]any, key string) (int, bool) {
	f, ok := num(m, key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func strSlice(v any) []string {
	items := asSlice(v)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
