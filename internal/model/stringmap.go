package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StringMap is a string-to-string mapping decoded leniently from JSON:
// numbers and booleans keep their literal text, nested values are kept as
// compact JSON, and null entries are dropped.
type StringMap map[string]string

// UnmarshalJSON implements json.Unmarshaler.
func (m *StringMap) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data)
	if err != nil || raw == nil {
		*m = nil
		return err
	}

	out := make(StringMap, len(raw))
	for k, v := range raw {
		s, ok, err := scalarText(v)
		if err != nil {
			return fmt.Errorf("value for %q: %w", k, err)
		}
		if ok {
			out[k] = s
		}
	}
	*m = out
	return nil
}

// Query holds query parameters. It decodes like StringMap, except that an
// array value becomes one entry per element so the key repeats on the wire.
type Query map[string][]string

// UnmarshalJSON implements json.Unmarshaler.
func (q *Query) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data)
	if err != nil || raw == nil {
		*q = nil
		return err
	}

	out := make(Query, len(raw))
	for k, v := range raw {
		v = bytes.TrimSpace(v)
		if len(v) > 0 && v[0] == '[' {
			var items []json.RawMessage
			if err := json.Unmarshal(v, &items); err != nil {
				return fmt.Errorf("value for %q: %w", k, err)
			}
			for _, item := range items {
				s, ok, err := scalarText(item)
				if err != nil {
					return fmt.Errorf("value for %q: %w", k, err)
				}
				if ok {
					out[k] = append(out[k], s)
				}
			}
			continue
		}

		s, ok, err := scalarText(v)
		if err != nil {
			return fmt.Errorf("value for %q: %w", k, err)
		}
		if ok {
			out[k] = append(out[k], s)
		}
	}
	*q = out
	return nil
}

// decodeObject returns nil, nil for a JSON null.
func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("expected an object of string values: %w", err)
	}
	if raw == nil {
		raw = map[string]json.RawMessage{}
	}
	return raw, nil
}

// scalarText renders one JSON value as text. ok is false for null.
func scalarText(v json.RawMessage) (text string, ok bool, err error) {
	v = bytes.TrimSpace(v)
	switch {
	case string(v) == "null":
		return "", false, nil
	case len(v) > 0 && v[0] == '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", false, err
		}
		return s, true, nil
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return "", false, err
		}
		return buf.String(), true, nil
	}
}
