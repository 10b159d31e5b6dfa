package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// BodyKind enumerates the shapes a request or response body can take.
type BodyKind int

const (
	BodyAbsent BodyKind = iota
	BodyText
	BodyStructured
	BodyBytes
)

func (k BodyKind) String() string {
	switch k {
	case BodyText:
		return "text"
	case BodyStructured:
		return "structured"
	case BodyBytes:
		return "bytes"
	default:
		return "absent"
	}
}

// Body is a closed union over the body shapes the relay understands.
// Exactly one of Text, JSON or Bytes is meaningful, selected by Kind.
type Body struct {
	Kind  BodyKind
	Text  string
	JSON  json.RawMessage
	Bytes []byte
}

// TextBody returns a text body.
func TextBody(s string) Body { return Body{Kind: BodyText, Text: s} }

// StructuredBody returns a body holding an already-encoded JSON value.
func StructuredBody(raw json.RawMessage) Body { return Body{Kind: BodyStructured, JSON: raw} }

// BytesBody returns a binary body.
func BytesBody(b []byte) Body { return Body{Kind: BodyBytes, Bytes: b} }

// EmptyObject returns the structured body {}.
func EmptyObject() Body { return StructuredBody(json.RawMessage(`{}`)) }

// IsAbsent reports whether no body was supplied.
func (b Body) IsAbsent() bool { return b.Kind == BodyAbsent }

// IsFalsy reports whether the body is absent or one of the JSON values
// "", 0, false, null.
func (b Body) IsFalsy() bool {
	switch b.Kind {
	case BodyAbsent:
		return true
	case BodyText:
		return b.Text == ""
	case BodyStructured:
		raw := bytes.TrimSpace(b.JSON)
		switch string(raw) {
		case "", "null", "false":
			return true
		}
		if f, err := strconv.ParseFloat(string(raw), 64); err == nil && f == 0 {
			return true
		}
		return false
	case BodyBytes:
		return len(b.Bytes) == 0
	}
	return true
}

// IsContainer reports whether the body is a JSON object or array.
func (b Body) IsContainer() bool {
	if b.Kind != BodyStructured {
		return false
	}
	raw := bytes.TrimSpace(b.JSON)
	return len(raw) > 0 && (raw[0] == '{' || raw[0] == '[')
}

// Value returns the body as a value suitable for JSON encoding:
// a json.RawMessage, a string, or nil.
func (b Body) Value() any {
	switch b.Kind {
	case BodyText:
		return b.Text
	case BodyStructured:
		return b.JSON
	case BodyBytes:
		return string(bytes.ToValidUTF8(b.Bytes, []byte("\uFFFD")))
	}
	return nil
}

// UnmarshalJSON decodes a caller-supplied body. JSON strings become text,
// null becomes absent, everything else is kept as compact structured JSON.
func (b *Body) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	switch {
	case len(raw) == 0 || string(raw) == "null":
		*b = Body{}
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("decode text body: %w", err)
		}
		*b = TextBody(s)
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return fmt.Errorf("decode body: %w", err)
		}
		*b = StructuredBody(buf.Bytes())
	}
	return nil
}

// MarshalJSON encodes the body as its JSON value.
func (b Body) MarshalJSON() ([]byte, error) {
	switch b.Kind {
	case BodyStructured:
		return b.JSON, nil
	case BodyAbsent:
		return []byte("null"), nil
	}
	return json.Marshal(b.Value())
}

// DecodeResponseBody classifies an upstream payload. JSON objects and arrays
// become structured, valid UTF-8 becomes text, anything else stays binary.
func DecodeResponseBody(payload []byte) Body {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') && json.Valid(trimmed) {
		return StructuredBody(append(json.RawMessage(nil), trimmed...))
	}
	if utf8.Valid(payload) {
		return TextBody(string(payload))
	}
	return BytesBody(payload)
}
