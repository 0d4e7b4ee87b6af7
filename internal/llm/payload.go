package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoGenerations reports a list body that carries no generated text.
var ErrNoGenerations = errors.New("HF API returned no generations")

// PayloadKind tags the shape of a successful inference API response.
type PayloadKind int

const (
	// PayloadGenerations is a list of generations: [{"generated_text": "..."}].
	PayloadGenerations PayloadKind = iota
	// PayloadError is an object carrying an "error" field.
	PayloadError
	// PayloadText is a bare JSON string.
	PayloadText
	// PayloadRaw is any other JSON value, kept as its compact JSON text.
	PayloadRaw
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadGenerations:
		return "generations"
	case PayloadError:
		return "error"
	case PayloadText:
		return "text"
	default:
		return "raw"
	}
}

// Payload is the decoded body of a 200 response. Text holds the generated
// text, or the error message when Kind is PayloadError.
type Payload struct {
	Kind PayloadKind
	Text string
}

// DecodePayload classifies an inference API body. The API answers with
// different shapes depending on the model and its state, so all four kinds
// are accepted. Invalid JSON is an error, and so is a list whose first
// element has no generated_text.
func DecodePayload(body []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return Payload{}, fmt.Errorf("invalid JSON payload")
	}

	switch trimmed[0] {
	case '[':
		var generations []map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &generations); err != nil || len(generations) == 0 {
			return Payload{}, ErrNoGenerations
		}
		raw, ok := generations[0]["generated_text"]
		if !ok {
			return Payload{}, ErrNoGenerations
		}
		return Payload{Kind: PayloadGenerations, Text: coerceString(raw)}, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err == nil {
			if raw, ok := obj["error"]; ok {
				return Payload{Kind: PayloadError, Text: coerceString(raw)}, nil
			}
		}
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return Payload{Kind: PayloadText, Text: s}, nil
		}
	}

	return Payload{Kind: PayloadRaw, Text: compactJSON(trimmed)}, nil
}

// coerceString returns a JSON string's value, or the compact JSON text of any
// other value.
func coerceString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return compactJSON(raw)
}

func compactJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
