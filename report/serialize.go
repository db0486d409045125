package report

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// Envelope wraps a record on line-oriented transports.
type Envelope struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalSelection serialises a Selection to JSON.
func MarshalSelection(s *Selection) ([]byte, error) {
	return json.Marshal(s)
}

// MarshalOutline serialises an Outline to JSON.
func MarshalOutline(o *Outline) ([]byte, error) {
	return json.Marshal(o)
}

// Decode reads one envelope and returns its record, either a *Selection
// or an *Outline.
func Decode(line []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("report: decode envelope: %w", err)
	}
	var v any
	switch env.Type {
	case KindSelection:
		v = new(Selection)
	case KindOutline:
		v = new(Outline)
	default:
		return nil, fmt.Errorf("report: unknown record type %q", env.Type)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return nil, fmt.Errorf("report: decode %s: %w", env.Type, err)
	}
	return v, nil
}

// HashHTML returns the SHA-256 hex digest of raw HTML bytes.
func HashHTML(html []byte) string {
	h := sha256.Sum256(html)
	return fmt.Sprintf("%x", h)
}
