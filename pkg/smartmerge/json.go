package smartmerge

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// ParseJSON attempts to decode s as a JSON document. Numbers are kept as
// json.Number so they re-serialize verbatim. A document that is JSON null,
// or that has trailing data, is reported as not JSON.
func ParseJSON(s string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	if v == nil {
		return nil, false
	}
	return v, true
}

// ParseJSONObject decodes s as a JSON object.
func ParseJSONObject(s string) (map[string]any, bool) {
	v, ok := ParseJSON(s)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// Canonical serializes v as compact JSON with sorted object keys and no
// HTML escaping.
func Canonical(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// canonicalOr serializes v, falling back to fallback if v cannot be encoded.
func canonicalOr(v any, fallback string) String {
	s, err := Canonical(v)
	if err != nil {
		return String(fallback)
	}
	return String(s)
}
