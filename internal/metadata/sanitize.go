package metadata

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Sanitize normalizes extracted metadata so it is safe to serialize into a
// JSON payload. For every value it strips NUL and other C0 control
// characters (tab, newline and carriage return survive) and replaces
// invalid UTF-8 sequences with U+FFFD. Sanitize is total: it never fails,
// whatever camera firmware produced the input.
func Sanitize(raw map[string]string) map[string]string {
	clean := make(map[string]string, len(raw))
	for k, v := range raw {
		clean[sanitizeString(k)] = sanitizeString(v)
	}
	return clean
}

func sanitizeString(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	if !strings.ContainsFunc(s, isStrippedControl) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isStrippedControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isStrippedControl(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return r < 0x20 || r == 0x7f
}

// EncodeJSON serializes an already-sanitized metadata map. If the marshal
// still fails, it retries with each offending value replaced by a marker
// naming what could not be encoded, so a single hostile tag never loses
// the whole record.
func EncodeJSON(meta map[string]string) ([]byte, error) {
	payload, err := json.Marshal(meta)
	if err == nil {
		return payload, nil
	}

	retry := make(map[string]string, len(meta))
	for k, v := range meta {
		if _, valErr := json.Marshal(v); valErr != nil {
			retry[k] = fmt.Sprintf("<unencodable: %v>", valErr)
			continue
		}
		retry[k] = v
	}
	payload, retryErr := json.Marshal(retry)
	if retryErr != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return payload, nil
}
