package metadata

import (
	"encoding/json"
	"testing"
)

func TestSanitizeStripsControlCharacters(t *testing.T) {
	raw := map[string]string{
		"Make":  "Can\x00on",
		"Model": "EOS\x01 R5\x1f",
		"Notes": "line1\nline2\ttabbed\r",
	}
	clean := Sanitize(raw)

	if got := clean["Make"]; got != "Canon" {
		t.Errorf("NUL byte not stripped: %q", got)
	}
	if got := clean["Model"]; got != "EOS R5" {
		t.Errorf("control characters not stripped: %q", got)
	}
	if got := clean["Notes"]; got != "line1\nline2\ttabbed\r" {
		t.Errorf("tab/newline/CR must be preserved, got %q", got)
	}
}

func TestSanitizeReplacesInvalidUTF8(t *testing.T) {
	// A bare 0xff byte is never valid UTF-8.
	raw := map[string]string{"Comment": "ok\xffbad"}
	clean := Sanitize(raw)

	got := clean["Comment"]
	if got == raw["Comment"] {
		t.Fatal("invalid UTF-8 passed through unchanged")
	}
	if got != "ok�bad" {
		t.Errorf("expected replacement character, got %q", got)
	}
}

func TestSanitizeIsTotal(t *testing.T) {
	// Hostile mix: invalid encoding plus every kind of control byte.
	raw := map[string]string{
		"\x00key": "\x80\x81\x02\x03value\x7f",
		"":        "",
	}
	clean := Sanitize(raw)
	if len(clean) != len(raw) {
		t.Fatalf("sanitize dropped entries: got %d, want %d", len(clean), len(raw))
	}
	for k, v := range clean {
		if _, err := json.Marshal(map[string]string{k: v}); err != nil {
			t.Errorf("sanitized pair %q=%q not JSON-safe: %v", k, v, err)
		}
	}
}

func TestEncodeJSONRoundTrips(t *testing.T) {
	meta := Sanitize(map[string]string{
		"Make":     "Nikon\x00",
		"Comment":  "caf\xe9", // latin-1, invalid as UTF-8
		"Keywords": "holiday, beach",
	})
	payload, err := EncodeJSON(meta)
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}

	var decoded map[string]string
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if decoded["Make"] != "Nikon" {
		t.Errorf("Make: got %q", decoded["Make"])
	}
	if decoded["Keywords"] != "holiday, beach" {
		t.Errorf("Keywords: got %q", decoded["Keywords"])
	}
}
