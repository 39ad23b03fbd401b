package exclude

import (
	"testing"

	"photark/internal/logging"
)

// recordLogger captures events so tests can assert on diagnostics.
type recordLogger struct {
	events []string
}

func (l *recordLogger) Log(_ logging.Level, msg string, _ string, _ map[string]any) {
	l.events = append(l.events, msg)
}

func TestExcluded(t *testing.T) {
	m := Default()

	tests := []struct {
		name string
		want bool
	}{
		// Pattern matches, case-insensitive.
		{"3StarQ70", true},
		{"5starq90", true},
		{"$RECYCLE.BIN", true},
		{"$recycle.bin", true},
		{"System Volume Information", true},
		{"node_modules", true},
		{"Thumbs.db", true},
		// Hidden-directory rule, independent of the pattern list.
		{".git", true},
		{".cache", true},
		{".anything-at-all", true},
		// Plain photo directories pass through.
		{"2023-06 Holiday", false},
		{"RAW", false},
		{"exports", false},
		{"Old RECYCLER copy", false}, // glob anchors at the start, not substring
	}
	for _, tt := range tests {
		if got := m.Excluded(tt.name); got != tt.want {
			t.Errorf("Excluded(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestExcludedCustomPatterns(t *testing.T) {
	m := New([]string{"backup*"}, logging.Discard{})

	if !m.Excluded("Backup-2021") {
		t.Error("custom pattern should match case-insensitively")
	}
	if m.Excluded("3StarQ70") {
		t.Error("default patterns must not apply when a custom list is given")
	}
	if !m.Excluded(".hidden") {
		t.Error("hidden rule must hold regardless of the pattern list")
	}
}

func TestInvalidPatternSkipped(t *testing.T) {
	log := &recordLogger{}
	m := New([]string{"[", "keepme*"}, log)

	if !m.Excluded("keepme-please") {
		t.Error("valid pattern after an invalid one should still match")
	}
	if m.Excluded("plain") {
		t.Error("invalid pattern must not match anything")
	}
	if len(log.events) != 1 || log.events[0] != "ignoring invalid exclusion pattern" {
		t.Errorf("expected one warning through the logger, got %v", log.events)
	}
}
