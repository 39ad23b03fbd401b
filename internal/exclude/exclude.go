// Package exclude decides which directory names are pruned from traversal.
package exclude

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"photark/internal/logging"
)

// DefaultPatterns prunes editor export trees, VCS metadata, OS trash and
// other directories that never hold originals worth indexing.
var DefaultPatterns = []string{
	"*StarQ*", // Lightroom export directories
	"$RECYCLE.BIN*",
	"System Volume Information*",
	"RECYCLER*",
	".Trash*",
	".DS_Store*",
	"Thumbs.db*",
	"desktop.ini*",
	".git*",
	"__pycache__*",
	"node_modules*",
	".svn*",
	".hg*",
}

// Matcher answers whether a directory basename should be pruned. Matching
// is case-insensitive glob matching over the configured pattern list; any
// name starting with "." is excluded unconditionally, independent of the
// patterns. A Matcher has no side effects and is safe for concurrent use.
type Matcher struct {
	patterns []string // pre-lowercased
}

// New builds a Matcher from patterns. Patterns that fail to parse as globs
// are dropped with a warning through log rather than failing construction.
func New(patterns []string, log logging.Logger) *Matcher {
	m := &Matcher{patterns: make([]string, 0, len(patterns))}
	for _, p := range patterns {
		lower := strings.ToLower(p)
		if !doublestar.ValidatePattern(lower) {
			log.Log(logging.LevelWarn, "ignoring invalid exclusion pattern", "",
				map[string]any{"pattern": p})
			continue
		}
		m.patterns = append(m.patterns, lower)
	}
	return m
}

// Default returns a Matcher over DefaultPatterns.
func Default() *Matcher {
	return New(DefaultPatterns, logging.NewSlog(nil))
}

// Excluded reports whether the directory basename name should be pruned.
// The walker must not descend into an excluded directory nor process its
// files; the entire subtree is skipped.
func (m *Matcher) Excluded(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	lower := strings.ToLower(name)
	for _, p := range m.patterns {
		// Patterns are validated in New, so Match cannot fail here.
		if ok, _ := doublestar.Match(p, lower); ok {
			return true
		}
	}
	return false
}
