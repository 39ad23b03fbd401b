package scan

import (
	"context"
	"errors"
	"fmt"
	"os"

	"photark/internal/logging"
)

// RunTarget is one resolved scan target, as supplied by the configuration
// collaborator.
type RunTarget struct {
	Path        string
	Group       string
	Description string
	Category    string
	Recursive   bool
}

// Run scans every target under the scanner's single session and returns
// the total number of successfully processed files. Targets that do not
// exist (or stopped being directories) are skipped with a warning, since
// configured paths routinely point at unmounted volumes. The final
// aggregated report is always emitted, even after cancellation.
func Run(ctx context.Context, s *Scanner, targets []RunTarget) (int64, error) {
	defer s.Stats().ReportFinal()

	var total int64
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		info, err := os.Stat(t.Path)
		if err != nil || !info.IsDir() {
			s.log.Log(logging.LevelWarn, "target directory not found, skipping", t.Path,
				map[string]any{"group": t.Group})
			continue
		}

		s.log.Log(logging.LevelInfo,
			fmt.Sprintf("scanning target %s (%s)", t.Path, t.Description), t.Path,
			map[string]any{"group": t.Group, "category": t.Category})

		count, err := s.Scan(ctx, t.Path, t.Recursive, t.Category)
		total += count
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return total, err
			}
			// Target-scoped failure: the remaining targets still get scanned.
			s.log.Log(logging.LevelError, "target scan failed", t.Path,
				map[string]any{"error": err.Error()})
		}
	}
	return total, nil
}
