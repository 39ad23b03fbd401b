package scan

import (
	"context"
	"path/filepath"
	"testing"

	"photark/internal/exclude"
	"photark/internal/logging"
)

func newRunScanner(st *memStore, log logging.Logger) *Scanner {
	return New(st, log, &stubExtractor{meta: map[string]string{"Make": "Canon"}},
		exclude.Default(), NewStats(log, 0), NewSession(), 1)
}

func TestRunEmitsFinalReportExactlyOnce(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a.jpg"))

	log := &memLogger{}
	total, err := Run(context.Background(), newRunScanner(newMemStore(), log),
		[]RunTarget{{Path: root, Recursive: true}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 1 {
		t.Errorf("processed %d files, want 1", total)
	}
	if got := log.countContaining("scan complete"); got != 1 {
		t.Errorf("final report emitted %d times, want exactly 1", got)
	}
}

func TestRunFinalReportSurvivesCancellation(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a.jpg"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	log := &memLogger{}
	_, err := Run(ctx, newRunScanner(newMemStore(), log),
		[]RunTarget{{Path: root, Recursive: true}})
	if err == nil {
		t.Error("cancelled run must return the context error")
	}
	if got := log.countContaining("scan complete"); got != 1 {
		t.Errorf("final report emitted %d times after cancellation, want exactly 1", got)
	}
}

func TestRunSkipsMissingTargetAndStillReports(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a.jpg"))

	log := &memLogger{}
	total, err := Run(context.Background(), newRunScanner(newMemStore(), log), []RunTarget{
		{Path: filepath.Join(root, "unmounted"), Group: "nas", Recursive: true},
		{Path: root, Recursive: true},
	})
	if err != nil {
		t.Fatalf("a missing target must not fail the run: %v", err)
	}
	if total != 1 {
		t.Errorf("processed %d files, want 1 from the remaining target", total)
	}
	if got := log.countContaining("target directory not found"); got != 1 {
		t.Errorf("missing target warned %d times, want 1", got)
	}
	if got := log.countContaining("scan complete"); got != 1 {
		t.Errorf("final report emitted %d times, want exactly 1", got)
	}
}
