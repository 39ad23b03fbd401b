// Package scan drives the directory traversal and the per-file
// extract → sanitize → record pipeline.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"photark/internal/exclude"
	"photark/internal/logging"
	"photark/internal/metadata"
	"photark/internal/store"
)

// Scanner walks a tree top-down, reconciles directory records parent-first,
// and runs supported files through the metadata pipeline. All collaborators
// are injected; a Scanner holds no hidden globals.
type Scanner struct {
	log        logging.Logger
	extractor  metadata.Extractor
	matcher    *exclude.Matcher
	reconciler *Reconciler
	recorder   *Recorder
	stats      *Stats
	session    Session
	workers    int
}

// New assembles a Scanner for one scan session. workers sizes the bounded
// pool running the extract/sanitize/record stage; 1 reproduces the strictly
// sequential reference behavior.
func New(
	st store.Store,
	log logging.Logger,
	extractor metadata.Extractor,
	matcher *exclude.Matcher,
	stats *Stats,
	session Session,
	workers int,
) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{
		log:        log,
		extractor:  extractor,
		matcher:    matcher,
		reconciler: NewReconciler(st, log),
		recorder:   NewRecorder(st, log, stats, session),
		stats:      stats,
		session:    session,
		workers:    workers,
	}
}

// Session returns the scan session this Scanner stamps on its records.
func (s *Scanner) Session() Session { return s.session }

// Stats returns the tracker shared by this Scanner's pipeline stages.
func (s *Scanner) Stats() *Stats { return s.stats }

// fileTask is one supported file queued for the extract workers. Its
// directory has always been reconciled before the task is queued.
type fileTask struct {
	path string
	dir  string
}

// Scan walks root and returns the number of successfully processed files.
//
// The walk is a sequential top-down DFS: a directory's record is reconciled
// before its children are visited and before any of its files are queued,
// which is what keeps parent linkage sound. Per-file and per-directory
// failures are absorbed and counted; only an invalid root or context
// cancellation returns an error. Symbolic links are not followed, so cyclic
// filesystem structures are out of scope.
func (s *Scanner) Scan(ctx context.Context, root string, recursive bool, category string) (int64, error) {
	info, err := os.Stat(root)
	if err != nil {
		return 0, fmt.Errorf("scan root %q: %w", root, err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("scan root %q is not a directory", root)
	}

	s.log.Log(logging.LevelInfo, "starting scan", root,
		map[string]any{"recursive": recursive, "session_id": s.session.ID})

	var cat *string
	if category != "" {
		cat = &category
	}
	if _, err := s.reconciler.Reconcile(ctx, root, "", cat); err == nil {
		s.stats.ObserveDirectory(false)
	} else {
		s.stats.ObserveDirectory(true)
	}

	tasks := make(chan fileTask, 64)
	var processed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				if s.processFile(ctx, t) {
					processed.Add(1)
				}
			}
		}()
	}

	walkErr := s.walkDir(ctx, root, true, recursive, tasks)
	close(tasks)
	wg.Wait()

	if walkErr != nil {
		return processed.Load(), walkErr
	}
	s.log.Log(logging.LevelInfo,
		fmt.Sprintf("completed scan of %s: %d files processed", root, processed.Load()), root, nil)
	return processed.Load(), nil
}

// walkDir visits dir. Returns an error only on context cancellation; all
// filesystem and persistence failures below the root are recoverable.
func (s *Scanner) walkDir(ctx context.Context, dir string, isRoot, recursive bool, tasks chan<- fileTask) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Pruning: an excluded directory is skipped entirely (no record, no
	// files, no descent), even when it is the scan root or would contain
	// supported files.
	if s.matcher.Excluded(filepath.Base(dir)) {
		s.log.Log(logging.LevelDebug, "skipping excluded directory", dir, nil)
		return nil
	}

	if !isRoot {
		// Link to the parent only when it was reconciled in this run;
		// top-down order guarantees that for every non-pruned directory.
		parent := filepath.Dir(dir)
		if s.reconciler.Known(parent) {
			_, err := s.reconciler.Reconcile(ctx, dir, parent, nil)
			s.stats.ObserveDirectory(err != nil)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.log.Log(logging.LevelWarn, "cannot read directory", dir,
			map[string]any{"error": err.Error()})
		return nil
	}

	for _, entry := range entries {
		if entry.IsDir() || entry.Type()&fs.ModeSymlink != 0 || !entry.Type().IsRegular() {
			continue
		}
		if !metadata.Supported(entry.Name()) {
			continue // unsupported extension: silently skipped, not an error
		}
		select {
		case tasks <- fileTask{path: filepath.Join(dir, entry.Name()), dir: dir}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if !recursive {
		return nil
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := s.walkDir(ctx, filepath.Join(dir, entry.Name()), false, true, tasks); err != nil {
			return err
		}
	}
	return nil
}

// processFile runs one file through extract → sanitize → record. Returns
// true when the file was recorded. Failures are logged and counted, never
// propagated.
func (s *Scanner) processFile(ctx context.Context, t fileTask) bool {
	start := time.Now()

	info, err := os.Stat(t.path)
	if err != nil {
		s.log.Log(logging.LevelWarn, "cannot stat file", t.path,
			map[string]any{"error": err.Error(), "kind": "stat"})
		s.stats.ObserveFile(time.Since(start), 0, false)
		return false
	}

	extractStart := time.Now()
	meta := s.extractor.Extract(ctx, t.path)
	s.stats.ObserveStage(StageExtract, time.Since(extractStart))

	// Creation time is not portably available; modification time stands in
	// for both, matching what most filesystems report anyway.
	modified := info.ModTime()
	_, err = s.recorder.Record(ctx, filepath.Base(t.path), t.dir, t.path,
		info.Size(), modified, modified, meta)

	ok := err == nil
	s.stats.ObserveFile(time.Since(start), info.Size(), ok)
	return ok
}
