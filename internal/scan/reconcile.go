package scan

import (
	"context"
	"fmt"

	"photark/internal/logging"
	"photark/internal/store"
)

// Reconciler maps filesystem paths to stable persisted directory ids
// without redundant writes: an existing row is returned as-is, a missing
// one is inserted exactly once. It remembers every path it has been asked
// about in the current run, successes and failures alike, so the walker
// can tell whether a parent is "known" before linking children to it.
//
// A Reconciler is driven only by the walker goroutine and needs no locking.
type Reconciler struct {
	store store.Store
	log   logging.Logger
	seen  map[string]int64 // path -> id, or reconcileFailed
}

// reconcileFailed marks a path whose reconcile attempt failed. The failure
// is directory-scoped and recoverable: traversal continues, files under it
// just end up without directory linkage.
const reconcileFailed = int64(-1)

// NewReconciler creates a Reconciler over st for one scan run.
func NewReconciler(st store.Store, log logging.Logger) *Reconciler {
	return &Reconciler{store: st, log: log, seen: make(map[string]int64)}
}

// Known reports whether Reconcile has already been called for path in this
// run, whether or not the call succeeded.
func (r *Reconciler) Known(path string) bool {
	_, ok := r.seen[path]
	return ok
}

// Reconcile returns the directory id for path, inserting a row when none
// exists. parentPath may be empty for the scan root; a parent that cannot
// be resolved leaves parent_id NULL rather than failing. Calling Reconcile
// repeatedly with the same path, within or across scans, always yields
// the same identifier.
func (r *Reconciler) Reconcile(ctx context.Context, path, parentPath string, category *string) (int64, error) {
	if id, ok := r.seen[path]; ok && id != reconcileFailed {
		return id, nil
	}

	id, found, err := r.store.FindDirectoryByPath(ctx, path)
	if err != nil {
		return r.fail(path, "directory lookup failed", err)
	}
	if found {
		r.seen[path] = id
		return id, nil
	}

	var parentID *int64
	if parentPath != "" {
		if pid, ok := r.seen[parentPath]; ok && pid != reconcileFailed {
			parentID = &pid
		} else if pid, found, err := r.store.FindDirectoryByPath(ctx, parentPath); err == nil && found {
			parentID = &pid
		}
		// Parent not resolvable is a recoverable condition: the row is
		// inserted without linkage.
	}

	id, err = r.store.InsertDirectory(ctx, path, parentID, category)
	if err != nil {
		return r.fail(path, "directory insert failed", err)
	}
	r.seen[path] = id
	return id, nil
}

func (r *Reconciler) fail(path, msg string, err error) (int64, error) {
	r.seen[path] = reconcileFailed
	r.log.Log(logging.LevelError, msg, path, map[string]any{"error": err.Error()})
	return reconcileFailed, fmt.Errorf("reconcile %q: %w", path, err)
}
