package scan

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"time"

	"photark/internal/exclude"
	"photark/internal/logging"
	"photark/internal/metadata"
	"photark/internal/store"
)

// ErrAlreadyRunning is returned when a scan is started while one is in progress.
var ErrAlreadyRunning = errors.New("a scan is already in progress")

// ErrNoActiveScan is returned when cancel is called with no scan running.
var ErrNoActiveScan = errors.New("no scan is currently running")

// RunConfig holds the tunables a Manager applies to each run.
type RunConfig struct {
	Workers          int
	ProgressInterval int
}

// ActiveScan holds live information about the running scan.
type ActiveScan struct {
	Session     Session
	TriggeredBy string
	Targets     int
	Stats       *Stats
}

// Manager enforces a single-active-scan invariant and exposes start/cancel
// for the HTTP API and the scheduler. Safe for concurrent use.
type Manager struct {
	mu        sync.Mutex
	base      context.Context
	db        *sql.DB
	store     store.Store
	extractor metadata.Extractor
	matcher   *exclude.Matcher
	targets   []RunTarget
	cfg       RunConfig

	active   *ActiveScan
	cancelFn context.CancelFunc
}

// NewManager creates a Manager. Every scan context derives from base, so
// cancelling base (process shutdown) also cancels an in-flight scan. db is
// used for the per-session database logger; writes go through st.
func NewManager(base context.Context, db *sql.DB, st store.Store, extractor metadata.Extractor, matcher *exclude.Matcher, targets []RunTarget, cfg RunConfig) *Manager {
	if base == nil {
		base = context.Background()
	}
	return &Manager{
		base:      base,
		db:        db,
		store:     st,
		extractor: extractor,
		matcher:   matcher,
		targets:   targets,
		cfg:       cfg,
	}
}

// Start launches an asynchronous scan over all configured targets under a
// fresh session. Returns an ActiveScan snapshot or ErrAlreadyRunning.
func (m *Manager) Start(triggeredBy string) (*ActiveScan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return nil, ErrAlreadyRunning
	}

	session := NewSession()
	logger := logging.Fanout{
		logging.NewSlog(nil),
		logging.NewDB(m.db, session.ID, session.Component),
	}
	stats := NewStats(logger, m.cfg.ProgressInterval)
	scanner := New(m.store, logger, m.extractor, m.matcher, stats, session, m.cfg.Workers)

	scanCtx, cancel := context.WithCancel(m.base)
	active := &ActiveScan{
		Session:     session,
		TriggeredBy: triggeredBy,
		Targets:     len(m.targets),
		Stats:       stats,
	}
	m.active = active
	m.cancelFn = cancel

	slog.Info("scan started", "session_id", session.ID, "triggered_by", triggeredBy,
		"targets", len(m.targets))

	go func() {
		start := time.Now()
		total, err := Run(scanCtx, scanner, m.targets)
		switch {
		case err != nil && errors.Is(err, context.Canceled):
			slog.Info("scan cancelled", "session_id", session.ID, "files_processed", total)
		case err != nil:
			slog.Error("scan run error", "session_id", session.ID, "error", err)
		default:
			slog.Info("scan finished", "session_id", session.ID,
				"files_processed", total, "duration", time.Since(start).Round(time.Second))
		}

		m.mu.Lock()
		m.active = nil
		m.cancelFn = nil
		m.mu.Unlock()
	}()

	return active, nil
}

// Cancel stops the currently running scan. Returns ErrNoActiveScan if idle.
func (m *Manager) Cancel() (*ActiveScan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return nil, ErrNoActiveScan
	}
	snap := *m.active
	m.cancelFn()
	return &snap, nil
}

// Active returns a snapshot of the running scan, or nil when idle.
func (m *Manager) Active() *ActiveScan {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil
	}
	snap := *m.active
	return &snap
}
