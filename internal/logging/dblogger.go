package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"
)

// DBLogger persists log events to the scan_logs table, keyed by the scan
// session UUID so a session's diagnostics can be pulled up next to its file
// rows. If the database write fails, the event degrades to slog so it is
// never lost.
type DBLogger struct {
	db        *sql.DB
	sessionID string
	component string

	warnings atomic.Int64
	errors   atomic.Int64
}

// NewDB returns a DBLogger stamping every row with sessionID and component.
func NewDB(db *sql.DB, sessionID, component string) *DBLogger {
	return &DBLogger{db: db, sessionID: sessionID, component: component}
}

func (l *DBLogger) Log(level Level, msg string, filePath string, details map[string]any) {
	switch level {
	case LevelDebug:
		// Not persisted; debug volume would swamp the table during a scan.
		return
	case LevelWarn:
		l.warnings.Add(1)
	case LevelError:
		l.errors.Add(1)
	}

	var path any
	if filePath != "" {
		path = filePath
	}
	var detailsJSON any
	if len(details) > 0 {
		if b, err := json.Marshal(details); err == nil {
			detailsJSON = string(b)
		}
	}

	_, err := l.db.ExecContext(context.Background(), `
		INSERT INTO scan_logs
			(session_id, log_level, component, message, file_path, error_details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.sessionID, string(level), l.component, msg, path, detailsJSON, time.Now().Unix())
	if err != nil {
		slog.Error("database logging failed", "error", err, "dropped_message", msg)
	}
}

// WarningCount returns the number of warnings logged so far.
func (l *DBLogger) WarningCount() int64 { return l.warnings.Load() }

// ErrorCount returns the number of errors logged so far.
func (l *DBLogger) ErrorCount() int64 { return l.errors.Load() }
