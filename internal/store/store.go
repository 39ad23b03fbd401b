// Package store is the persistence layer behind the scanner: lookup and
// insert of directory rows, append-only insert of file rows. All lookups
// are keyed by exact path string equality: no case folding, no
// normalization beyond what the filesystem API returns.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// FileRow is one file observation within a scan session. Every scan run
// produces a fresh row per file encountered; filepath is not a dedup key.
type FileRow struct {
	Filename      string
	Filepath      string
	Filesize      int64
	CreatedDate   time.Time
	ModifiedDate  time.Time
	ExifJSON      []byte
	ScanSessionID string
}

// Store is the narrow interface the scan pipeline writes through. Each
// operation is its own short-lived atomic unit.
type Store interface {
	// FindDirectoryByPath returns the id of the directory row with exactly
	// this path, or ok=false when no such row exists.
	FindDirectoryByPath(ctx context.Context, path string) (id int64, ok bool, err error)
	// InsertDirectory creates a directory row. parentID and category may be
	// nil. Directory rows are created once per unique path and never
	// updated or deleted by the scanner.
	InsertDirectory(ctx context.Context, path string, parentID *int64, category *string) (int64, error)
	// InsertFile appends a file row. Always an insert, never an update.
	InsertFile(ctx context.Context, row FileRow) (int64, error)
}

// SQLite implements Store on a *sql.DB opened by internal/db.
type SQLite struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) FindDirectoryByPath(ctx context.Context, path string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM directories WHERE dirpath = ?`, path).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find directory %q: %w", path, err)
	}
	return id, true, nil
}

func (s *SQLite) InsertDirectory(ctx context.Context, path string, parentID *int64, category *string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO directories (dirpath, parent_id, category, created_at)
		VALUES (?, ?, ?, ?)`,
		path, parentID, category, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("insert directory %q: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert directory %q: %w", path, err)
	}
	return id, nil
}

func (s *SQLite) InsertFile(ctx context.Context, row FileRow) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO files
			(filename, filepath, filesize, created_date, modified_date,
			 exif_data, scan_session_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.Filename, row.Filepath, row.Filesize,
		row.CreatedDate.Unix(), row.ModifiedDate.Unix(),
		string(row.ExifJSON), row.ScanSessionID, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("insert file %q: %w", row.Filepath, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert file %q: %w", row.Filepath, err)
	}
	return id, nil
}
