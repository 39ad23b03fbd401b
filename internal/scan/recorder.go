package scan

import (
	"context"
	"time"

	"photark/internal/logging"
	"photark/internal/metadata"
	"photark/internal/store"
)

// Recorder persists per-file metadata records tagged with the scan session
// id. Recording is append-only by design: every invocation in every scan
// produces a new row, even for a filepath seen in a prior session. Safe for
// concurrent use by the extract workers; the store serializes writes.
type Recorder struct {
	store   store.Store
	log     logging.Logger
	stats   *Stats
	session Session
}

// NewRecorder creates a Recorder stamping rows with session's id.
func NewRecorder(st store.Store, log logging.Logger, stats *Stats, session Session) *Recorder {
	return &Recorder{store: st, log: log, stats: stats, session: session}
}

// Record sanitizes meta, serializes it and inserts the file row. If the
// metadata cannot be made serializable even through the defensive encode
// path, the record is abandoned and the failure reported for this file
// only.
func (r *Recorder) Record(
	ctx context.Context,
	filename, dirPath, filePath string,
	size int64,
	createdAt, modifiedAt time.Time,
	meta map[string]string,
) (int64, error) {
	sanitizeStart := time.Now()
	clean := metadata.Sanitize(meta)
	r.stats.ObserveStage(StageSanitize, time.Since(sanitizeStart))

	payload, err := metadata.EncodeJSON(clean)
	if err != nil {
		r.log.Log(logging.LevelError, "abandoning file record, metadata not serializable", filePath,
			map[string]any{"error": err.Error(), "kind": "encode", "directory": dirPath})
		return 0, err
	}

	recordStart := time.Now()
	id, err := r.store.InsertFile(ctx, store.FileRow{
		Filename:      filename,
		Filepath:      filePath,
		Filesize:      size,
		CreatedDate:   createdAt,
		ModifiedDate:  modifiedAt,
		ExifJSON:      payload,
		ScanSessionID: r.session.ID,
	})
	r.stats.ObserveStage(StageRecord, time.Since(recordStart))
	if err != nil {
		r.log.Log(logging.LevelError, "file record insert failed", filePath,
			map[string]any{"error": err.Error(), "kind": "storage", "directory": dirPath})
		return 0, err
	}
	return id, nil
}
