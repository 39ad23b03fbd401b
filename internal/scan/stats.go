package scan

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"photark/internal/logging"
)

// Stage names the pipeline stages whose durations are tracked separately.
type Stage string

const (
	StageExtract  Stage = "extract"
	StageSanitize Stage = "sanitize"
	StageRecord   Stage = "record"
)

// rollingWindowSize bounds the sliding window of recent per-file durations.
const rollingWindowSize = 50

// Stats accumulates counters and timings for one scan invocation. It is
// purely observational: nothing in here may alter scan outcomes. Counters
// are atomic so extract workers can update them concurrently; the rolling
// window is guarded by a mutex. Stats are discarded after the final report.
type Stats struct {
	log           logging.Logger
	progressEvery int64
	startedAt     time.Time

	filesSucceeded atomic.Int64
	filesFailed    atomic.Int64
	dirsProcessed  atomic.Int64
	dirsFailed     atomic.Int64
	bytesTotal     atomic.Int64

	extractNs  atomic.Int64
	sanitizeNs atomic.Int64
	recordNs   atomic.Int64

	mu     sync.Mutex
	window []time.Duration
}

// NewStats returns a tracker that emits a progress report through log every
// progressEvery processed files (0 disables periodic reports; the final
// report is emitted regardless).
func NewStats(log logging.Logger, progressEvery int) *Stats {
	return &Stats{
		log:           log,
		progressEvery: int64(progressEvery),
		startedAt:     time.Now(),
		window:        make([]time.Duration, 0, rollingWindowSize),
	}
}

// ObserveStage adds d to the cumulative duration of stage.
func (s *Stats) ObserveStage(stage Stage, d time.Duration) {
	switch stage {
	case StageExtract:
		s.extractNs.Add(int64(d))
	case StageSanitize:
		s.sanitizeNs.Add(int64(d))
	case StageRecord:
		s.recordNs.Add(int64(d))
	}
}

// ObserveFile records the outcome of one file: total duration, bytes and
// success/failure. Emits a periodic progress report every progressEvery
// files.
func (s *Stats) ObserveFile(d time.Duration, size int64, ok bool) {
	var processed int64
	if ok {
		s.bytesTotal.Add(size)
		processed = s.filesSucceeded.Add(1) + s.filesFailed.Load()
	} else {
		processed = s.filesFailed.Add(1) + s.filesSucceeded.Load()
	}

	s.mu.Lock()
	if len(s.window) == rollingWindowSize {
		// Drop the oldest sample to keep the window bounded.
		copy(s.window, s.window[1:])
		s.window[len(s.window)-1] = d
	} else {
		s.window = append(s.window, d)
	}
	s.mu.Unlock()

	if s.progressEvery > 0 && processed%s.progressEvery == 0 {
		s.reportProgress(processed)
	}
}

// ObserveDirectory counts one visited directory; failed marks a directory
// whose record could not be written.
func (s *Stats) ObserveDirectory(failed bool) {
	s.dirsProcessed.Add(1)
	if failed {
		s.dirsFailed.Add(1)
	}
}

// RollingAverage returns the mean of the recent per-file durations, or 0
// when no file has been observed yet.
func (s *Stats) RollingAverage() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.window) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range s.window {
		sum += d
	}
	return sum / time.Duration(len(s.window))
}

// Summary is a point-in-time snapshot of the counters, shaped for the
// status API and the final report.
type Summary struct {
	FilesProcessed  int64   `json:"files_processed"`
	FilesSucceeded  int64   `json:"files_succeeded"`
	FilesFailed     int64   `json:"files_failed"`
	Directories     int64   `json:"directories_processed"`
	DirectoryErrors int64   `json:"directory_errors"`
	BytesTotal      int64   `json:"bytes_total"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
	FilesPerSecond  float64 `json:"files_per_second"`
	MBPerSecond     float64 `json:"mb_per_second"`
	ExtractSeconds  float64 `json:"extract_seconds"`
	SanitizeSeconds float64 `json:"sanitize_seconds"`
	RecordSeconds   float64 `json:"record_seconds"`
	RollingAvgMs    float64 `json:"rolling_avg_ms"`
}

// Snapshot assembles a Summary from the live counters.
func (s *Stats) Snapshot() Summary {
	succeeded := s.filesSucceeded.Load()
	failed := s.filesFailed.Load()
	elapsed := time.Since(s.startedAt)

	sum := Summary{
		FilesProcessed:  succeeded + failed,
		FilesSucceeded:  succeeded,
		FilesFailed:     failed,
		Directories:     s.dirsProcessed.Load(),
		DirectoryErrors: s.dirsFailed.Load(),
		BytesTotal:      s.bytesTotal.Load(),
		ElapsedSeconds:  elapsed.Seconds(),
		ExtractSeconds:  time.Duration(s.extractNs.Load()).Seconds(),
		SanitizeSeconds: time.Duration(s.sanitizeNs.Load()).Seconds(),
		RecordSeconds:   time.Duration(s.recordNs.Load()).Seconds(),
		RollingAvgMs:    float64(s.RollingAverage()) / float64(time.Millisecond),
	}
	if elapsed > 0 {
		sum.FilesPerSecond = float64(sum.FilesProcessed) / elapsed.Seconds()
		sum.MBPerSecond = float64(sum.BytesTotal) / (1 << 20) / elapsed.Seconds()
	}
	return sum
}

func (s *Stats) reportProgress(processed int64) {
	s.log.Log(logging.LevelInfo,
		fmt.Sprintf("scan progress: %d files processed", processed), "",
		map[string]any{
			"files_failed":   s.filesFailed.Load(),
			"bytes_total":    s.bytesTotal.Load(),
			"rolling_avg_ms": float64(s.RollingAverage()) / float64(time.Millisecond),
		})
}

// ReportFinal emits the aggregated report. Always called exactly once at
// scan completion, even when the run contained many recoverable failures.
func (s *Stats) ReportFinal() {
	sum := s.Snapshot()
	s.log.Log(logging.LevelInfo, "scan complete", "", map[string]any{
		"files_processed":       sum.FilesProcessed,
		"files_succeeded":       sum.FilesSucceeded,
		"files_failed":          sum.FilesFailed,
		"directories_processed": sum.Directories,
		"directory_errors":      sum.DirectoryErrors,
		"bytes_total":           sum.BytesTotal,
		"elapsed_seconds":       sum.ElapsedSeconds,
		"files_per_second":      sum.FilesPerSecond,
		"mb_per_second":         sum.MBPerSecond,
		"extract_seconds":       sum.ExtractSeconds,
		"sanitize_seconds":      sum.SanitizeSeconds,
		"record_seconds":        sum.RecordSeconds,
	})
}
