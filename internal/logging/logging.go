// Package logging routes scanner diagnostics to one or more sinks.
//
// The scan pipeline never writes to process output directly: every
// component reports through the Logger interface, and main decides whether
// that ends up on stderr, in a rotating log file, in the scan_logs table,
// or all of them.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is the severity of a log event.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARNING"
	LevelError Level = "ERROR"
)

// Logger is the narrow diagnostics interface consumed by the scan pipeline.
// filePath may be empty; details carries structured error context (error
// kind, stage) and may be nil.
type Logger interface {
	Log(level Level, msg string, filePath string, details map[string]any)
}

// SlogLogger adapts a *slog.Logger to the Logger interface.
type SlogLogger struct {
	base *slog.Logger
}

// NewSlog returns a SlogLogger wrapping base, or slog.Default() when base
// is nil.
func NewSlog(base *slog.Logger) *SlogLogger {
	if base == nil {
		base = slog.Default()
	}
	return &SlogLogger{base: base}
}

func (l *SlogLogger) Log(level Level, msg string, filePath string, details map[string]any) {
	attrs := make([]any, 0, 2+2*len(details))
	if filePath != "" {
		attrs = append(attrs, "path", filePath)
	}
	for k, v := range details {
		attrs = append(attrs, k, v)
	}
	switch level {
	case LevelDebug:
		l.base.Debug(msg, attrs...)
	case LevelWarn:
		l.base.Warn(msg, attrs...)
	case LevelError:
		l.base.Error(msg, attrs...)
	default:
		l.base.Info(msg, attrs...)
	}
}

// Fanout broadcasts every event to all wrapped loggers.
type Fanout []Logger

func (f Fanout) Log(level Level, msg string, filePath string, details map[string]any) {
	for _, l := range f {
		l.Log(level, msg, filePath, details)
	}
}

// Discard drops all events. Used in tests.
type Discard struct{}

func (Discard) Log(Level, string, string, map[string]any) {}

// Setup installs the process-wide slog default: a text handler on stderr,
// optionally teed into a size-rotated log file. Returns the stderr+file
// writer so callers can reuse it.
func Setup(level, logFile string) io.Writer {
	var w io.Writer = os.Stderr
	if logFile != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})))
	return w
}

// ParseLevel converts a config string ("debug", "info", "warn", "error")
// to its slog.Level equivalent. Unknown values default to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
