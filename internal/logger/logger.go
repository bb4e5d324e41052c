// Package logger provides structured logging for pal.
// It wraps the standard log/slog package so every stage of a run logs with
// the same handler, level and field names (snake_case).
//
// The package supports two output formats:
//   - text (default): human-readable key=value lines
//   - json: machine-readable structured logging
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu     sync.RWMutex
	out    io.Writer = os.Stderr
	level            = new(slog.LevelVar)
	format           = "text"

	// Logger is the default logger instance.
	Logger = newLogger()
)

func newLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// Setup configures the logger based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(lvl, fmtName string) {
	mu.Lock()
	defer mu.Unlock()

	level.Set(ParseLevel(lvl))
	if strings.ToLower(fmtName) == "json" {
		format = "json"
	} else {
		format = "text"
	}
	Logger = newLogger()
}

// SetOutput redirects log output, mostly useful in tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	out = w
	Logger = newLogger()
}

// SetLevel configures the logging level.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
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

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return Logger
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	current().Info(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	current().Debug(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	current().Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	current().Error(msg, args...)
}

// WithRun returns a logger carrying the run identifier.
func WithRun(runID string) *slog.Logger {
	return current().With("run_id", runID)
}

// WithStage returns a logger carrying the run identifier and pipeline stage.
func WithStage(runID, stage string) *slog.Logger {
	return current().With("run_id", runID, "stage", stage)
}
