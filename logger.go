package vecseg

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with segment-query specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithSegment adds a segment id field to the logger.
func (l *Logger) WithSegment(id SegmentID) *Logger {
	return &Logger{
		Logger: l.Logger.With("segment", uint64(id)),
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, hits int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"hits", hits,
			"elapsed", elapsed,
		)
	}
}

// LogRetrieve logs a retrieve operation.
func (l *Logger) LogRetrieve(ctx context.Context, rows int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "retrieve failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "retrieve completed",
			"rows", rows,
			"elapsed", elapsed,
		)
	}
}

// LogFill logs a result materialization operation.
func (l *Logger) LogFill(ctx context.Context, fields, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "fill failed",
			"fields", fields,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "fill completed",
			"fields", fields,
			"rows", rows,
		)
	}
}
