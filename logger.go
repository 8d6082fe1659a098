package codeindex

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with codeindex-specific context.
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
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithSearchID tags every record with the id of a search.
func (l *Logger) WithSearchID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("search_id", id),
	}
}

// WithQuery adds the query description.
func (l *Logger) WithQuery(q string) *Logger {
	return &Logger{
		Logger: l.Logger.With("query", q),
	}
}

// WithIndex adds the name of an index.
func (l *Logger) WithIndex(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("index", name),
	}
}

// LogPopulate logs the end of a search.
func (l *Logger) LogPopulate(ctx context.Context, results int, elapsed time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "search stopped",
			"results", results,
			"elapsed", elapsed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "search completed",
			"results", results,
			"elapsed", elapsed,
		)
	}
}

// LogBatch logs one verified batch of candidates.
func (l *Logger) LogBatch(ctx context.Context, candidates int, elapsed time.Duration, err error) {
	if err != nil {
		l.DebugContext(ctx, "candidate batch interrupted",
			"candidates", candidates,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "candidate batch verified",
			"candidates", candidates,
			"elapsed", elapsed,
		)
	}
}

// LogLoadFailure logs a document that could not be read and is skipped.
func (l *Logger) LogLoadFailure(ctx context.Context, path string, err error) {
	l.DebugContext(ctx, "document skipped",
		"path", path,
		"error", err,
	)
}

// LogBuild logs an index build.
func (l *Logger) LogBuild(ctx context.Context, filename string, documents int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"filename", filename,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index written",
			"filename", filename,
			"documents", documents,
		)
	}
}
