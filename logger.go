package simindex

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with simindex-specific context.
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

// WithScope adds a scope field to the logger.
func (l *Logger) WithScope(scope string) *Logger {
	return &Logger{
		Logger: l.Logger.With("scope", scope),
	}
}

// WithKey adds a key field to the logger.
func (l *Logger) WithKey(key string) *Logger {
	return &Logger{
		Logger: l.Logger.With("key", key),
	}
}

// LogRecord logs a record operation.
func (l *Logger) LogRecord(ctx context.Context, scope, key string, bands int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "record failed",
			"scope", scope,
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "record completed",
			"scope", scope,
			"key", key,
			"bands", bands,
		)
	}
}

// LogQuery logs a query operation.
func (l *Logger) LogQuery(ctx context.Context, scope, key string, candidates int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"scope", scope,
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"scope", scope,
			"key", key,
			"candidates", candidates,
		)
	}
}
