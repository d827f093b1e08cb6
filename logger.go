package featbank

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with featbank-specific context.
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

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithEntity adds an entity id field to the logger.
func (l *Logger) WithEntity(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("entity", id),
	}
}

// WithBackend adds a backend field to the logger.
func (l *Logger) WithBackend(kind BackendKind) *Logger {
	return &Logger{
		Logger: l.Logger.With("backend", string(kind)),
	}
}

// LogLoad logs the outcome of an in-memory bank load.
func (l *Logger) LogLoad(ctx context.Context, partitions []string, entities int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "bank load failed",
			"partitions", partitions,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "bank loaded",
			"partitions", partitions,
			"entities", entities,
			"duration", duration,
		)
	}
}

// LogConstruct logs the outcome of persistent-store construction.
func (l *Logger) LogConstruct(ctx context.Context, path string, entities int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "store construction failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "store constructed",
			"path", path,
			"entities", entities,
			"duration", duration,
		)
	}
}

// LogSample logs a sample operation.
func (l *Logger) LogSample(ctx context.Context, entityID string, timestamp int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "sample failed",
			"entity", entityID,
			"timestamp", timestamp,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "sample completed",
			"entity", entityID,
			"timestamp", timestamp,
		)
	}
}
