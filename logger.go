package quantkit

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with quantkit-specific context.
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
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithLayer adds a layer field to the logger (useful for tagging sweeps).
func (l *Logger) WithLayer(layer string) *Logger {
	return &Logger{
		Logger: l.Logger.With("layer", layer),
	}
}

// WithBits adds a bit-width field to the logger.
func (l *Logger) WithBits(bits int) *Logger {
	return &Logger{
		Logger: l.Logger.With("bits", bits),
	}
}

// WithClusters adds a cluster-count field to the logger.
func (l *Logger) WithClusters(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("clusters", k),
	}
}

// LogSweep logs one layer sensitivity sweep.
func (l *Logger) LogSweep(ctx context.Context, layer string, optimalBits int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "sensitivity sweep failed",
			"layer", layer,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "sensitivity sweep completed",
			"layer", layer,
			"optimal_bits", optimalBits,
		)
	}
}

// LogClustering logs one layer clustering run.
func (l *Logger) LogClustering(ctx context.Context, layer string, clusters int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "weight clustering failed",
			"layer", layer,
			"clusters", clusters,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "weight clustering completed",
			"layer", layer,
			"clusters", clusters,
		)
	}
}

// LogExport logs an artifact export.
func (l *Logger) LogExport(ctx context.Context, artifact string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "artifact export failed",
			"artifact", artifact,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "artifact exported",
			"artifact", artifact,
		)
	}
}
