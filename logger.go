package classifier

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mklyu/MatrixClassifier/kmedoids"
	"github.com/mklyu/MatrixClassifier/precompute"
)

// Logger wraps slog.Logger with classifier-specific context.
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
	return newLogger(os.Stderr, "json", level)
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return newLogger(os.Stderr, "text", level)
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

func newLogger(w io.Writer, format string, level slog.Level) *Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// ParseLevel maps "debug", "info", "warn" or "error" to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, configError("log.level", s, err)
	}
	return level, nil
}

// WithK adds a k (cluster count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// WithNormType adds a norm_type field to the logger.
func (l *Logger) WithNormType(normType string) *Logger {
	return &Logger{
		Logger: l.Logger.With("norm_type", normType),
	}
}

// LogPrecompute logs a finished precompute run.
func (l *Logger) LogPrecompute(ctx context.Context, stats precompute.Stats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "precompute failed",
			"pairs", stats.Pairs,
			"failed", stats.Failed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "precompute completed",
			"pairs", stats.Pairs,
			"computed", stats.Computed,
			"hits", stats.Hits,
			"duration", stats.Duration,
		)
	}
}

// LogIteration logs one clustering iteration.
func (l *Logger) LogIteration(ctx context.Context, info kmedoids.IterationInfo) {
	l.DebugContext(ctx, "iteration completed",
		"iteration", info.Iteration,
		"changed", info.Changed,
		"cost", info.Cost,
		"state", info.State.String(),
		"duration", info.Duration,
	)
}

// LogCluster logs a finished clustering run.
func (l *Logger) LogCluster(ctx context.Context, res *kmedoids.Result, err error) {
	if err != nil {
		l.ErrorContext(ctx, "clustering failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "clustering completed",
			"state", res.State.String(),
			"iterations", res.Iterations,
			"cost", res.Cost,
		)
	}
}

// LogCache logs a cache load or save.
func (l *Logger) LogCache(ctx context.Context, op, name string, entries int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "cache "+op+" failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "cache "+op+" completed",
			"name", name,
			"entries", entries,
		)
	}
}
