package directory

import (
	"context"
	"log/slog"
	"os"
)

// Logger provides structured logging for the directory access layer.
// A nil-backed Logger discards all messages, so components can log
// unconditionally without nil checks at every call site.
type Logger struct {
	s *slog.Logger
}

// NewLogger creates a logger backed by the given slog handler.
// If handler is nil, a text handler writing to stderr at info level is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{s: slog.New(handler)}
}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *Logger {
	return &Logger{}
}

// With returns a logger with additional context fields.
func (l *Logger) With(args ...any) *Logger {
	if l == nil || l.s == nil {
		return l
	}
	return &Logger{s: l.s.With(args...)}
}

// Debug logs debug-level messages.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	if l != nil && l.s != nil {
		l.s.DebugContext(ctx, msg, args...)
	}
}

// Info logs info-level messages.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	if l != nil && l.s != nil {
		l.s.InfoContext(ctx, msg, args...)
	}
}

// Warn logs warning-level messages.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	if l != nil && l.s != nil {
		l.s.WarnContext(ctx, msg, args...)
	}
}

// Error logs error-level messages.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	if l != nil && l.s != nil {
		l.s.ErrorContext(ctx, msg, args...)
	}
}
