package log

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"
)

// Logger is a concurrency-safe wrapper around [slog.Logger] that accepts
// only typed [slog.Attr] arguments and understands [LevelTrace].
//
// The zero value is a valid Logger that discards everything, so components
// may embed one without checking for nil.
type Logger struct {
	*slog.Logger
	config
}

// Make creates a new [Logger] that writes to w.
func Make(w io.Writer, opts ...Option) Logger {
	cfg := makeConfig(w, opts...)

	return Logger{
		config: cfg,
		Logger: slog.New(cfg.handler()),
	}
}

// Wrap returns a copy of l reconfigured by opts.
func (l Logger) Wrap(opts ...Option) Logger {
	if l.mutex == nil {
		return Make(nil, opts...)
	}

	l.mutex.RLock()
	cfg := l.clone(opts...)
	l.mutex.RUnlock()

	return Logger{
		config: cfg,
		Logger: slog.New(cfg.handler()),
	}
}

// With returns a copy of l that adds attrs to every record.
func (l Logger) With(attrs ...slog.Attr) Logger {
	if l.Logger == nil {
		return l
	}

	l.mutex.RLock()
	cfg := l.clone()
	l.mutex.RUnlock()

	return Logger{
		config: cfg,
		Logger: slog.New(l.Handler().WithAttrs(attrs)),
	}
}

// Level returns the current minimum log level.
func (l Logger) Level() Level {
	if l.Logger == nil || l.mutex == nil {
		return DefaultLevel
	}

	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return l.level
}

// Format returns the current log output format.
func (l Logger) Format() Format {
	if l.Logger == nil || l.mutex == nil {
		return DefaultFormat
	}

	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return l.format
}

// Enabled reports whether records at level would be emitted.
func (l Logger) Enabled(ctx context.Context, level Level) bool {
	return l.Logger != nil && l.Logger.Enabled(ctx, slog.Level(level))
}

// TraceContext logs at [LevelTrace].
func (l Logger) TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelTrace, msg, attrs...)
}

// Trace logs at [LevelTrace].
func (l Logger) Trace(msg string, attrs ...slog.Attr) {
	l.logContext(DefaultContextProvider(), LevelTrace, msg, attrs...)
}

// DebugContext logs at [LevelDebug].
func (l Logger) DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelDebug, msg, attrs...)
}

// Debug logs at [LevelDebug].
func (l Logger) Debug(msg string, attrs ...slog.Attr) {
	l.logContext(DefaultContextProvider(), LevelDebug, msg, attrs...)
}

// InfoContext logs at [LevelInfo].
func (l Logger) InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelInfo, msg, attrs...)
}

// Info logs at [LevelInfo].
func (l Logger) Info(msg string, attrs ...slog.Attr) {
	l.logContext(DefaultContextProvider(), LevelInfo, msg, attrs...)
}

// WarnContext logs at [LevelWarn].
func (l Logger) WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelWarn, msg, attrs...)
}

// Warn logs at [LevelWarn].
func (l Logger) Warn(msg string, attrs ...slog.Attr) {
	l.logContext(DefaultContextProvider(), LevelWarn, msg, attrs...)
}

// ErrorContext logs at [LevelError].
func (l Logger) ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelError, msg, attrs...)
}

// Error logs at [LevelError].
func (l Logger) Error(msg string, attrs ...slog.Attr) {
	l.logContext(DefaultContextProvider(), LevelError, msg, attrs...)
}

// logContext emits one record. Every public logging method calls it
// directly, so the caller of interest is always three frames up:
// runtime.Callers, logContext, and the public method.
func (l Logger) logContext(
	ctx context.Context,
	level Level,
	msg string,
	attrs ...slog.Attr,
) {
	if l.Logger == nil || !l.Logger.Enabled(ctx, slog.Level(level)) {
		return
	}

	var pcs [1]uintptr

	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(time.Now(), slog.Level(level), msg, pcs[0])
	r.AddAttrs(attrs...)

	_ = l.Handler().Handle(ctx, r)
}
