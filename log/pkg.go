package log

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// DefaultContextProvider returns the context used by the logging methods
// that do not take one.
var DefaultContextProvider = context.TODO

var (
	defaultMu  sync.RWMutex
	defaultLog = Make(os.Stderr)
)

// Default returns the process-wide logger.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()

	return defaultLog
}

// Config reconfigures the process-wide logger.
func Config(opts ...Option) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultLog = defaultLog.Wrap(opts...)
}

// Trace logs at [LevelTrace] using the process-wide logger.
func Trace(msg string, attrs ...slog.Attr) {
	Default().logContext(DefaultContextProvider(), LevelTrace, msg, attrs...)
}

// Debug logs at [LevelDebug] using the process-wide logger.
func Debug(msg string, attrs ...slog.Attr) {
	Default().logContext(DefaultContextProvider(), LevelDebug, msg, attrs...)
}

// Info logs at [LevelInfo] using the process-wide logger.
func Info(msg string, attrs ...slog.Attr) {
	Default().logContext(DefaultContextProvider(), LevelInfo, msg, attrs...)
}

// Warn logs at [LevelWarn] using the process-wide logger.
func Warn(msg string, attrs ...slog.Attr) {
	Default().logContext(DefaultContextProvider(), LevelWarn, msg, attrs...)
}

// Error logs at [LevelError] using the process-wide logger.
func Error(msg string, attrs ...slog.Attr) {
	Default().logContext(DefaultContextProvider(), LevelError, msg, attrs...)
}

// With returns the process-wide logger extended with attrs.
func With(attrs ...slog.Attr) Logger {
	return Default().With(attrs...)
}
