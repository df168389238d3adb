// Package log is the structured logging layer used throughout the
// generator. It wraps [log/slog] with typed attributes, a [LevelTrace]
// below debug, and colorized output when writing to a terminal.
//
// # Usage
//
//	logger := log.Make(os.Stderr, log.WithLevel(log.LevelDebug))
//	logger.Info("rendered", slog.String("file", "User.java"))
//
// The zero [Logger] discards everything. Engine components hold one by
// value so that logging is opt-in for library callers.
//
// # Configuration
//
// Options are applied at creation time ([Make]) or derived from an
// existing logger ([Logger.Wrap]). The process-wide logger used by the
// package-level functions is reconfigured with [Config].
//
// # Formats
//
// [FormatText] (default) and [FormatJSON]. When the output is a terminal
// both are rendered with colors via lipgloss; [WithPretty] overrides the
// detection.
package log
