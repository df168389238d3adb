package log

//go:generate go tool stringer --linecomment --type Level,Format --output config_string.go

import (
	"io"
	"iter"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// Level represents the severity of a log message.
type Level slog.Level

const levelTraceMask = -8

const (
	LevelTrace Level = Level(levelTraceMask)  // trace
	LevelDebug Level = Level(slog.LevelDebug) // debug
	LevelInfo  Level = Level(slog.LevelInfo)  // info
	LevelWarn  Level = Level(slog.LevelWarn)  // warn
	LevelError Level = Level(slog.LevelError) // error
)

// DefaultLevel is the default log level.
const DefaultLevel = LevelInfo

// Levels returns an iterator over the names of all defined log levels,
// ordered from most to least verbose.
func Levels() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, level := range []Level{
			LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError,
		} {
			if !yield(level.String()) {
				return
			}
		}
	}
}

// ParseLevel parses a level name, case-insensitively. Any name accepted by
// [slog.Level.UnmarshalText] is valid, plus "trace".
// Unrecognized input yields [DefaultLevel].
func ParseLevel(s string) Level {
	if strings.EqualFold(strings.TrimSpace(s), "trace") {
		return LevelTrace
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return DefaultLevel
	}

	return Level(l)
}

// Format represents the output format for log messages.
type Format int

const (
	FormatText Format = iota // text
	FormatJSON               // json
)

// DefaultFormat is the default log message format. Generator diagnostics
// are read by people far more often than by machines.
const DefaultFormat = FormatText

// Formats returns an iterator over the names of all defined log formats.
func Formats() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, format := range []Format{FormatText, FormatJSON} {
			if !yield(format.String()) {
				return
			}
		}
	}
}

// ParseFormat parses a format name ("text" or "json").
// Unrecognized input yields [DefaultFormat].
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return DefaultFormat
	}
}

// FormatTime defines a function that formats a time.Time value as a string.
type FormatTime func(time.Time) string

// DefaultTimeLayout is the default used when no valid time layout is provided.
const DefaultTimeLayout = time.Kitchen

// DefaultCaller is the default setting for including caller information.
const DefaultCaller = false

// config holds the configuration options for a Logger.
type config struct {
	mutex      *sync.RWMutex
	output     io.Writer
	formatTime FormatTime
	level      Level
	format     Format
	caller     bool
	pretty     bool
}

// makeConfig creates a new config with defaults applied, overridden by any
// provided options.
func makeConfig(w io.Writer, opts ...Option) config {
	c := config{mutex: &sync.RWMutex{}}

	return apply(apply(c, WithDefaults(w)), opts...)
}

// clone copies the config under a fresh mutex and applies opts to the copy.
func (c config) clone(opts ...Option) config {
	c.mutex = &sync.RWMutex{}

	return apply(c, opts...)
}

// update runs fn with the config's write lock held, allocating the mutex on
// first use. Every functional option funnels through here.
func update(c config, fn func(*config)) config {
	if c.mutex == nil {
		c.mutex = &sync.RWMutex{}
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	fn(&c)

	return c
}

// handlerOptions builds the slog options shared by every handler variant.
func (c config) handlerOptions() *slog.HandlerOptions {
	return &slog.HandlerOptions{
		AddSource: c.caller,
		Level:     slog.Level(c.level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				if t, ok := a.Value.Any().(time.Time); ok {
					formatted := c.formatTime(t)
					if formatted == "" {
						return slog.Attr{}
					}

					a.Value = slog.StringValue(formatted)
				}

			case slog.LevelKey:
				// "TRACE" instead of "DEBUG-4"
				if level, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(
						strings.ToUpper(Level(level).String()),
					)
				}
			}

			return a
		},
	}
}

// handler creates a slog.Handler based on the current configuration.
func (c config) handler(opts ...Option) slog.Handler {
	override := apply(c, opts...)
	hopts := override.handlerOptions()

	if override.pretty {
		switch override.format {
		case FormatJSON:
			return newPrettyHandler(override.output, hopts, prettyJSON)
		case FormatText:
			return newPrettyHandler(override.output, hopts, prettyText)
		}

		return slog.DiscardHandler
	}

	switch override.format {
	case FormatJSON:
		return slog.NewJSONHandler(override.output, hopts)
	case FormatText:
		return slog.NewTextHandler(override.output, hopts)
	}

	return slog.DiscardHandler
}

// isTerminal reports whether w is attached to an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}

// WithDefaults returns a functional option that resets every setting to its
// default. Pretty output is enabled only when w is a terminal.
func WithDefaults(w io.Writer) Option {
	return func(c config) config {
		if w == nil {
			w = io.Discard
		}

		return update(c, func(c *config) {
			c.output = w
			c.formatTime = makeFormatTimeFunc(DefaultTimeLayout)
			c.level = DefaultLevel
			c.format = DefaultFormat
			c.caller = DefaultCaller
			c.pretty = isTerminal(w)
		})
	}
}

// WithOutput returns a functional option that sets the output writer.
// A nil writer discards all output.
func WithOutput(w io.Writer) Option {
	return func(c config) config {
		if w == nil {
			w = io.Discard
		}

		return update(c, func(c *config) { c.output = w })
	}
}

// WithLevel returns a functional option that sets the minimum log level.
func WithLevel(level Level) Option {
	return func(c config) config {
		return update(c, func(c *config) { c.level = level })
	}
}

// WithFormat returns a functional option that sets the output format.
func WithFormat(format Format) Option {
	return func(c config) config {
		return update(c, func(c *config) { c.format = format })
	}
}

// WithTimeLayout returns a functional option that sets the timestamp layout.
//
// The layout is either one of the named layouts of the [time] package
// (matched case-insensitively, ignoring punctuation, e.g. "RFC3339" or
// "kitchen") or a verbatim [time.Time.Format] layout. A blank layout
// disables timestamps.
func WithTimeLayout(layout string) Option {
	return func(c config) config {
		format := makeFormatTimeFunc(layout)

		return update(c, func(c *config) { c.formatTime = format })
	}
}

// WithCaller returns a functional option that controls whether the source
// location of the log call is recorded.
func WithCaller(enable bool) Option {
	return func(c config) config {
		return update(c, func(c *config) { c.caller = enable })
	}
}

// WithPretty returns a functional option that controls colorized output.
func WithPretty(enable bool) Option {
	return func(c config) config {
		return update(c, func(c *config) { c.pretty = enable })
	}
}

var timeLayout = map[string]string{
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"ansic":       time.ANSIC,
	"unixdate":    time.UnixDate,
	"rfc822":      time.RFC822,
	"kitchen":     time.Kitchen,
	"datetime":    time.DateTime,
	"timeonly":    time.TimeOnly,
	"stamp":       time.Stamp,
	"stampmilli":  time.StampMilli,
	"ms":          time.StampMilli,
	"stampmicro":  time.StampMicro,
	"us":          time.StampMicro,
	"none":        "",
}

func makeFormatTimeFunc(layout string) FormatTime {
	key := strings.Map(
		func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}

			return -1
		},
		strings.ToLower(layout),
	)

	if key == "" {
		return func(time.Time) string { return "" }
	}

	if std, ok := timeLayout[key]; ok {
		if std == "" {
			return func(time.Time) string { return "" }
		}

		layout = std
	}

	return func(t time.Time) string { return t.Format(layout) }
}
