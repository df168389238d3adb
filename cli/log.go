package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/modelhike/modelhike-sub001/log"
)

// logFormat configures the logger format as a side effect of parsing via
// encoding.TextUnmarshaler, so that parse errors are reported in the
// requested format.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

// logLevel configures the logger level as a side effect of parsing.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"info"    enum:"${logLevels}"  help:"Set log level."`
	Format     logFormat `default:"text"    enum:"${logFormats}" help:"Set log format."`
	TimeLayout string    `default:"RFC3339"                      help:"Set timestamp format."`
	Caller     bool      `default:"false"                        help:"Include caller information."       negatable:""`
	Pretty     bool      `default:"true"                         help:"Enable colorized pretty printing." negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevels":  strings.Join(slices.Collect(log.Levels()), ","),
		"logFormats": strings.Join(slices.Collect(log.Formats()), ","),
	}
}

func (*logConfig) group() kong.Group {
	return kong.Group{Key: "log", Title: "Logging options"}
}

func (f *logConfig) start(ctx context.Context) {
	log.Config(
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)

	log.Default().DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)
}

// scan applies logger flags found in args before kong parses them, so the
// logger is configured regardless of flag position. Boolean flags never
// reach encoding.TextUnmarshaler, which is why they are handled here.
func (f *logConfig) scan(args []string) {
	for i := 0; i < len(args); i++ {
		name, value, assigned := strings.Cut(args[i], "=")

		// next consumes the following argument as the flag value.
		next := func() string {
			if !assigned && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++

				return args[i]
			}

			return value
		}

		// flag resolves a boolean flag, negated by the --no- form.
		flag := func(negated bool) (bool, bool) {
			v := true
			if assigned {
				var err error
				if v, err = strconv.ParseBool(value); err != nil {
					return false, false
				}
			}

			return v != negated, true
		}

		switch name {
		case "--log-level":
			_ = f.Level.UnmarshalText([]byte(next()))

		case "--log-format":
			_ = f.Format.UnmarshalText([]byte(next()))

		case "--log-pretty", "--no-log-pretty":
			if v, ok := flag(strings.HasPrefix(name, "--no-")); ok {
				f.Pretty = v
				log.Config(log.WithPretty(v))
			}

		case "--log-caller", "--no-log-caller":
			if v, ok := flag(strings.HasPrefix(name, "--no-")); ok {
				f.Caller = v
				log.Config(log.WithCaller(v))
			}
		}
	}
}
