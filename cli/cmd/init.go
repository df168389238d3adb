package cmd

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/modelhike/modelhike-sub001/log"
)

// ignoredFlagPrefixes are flags never written to the configuration file.
var ignoredFlagPrefixes = []string{"help", "pprof"}

// Init writes the current global flag values to the configuration file.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	data, err := yaml.MarshalWithOptions(configValues(ktx), yaml.Indent(2))
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	if err := os.WriteFile(confPath, data, 0o600); err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.Default().DebugContext(ctx,
		"initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// configValues collects the non-empty values of the application flags.
func configValues(ktx *kong.Context) map[string]any {
	out := map[string]any{}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(ignoredFlagPrefixes, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		switch v := ktx.FlagValue(flag).(type) {
		case nil:
		case string:
			if v != "" {
				out[flag.Name] = v
			}
		case []string:
			if len(v) > 0 {
				out[flag.Name] = v
			}
		default:
			out[flag.Name] = v
		}
	}

	return out
}
