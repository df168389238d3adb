package cmd

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/modelhike/modelhike-sub001/log"
	"github.com/modelhike/modelhike-sub001/pipeline"
	"github.com/modelhike/modelhike-sub001/soup"
	"github.com/modelhike/modelhike-sub001/typemap"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type outputKey struct{}

// WithOutput returns a new context.Context directing command output to w.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

// outputFrom returns the writer stored by WithOutput, or os.Stdout.
func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}

	return os.Stdout
}

// Env holds the flags of commands that evaluate against a sandbox.
type Env struct {
	Models   string            `help:"Directory of model files loaded into 'model'" short:"m" type:"existingdir"`
	Language string            `help:"Type mapping library (${languages})"          short:"l"`
	Var      map[string]string `help:"Define a variable; values are parsed as YAML" short:"D"`
	Script   []string          `help:"Scripts run before the command"                          type:"existingfile"`
}

// sandbox builds a sandbox with the libraries, variables, model and
// scripts selected by the flags.
func (e *Env) sandbox(ctx context.Context, logger log.Logger) (*soup.Sandbox, error) {
	libs := []soup.Library{}

	if e.Language != "" {
		t, ok := typemap.Lookup(e.Language)
		if !ok {
			return nil, ErrLanguage.With(
				slog.String("language", e.Language),
				slog.Any("supported", typemap.Names()),
			)
		}

		libs = append(libs, t.Library())
	}

	vars, err := parseVars(e.Var)
	if err != nil {
		return nil, err
	}

	sb := soup.New(
		soup.WithLogger(logger),
		soup.WithLibraries(libs...),
		soup.WithVars(vars),
	)

	if e.Models != "" {
		p := pipeline.New(pipeline.Config{WorkDir: e.Models}, logger)

		for _, pass := range []pipeline.Pass{pipeline.PassDiscover, pipeline.PassLoad, pipeline.PassHydrate} {
			if err := p.Step(ctx, pass); err != nil {
				return nil, err
			}
		}

		sb.Set("model", p.Model())
	}

	for _, path := range e.Script {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, ErrReadInput.Wrap(err).With(slog.String("file", path))
		}

		if _, err := sb.RunScript(ctx, path, string(data)); err != nil {
			return nil, err
		}
	}

	return sb, nil
}

// parseVars decodes each value as a YAML document so numbers, booleans
// and lists keep their type.
func parseVars(raw map[string]string) (map[string]any, error) {
	out := make(map[string]any, len(raw))

	for _, k := range slices.Sorted(maps.Keys(raw)) {
		var v any
		if err := yaml.Unmarshal([]byte(raw[k]), &v); err != nil {
			return nil, ErrVar.Wrap(err).With(slog.String("name", k))
		}

		out[k] = v
	}

	return out, nil
}
