package soup

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/modelhike/modelhike-sub001/lines"
	"github.com/modelhike/modelhike-sub001/log"
)

// Sandbox is an isolated generation context: it owns a variable scope, a
// registry and the declared functions. A Sandbox is not safe for
// concurrent use; run one per container instead.
type Sandbox struct {
	reg    *Registry
	scope  *Scope
	funcs  map[string]*Func
	host   Host
	logger log.Logger
	marker string
}

// Option configures a Sandbox.
type Option func(*Sandbox)

// WithLogger sets the logger used for parse and render records.
func WithLogger(logger log.Logger) Option {
	return func(sb *Sandbox) { sb.logger = logger }
}

// WithRegistry replaces the default registry. The sandbox works on a
// clone, so reg may be shared.
func WithRegistry(reg *Registry) Option {
	return func(sb *Sandbox) {
		if reg != nil {
			sb.reg = reg.Clone()
		}
	}
}

// WithLibraries loads additional libraries after the registry is set.
func WithLibraries(libs ...Library) Option {
	return func(sb *Sandbox) { sb.reg.Load(libs...) }
}

// WithHost sets the host performing file and shell statements.
func WithHost(host Host) Option {
	return func(sb *Sandbox) {
		if host != nil {
			sb.host = host
		}
	}
}

// WithCommentMarker sets the comment line prefix.
func WithCommentMarker(marker string) Option {
	return func(sb *Sandbox) { sb.marker = marker }
}

// WithVars defines global variables.
func WithVars(vars map[string]any) Option {
	return func(sb *Sandbox) {
		for k, v := range vars {
			sb.scope.Define(k, v)
		}
	}
}

// New returns a sandbox with the default library loaded.
func New(opts ...Option) *Sandbox {
	sb := &Sandbox{
		reg:    NewRegistry(DefaultLibrary),
		scope:  NewScope(nil),
		funcs:  map[string]*Func{},
		host:   NopHost{},
	}

	for _, opt := range opts {
		opt(sb)
	}

	return sb
}

// Registry returns the sandbox registry.
func (sb *Sandbox) Registry() *Registry { return sb.reg }

// Scope returns the sandbox variable scope.
func (sb *Sandbox) Scope() *Scope { return sb.scope }

// Logger returns the sandbox logger.
func (sb *Sandbox) Logger() log.Logger { return sb.logger }

// Set assigns a variable.
func (sb *Sandbox) Set(name string, v any) { sb.scope.Set(name, v) }

// Get returns a variable.
func (sb *Sandbox) Get(name string) (any, bool) { return sb.scope.Get(name) }

// Funcs returns the names of the declared functions.
func (sb *Sandbox) Funcs() []string { return slices.Sorted(maps.Keys(sb.funcs)) }

type parseKind byte

const (
	kindTemplate parseKind = 't'
	kindScript   parseKind = 's'
)

// cache holds parsed templates by content hash. Templates are immutable,
// so entries are shared between sandboxes.
var cache = newLRU[*Template](MaxCachedTemplates)

func cacheKey(kind parseKind, marker, source, text string) uint64 {
	h := xxh3.New()
	h.Write([]byte{byte(kind), 0})
	h.WriteString(marker)
	h.Write([]byte{0})
	h.WriteString(source)
	h.Write([]byte{0})
	h.WriteString(text)

	return h.Sum64()
}

func (sb *Sandbox) parse(kind parseKind, source, text string) (*Template, error) {
	key := cacheKey(kind, sb.marker, source, text)

	if t, ok := cache.Load(key); ok {
		sb.logger.Trace("template cache hit", slog.String("source", source))

		return t, nil
	}

	ls := lines.Split(text)
	if kind == kindScript {
		var err error
		if ls, err = lines.Normalize(ls, sb.marker, opensBlock); err != nil {
			return nil, ErrInvalidStatement.Wrap(err).With(slog.String("source", source))
		}
	}

	t, err := parse(source, ls, sb.marker, sb.logger)
	if err != nil {
		return nil, err
	}

	return cache.LoadOrStore(key, t), nil
}

// Parse parses template text identified by source.
func (sb *Sandbox) Parse(source, text string) (*Template, error) {
	return sb.parse(kindTemplate, source, text)
}

// ParseScript parses logic DSL text identified by source.
func (sb *Sandbox) ParseScript(source, text string) (*Template, error) {
	return sb.parse(kindScript, source, text)
}

// Render executes t. Functions declared at the top level of t are
// registered before execution, and variables it introduces are discarded
// afterwards.
func (sb *Sandbox) Render(ctx context.Context, t *Template) (Output, error) {
	sb.declare(t)

	sb.scope.PushFrame()
	defer sb.scope.PopFrame()

	sb.logger.Trace("render", slog.String("source", t.Source))

	return sb.newContext(ctx).render(t)
}

// Run executes t in the global frame so its variables stay visible to
// later renders.
func (sb *Sandbox) Run(ctx context.Context, t *Template) (Output, error) {
	sb.declare(t)

	sb.logger.Trace("run", slog.String("source", t.Source))

	return sb.newContext(ctx).render(t)
}

func (sb *Sandbox) declare(t *Template) {
	for _, fn := range t.Funcs() {
		sb.funcs[fn.Name] = fn
	}
}

// RenderString parses and renders template text.
func (sb *Sandbox) RenderString(ctx context.Context, source, text string) (Output, error) {
	t, err := sb.Parse(source, text)
	if err != nil {
		return Output{}, err
	}

	return sb.Render(ctx, t)
}

// RunScript parses and runs logic DSL text.
func (sb *Sandbox) RunScript(ctx context.Context, source, text string) (Output, error) {
	t, err := sb.ParseScript(source, text)
	if err != nil {
		return Output{}, err
	}

	return sb.Run(ctx, t)
}

// Eval evaluates a single expression against the sandbox variables.
func (sb *Sandbox) Eval(ctx context.Context, src string) (any, error) {
	x, err := ParseExpr(strings.TrimSpace(src))
	if err != nil {
		return nil, err
	}

	return sb.newContext(ctx).Eval(x)
}

// Call invokes a declared function and returns its output.
func (sb *Sandbox) Call(ctx context.Context, name string, args ...any) (string, error) {
	for i, a := range args {
		args[i] = Normalize(a)
	}

	return sb.newContext(ctx).call(name, args)
}

// Fill interpolates print expressions and inline calls on every line of
// text. Statement and comment lines are not interpreted and blank lines
// are kept.
func (sb *Sandbox) Fill(ctx context.Context, source, text string) (string, error) {
	var (
		c   = sb.newContext(ctx)
		out strings.Builder
	)

	for _, ln := range lines.Split(text) {
		pi := lines.PInfo{
			Raw:    ln.Text,
			Line:   strings.TrimSpace(ln.Text),
			LineNo: ln.No,
			Source: source,
		}
		c.pi = pi

		segs, err := ParseContent(ln.Text)
		if err != nil {
			return "", located(pi, err)
		}

		s, err := renderSegments(c, segs)
		if err != nil {
			return "", located(pi, err)
		}

		out.WriteString(s)
		out.WriteByte('\n')
	}

	return out.String(), nil
}
