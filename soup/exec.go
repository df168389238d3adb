package soup

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/modelhike/modelhike-sub001/lines"
	"github.com/modelhike/modelhike-sub001/log"
)

// MaxCallDepth bounds nested function calls.
const MaxCallDepth = 256

// Func is a template function declared with func/end-func.
type Func struct {
	Name   string
	Params []string
	Body   []Stmt
	PInfo  lines.PInfo
}

// Output is the result of one render. Produced is false when no statement
// wrote anything, which is distinct from producing an empty string.
// Stopped reports that the template ended with stop-render; its text is
// discarded.
type Output struct {
	Text     string
	Produced bool
	Stopped  bool
}

// Context is the execution state threaded through every statement and
// expression of one render.
type Context struct {
	ctx    context.Context
	sb     *Sandbox
	scope  *Scope
	reg    *Registry
	funcs  map[string]*Func
	host   Host
	logger log.Logger

	out      *strings.Builder
	produced bool
	depth    int
	pi       lines.PInfo
}

func (sb *Sandbox) newContext(ctx context.Context) *Context {
	return &Context{
		ctx:    ctx,
		sb:     sb,
		scope:  sb.scope,
		reg:    sb.reg,
		funcs:  sb.funcs,
		host:   sb.host,
		logger: sb.logger,
		out:    &strings.Builder{},
	}
}

// Context returns the context.Context of the render.
func (c *Context) Context() context.Context { return c.ctx }

// Sandbox returns the sandbox being rendered in.
func (c *Context) Sandbox() *Sandbox { return c.sb }

// Scope returns the variable scope.
func (c *Context) Scope() *Scope { return c.scope }

// Logger returns the render logger.
func (c *Context) Logger() log.Logger { return c.logger }

func (c *Context) write(s string) {
	c.out.WriteString(s)
	c.produced = true
}

// exec runs stmts in order, stopping at the first error.
func (c *Context) exec(stmts []Stmt) error {
	for _, st := range stmts {
		if err := c.ctx.Err(); err != nil {
			return err
		}

		pi := st.Info()
		c.pi = pi

		if err := st.Execute(c); err != nil {
			if errors.Is(err, ErrStopRender) {
				return err
			}

			return located(pi, err)
		}
	}

	return nil
}

// capture runs fn with a fresh output buffer and returns what it wrote.
func (c *Context) capture(fn func() error) (string, error) {
	saved, savedProduced := c.out, c.produced
	c.out, c.produced = &strings.Builder{}, false

	err := fn()
	text := c.out.String()

	c.out, c.produced = saved, savedProduced

	return text, err
}

// call invokes the function name with args and returns its output without
// trailing newlines. Parameters are bound with [Scope.BindShadowed], so
// the body may update the caller's variables.
func (c *Context) call(name string, args []any) (string, error) {
	fn, ok := c.funcs[name]
	if !ok {
		return "", withSuggestion(
			ErrUnknownFunction.With(slog.String("function", name)),
			name, slices.Sorted(maps.Keys(c.funcs)),
		)
	}

	if len(args) != len(fn.Params) {
		return "", ErrArgCount.With(
			slog.String("function", name),
			slog.Int("expected", len(fn.Params)),
			slog.Int("actual", len(args)),
		)
	}

	if c.depth >= MaxCallDepth {
		return "", ErrRecursionLimit.With(
			slog.String("function", name),
			slog.Int("depth", c.depth),
		)
	}

	c.logger.Trace("call", slog.String("function", name), slog.Int("depth", c.depth))

	binding := c.scope.BindShadowed(fn.Params, args)
	defer binding.Release()

	c.depth++
	defer func() { c.depth-- }()

	pi := c.pi
	defer func() { c.pi = pi }()

	text, err := c.capture(func() error { return c.exec(fn.Body) })
	if err != nil {
		return "", err
	}

	return strings.TrimRight(text, "\n"), nil
}

// render executes a whole template. A stop-render discards the output.
func (c *Context) render(t *Template) (Output, error) {
	err := c.exec(t.Stmts)

	switch {
	case errors.Is(err, ErrStopRender):
		c.logger.Debug("render stopped", slog.String("source", t.Source), slog.Int("line", c.pi.LineNo))

		return Output{Stopped: true}, nil
	case err != nil:
		return Output{}, err
	}

	return Output{Text: c.out.String(), Produced: c.produced}, nil
}
