package soup

import (
	"errors"
	"log/slog"
)

func (e *Literal) eval(*Context) (any, error) { return e.Value, nil }

func (e *Ident) eval(c *Context) (any, error) {
	if v, ok := c.scope.Get(e.Name); ok {
		return v, nil
	}

	return nil, withSuggestion(
		ErrUndefinedVariable.With(slog.String("name", e.Name)),
		e.Name, c.scope.Names(),
	)
}

func (e *Path) eval(c *Context) (any, error) {
	x, err := e.X.eval(c)
	if err != nil {
		return nil, err
	}

	return property(x, e.Name, e.String())
}

// property resolves one hop of a dotted path.
func property(x any, name, path string) (any, error) {
	switch obj := x.(type) {
	case PropertyResolvable:
		v, err := obj.GetProperty(name)
		if err != nil {
			return nil, ErrPropertyNotFound.Wrap(err).With(
				slog.String("property", name),
				slog.String("type", obj.TypeName()),
				slog.String("path", path),
			)
		}

		return Normalize(v), nil

	case map[string]any:
		if v, ok := obj[name]; ok {
			return v, nil
		}
	}

	return nil, ErrPropertyNotFound.With(
		slog.String("property", name),
		slog.String("type", TypeOf(x)),
		slog.String("path", path),
	)
}

func (e *ArrayLit) eval(c *Context) (any, error) {
	out := make([]any, len(e.Items))

	for i, item := range e.Items {
		v, err := item.eval(c)
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}

func (e *Unary) eval(c *Context) (any, error) {
	v, err := e.X.eval(c)
	if err != nil {
		return nil, err
	}

	if e.Op == "not" {
		return !Truthy(v), nil
	}

	// -x is 0 - x, so the numeric operator table decides the result type.
	op, err := c.reg.Operator("-", int64(0), v)
	if err != nil {
		return nil, err
	}

	return op.Apply(int64(0), v)
}

func (e *Logical) eval(c *Context) (any, error) {
	l, err := e.L.eval(c)
	if err != nil {
		return nil, err
	}

	switch lt := Truthy(l); {
	case e.Op == "and" && !lt:
		return false, nil
	case e.Op == "or" && lt:
		return true, nil
	}

	r, err := e.R.eval(c)
	if err != nil {
		return nil, err
	}

	return Truthy(r), nil
}

func (e *Binary) eval(c *Context) (any, error) {
	l, err := e.L.eval(c)
	if err != nil {
		return nil, err
	}

	r, err := e.R.eval(c)
	if err != nil {
		return nil, err
	}

	op, err := c.reg.Operator(e.Op, l, r)
	if err != nil {
		return nil, err
	}

	return op.Apply(l, r)
}

func (e *Call) eval(c *Context) (any, error) {
	args := make([]any, len(e.Args))

	for i, a := range e.Args {
		v, err := a.eval(c)
		if err != nil {
			return nil, err
		}

		args[i] = v
	}

	return c.call(e.Name, args)
}

func (e *Pipe) eval(c *Context) (any, error) {
	v, err := e.X.eval(c)
	if err != nil {
		// default tolerates a missing value
		if e.Mods[0].Name != "default" ||
			!(errors.Is(err, ErrUndefinedVariable) || errors.Is(err, ErrPropertyNotFound)) {
			return nil, err
		}

		v = nil
	}

	for _, mc := range e.Mods {
		m, ok := c.reg.Modifier(mc.Name)
		if !ok {
			return nil, withSuggestion(
				ErrUnknownModifier.With(slog.String("modifier", mc.Name)),
				mc.Name, c.reg.ModifierNames(),
			)
		}

		if err := m.CheckArgs(len(mc.Args)); err != nil {
			return nil, err
		}

		args := make([]any, len(mc.Args))

		for i, a := range mc.Args {
			if args[i], err = a.eval(c); err != nil {
				return nil, err
			}
		}

		if v, err = m.Apply(v, args); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// Eval evaluates e in c.
func (c *Context) Eval(e Expr) (any, error) {
	v, err := e.eval(c)
	if err != nil {
		return nil, located(c.pi, err)
	}

	return v, nil
}
