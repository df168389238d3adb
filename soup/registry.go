package soup

import (
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"strconv"
)

// Variadic marks a modifier without an upper argument limit.
const Variadic = -1

// Modifier is a named transformation applied with pipe syntax. It accepts
// exactly one runtime input type and never coerces.
type Modifier struct {
	Name    string
	Input   string
	Output  string
	MinArgs int
	MaxArgs int

	accepts func(any) bool
	apply   func(in any, args []any) (any, error)
}

// Accepts reports whether the modifier can be applied to v.
func (m Modifier) Accepts(v any) bool { return m.accepts(v) }

// CheckArgs validates the number of arguments.
func (m Modifier) CheckArgs(n int) error {
	if n < m.MinArgs || (m.MaxArgs != Variadic && n > m.MaxArgs) {
		return ErrArgCount.With(
			slog.String("modifier", m.Name),
			slog.String("expected", m.arity()),
			slog.Int("actual", n),
		)
	}

	return nil
}

func (m Modifier) arity() string {
	switch {
	case m.MaxArgs == Variadic:
		return strconv.Itoa(m.MinArgs) + "+"
	case m.MinArgs == m.MaxArgs:
		return strconv.Itoa(m.MinArgs)
	}

	return strconv.Itoa(m.MinArgs) + ".." + strconv.Itoa(m.MaxArgs)
}

// Apply runs the modifier after checking the input type and argument
// count.
func (m Modifier) Apply(in any, args []any) (any, error) {
	if err := m.CheckArgs(len(args)); err != nil {
		return nil, err
	}

	if !m.accepts(in) {
		return nil, ErrModifierType.With(
			slog.String("modifier", m.Name),
			slog.String("expected", m.Input),
			slog.String("actual", TypeOf(in)),
		)
	}

	out, err := m.apply(in, args)
	if err != nil {
		return nil, err
	}

	return Normalize(out), nil
}

// Signature describes the modifier as "name(args): Input -> Output".
func (m Modifier) Signature() string {
	s := m.Name
	if m.MaxArgs != 0 {
		s += "(" + m.arity() + ")"
	}

	return s + ": " + m.Input + " -> " + m.Output
}

// acceptsType returns a matcher for the Go type I. The Any type matches
// every value including nil.
func acceptsType[I any]() func(any) bool {
	t := reflect.TypeFor[I]()
	if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		return func(any) bool { return true }
	}

	return func(v any) bool {
		_, ok := v.(I)

		return ok
	}
}

func cast[I any](v any) I {
	x, _ := v.(I)

	return x
}

// Modify declares a modifier without arguments.
func Modify[I, T any](name string, fn func(I) T) Modifier {
	return ModifyWith(name, 0, 0, func(in I, _ []any) (T, error) {
		return fn(in), nil
	})
}

// ModifyErr declares a fallible modifier without arguments.
func ModifyErr[I, T any](name string, fn func(I) (T, error)) Modifier {
	return ModifyWith(name, 0, 0, func(in I, _ []any) (T, error) {
		return fn(in)
	})
}

// ModifyWith declares a modifier taking between minArgs and maxArgs
// arguments; maxArgs may be [Variadic].
func ModifyWith[I, T any](
	name string,
	minArgs, maxArgs int,
	fn func(I, []any) (T, error),
) Modifier {
	return Modifier{
		Name:    name,
		Input:   typeNameOf(reflect.TypeFor[I]()),
		Output:  typeNameOf(reflect.TypeFor[T]()),
		MinArgs: minArgs,
		MaxArgs: maxArgs,
		accepts: acceptsType[I](),
		apply: func(in any, args []any) (any, error) {
			return fn(cast[I](in), args)
		},
	}
}

// Operator is a binary infix operator registered for one (left, right)
// type pair.
type Operator struct {
	Name   string
	Left   string
	Right  string
	Output string

	matchL func(any) bool
	matchR func(any) bool
	apply  func(l, r any) (any, error)
}

// Matches reports whether the operator accepts the operand pair.
func (o Operator) Matches(l, r any) bool { return o.matchL(l) && o.matchR(r) }

// Apply runs the operator on a matching pair.
func (o Operator) Apply(l, r any) (any, error) {
	out, err := o.apply(l, r)
	if err != nil {
		return nil, err
	}

	return Normalize(out), nil
}

// NewOperator declares an operator for operands of types L and R.
func NewOperator[L, R, T any](name string, fn func(L, R) (T, error)) Operator {
	return Operator{
		Name:   name,
		Left:   typeNameOf(reflect.TypeFor[L]()),
		Right:  typeNameOf(reflect.TypeFor[R]()),
		Output: typeNameOf(reflect.TypeFor[T]()),
		matchL: acceptsType[L](),
		matchR: acceptsType[R](),
		apply: func(l, r any) (any, error) {
			return fn(cast[L](l), cast[R](r))
		},
	}
}

// Registry maps names to modifiers and operators. A sandbox owns its
// registry; libraries are loaded into it before rendering starts and it is
// only read afterwards.
type Registry struct {
	modifiers map[string]Modifier
	operators map[string][]Operator
}

// Library installs a set of modifiers and operators into a registry.
type Library func(*Registry)

// NewRegistry returns a registry with the given libraries loaded.
func NewRegistry(libs ...Library) *Registry {
	r := &Registry{
		modifiers: map[string]Modifier{},
		operators: map[string][]Operator{},
	}

	for _, lib := range libs {
		lib(r)
	}

	return r
}

// Load installs libraries, replacing modifiers of the same name.
func (r *Registry) Load(libs ...Library) *Registry {
	for _, lib := range libs {
		lib(r)
	}

	return r
}

// AddModifier registers modifiers, replacing any of the same name.
func (r *Registry) AddModifier(mods ...Modifier) {
	for _, m := range mods {
		r.modifiers[m.Name] = m
	}
}

// AddOperator registers operator variants. Variants registered later take
// precedence for the same type pair.
func (r *Registry) AddOperator(ops ...Operator) {
	for _, o := range ops {
		r.operators[o.Name] = append([]Operator{o}, r.operators[o.Name]...)
	}
}

// Modifier looks up a modifier by exact name.
func (r *Registry) Modifier(name string) (Modifier, bool) {
	m, ok := r.modifiers[name]

	return m, ok
}

// HasOperator reports whether any variant of name is registered.
func (r *Registry) HasOperator(name string) bool {
	return len(r.operators[name]) > 0
}

// Operator finds the variant of name registered for the operand types.
func (r *Registry) Operator(name string, l, rv any) (Operator, error) {
	variants, ok := r.operators[name]
	if !ok {
		return Operator{}, ErrUnknownOperator.With(slog.String("operator", name))
	}

	for _, o := range variants {
		if o.Matches(l, rv) {
			return o, nil
		}
	}

	return Operator{}, ErrOperatorType.With(
		slog.String("operator", name),
		slog.String("left", TypeOf(l)),
		slog.String("right", TypeOf(rv)),
	)
}

// ModifierNames returns the sorted names of all modifiers.
func (r *Registry) ModifierNames() []string {
	return slices.Sorted(maps.Keys(r.modifiers))
}

// Modifiers returns all modifiers sorted by name.
func (r *Registry) Modifiers() []Modifier {
	out := make([]Modifier, 0, len(r.modifiers))
	for _, name := range r.ModifierNames() {
		out = append(out, r.modifiers[name])
	}

	return out
}

// Clone returns an independent copy.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		modifiers: maps.Clone(r.modifiers),
		operators: make(map[string][]Operator, len(r.operators)),
	}

	for k, v := range r.operators {
		c.operators[k] = slices.Clone(v)
	}

	return c
}
