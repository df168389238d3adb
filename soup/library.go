package soup

import (
	"encoding/json"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ardnew/mung"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/goccy/go-yaml"
	"github.com/iancoleman/strcase"
	"github.com/zeebo/xxh3"

	"github.com/modelhike/modelhike-sub001/pkg"
)

var (
	ErrArgType        = pkg.NewError("wrong argument type")
	ErrDivisionByZero = pkg.NewError("division by zero")
	ErrCalc           = pkg.NewError("calc expression failed")
	ErrEncode         = pkg.NewError("encoding failed")
)

// DefaultLibrary installs the built-in modifiers and operators.
func DefaultLibrary(r *Registry) {
	StringLibrary(r)
	ArrayLibrary(r)
	ValueLibrary(r)
	OperatorLibrary(r)
}

func argString(mod string, args []any, i int) (string, error) {
	s, ok := args[i].(string)
	if !ok {
		return "", ErrArgType.With(
			slog.String("modifier", mod),
			slog.Int("argument", i+1),
			slog.String("expected", TypeString),
			slog.String("actual", TypeOf(args[i])),
		)
	}

	return s, nil
}

func argInt(mod string, args []any, i int) (int64, error) {
	n, ok := args[i].(int64)
	if !ok {
		return 0, ErrArgType.With(
			slog.String("modifier", mod),
			slog.Int("argument", i+1),
			slog.String("expected", TypeInt),
			slog.String("actual", TypeOf(args[i])),
		)
	}

	return n, nil
}

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}

	return string(unicode.ToUpper(r)) + s[n:]
}

func uncapitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}

	return string(unicode.ToLower(r)) + s[n:]
}

// StringLibrary installs String modifiers.
func StringLibrary(r *Registry) {
	r.AddModifier(
		Modify("uppercase", strings.ToUpper),
		Modify("lowercase", strings.ToLower),
		Modify("capitalize", capitalize),
		Modify("uncapitalize", uncapitalize),
		Modify("trim", strings.TrimSpace),
		Modify("camel-case", strcase.ToLowerCamel),
		Modify("pascal-case", strcase.ToCamel),
		Modify("snake-case", strcase.ToSnake),
		Modify("kebab-case", strcase.ToKebab),
		Modify("screaming-snake-case", strcase.ToScreamingSnake),
		Modify("quote", strconv.Quote),
		Modify("length", func(s string) int64 { return int64(utf8.RuneCountInString(s)) }),
		Modify("plural", plural),

		ModifyWith("replace", 2, 2, func(s string, args []any) (string, error) {
			old, err := argString("replace", args, 0)
			if err != nil {
				return "", err
			}

			repl, err := argString("replace", args, 1)
			if err != nil {
				return "", err
			}

			return strings.ReplaceAll(s, old, repl), nil
		}),
		ModifyWith("prefix", 1, 1, func(s string, args []any) (string, error) {
			p, err := argString("prefix", args, 0)

			return p + s, err
		}),
		ModifyWith("suffix", 1, 1, func(s string, args []any) (string, error) {
			p, err := argString("suffix", args, 0)

			return s + p, err
		}),
		ModifyWith("split", 0, 1, func(s string, args []any) ([]any, error) {
			sep := ","
			if len(args) == 1 {
				var err error
				if sep, err = argString("split", args, 0); err != nil {
					return nil, err
				}
			}

			parts := strings.Split(s, sep)
			out := make([]any, len(parts))

			for i, p := range parts {
				out[i] = strings.TrimSpace(p)
			}

			return out, nil
		}),
		ModifyWith("path-prefix", 1, Variadic, func(s string, args []any) (string, error) {
			items := make([]string, len(args))
			for i := range args {
				var err error
				if items[i], err = argString("path-prefix", args, i); err != nil {
					return "", err
				}
			}

			return mung.Make(
				mung.WithSubjectItems(s),
				mung.WithDelim(string(os.PathListSeparator)),
				mung.WithPrefixItems(items...),
			).String(), nil
		}),
	)
}

// plural applies the common English plural suffix rules.
func plural(s string) string {
	lower := strings.ToLower(s)

	switch {
	case s == "":
		return s
	case strings.HasSuffix(lower, "y") && len(s) > 1 &&
		!strings.ContainsRune("aeiou", rune(lower[len(lower)-2])):
		return s[:len(s)-1] + "ies"
	case strings.HasSuffix(lower, "s"), strings.HasSuffix(lower, "x"),
		strings.HasSuffix(lower, "ch"), strings.HasSuffix(lower, "sh"):
		return s + "es"
	}

	return s + "s"
}

// ArrayLibrary installs Array modifiers.
func ArrayLibrary(r *Registry) {
	r.AddModifier(
		Modify("count", func(a []any) int64 { return int64(len(a)) }),
		Modify("first", func(a []any) any {
			if len(a) == 0 {
				return nil
			}

			return a[0]
		}),
		Modify("last", func(a []any) any {
			if len(a) == 0 {
				return nil
			}

			return a[len(a)-1]
		}),
		Modify("reverse", func(a []any) []any {
			out := slices.Clone(a)
			slices.Reverse(out)

			return out
		}),
		Modify("is-empty", func(a []any) bool { return len(a) == 0 }),
		Modify("has-items", func(a []any) bool { return len(a) > 0 }),
		ModifyWith("join", 0, 1, func(a []any, args []any) (string, error) {
			sep := ", "
			if len(args) == 1 {
				var err error
				if sep, err = argString("join", args, 0); err != nil {
					return "", err
				}
			}

			parts := make([]string, len(a))
			for i, v := range a {
				parts[i] = Stringify(v)
			}

			return strings.Join(parts, sep), nil
		}),
	)
}

// ValueLibrary installs modifiers accepting any value.
func ValueLibrary(r *Registry) {
	r.AddModifier(
		Modify("string", Stringify),
		Modify("typename", TypeOf),
		Modify("not", func(v any) bool { return !Truthy(v) }),
		ModifyWith("default", 1, 1, func(v any, args []any) (any, error) {
			if Truthy(v) {
				return v, nil
			}

			return args[0], nil
		}),
		ModifyErr("json", func(v any) (string, error) {
			b, err := json.Marshal(plain(v))
			if err != nil {
				return "", ErrEncode.Wrap(err).With(slog.String("format", "json"))
			}

			return string(b), nil
		}),
		ModifyErr("yaml", func(v any) (string, error) {
			b, err := yaml.MarshalWithOptions(plain(v), yaml.Indent(2))
			if err != nil {
				return "", ErrEncode.Wrap(err).With(slog.String("format", "yaml"))
			}

			return strings.TrimRight(string(b), "\n"), nil
		}),
		ModifyWith("calc", 1, 1, func(v any, args []any) (any, error) {
			src, err := argString("calc", args, 0)
			if err != nil {
				return nil, err
			}

			return calc(src, v)
		}),
		ModifyWith("plus", 1, 1, func(n int64, args []any) (int64, error) {
			d, err := argInt("plus", args, 0)

			return n + d, err
		}),
		ModifyWith("minus", 1, 1, func(n int64, args []any) (int64, error) {
			d, err := argInt("minus", args, 0)

			return n - d, err
		}),
	)
}

// plain replaces host objects by their print form so encoders never walk
// the object graph.
func plain(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = plain(item)
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = plain(item)
		}

		return out
	case PropertyResolvable:
		return Stringify(x)
	}

	return v
}

// programs caches compiled calc expressions by source hash.
var programs = newLRU[*vm.Program](MaxCachedPrograms)

func calc(src string, it any) (any, error) {
	key := xxh3.HashString(src)

	program, ok := programs.Load(key)
	if !ok {
		compiled, err := expr.Compile(src)
		if err != nil {
			return nil, ErrCalc.Wrap(err).With(slog.String("expr", src))
		}

		program = programs.LoadOrStore(key, compiled)
	}

	out, err := expr.Run(program, map[string]any{"it": plain(it)})
	if err != nil {
		return nil, ErrCalc.Wrap(err).With(slog.String("expr", src))
	}

	return out, nil
}
