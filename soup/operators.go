package soup

import (
	"math"
	"slices"
	"strings"
)

// numeric declares the four Int/Double combinations of an arithmetic or
// comparison operator. Mixed operands are promoted to Double.
func numeric[T any](
	name string,
	onInt func(a, b int64) (T, error),
	onDouble func(a, b float64) (T, error),
) []Operator {
	return []Operator{
		NewOperator(name, onInt),
		NewOperator(name, onDouble),
		NewOperator(name, func(a int64, b float64) (T, error) { return onDouble(float64(a), b) }),
		NewOperator(name, func(a float64, b int64) (T, error) { return onDouble(a, float64(b)) }),
	}
}

func compare(name string, fn func(c int) bool) []Operator {
	ops := numeric(name,
		func(a, b int64) (bool, error) { return fn(cmpOrdered(a, b)), nil },
		func(a, b float64) (bool, error) { return fn(cmpOrdered(a, b)), nil },
	)

	return append(ops, NewOperator(name, func(a, b string) (bool, error) {
		return fn(strings.Compare(a, b)), nil
	}))
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}

	return 0
}

func member(items []any, v any) bool {
	return slices.ContainsFunc(items, func(item any) bool { return Equal(item, v) })
}

// membership declares in, not-in and contains for every supported
// container/element pair.
func membership() []Operator {
	var ops []Operator

	add := func(name string, negate, mirrored bool) {
		result := func(b bool) (bool, error) { return b != negate, nil }

		if mirrored {
			ops = append(ops,
				NewOperator(name, func(a []any, v string) (bool, error) { return result(member(a, v)) }),
				NewOperator(name, func(a []any, v int64) (bool, error) { return result(member(a, v)) }),
				NewOperator(name, func(a []any, v float64) (bool, error) { return result(member(a, v)) }),
				NewOperator(name, func(a []any, v bool) (bool, error) { return result(member(a, v)) }),
				NewOperator(name, func(s, sub string) (bool, error) { return result(strings.Contains(s, sub)) }),
				NewOperator(name, func(m map[string]any, k string) (bool, error) {
					_, ok := m[k]

					return result(ok)
				}),
			)

			return
		}

		ops = append(ops,
			NewOperator(name, func(v string, a []any) (bool, error) { return result(member(a, v)) }),
			NewOperator(name, func(v int64, a []any) (bool, error) { return result(member(a, v)) }),
			NewOperator(name, func(v float64, a []any) (bool, error) { return result(member(a, v)) }),
			NewOperator(name, func(v bool, a []any) (bool, error) { return result(member(a, v)) }),
			NewOperator(name, func(sub, s string) (bool, error) { return result(strings.Contains(s, sub)) }),
			NewOperator(name, func(k string, m map[string]any) (bool, error) {
				_, ok := m[k]

				return result(ok)
			}),
		)
	}

	add("in", false, false)
	add("not-in", true, false)
	add("contains", false, true)

	return ops
}

// OperatorLibrary installs the built-in infix operators.
func OperatorLibrary(r *Registry) {
	r.AddOperator(
		NewOperator("==", func(a, b any) (bool, error) { return Equal(a, b), nil }),
		NewOperator("!=", func(a, b any) (bool, error) { return !Equal(a, b), nil }),
	)

	r.AddOperator(compare("<", func(c int) bool { return c < 0 })...)
	r.AddOperator(compare("<=", func(c int) bool { return c <= 0 })...)
	r.AddOperator(compare(">", func(c int) bool { return c > 0 })...)
	r.AddOperator(compare(">=", func(c int) bool { return c >= 0 })...)

	r.AddOperator(numeric("+",
		func(a, b int64) (any, error) { return a + b, nil },
		func(a, b float64) (any, error) { return a + b, nil },
	)...)
	r.AddOperator(
		NewOperator("+", func(a, b string) (string, error) { return a + b, nil }),
		NewOperator("+", func(a, b []any) ([]any, error) {
			return append(slices.Clone(a), b...), nil
		}),
	)

	r.AddOperator(numeric("-",
		func(a, b int64) (any, error) { return a - b, nil },
		func(a, b float64) (any, error) { return a - b, nil },
	)...)
	r.AddOperator(numeric("*",
		func(a, b int64) (any, error) { return a * b, nil },
		func(a, b float64) (any, error) { return a * b, nil },
	)...)
	r.AddOperator(numeric("/",
		func(a, b int64) (any, error) {
			if b == 0 {
				return nil, ErrDivisionByZero
			}

			return a / b, nil
		},
		func(a, b float64) (any, error) {
			if b == 0 {
				return nil, ErrDivisionByZero
			}

			return a / b, nil
		},
	)...)
	r.AddOperator(numeric("%",
		func(a, b int64) (any, error) {
			if b == 0 {
				return nil, ErrDivisionByZero
			}

			return a % b, nil
		},
		func(a, b float64) (any, error) {
			if b == 0 {
				return nil, ErrDivisionByZero
			}

			return math.Mod(a, b), nil
		},
	)...)

	r.AddOperator(membership()...)
}
