package soup

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// PropertyResolvable is implemented by host objects exposed to templates.
// GetProperty resolves one hop of a dotted path; the last case of an
// implementation is expected to consult its generic attributes.
type PropertyResolvable interface {
	TypeName() string
	GetProperty(name string) (any, error)
}

// Type names reported in errors.
const (
	TypeNil    = "Nil"
	TypeString = "String"
	TypeBool   = "Bool"
	TypeInt    = "Int"
	TypeDouble = "Double"
	TypeArray  = "Array"
	TypeMap    = "Map"
	TypeAny    = "Any"
	TypeObject = "Object"
)

// Normalize converts Go values into the runtime representation: int64,
// float64, []any and map[string]any. Other values pass through.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil, string, bool, int64, float64, []any, map[string]any:
		return v
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}

		return out
	case map[string]string:
		out := make(map[string]any, len(x))
		for k, s := range x {
			out[k] = s
		}

		return out
	case PropertyResolvable:
		return v
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}

		return out

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}

		out := make(map[string]any, rv.Len())
		for it := rv.MapRange(); it.Next(); {
			out[it.Key().String()] = Normalize(it.Value().Interface())
		}

		return out
	}

	return v
}

// TypeOf returns the runtime type name of v.
func TypeOf(v any) string {
	switch x := v.(type) {
	case nil:
		return TypeNil
	case string:
		return TypeString
	case bool:
		return TypeBool
	case int64:
		return TypeInt
	case float64:
		return TypeDouble
	case []any:
		return TypeArray
	case map[string]any:
		return TypeMap
	case PropertyResolvable:
		return x.TypeName()
	}

	return fmt.Sprintf("%T", v)
}

// Stringify returns the print form of v.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = Stringify(item)
		}

		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := slices.Sorted(maps.Keys(x))
		parts := make([]string, len(keys))

		for i, k := range keys {
			parts[i] = k + ": " + Stringify(x[k])
		}

		return "{" + strings.Join(parts, ", ") + "}"
	case fmt.Stringer:
		return x.String()
	case PropertyResolvable:
		if name, err := x.GetProperty("name"); err == nil {
			if s, ok := name.(string); ok {
				return s
			}
		}

		return x.TypeName()
	}

	return fmt.Sprint(v)
}

// Truthy reports the truth value of v: nil, false, zero numbers and empty
// strings, arrays and maps are false.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int64:
		return x != 0
	case float64:
		return x != 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}

	return true
}

// Equal compares two runtime values. Int and Double compare numerically.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y
		case float64:
			return float64(x) == y
		}

		return false

	case float64:
		switch y := b.(type) {
		case int64:
			return x == float64(y)
		case float64:
			return x == y
		}

		return false

	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}

		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}

		return true

	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}

		for k, v := range x {
			w, ok := y[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}

		return true
	}

	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}

	return a == b
}

// typeNameOf returns the runtime type name matched by a Go type parameter.
func typeNameOf(t reflect.Type) string {
	switch t {
	case reflect.TypeFor[string]():
		return TypeString
	case reflect.TypeFor[bool]():
		return TypeBool
	case reflect.TypeFor[int64]():
		return TypeInt
	case reflect.TypeFor[float64]():
		return TypeDouble
	case reflect.TypeFor[[]any]():
		return TypeArray
	case reflect.TypeFor[map[string]any]():
		return TypeMap
	case reflect.TypeFor[any]():
		return TypeAny
	case reflect.TypeFor[PropertyResolvable]():
		return TypeObject
	}

	if t.Kind() == reflect.Pointer {
		return t.Elem().Name()
	}

	return t.String()
}
