// Package typemap maps model property types to the type names and default
// values of target languages. Each [Table] is installed into a sandbox
// registry as a [soup.Library].
package typemap

import (
	"slices"
	"strconv"
	"strings"

	"github.com/modelhike/modelhike-sub001/model"
	"github.com/modelhike/modelhike-sub001/soup"
)

// Table describes one target language.
type Table struct {
	Name    string
	Scalars map[model.Kind]string

	// Fallback names kinds missing from Scalars.
	Fallback string

	Array    func(elem string) string
	Required func(t string) string

	Defaults     map[model.Kind]string
	ArrayDefault string
	NilDefault   string
	Quote        func(s string) string
}

// TypeOf returns the language type of p.
func (t *Table) TypeOf(p *model.Property) string {
	name, ok := t.Scalars[p.Type.Kind]

	switch {
	case p.Type.Kind.IsReference(), p.Type.Kind == model.KindCustomType:
		name = p.Type.Name
	case !ok:
		name = t.Fallback
	}

	if isArray(p) && t.Array != nil {
		name = t.Array(name)
	}

	if p.Requirement == model.Required && t.Required != nil {
		name = t.Required(name)
	}

	return name
}

// DefaultValue returns the literal initializing p, using the declared
// default when there is one.
func (t *Table) DefaultValue(p *model.Property) string {
	if p.Default != "" {
		switch {
		case isArray(p) && p.Default == "[]":
			return t.ArrayDefault
		case p.Type.Kind == model.KindString && t.Quote != nil && !isQuoted(p.Default):
			return t.Quote(p.Default)
		}

		return p.Default
	}

	if isArray(p) {
		return t.ArrayDefault
	}

	if v, ok := t.Defaults[p.Type.Kind]; ok {
		return v
	}

	return t.NilDefault
}

func isArray(p *model.Property) bool {
	switch p.Type.Kind {
	case model.KindMultiReference, model.KindMultiExtendedReference:
		return true
	}

	return p.IsArray
}

func isQuoted(s string) bool {
	return len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0]
}

// Library returns the modifiers of the table: typename, which maps
// properties and keeps the runtime type name for every other value, and
// default-value.
func (t *Table) Library() soup.Library {
	return func(r *soup.Registry) {
		r.AddModifier(
			soup.Modify("typename", func(v any) string {
				if p, ok := v.(*model.Property); ok {
					return t.TypeOf(p)
				}

				return soup.TypeOf(v)
			}),
			soup.Modify("default-value", t.DefaultValue),
		)
	}
}

var (
	// Java maps to boxed Java types and java.time.
	Java = &Table{
		Name: "java",
		Scalars: map[model.Kind]string{
			model.KindInt:        "Integer",
			model.KindDouble:     "Double",
			model.KindFloat:      "Float",
			model.KindBool:       "Boolean",
			model.KindString:     "String",
			model.KindID:         "String",
			model.KindAny:        "Object",
			model.KindDate:       "LocalDate",
			model.KindDateTime:   "Instant",
			model.KindBuffer:     "byte[]",
			model.KindCodedValue: "CodedValue",
		},
		Fallback: "Object",
		Array:    func(elem string) string { return "List<" + elem + ">" },
		Defaults: map[model.Kind]string{
			model.KindInt:    "0",
			model.KindDouble: "0.0",
			model.KindFloat:  "0.0f",
			model.KindBool:   "false",
		},
		ArrayDefault: "new ArrayList<>()",
		NilDefault:   "null",
		Quote:        strconv.Quote,
	}

	// TypeScript maps to TypeScript primitive and array types.
	TypeScript = &Table{
		Name: "typescript",
		Scalars: map[model.Kind]string{
			model.KindInt:        "number",
			model.KindDouble:     "number",
			model.KindFloat:      "number",
			model.KindBool:       "boolean",
			model.KindString:     "string",
			model.KindID:         "string",
			model.KindAny:        "any",
			model.KindDate:       "Date",
			model.KindDateTime:   "Date",
			model.KindBuffer:     "Buffer",
			model.KindCodedValue: "CodedValue",
		},
		Fallback: "unknown",
		Array:    func(elem string) string { return elem + "[]" },
		Defaults: map[model.Kind]string{
			model.KindInt:    "0",
			model.KindDouble: "0",
			model.KindFloat:  "0",
			model.KindBool:   "false",
			model.KindString: "''",
		},
		ArrayDefault: "[]",
		NilDefault:   "undefined",
		Quote:        func(s string) string { return "'" + strings.ReplaceAll(s, "'", `\'`) + "'" },
	}

	// GraphQL maps to GraphQL schema types; required properties are
	// non-null.
	GraphQL = &Table{
		Name: "graphql",
		Scalars: map[model.Kind]string{
			model.KindInt:        "Int",
			model.KindDouble:     "Float",
			model.KindFloat:      "Float",
			model.KindBool:       "Boolean",
			model.KindString:     "String",
			model.KindID:         "ID",
			model.KindAny:        "JSON",
			model.KindDate:       "Date",
			model.KindDateTime:   "DateTime",
			model.KindBuffer:     "String",
			model.KindCodedValue: "CodedValue",
		},
		Fallback:     "JSON",
		Array:        func(elem string) string { return "[" + elem + "!]" },
		Required:     func(t string) string { return t + "!" },
		ArrayDefault: "[]",
		NilDefault:   "null",
		Quote:        strconv.Quote,
	}
)

var tables = []*Table{Java, TypeScript, GraphQL}

// Lookup returns the table named name ("java", "typescript" or "ts",
// "graphql" or "gql").
func Lookup(name string) (*Table, bool) {
	switch strings.ToLower(name) {
	case "ts":
		name = "typescript"
	case "gql":
		name = "graphql"
	}

	i := slices.IndexFunc(tables, func(t *Table) bool { return strings.EqualFold(t.Name, name) })
	if i < 0 {
		return nil, false
	}

	return tables[i], true
}

// Names returns the names of the built-in tables.
func Names() []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.Name
	}

	return out
}
