package model

import (
	"log/slog"

	"github.com/iancoleman/strcase"

	"github.com/modelhike/modelhike-sub001/lex"
)

// Attribs holds the free-form attributes of a model element. Attributes
// are the last place a property lookup searches.
type Attribs map[string]any

func makeAttribs(attrs []lex.Attribute) Attribs {
	m := make(Attribs, len(attrs))

	for _, a := range attrs {
		if a.HasValue {
			m[a.Name] = a.Value
		} else {
			m[a.Name] = true
		}
	}

	return m
}

func tagNames(tags []lex.Tag) []any {
	out := make([]any, len(tags))
	for i, t := range tags {
		out[i] = t.Name
	}

	return out
}

func hasTag(tags []lex.Tag, name string) bool {
	for _, t := range tags {
		if t.Name == name {
			return true
		}
	}

	return false
}

func notFound(typ, name string) error {
	return ErrUnknownProperty.With(
		slog.String("type", typ),
		slog.String("property", name),
	)
}

// Model is the root of a parsed domain model.
type Model struct {
	Containers []*Container
}

// Container returns the container named name.
func (m *Model) Container(name string) (*Container, bool) {
	for _, c := range m.Containers {
		if c.Name == name {
			return c, true
		}
	}

	return nil, false
}

// Entities returns every entity of every container.
func (m *Model) Entities() []*Entity {
	var out []*Entity
	for _, c := range m.Containers {
		out = append(out, c.Entities()...)
	}

	return out
}

// Entity finds an entity by name anywhere in the model.
func (m *Model) Entity(name string) (*Entity, bool) {
	for _, e := range m.Entities() {
		if e.Name == name {
			return e, true
		}
	}

	return nil, false
}

func (m *Model) TypeName() string { return "Model" }

func (m *Model) GetProperty(name string) (any, error) {
	switch name {
	case "containers":
		return toAny(m.Containers), nil
	case "entities":
		return toAny(m.Entities()), nil
	case "container-count":
		return int64(len(m.Containers)), nil
	default:
		if c, ok := m.Container(name); ok {
			return c, nil
		}

		return nil, notFound("Model", name)
	}
}

// Container is a deployable unit grouping modules.
type Container struct {
	Name    string
	Modules []*Module
	Attribs Attribs
	Tags    []lex.Tag
}

// Entities returns the entities of all modules in declaration order.
func (c *Container) Entities() []*Entity {
	var out []*Entity
	for _, mod := range c.Modules {
		out = append(out, mod.Entities...)
	}

	return out
}

func (c *Container) TypeName() string { return "Container" }

func (c *Container) GetProperty(name string) (any, error) {
	switch name {
	case "name":
		return c.Name, nil
	case "modules":
		return toAny(c.Modules), nil
	case "entities":
		return toAny(c.Entities()), nil
	case "tags":
		return tagNames(c.Tags), nil
	default:
		if v, ok := c.Attribs[name]; ok {
			return v, nil
		}

		return nil, notFound("Container", name)
	}
}

// Module groups related entities within a container.
type Module struct {
	Name      string
	Entities  []*Entity
	Container *Container
	Attribs   Attribs
}

func (m *Module) TypeName() string { return "Module" }

func (m *Module) GetProperty(name string) (any, error) {
	switch name {
	case "name":
		return m.Name, nil
	case "entities":
		return toAny(m.Entities), nil
	case "container":
		return nilable(m.Container), nil
	case "package":
		return strcase.ToSnake(m.Name), nil
	default:
		if v, ok := m.Attribs[name]; ok {
			return v, nil
		}

		return nil, notFound("Module", name)
	}
}

// EntityKind distinguishes persisted entities from transfer objects.
type EntityKind int

const (
	EntityClass EntityKind = iota // underlined with '='
	EntityDTO                     // underlined with '-'
)

// Entity is a named type with properties and APIs.
type Entity struct {
	Name       string
	Kind       EntityKind
	Properties []*Property
	APIs       []*API
	Module     *Module
	Attribs    Attribs
	Tags       []lex.Tag
}

// Property returns the property named name.
func (e *Entity) Property(name string) (*Property, bool) {
	for _, p := range e.Properties {
		if p.Name == name {
			return p, true
		}
	}

	return nil, false
}

// References returns the properties that reference other entities.
func (e *Entity) References() []*Property {
	var out []*Property
	for _, p := range e.Properties {
		if p.Type.Kind.IsReference() {
			out = append(out, p)
		}
	}

	return out
}

func (e *Entity) TypeName() string { return "Entity" }

func (e *Entity) GetProperty(name string) (any, error) {
	switch name {
	case "name":
		return e.Name, nil
	case "properties":
		return toAny(e.Properties), nil
	case "apis":
		return toAny(e.APIs), nil
	case "has-apis":
		return len(e.APIs) > 0, nil
	case "references":
		return toAny(e.References()), nil
	case "is-dto":
		return e.Kind == EntityDTO, nil
	case "module":
		return nilable(e.Module), nil
	case "tags":
		return tagNames(e.Tags), nil
	case "id-property":
		for _, p := range e.Properties {
			if p.Type.Kind == KindID {
				return p, nil
			}
		}

		return nil, nil
	default:
		if v, ok := e.Attribs[name]; ok {
			return v, nil
		}

		if hasTag(e.Tags, name) {
			return true, nil
		}

		return nil, notFound("Entity", name)
	}
}

// Property is a typed field of an entity.
type Property struct {
	Name        string
	Type        Type
	IsArray     bool
	Requirement Requirement
	Default     string
	Attribs     Attribs
	Tags        []lex.Tag
	Entity      *Entity
	// Ref is the referenced entity once the model is hydrated.
	Ref *Entity
}

func (p *Property) TypeName() string { return "Property" }

func (p *Property) GetProperty(name string) (any, error) {
	switch name {
	case "name":
		return p.Name, nil
	case "type":
		return p.Type.String(), nil
	case "kind":
		return p.Type.Kind.String(), nil
	case "type-name":
		return p.Type.Name, nil
	case "is-array":
		return p.IsArray, nil
	case "is-required":
		return p.Requirement == Required, nil
	case "is-optional":
		return p.Requirement == Optional, nil
	case "is-conditional":
		return p.Requirement == Conditional, nil
	case "is-reference":
		return p.Type.Kind.IsReference(), nil
	case "is-custom-type":
		return p.Type.Kind == KindCustomType, nil
	case "is-id":
		return p.Type.Kind == KindID, nil
	case "ref":
		return nilable(p.Ref), nil
	case "default":
		return p.Default, nil
	case "has-default":
		return p.Default != "", nil
	case "entity":
		return nilable(p.Entity), nil
	case "tags":
		return tagNames(p.Tags), nil
	default:
		if v, ok := p.Attribs[name]; ok {
			return v, nil
		}

		if hasTag(p.Tags, name) {
			return true, nil
		}

		return nil, notFound("Property", name)
	}
}

// API is an operation exposed for an entity.
type API struct {
	Type    APIType
	Name    string
	Path    string
	Params  []string
	Entity  *Entity
	Attribs Attribs
}

func (a *API) TypeName() string { return "API" }

func (a *API) GetProperty(name string) (any, error) {
	switch name {
	case "type":
		return a.Type.String(), nil
	case "name":
		return a.Name, nil
	case "path":
		return a.Path, nil
	case "method":
		return a.Type.HTTPMethod(), nil
	case "params":
		return toAny(a.Params), nil
	case "has-params":
		return len(a.Params) > 0, nil
	case "entity":
		return nilable(a.Entity), nil
	case "is-create":
		return a.Type == APICreate, nil
	case "is-update":
		return a.Type == APIUpdate, nil
	case "is-delete":
		return a.Type == APIDelete, nil
	case "is-get-by-id":
		return a.Type == APIGetByID, nil
	case "is-list":
		return a.Type == APIList || a.Type == APIListBy, nil
	case "is-custom":
		return a.Type == APICustom, nil
	default:
		if v, ok := a.Attribs[name]; ok {
			return v, nil
		}

		return nil, notFound("API", name)
	}
}

// defaultPath derives the REST path of an API from its entity.
func defaultPath(t APIType, entity string) string {
	base := "/" + strcase.ToKebab(entity)

	switch t {
	case APIUpdate, APIDelete, APIGetByID:
		return base + "/{id}"
	case APIListBy:
		return base + "/by"
	}

	return base
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}

	return out
}

// nilable keeps nil pointers from turning into non-nil interfaces.
func nilable[T any](v *T) any {
	if v == nil {
		return nil
	}

	return v
}
