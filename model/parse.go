package model

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/klauspost/readahead"

	"github.com/modelhike/modelhike-sub001/lex"
	"github.com/modelhike/modelhike-sub001/lines"
	"github.com/modelhike/modelhike-sub001/log"
)

// DefaultContainer names the container of entities declared before any
// container header.
const DefaultContainer = "default"

var (
	containerRx = regexp.MustCompile(`^=+\s*(.*?)\s*=+$`)
	underlineRx = regexp.MustCompile(`^(?:={3,}|-{3,})$`)
)

// parser accumulates model elements while walking the lines of one source.
type parser struct {
	model     *Model
	container *Container
	module    *Module
	entity    *Entity
	cursor    *lines.Cursor
	logger    log.Logger
}

// Parse reads a model from r. Sources are merged into m when m is not nil,
// so several files may contribute to the same containers.
func Parse(
	ctx context.Context,
	source string,
	r io.Reader,
	m *Model,
	logger log.Logger,
) (*Model, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadModel.Wrap(err).With(slog.String("source", source))
	}

	return ParseString(ctx, source, string(data), m, logger)
}

// ParseString parses model markup text.
func ParseString(
	ctx context.Context,
	source, text string,
	m *Model,
	logger log.Logger,
) (*Model, error) {
	if m == nil {
		m = new(Model)
	}

	p := &parser{
		model:  m,
		cursor: lines.New(source, text, lines.WithLogger(logger)),
		logger: logger,
	}

	if _, err := p.cursor.Parse("", 0, p.line); err != nil {
		return nil, err
	}

	logger.TraceContext(ctx, "model parsed",
		slog.String("source", source),
		slog.Int("containers", len(m.Containers)),
		slog.Int("entities", len(m.Entities())),
	)

	return m, nil
}

func (p *parser) fail(pi lines.PInfo, reason string) error {
	return ErrInvalidModelLine.With(pi.Attrs()...).With(slog.String("reason", reason))
}

func (p *parser) line(pi lines.PInfo, _ string) error {
	if m := containerRx.FindStringSubmatch(pi.Line); m != nil && m[1] != "" && strings.HasPrefix(pi.Line, "===") {
		p.openContainer(m[1])

		return nil
	}

	switch pi.First {
	case "+":
		p.openModule(strings.TrimSpace(strings.TrimPrefix(pi.Line, "+")))

		return nil

	case "*", "-", "_":
		return p.property(pi)

	case "~":
		return p.api(pi)
	}

	// entity header: the next line underlines it
	if underline := p.cursor.CurrentLine(); underlineRx.MatchString(underline) {
		p.cursor.Skip()

		return p.openEntity(pi, underline[0] == '-')
	}

	return p.fail(pi, "unrecognized line")
}

func (p *parser) openContainer(name string) {
	if c, ok := p.model.Container(name); ok {
		p.container = c
	} else {
		p.container = &Container{Name: name, Attribs: Attribs{}}
		p.model.Containers = append(p.model.Containers, p.container)
	}

	p.module = nil
	p.entity = nil
}

func (p *parser) openModule(decl string) {
	if p.container == nil {
		p.openContainer(DefaultContainer)
	}

	name, attrs := splitDecl(decl)

	for _, mod := range p.container.Modules {
		if mod.Name == name {
			p.module = mod

			return
		}
	}

	p.module = &Module{Name: name, Container: p.container, Attribs: attrs}
	p.container.Modules = append(p.container.Modules, p.module)
	p.entity = nil
}

func (p *parser) openEntity(pi lines.PInfo, dto bool) error {
	if p.module == nil {
		name := DefaultContainer
		if p.container != nil {
			name = p.container.Name
		}

		p.openModule(name)
	}

	decl := lex.StripComment(pi.Line, p.cursor.CommentMarker())
	name, attrs := splitDecl(decl)

	if !lex.IsIdent(strings.ReplaceAll(name, " ", "")) {
		return p.fail(pi, "invalid entity name")
	}

	if _, dup := p.model.Entity(name); dup {
		return ErrDuplicateEntity.With(pi.Attrs()...).With(slog.String("entity", name))
	}

	p.entity = &Entity{
		Name:    name,
		Module:  p.module,
		Attribs: attrs,
		Tags:    lex.Tags(decl),
	}

	if dto {
		p.entity.Kind = EntityDTO
	}

	p.module.Entities = append(p.module.Entities, p.entity)

	return nil
}

// splitDecl separates "Name (attrs) #tags" into its name and attributes.
func splitDecl(decl string) (string, Attribs) {
	name := decl

	if i := strings.IndexAny(decl, "(#"); i >= 0 {
		name = decl[:i]
	}

	attrs := Attribs{}

	if open := strings.Index(decl, "("); open >= 0 {
		if end := strings.LastIndex(decl, ")"); end > open {
			if list, ok := lex.Attributes(decl[open : end+1]); ok {
				attrs = makeAttribs(list)
			}
		}
	}

	return strings.TrimSpace(name), attrs
}

// ParseProperty parses a property line such as
// "* tags : String[] = [] (max=5) #indexed".
func ParseProperty(line string) (*Property, bool) {
	mark, rest := lex.FirstWord(line)

	req, ok := RequirementOf(mark)
	if !ok {
		return nil, false
	}

	s := lex.NewScanner(rest)

	name, ok := s.Ident()
	if !ok {
		return nil, false
	}

	prop := &Property{Name: name, Requirement: req, Attribs: Attribs{}}
	rest = strings.TrimSpace(s.Rest())

	if strings.HasPrefix(rest, ":") {
		rest = strings.TrimSpace(rest[1:])

		end := strings.IndexAny(rest, " \t[=(#")
		if end < 0 {
			end = len(rest)
		}

		typ := rest[:end]
		rest = strings.TrimSpace(rest[end:])

		if strings.HasPrefix(rest, "[]") {
			prop.IsArray = true
			rest = strings.TrimSpace(rest[2:])
		}

		prop.Type = ParseType(typ, prop.IsArray)
	}

	if strings.HasPrefix(rest, "=") {
		rest = strings.TrimSpace(rest[1:])

		end := len(rest)
		if i := lex.IndexTopLevel(rest, "("); i >= 0 {
			end = i
		}

		if i := lex.IndexTopLevel(rest[:end], "#"); i >= 0 {
			end = i
		}

		prop.Default = strings.TrimSpace(rest[:end])
		rest = strings.TrimSpace(rest[end:])
	}

	if strings.HasPrefix(rest, "(") {
		s = lex.NewScanner(rest)

		inner, ok := s.Balanced()
		if !ok {
			return nil, false
		}

		list, ok := lex.Attributes(inner)
		if !ok {
			return nil, false
		}

		prop.Attribs = makeAttribs(list)
		rest = s.Rest()
	}

	prop.Tags = lex.Tags(rest)

	return prop, true
}

func (p *parser) property(pi lines.PInfo) error {
	if p.entity == nil {
		return ErrNoEntity.With(pi.Attrs()...)
	}

	prop, ok := ParseProperty(lex.StripComment(pi.Line, p.cursor.CommentMarker()))
	if !ok {
		return p.fail(pi, "invalid property")
	}

	prop.Entity = p.entity
	p.entity.Properties = append(p.entity.Properties, prop)

	return nil
}

// ParseAPI parses an API line body such as "list-by (status, owner)" or
// "custom approve /orders/{id}/approve".
func ParseAPI(body string, entity string) (*API, bool) {
	s := lex.NewScanner(body)

	word, ok := s.Ident()
	if !ok {
		return nil, false
	}

	typ, ok := ParseAPIType(word)
	if !ok {
		return nil, false
	}

	a := &API{Type: typ, Name: word, Attribs: Attribs{}}

	if typ == APICustom {
		if a.Name, ok = s.Ident(); !ok {
			return nil, false
		}
	}

	if strings.HasPrefix(strings.TrimSpace(s.Peek()), "(") {
		inner, ok := s.Balanced()
		if !ok {
			return nil, false
		}

		for _, param := range lex.SplitTopLevel(inner, ',') {
			if param != "" {
				a.Params = append(a.Params, param)
			}
		}
	}

	if path := s.Rest(); strings.HasPrefix(path, "/") {
		a.Path, _ = lex.FirstWord(path)
	} else if path != "" {
		return nil, false
	}

	if a.Path == "" {
		a.Path = defaultPath(typ, entity)
	}

	return a, true
}

func (p *parser) api(pi lines.PInfo) error {
	if p.entity == nil {
		return ErrNoEntity.With(pi.Attrs()...)
	}

	body := strings.TrimSpace(strings.TrimPrefix(lex.StripComment(pi.Line, p.cursor.CommentMarker()), "~"))

	a, ok := ParseAPI(body, p.entity.Name)
	if !ok {
		return p.fail(pi, "invalid api")
	}

	a.Entity = p.entity
	p.entity.APIs = append(p.entity.APIs, a)

	return nil
}

// Hydrate resolves entity references. It must be called after all sources
// are parsed and before the model is rendered.
func (m *Model) Hydrate() error {
	for _, e := range m.Entities() {
		for _, prop := range e.Properties {
			if !prop.Type.Kind.IsReference() {
				continue
			}

			target, ok := m.Entity(prop.Type.Name)
			if !ok {
				return ErrUnresolvedReference.With(
					slog.String("entity", e.Name),
					slog.String("property", prop.Name),
					slog.String("target", prop.Type.Name),
				)
			}

			prop.Ref = target
		}
	}

	return nil
}
