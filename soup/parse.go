package soup

import (
	"log/slog"
	"strings"

	"github.com/modelhike/modelhike-sub001/lex"
	"github.com/modelhike/modelhike-sub001/lines"
	"github.com/modelhike/modelhike-sub001/log"
)

// Template is a parsed template or script. Templates are immutable once
// parsed and may be rendered concurrently by different sandboxes.
type Template struct {
	Source string
	Stmts  []Stmt
}

// Funcs returns the top-level function declarations of t.
func (t *Template) Funcs() []*Func {
	var fns []*Func

	for _, st := range t.Stmts {
		if b, ok := st.(*BlockStmt); ok {
			if a, ok := b.Action.(*funcAction); ok {
				fns = append(fns, &Func{Name: a.Name, Params: a.Params, Body: b.Body, PInfo: a.PInfo})
			}
		}
	}

	return fns
}

// splitStatement is the word splitter of templates. A statement line
// yields the marker, the keyword and the remainder; a content line yields
// empty words so it never matches an end keyword.
func splitStatement(trimmed string) (first, second, rest string) {
	body, ok := strings.CutPrefix(trimmed, lines.StatementMarker)
	if !ok {
		return "", "", trimmed
	}

	second, rest = lex.FirstWord(strings.TrimSpace(body))

	return lines.StatementMarker, second, rest
}

type parser struct {
	cursor *lines.Cursor
	logger log.Logger
}

// parse parses template text. Scripts are normalized beforehand.
func parse(source string, ls []lines.Line, marker string, logger log.Logger) (*Template, error) {
	p := &parser{
		cursor: lines.FromLines(source, ls,
			lines.WithCommentMarker(marker),
			lines.WithSplitter(splitStatement),
			lines.WithLogger(logger),
		),
		logger: logger,
	}

	stmts, _, err := p.body("", 0, nil)
	if err != nil {
		return nil, err
	}

	logger.Trace("parsed", slog.String("source", source), slog.Int("statements", len(stmts)))

	return &Template{Source: source, Stmts: stmts}, nil
}

// body parses statements at level until the end keyword till. Unknown
// keywords fail immediately unless they are one of conts, in which case
// they are kept as [UnidentifiedStmt] for the enclosing multi-block.
func (p *parser) body(till string, level int, conts []string) ([]Stmt, bool, error) {
	var stmts []Stmt

	found, err := p.cursor.Parse(till, level, func(pi lines.PInfo, keyword string) error {
		st, err := p.statement(pi, keyword, conts)
		if err != nil {
			return err
		}

		stmts = append(stmts, st)

		return nil
	})

	return stmts, found, err
}

func (p *parser) statement(pi lines.PInfo, keyword string, conts []string) (Stmt, error) {
	if pi.First != lines.StatementMarker {
		return parseContentStmt(pi)
	}

	kw, ok := statements[keyword]

	switch {
	case !ok && keyword == "":
		return nil, invalid(pi, "missing keyword")

	case !ok:
		return nil, withSuggestion(
			ErrUnidentifiedStatement.With(pi.Attrs()...).With(slog.String("keyword", keyword)),
			keyword, Keywords(),
		)

	case kw.Shape == ShapeContinuation:
		for _, c := range conts {
			if statements[c] == kw {
				return &UnidentifiedStmt{PInfo: pi}, nil
			}
		}

		return nil, ErrMisplacedContinuation.With(pi.Attrs()...).With(slog.String("keyword", keyword))
	}

	if kw.IsLine != nil && kw.IsLine(pi.Rest) {
		act, err := kw.Line(pi)
		if err != nil {
			return nil, err
		}

		return &BlockOrLineStmt{PInfo: pi, Keyword: kw.Name, Line: act}, nil
	}

	switch kw.Shape {
	case ShapeLine:
		act, err := kw.Line(pi)
		if err != nil {
			return nil, err
		}

		return &LineStmt{PInfo: pi, Keyword: kw.Name, Action: act}, nil

	case ShapeBlock, ShapeBlockOrLine:
		act, err := kw.Block(pi)
		if err != nil {
			return nil, err
		}

		body, closed, err := p.block(pi, kw, nil)
		if err != nil {
			return nil, err
		}

		if kw.Shape == ShapeBlock {
			return &BlockStmt{PInfo: pi, Keyword: kw.Name, Action: act, Body: body, Closed: closed}, nil
		}

		return &BlockOrLineStmt{PInfo: pi, Keyword: kw.Name, Block: act, Body: body, Closed: closed}, nil

	case ShapeMultiBlock:
		return p.multiBlock(pi, kw)
	}

	return nil, invalid(pi, "unsupported statement shape "+kw.Shape.String())
}

// block parses the body of kw and consumes its end line.
func (p *parser) block(pi lines.PInfo, kw *Keyword, conts []string) ([]Stmt, bool, error) {
	body, found, err := p.body(kw.End, pi.Level+1, conts)
	if err != nil {
		return nil, false, err
	}

	if found {
		p.cursor.Skip()
	} else {
		p.logger.Debug("unterminated block", append(pi.Attrs(), slog.String("expected", kw.End))...)
	}

	return body, found, nil
}

// multiBlock parses a flat body and then splits it into sub-blocks at
// every continuation line.
func (p *parser) multiBlock(pi lines.PInfo, kw *Keyword) (Stmt, error) {
	head, err := kw.Branch(pi)
	if err != nil {
		return nil, err
	}

	flat, closed, err := p.block(pi, kw, kw.Continuations)
	if err != nil {
		return nil, err
	}

	m := &MultiBlockStmt{
		PInfo:   pi,
		Keyword: kw.Name,
		Blocks:  []SubBlock{{PInfo: pi, Keyword: kw.Name, Cond: head}},
		Closed:  closed,
	}

	final := false

	for _, st := range flat {
		u, ok := st.(*UnidentifiedStmt)
		if !ok {
			last := &m.Blocks[len(m.Blocks)-1]
			last.Body = append(last.Body, st)

			continue
		}

		cont, ok := statements[u.PInfo.Second]
		if !ok || cont.Shape != ShapeContinuation {
			return nil, ErrUnidentifiedStatement.With(u.PInfo.Attrs()...)
		}

		if final {
			return nil, ErrMisplacedContinuation.With(u.PInfo.Attrs()...).With(
				slog.String("keyword", u.PInfo.Second),
				slog.String("reason", "after final continuation"),
			)
		}

		cond, err := cont.Branch(u.PInfo)
		if err != nil {
			return nil, err
		}

		final = cont.Final
		m.Blocks = append(m.Blocks, SubBlock{PInfo: u.PInfo, Keyword: cont.Name, Cond: cond})
	}

	return m, nil
}
