package soup

import (
	"log/slog"
	"strconv"
	"strings"
)

// Expr is a parsed expression.
type Expr interface {
	eval(c *Context) (any, error)
	String() string
}

type (
	// Literal is a constant.
	Literal struct{ Value any }

	// Ident is a variable reference.
	Ident struct{ Name string }

	// Path resolves Name on the value of X.
	Path struct {
		X    Expr
		Name string
	}

	// ArrayLit builds an array.
	ArrayLit struct{ Items []Expr }

	// Unary is logical negation (not) or arithmetic negation (-).
	Unary struct {
		Op string
		X  Expr
	}

	// Logical is a short-circuiting and/or.
	Logical struct {
		Op   string
		L, R Expr
	}

	// Binary applies a registered infix operator.
	Binary struct {
		Op   string
		L, R Expr
	}

	// Call invokes a template function.
	Call struct {
		Name string
		Args []Expr
	}

	// ModCall is one stage of a modifier pipeline.
	ModCall struct {
		Name string
		Args []Expr
	}

	// Pipe applies modifiers to X, left to right.
	Pipe struct {
		X    Expr
		Mods []ModCall
	}
)

func (e *Literal) String() string {
	if s, ok := e.Value.(string); ok {
		return strconv.Quote(s)
	}

	if e.Value == nil {
		return "nil"
	}

	return Stringify(e.Value)
}

func (e *Ident) String() string { return e.Name }
func (e *Path) String() string  { return e.X.String() + "." + e.Name }

func (e *ArrayLit) String() string { return "[" + joinExprs(e.Items) + "]" }

func (e *Unary) String() string {
	if e.Op == "-" {
		return "-" + e.X.String()
	}

	return e.Op + " " + e.X.String()
}
func (e *Logical) String() string { return "(" + e.L.String() + " " + e.Op + " " + e.R.String() + ")" }
func (e *Binary) String() string  { return "(" + e.L.String() + " " + e.Op + " " + e.R.String() + ")" }
func (e *Call) String() string    { return e.Name + "(" + joinExprs(e.Args) + ")" }

func (m ModCall) String() string {
	if len(m.Args) == 0 {
		return m.Name
	}

	return m.Name + "(" + joinExprs(m.Args) + ")"
}

func (e *Pipe) String() string {
	var sb strings.Builder

	sb.WriteString(e.X.String())

	for _, m := range e.Mods {
		sb.WriteString(" | ")
		sb.WriteString(m.String())
	}

	return sb.String()
}

func joinExprs(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}

	return strings.Join(parts, ", ")
}

// Reserved words of the expression language.
var keywords = map[string]bool{
	"and": true, "or": true, "not": true,
	"in": true, "not-in": true, "contains": true,
	"true": true, "false": true, "nil": true,
}

var compareOps = map[string]bool{
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
	"in": true, "not-in": true, "contains": true,
}

// ParseExpr parses a complete expression with an optional modifier
// pipeline.
func ParseExpr(src string) (Expr, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}

	p := &exprParser{src: src, toks: toks}

	e, err := p.pipeline()
	if err != nil {
		return nil, err
	}

	if t := p.peek(); t.kind != tokEOF {
		return nil, p.fail(t, "unexpected "+strconv.Quote(t.text))
	}

	return e, nil
}

type exprParser struct {
	src  string
	toks []token
	pos  int
}

func (p *exprParser) peek() token { return p.toks[p.pos] }

func (p *exprParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}

	return t
}

func (p *exprParser) isOp(text string) bool {
	t := p.peek()

	return t.kind == tokOp && t.text == text
}

func (p *exprParser) isWord(text string) bool {
	t := p.peek()

	return t.kind == tokIdent && t.text == text
}

func (p *exprParser) expect(text string) error {
	if !p.isOp(text) {
		t := p.peek()
		if t.kind == tokEOF {
			return p.fail(t, "expected "+strconv.Quote(text)+" before end of expression")
		}

		return p.fail(t, "expected "+strconv.Quote(text)+", got "+strconv.Quote(t.text))
	}

	p.next()

	return nil
}

func (p *exprParser) fail(t token, reason string) error {
	return ErrInvalidExpr.With(
		slog.String("expr", p.src),
		slog.Int("pos", t.pos),
		slog.String("reason", reason),
	)
}

func (p *exprParser) pipeline() (Expr, error) {
	x, err := p.logic()
	if err != nil {
		return nil, err
	}

	if !p.isOp("|") {
		return x, nil
	}

	pipe := &Pipe{X: x}

	for p.isOp("|") {
		p.next()

		name := p.next()
		if name.kind != tokIdent {
			return nil, p.fail(name, "expected modifier name")
		}

		mc := ModCall{Name: name.text}

		if p.isOp("(") {
			p.next()

			if mc.Args, err = p.list(")"); err != nil {
				return nil, err
			}
		}

		pipe.Mods = append(pipe.Mods, mc)
	}

	return pipe, nil
}

// list parses comma separated pipelines up to and including the closing
// token.
func (p *exprParser) list(closing string) ([]Expr, error) {
	var items []Expr

	if p.isOp(closing) {
		p.next()

		return items, nil
	}

	for {
		item, err := p.pipeline()
		if err != nil {
			return nil, err
		}

		items = append(items, item)

		if !p.isOp(",") {
			break
		}

		p.next()
	}

	return items, p.expect(closing)
}

func (p *exprParser) logic() (Expr, error) {
	l, err := p.compare()
	if err != nil {
		return nil, err
	}

	for p.isWord("and") || p.isWord("or") {
		op := p.next().text

		r, err := p.compare()
		if err != nil {
			return nil, err
		}

		l = &Logical{Op: op, L: l, R: r}
	}

	return l, nil
}

func (p *exprParser) compare() (Expr, error) {
	l, err := p.sum()
	if err != nil {
		return nil, err
	}

	t := p.peek()
	if (t.kind == tokOp || t.kind == tokIdent) && compareOps[t.text] {
		p.next()

		r, err := p.sum()
		if err != nil {
			return nil, err
		}

		return &Binary{Op: t.text, L: l, R: r}, nil
	}

	return l, nil
}

func (p *exprParser) sum() (Expr, error) {
	l, err := p.term()
	if err != nil {
		return nil, err
	}

	for p.isOp("+") || p.isOp("-") {
		op := p.next().text

		r, err := p.term()
		if err != nil {
			return nil, err
		}

		l = &Binary{Op: op, L: l, R: r}
	}

	return l, nil
}

func (p *exprParser) term() (Expr, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}

	for p.isOp("*") || p.isOp("/") || p.isOp("%") {
		op := p.next().text

		r, err := p.unary()
		if err != nil {
			return nil, err
		}

		l = &Binary{Op: op, L: l, R: r}
	}

	return l, nil
}

func (p *exprParser) unary() (Expr, error) {
	if p.isWord("not") {
		p.next()

		x, err := p.unary()
		if err != nil {
			return nil, err
		}

		return &Unary{Op: "not", X: x}, nil
	}

	if p.isOp("-") {
		p.next()

		x, err := p.unary()
		if err != nil {
			return nil, err
		}

		return &Unary{Op: "-", X: x}, nil
	}

	return p.postfix()
}

func (p *exprParser) postfix() (Expr, error) {
	x, err := p.primary()
	if err != nil {
		return nil, err
	}

	for p.isOp(".") {
		p.next()

		name := p.next()
		if name.kind != tokIdent {
			return nil, p.fail(name, "expected property name after '.'")
		}

		x = &Path{X: x, Name: name.text}
	}

	return x, nil
}

func (p *exprParser) primary() (Expr, error) {
	t := p.next()

	switch t.kind {
	case tokInt:
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, p.fail(t, err.Error())
		}

		return &Literal{Value: n}, nil

	case tokFloat:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, p.fail(t, err.Error())
		}

		return &Literal{Value: f}, nil

	case tokString:
		return &Literal{Value: t.text}, nil

	case tokIdent:
		switch t.text {
		case "true":
			return &Literal{Value: true}, nil
		case "false":
			return &Literal{Value: false}, nil
		case "nil":
			return &Literal{Value: nil}, nil
		}

		if keywords[t.text] {
			return nil, p.fail(t, "unexpected keyword "+strconv.Quote(t.text))
		}

		if p.isOp("(") {
			p.next()

			args, err := p.list(")")
			if err != nil {
				return nil, err
			}

			return &Call{Name: t.text, Args: args}, nil
		}

		return &Ident{Name: t.text}, nil

	case tokOp:
		switch t.text {
		case "(":
			x, err := p.pipeline()
			if err != nil {
				return nil, err
			}

			return x, p.expect(")")

		case "[":
			items, err := p.list("]")
			if err != nil {
				return nil, err
			}

			return &ArrayLit{Items: items}, nil
		}

	case tokEOF:
		return nil, p.fail(t, "unexpected end of expression")
	}

	return nil, p.fail(t, "unexpected "+strconv.Quote(t.text))
}
