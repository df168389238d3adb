package soup

import (
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/modelhike/modelhike-sub001/lex"
	"github.com/modelhike/modelhike-sub001/lines"
)

// Shape is the structural kind of a statement keyword.
type Shape int

// Statement shapes.
const (
	ShapeLine Shape = iota
	ShapeBlock
	ShapeBlockOrLine
	ShapeMultiBlock
	ShapeContinuation
)

func (s Shape) String() string {
	switch s {
	case ShapeLine:
		return "line"
	case ShapeBlock:
		return "block"
	case ShapeBlockOrLine:
		return "block-or-line"
	case ShapeMultiBlock:
		return "multi-block"
	case ShapeContinuation:
		return "continuation"
	}

	return "Shape(" + strconv.Itoa(int(s)) + ")"
}

// Keyword defines a statement. Line compiles line statements and the line
// variant of block-or-line statements, Block compiles block statements,
// and Branch compiles the head of a multi-block statement or a
// continuation.
type Keyword struct {
	Name          string
	Shape         Shape
	End           string
	Continuations []string

	// Final continuations must be the last sub-block.
	Final bool

	IsLine func(rest string) bool
	Line   func(pi lines.PInfo) (LineAction, error)
	Block  func(pi lines.PInfo) (BlockAction, error)
	Branch func(pi lines.PInfo) (BranchAction, error)
}

var statements = map[string]*Keyword{}

func define(kw *Keyword, aliases ...string) {
	if kw.End == "" && kw.Shape != ShapeLine && kw.Shape != ShapeContinuation {
		kw.End = lines.EndPrefix + kw.Name
	}

	statements[kw.Name] = kw
	for _, a := range aliases {
		statements[a] = kw
	}
}

// Keywords returns the sorted statement keywords, aliases included.
func Keywords() []string {
	return slices.Sorted(maps.Keys(statements))
}

func invalid(pi lines.PInfo, reason string) error {
	return ErrInvalidStatement.With(pi.Attrs()...).With(slog.String("reason", reason))
}

func parseExprAt(pi lines.PInfo, src string) (Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, invalid(pi, "missing expression")
	}

	x, err := ParseExpr(src)
	if err != nil {
		return nil, located(pi, err)
	}

	return x, nil
}

func parseContentAt(pi lines.PInfo, src string) ([]Segment, error) {
	segs, err := ParseContent(src)
	if err != nil {
		return nil, located(pi, err)
	}

	return segs, nil
}

// opensBlock reports whether a logic DSL opener names a statement with a
// block form. Unknown keywords pass so the parser reports them with a
// suggestion.
func opensBlock(keyword, rest string) bool {
	kw, ok := statements[keyword]
	if !ok {
		return true
	}

	switch kw.Shape {
	case ShapeBlock:
		return true
	case ShapeMultiBlock, ShapeBlockOrLine:
		return kw.IsLine == nil || !kw.IsLine(rest)
	default:
		return false
	}
}

func init() {
	define(&Keyword{
		Name:          "if",
		Shape:         ShapeMultiBlock,
		Continuations: []string{"else-if", "elseif", "else"},
		IsLine:        func(rest string) bool { return lex.IndexTopLevel(rest, ":") >= 0 },
		Line:          compileIfLine,
		Branch:        compileCond,
	})
	define(&Keyword{Name: "else-if", Shape: ShapeContinuation, Branch: compileCond}, "elseif")
	define(&Keyword{Name: "else", Shape: ShapeContinuation, Final: true, Branch: compileElse})
	define(&Keyword{Name: "for", Shape: ShapeBlock, Block: compileFor})
	define(&Keyword{Name: "func", Shape: ShapeBlock, Block: compileFunc})
	define(&Keyword{Name: "spaceless", Shape: ShapeBlock, Block: compileSpaceless})
	define(&Keyword{Name: "set", Shape: ShapeLine, Line: compileSet})
	define(&Keyword{
		Name:   "set-str",
		Shape:  ShapeBlockOrLine,
		IsLine: func(rest string) bool { return lex.IndexTopLevel(rest, "=") >= 0 },
		Line:   compileSetStrLine,
		Block:  compileSetStrBlock,
	})
	define(&Keyword{Name: "console-log", Shape: ShapeLine, Line: compileMessage(messageLog)})
	define(&Keyword{Name: "announce", Shape: ShapeLine, Line: compileMessage(messageAnnounce)})
	define(&Keyword{Name: "throw-error", Shape: ShapeLine, Line: compileMessage(messageThrow)})
	define(&Keyword{Name: "stop-render", Shape: ShapeLine, Line: compileStop})
	define(&Keyword{Name: "run-shell-cmd", Shape: ShapeLine, Line: compileShell})
	define(&Keyword{Name: "call", Shape: ShapeLine, Line: compileCall})
	define(&Keyword{Name: "newline", Shape: ShapeLine, Line: compileNewline})

	for op := range fileOps {
		define(&Keyword{Name: op, Shape: ShapeLine, Line: compileFileOp(op)})
	}

	statements["render-template-file"] = statements[opRenderFile]
}

// if/else-if/else

type condAction struct{ X Expr }

func (a *condAction) Test(c *Context) (bool, error) {
	v, err := a.X.eval(c)
	if err != nil {
		return false, err
	}

	return Truthy(v), nil
}

type elseAction struct{}

func (elseAction) Test(*Context) (bool, error) { return true, nil }

func compileCond(pi lines.PInfo) (BranchAction, error) {
	x, err := parseExprAt(pi, pi.Rest)
	if err != nil {
		return nil, err
	}

	return &condAction{X: x}, nil
}

func compileElse(pi lines.PInfo) (BranchAction, error) {
	if pi.Rest != "" {
		return nil, invalid(pi, "else takes no condition")
	}

	return elseAction{}, nil
}

type ifLineAction struct {
	Cond    condAction
	Content []Segment
}

func (a *ifLineAction) Run(c *Context) error {
	ok, err := a.Cond.Test(c)
	if err != nil || !ok {
		return err
	}

	text, err := renderSegments(c, a.Content)
	if err != nil {
		return err
	}

	if strings.TrimSpace(text) != "" {
		c.write(strings.TrimRight(text, " \t") + "\n")
	}

	return nil
}

func compileIfLine(pi lines.PInfo) (LineAction, error) {
	i := lex.IndexTopLevel(pi.Rest, ":")

	x, err := parseExprAt(pi, pi.Rest[:i])
	if err != nil {
		return nil, err
	}

	segs, err := parseContentAt(pi, strings.TrimSpace(pi.Rest[i+1:]))
	if err != nil {
		return nil, err
	}

	return &ifLineAction{Cond: condAction{X: x}, Content: segs}, nil
}

// for

type forAction struct {
	Var string
	X   Expr
}

func (a *forAction) Run(c *Context, body []Stmt) error {
	v, err := a.X.eval(c)
	if err != nil {
		return err
	}

	var items []any

	switch x := v.(type) {
	case nil:
	case []any:
		items = x
	case map[string]any:
		for _, k := range slices.Sorted(maps.Keys(x)) {
			items = append(items, map[string]any{"key": k, "value": x[k]})
		}
	default:
		return ErrNotIterable.With(
			slog.String("expr", a.X.String()),
			slog.String("type", TypeOf(v)),
		)
	}

	c.scope.PushFrame()
	defer c.scope.PopFrame()

	for i, item := range items {
		c.scope.Define(a.Var, item)
		c.scope.Define("@loop", map[string]any{
			"index":  int64(i + 1),
			"index0": int64(i),
			"first":  i == 0,
			"last":   i == len(items)-1,
			"count":  int64(len(items)),
		})

		if err := c.exec(body); err != nil {
			return err
		}
	}

	return nil
}

func compileFor(pi lines.PInfo) (BlockAction, error) {
	s := lex.NewScanner(pi.Rest)

	name, ok := s.Ident()
	if !ok {
		return nil, invalid(pi, "expected loop variable")
	}

	if !s.Keyword("in") {
		return nil, invalid(pi, "expected 'in' after loop variable")
	}

	x, err := parseExprAt(pi, s.Rest())
	if err != nil {
		return nil, err
	}

	return &forAction{Var: name, X: x}, nil
}

// func

type funcAction struct {
	Name   string
	Params []string
	PInfo  lines.PInfo
}

// Run declares the function; declaring produces no output.
func (a *funcAction) Run(c *Context, body []Stmt) error {
	c.funcs[a.Name] = &Func{Name: a.Name, Params: a.Params, Body: body, PInfo: a.PInfo}

	return nil
}

func compileFunc(pi lines.PInfo) (BlockAction, error) {
	s := lex.NewScanner(pi.Rest)

	name, ok := s.Ident()
	if !ok {
		return nil, invalid(pi, "expected function name")
	}

	if !s.Expect("(") {
		return nil, invalid(pi, "expected '(' after function name")
	}

	var params []string

	if !s.Expect(")") {
		for {
			p, ok := s.Ident()
			if !ok {
				return nil, invalid(pi, "expected parameter name")
			}

			if slices.Contains(params, p) {
				return nil, invalid(pi, "duplicate parameter "+p)
			}

			params = append(params, p)

			if s.Expect(")") {
				break
			}

			if !s.Expect(",") {
				return nil, invalid(pi, "expected ',' or ')' in parameter list")
			}
		}
	}

	if !s.EOF() {
		return nil, invalid(pi, "unexpected text after parameter list")
	}

	return &funcAction{Name: name, Params: params, PInfo: pi}, nil
}

// spaceless

type spacelessAction struct{}

func (spacelessAction) Run(c *Context, body []Stmt) error {
	text, err := c.capture(func() error { return c.exec(body) })
	if err != nil {
		return err
	}

	var sb strings.Builder
	for l := range strings.SplitSeq(text, "\n") {
		sb.WriteString(strings.TrimSpace(l))
	}

	if sb.Len() > 0 {
		c.write(sb.String() + "\n")
	}

	return nil
}

func compileSpaceless(pi lines.PInfo) (BlockAction, error) {
	if pi.Rest != "" {
		return nil, invalid(pi, "spaceless takes no arguments")
	}

	return spacelessAction{}, nil
}

// set, set-str

type setAction struct {
	Name string
	X    Expr
}

func (a *setAction) Run(c *Context) error {
	v, err := a.X.eval(c)
	if err != nil {
		return err
	}

	c.scope.Set(a.Name, v)

	return nil
}

// assignment splits "name = rest".
func assignment(pi lines.PInfo) (string, string, error) {
	i := lex.IndexTopLevel(pi.Rest, "=")
	if i < 0 {
		return "", "", invalid(pi, "expected 'name = value'")
	}

	name := strings.TrimSpace(pi.Rest[:i])
	if !lex.IsIdent(name) {
		return "", "", invalid(pi, "invalid variable name "+strconv.Quote(name))
	}

	return name, strings.TrimSpace(pi.Rest[i+1:]), nil
}

func compileSet(pi lines.PInfo) (LineAction, error) {
	name, rest, err := assignment(pi)
	if err != nil {
		return nil, err
	}

	x, err := parseExprAt(pi, rest)
	if err != nil {
		return nil, err
	}

	return &setAction{Name: name, X: x}, nil
}

type setStrLineAction struct {
	Name    string
	Content []Segment
}

func (a *setStrLineAction) Run(c *Context) error {
	text, err := renderSegments(c, a.Content)
	if err != nil {
		return err
	}

	c.scope.Set(a.Name, text)

	return nil
}

func compileSetStrLine(pi lines.PInfo) (LineAction, error) {
	name, rest, err := assignment(pi)
	if err != nil {
		return nil, err
	}

	segs, err := parseContentAt(pi, rest)
	if err != nil {
		return nil, err
	}

	return &setStrLineAction{Name: name, Content: segs}, nil
}

type setStrBlockAction struct{ Name string }

func (a *setStrBlockAction) Run(c *Context, body []Stmt) error {
	text, err := c.capture(func() error { return c.exec(body) })
	if err != nil {
		return err
	}

	c.scope.Set(a.Name, strings.TrimRight(text, "\n"))

	return nil
}

func compileSetStrBlock(pi lines.PInfo) (BlockAction, error) {
	if !lex.IsIdent(pi.Rest) {
		return nil, invalid(pi, "expected variable name")
	}

	return &setStrBlockAction{Name: pi.Rest}, nil
}

// console-log, announce, throw-error

type messageKind int

const (
	messageLog messageKind = iota
	messageAnnounce
	messageThrow
)

type messageAction struct {
	Kind    messageKind
	Content []Segment
}

func (a *messageAction) Run(c *Context) error {
	msg, err := renderSegments(c, a.Content)
	if err != nil {
		return err
	}

	switch a.Kind {
	case messageLog:
		c.logger.DebugContext(c.ctx, msg, slog.String("source", c.pi.String()))
	case messageAnnounce:
		c.logger.InfoContext(c.ctx, msg)

		return c.host.Announce(c.ctx, msg)
	case messageThrow:
		return ErrUserThrown.With(slog.String("message", msg))
	}

	return nil
}

func compileMessage(kind messageKind) func(lines.PInfo) (LineAction, error) {
	return func(pi lines.PInfo) (LineAction, error) {
		segs, err := parseContentAt(pi, pi.Rest)
		if err != nil {
			return nil, err
		}

		return &messageAction{Kind: kind, Content: segs}, nil
	}
}

// stop-render

type stopAction struct{}

func (stopAction) Run(*Context) error { return ErrStopRender }

func compileStop(pi lines.PInfo) (LineAction, error) {
	if pi.Rest != "" {
		return nil, invalid(pi, "stop-render takes no arguments")
	}

	return stopAction{}, nil
}

// run-shell-cmd

type shellAction struct{ Content []Segment }

func (a *shellAction) Run(c *Context) error {
	cmd, err := renderSegments(c, a.Content)
	if err != nil {
		return err
	}

	out, err := c.host.RunShell(c.ctx, cmd)
	if err != nil {
		return ErrHost.Wrap(err).With(slog.String("command", cmd))
	}

	c.logger.DebugContext(c.ctx, "shell", slog.String("command", cmd), slog.String("output", out))

	return nil
}

func compileShell(pi lines.PInfo) (LineAction, error) {
	if pi.Rest == "" {
		return nil, invalid(pi, "missing command")
	}

	segs, err := parseContentAt(pi, pi.Rest)
	if err != nil {
		return nil, err
	}

	return &shellAction{Content: segs}, nil
}

// call

type callAction struct{ Call *Call }

func (a *callAction) Run(c *Context) error {
	v, err := a.Call.eval(c)
	if err != nil {
		return err
	}

	if s := Stringify(v); strings.TrimSpace(s) != "" {
		c.write(s + "\n")
	}

	return nil
}

func compileCall(pi lines.PInfo) (LineAction, error) {
	x, err := parseExprAt(pi, pi.Rest)
	if err != nil {
		return nil, err
	}

	call, ok := x.(*Call)
	if !ok {
		return nil, invalid(pi, "expected function call")
	}

	return &callAction{Call: call}, nil
}

// newline

type newlineAction struct{ N int }

func (a *newlineAction) Run(c *Context) error {
	c.write(strings.Repeat("\n", a.N))

	return nil
}

func compileNewline(pi lines.PInfo) (LineAction, error) {
	if pi.Rest == "" {
		return &newlineAction{N: 1}, nil
	}

	n, err := strconv.Atoi(pi.Rest)
	if err != nil || n < 1 {
		return nil, invalid(pi, "newline count must be a positive integer")
	}

	return &newlineAction{N: n}, nil
}

// file operations

const (
	opCopyFile        = "copy-file"
	opRenderFile      = "render-file"
	opFillAndCopyFile = "fill-and-copy-file"
	opCopyFolder      = "copy-folder"
	opRenderFolder    = "render-folder"
)

var fileOps = map[string]func(c *Context, src, dst string) error{
	opCopyFile: func(c *Context, src, dst string) error {
		return c.host.CopyFile(c.ctx, src, dst)
	},
	opRenderFile: func(c *Context, src, dst string) error {
		return c.host.RenderFile(c.ctx, c.sb, src, dst)
	},
	opFillAndCopyFile: func(c *Context, src, dst string) error {
		return c.host.FillAndCopyFile(c.ctx, c.sb, src, dst)
	},
	opCopyFolder: func(c *Context, src, dst string) error {
		return c.host.CopyFolder(c.ctx, src, dst)
	},
	opRenderFolder: func(c *Context, src, dst string) error {
		return c.host.RenderFolder(c.ctx, c.sb, src, dst)
	},
}

type fileAction struct {
	Op       string
	Src, Dst []Segment
}

func (a *fileAction) Run(c *Context) error {
	src, err := renderSegments(c, a.Src)
	if err != nil {
		return err
	}

	dst := src
	if a.Dst != nil {
		if dst, err = renderSegments(c, a.Dst); err != nil {
			return err
		}
	}

	src, dst = strings.TrimSpace(src), strings.TrimSpace(dst)

	c.logger.TraceContext(c.ctx, a.Op, slog.String("src", src), slog.String("dst", dst))

	if err := fileOps[a.Op](c, src, dst); err != nil {
		return ErrHost.Wrap(err).With(
			slog.String("op", a.Op),
			slog.String("src", src),
			slog.String("dst", dst),
		)
	}

	return nil
}

func compileFileOp(op string) func(lines.PInfo) (LineAction, error) {
	return func(pi lines.PInfo) (LineAction, error) {
		srcText, dstText := pi.Rest, ""
		if i := lex.IndexTopLevel(pi.Rest, " as "); i >= 0 {
			srcText, dstText = pi.Rest[:i], strings.TrimSpace(pi.Rest[i+len(" as "):])
		}

		if strings.TrimSpace(srcText) == "" {
			return nil, invalid(pi, "missing source path")
		}

		a := &fileAction{Op: op}

		var err error
		if a.Src, err = parseContentAt(pi, strings.TrimSpace(srcText)); err != nil {
			return nil, err
		}

		if dstText != "" {
			if a.Dst, err = parseContentAt(pi, dstText); err != nil {
				return nil, err
			}
		}

		return a, nil
	}
}
