package soup

import (
	"github.com/modelhike/modelhike-sub001/lines"
)

// Stmt is a node of the statement tree. The concrete types are
// [*LineStmt], [*BlockStmt], [*BlockOrLineStmt], [*MultiBlockStmt],
// [*ContentStmt] and [*UnidentifiedStmt].
type Stmt interface {
	Info() lines.PInfo
	Execute(c *Context) error

	stmt()
}

// LineAction is the compiled remainder of a line statement.
type LineAction interface {
	Run(c *Context) error
}

// BlockAction is the compiled remainder of a block statement. It decides
// whether and how often to execute body.
type BlockAction interface {
	Run(c *Context, body []Stmt) error
}

// BranchAction selects a sub-block of a multi-block statement.
type BranchAction interface {
	Test(c *Context) (bool, error)
}

// LineStmt is a single-line statement without children.
type LineStmt struct {
	PInfo   lines.PInfo
	Keyword string
	Action  LineAction
}

// BlockStmt owns the statements between its start line and end keyword.
type BlockStmt struct {
	PInfo   lines.PInfo
	Keyword string
	Action  BlockAction
	Body    []Stmt

	// Closed is false when input ended before the end keyword.
	Closed bool
}

// BlockOrLineStmt is a statement whose start line decided its variant.
// Exactly one of Line and Block is set.
type BlockOrLineStmt struct {
	PInfo   lines.PInfo
	Keyword string
	Line    LineAction
	Block   BlockAction
	Body    []Stmt
	Closed  bool
}

// SubBlock is one named body of a multi-block statement.
type SubBlock struct {
	PInfo   lines.PInfo
	Keyword string
	Cond    BranchAction
	Body    []Stmt
}

// MultiBlockStmt runs the first sub-block whose condition holds.
type MultiBlockStmt struct {
	PInfo   lines.PInfo
	Keyword string
	Blocks  []SubBlock
	Closed  bool
}

// ContentStmt is a line of template text.
type ContentStmt struct {
	PInfo    lines.PInfo
	Segments []Segment
}

// UnidentifiedStmt is a statement line no keyword recognized. It only
// survives parsing as a continuation inside a multi-block body.
type UnidentifiedStmt struct {
	PInfo lines.PInfo
}

func (*LineStmt) stmt()         {}
func (*BlockStmt) stmt()        {}
func (*BlockOrLineStmt) stmt()  {}
func (*MultiBlockStmt) stmt()   {}
func (*ContentStmt) stmt()      {}
func (*UnidentifiedStmt) stmt() {}

func (s *LineStmt) Info() lines.PInfo         { return s.PInfo }
func (s *BlockStmt) Info() lines.PInfo        { return s.PInfo }
func (s *BlockOrLineStmt) Info() lines.PInfo  { return s.PInfo }
func (s *MultiBlockStmt) Info() lines.PInfo   { return s.PInfo }
func (s *ContentStmt) Info() lines.PInfo      { return s.PInfo }
func (s *UnidentifiedStmt) Info() lines.PInfo { return s.PInfo }

func (s *LineStmt) Execute(c *Context) error { return s.Action.Run(c) }

func (s *BlockStmt) Execute(c *Context) error { return s.Action.Run(c, s.Body) }

func (s *BlockOrLineStmt) Execute(c *Context) error {
	if s.Line != nil {
		return s.Line.Run(c)
	}

	return s.Block.Run(c, s.Body)
}

func (s *MultiBlockStmt) Execute(c *Context) error {
	for _, b := range s.Blocks {
		c.pi = b.PInfo

		ok, err := b.Cond.Test(c)
		if err != nil {
			return located(b.PInfo, err)
		}

		if ok {
			return c.exec(b.Body)
		}
	}

	return nil
}

func (s *UnidentifiedStmt) Execute(*Context) error {
	return located(s.PInfo, ErrUnidentifiedStatement)
}
