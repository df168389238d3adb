package lines

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/modelhike/modelhike-sub001/lex"
	"github.com/modelhike/modelhike-sub001/log"
)

// Line is one source line and its 1-based line number in the original
// input. Normalized sources keep the numbers of the lines they came from.
type Line struct {
	Text string
	No   int
}

// Split returns lines for every line of text.
func Split(text string) []Line {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	raw := strings.Split(text, "\n")

	// a trailing newline does not start another line
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}

	out := make([]Line, len(raw))
	for i, s := range raw {
		out[i] = Line{Text: s, No: i + 1}
	}

	return out
}

// WordSplitter splits a trimmed line into the words Parse dispatches on.
type WordSplitter func(trimmed string) (first, second, rest string)

// Handler is called by [Cursor.Parse] for every line that is not blank, a
// comment, or the end keyword. The cursor has already moved past the
// line; block handlers parse their body from the cursor.
type Handler func(pi PInfo, keyword string) error

// Cursor is a position within the lines of a single source unit.
// The line slice is never modified.
type Cursor struct {
	source  string
	lines   []Line
	pos     int
	comment string
	split   WordSplitter
	logger  log.Logger
}

// Option configures a Cursor.
type Option func(*Cursor)

// WithCommentMarker sets the prefix of comment lines.
func WithCommentMarker(marker string) Option {
	return func(c *Cursor) {
		if marker != "" {
			c.comment = marker
		}
	}
}

// WithSplitter replaces the default whitespace word splitter.
func WithSplitter(fn WordSplitter) Option {
	return func(c *Cursor) {
		if fn != nil {
			c.split = fn
		}
	}
}

// WithLogger sets the logger receiving trace records.
func WithLogger(logger log.Logger) Option {
	return func(c *Cursor) { c.logger = logger }
}

// New returns a cursor over text, identified by source in diagnostics.
func New(source, text string, opts ...Option) *Cursor {
	return FromLines(source, Split(text), opts...)
}

// FromLines returns a cursor over an existing line slice.
func FromLines(source string, ls []Line, opts ...Option) *Cursor {
	c := &Cursor{
		source:  source,
		lines:   ls,
		comment: lex.DefaultCommentMarker,
		split:   lex.Words,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Source returns the identifier of the source unit.
func (c *Cursor) Source() string { return c.source }

// CommentMarker returns the prefix of comment lines.
func (c *Cursor) CommentMarker() string { return c.comment }

// Logger returns the cursor's logger.
func (c *Cursor) Logger() log.Logger { return c.logger }

// LinesRemaining reports whether the cursor has not passed the last line.
func (c *Cursor) LinesRemaining() bool { return c.pos < len(c.lines) }

// CurrentLine returns the trimmed current line, or "" past the end.
func (c *Cursor) CurrentLine() string { return c.LookAhead(0) }

// NextLine returns the trimmed line after the current one, or "".
func (c *Cursor) NextLine() string { return c.LookAhead(1) }

// LookAhead returns the trimmed line n lines ahead, or "" past the end.
func (c *Cursor) LookAhead(n int) string {
	i := c.pos + n
	if i < 0 || i >= len(c.lines) {
		return ""
	}

	return strings.TrimSpace(c.lines[i].Text)
}

// Current returns the current line untrimmed.
func (c *Cursor) Current() (Line, bool) {
	if !c.LinesRemaining() {
		return Line{}, false
	}

	return c.lines[c.pos], true
}

// LineNo returns the 1-based number of the current line, or of the last
// line once exhausted.
func (c *Cursor) LineNo() int {
	switch {
	case c.pos < len(c.lines):
		return c.lines[c.pos].No
	case len(c.lines) > 0:
		return c.lines[len(c.lines)-1].No
	}

	return 0
}

// Skip advances one line.
func (c *Cursor) Skip() { c.SkipN(1) }

// SkipN advances n lines, stopping at the end.
func (c *Cursor) SkipN(n int) {
	c.pos = min(c.pos+n, len(c.lines))
}

// Info returns the parse info of the current line at the given level.
func (c *Cursor) Info(level int) PInfo {
	ln, _ := c.Current()
	trimmed := strings.TrimSpace(ln.Text)
	first, second, rest := c.split(trimmed)

	return PInfo{
		Raw:    ln.Text,
		Line:   trimmed,
		First:  first,
		Second: second,
		Rest:   rest,
		LineNo: ln.No,
		Level:  level,
		Source: c.source,
		Cursor: c,
	}
}

// Parse consumes lines until one whose second word equals till, leaving
// that line unconsumed, and reports whether it was found. Blank and comment
// lines are skipped. An empty till parses to the end of input.
//
// Running out of lines before till is found is not an error; callers
// decide how to treat an unterminated block.
func (c *Cursor) Parse(till string, level int, handler Handler) (bool, error) {
	for c.LinesRemaining() {
		trimmed := c.CurrentLine()
		if trimmed == "" || strings.HasPrefix(trimmed, c.comment) {
			c.Skip()

			continue
		}

		pi := c.Info(level)
		if till != "" && pi.Second == till {
			return true, nil
		}

		c.Skip()

		if err := handler(pi, pi.Second); err != nil {
			return false, err
		}
	}

	if till != "" {
		c.logger.Debug("end of input before end keyword",
			slog.String("source", c.source),
			slog.String("expected", till),
			slog.Int("level", level),
		)
	}

	return false, nil
}

// PInfo is the parse info attached to every statement: the line as read,
// its words, position and nesting level, and the cursor it came from.
type PInfo struct {
	Raw    string
	Line   string
	First  string
	Second string
	Rest   string
	LineNo int
	Level  int
	Source string
	Cursor *Cursor
}

// Attrs returns the location of the line as log attributes.
func (pi PInfo) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("source", pi.Source),
		slog.Int("line", pi.LineNo),
		slog.String("text", pi.Raw),
	}
}

// String formats the location as "source:line".
func (pi PInfo) String() string {
	return pi.Source + ":" + strconv.Itoa(pi.LineNo)
}
