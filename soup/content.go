package soup

import (
	"log/slog"
	"strings"

	"github.com/modelhike/modelhike-sub001/lines"
)

// Segment is one piece of a content line.
type Segment interface {
	render(c *Context) (string, error)
	String() string
}

type (
	// TextSegment is literal text.
	TextSegment string

	// PrintSegment is a {{ expr }} print expression.
	PrintSegment struct{ X Expr }

	// InlineSegment is a ={{ fn(args) }}= call whose output has all
	// whitespace removed.
	InlineSegment struct{ Call *Call }
)

func (s TextSegment) render(*Context) (string, error) { return string(s), nil }
func (s TextSegment) String() string                  { return string(s) }

func (s PrintSegment) render(c *Context) (string, error) {
	v, err := s.X.eval(c)
	if err != nil {
		return "", err
	}

	return Stringify(v), nil
}

func (s PrintSegment) String() string { return "{{ " + s.X.String() + " }}" }

func (s InlineSegment) render(c *Context) (string, error) {
	v, err := s.Call.eval(c)
	if err != nil {
		return "", err
	}

	return strings.Join(strings.Fields(Stringify(v)), ""), nil
}

func (s InlineSegment) String() string { return "={{ " + s.Call.String() + " }}=" }

const (
	inlineOpen  = "={{"
	inlineClose = "}}="
	printOpen   = "{{"
	printClose  = "}}"
	escapedOpen = `\{{`
)

// ParseContent partitions text into literal, inline-call and print
// segments, left to right.
func ParseContent(text string) ([]Segment, error) {
	var (
		segs []Segment
		lit  strings.Builder
	)

	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, TextSegment(lit.String()))
			lit.Reset()
		}
	}

	for i := 0; i < len(text); {
		rest := text[i:]

		switch {
		case strings.HasPrefix(rest, escapedOpen):
			lit.WriteString(printOpen)
			i += len(escapedOpen)

		case strings.HasPrefix(rest, inlineOpen):
			// Without a matching "}}=" the '=' is literal text followed by
			// a print expression.
			end := closing(text, i+len(inlineOpen), printClose)
			if end < 0 || !strings.HasPrefix(text[end:], inlineClose) {
				lit.WriteByte(text[i])
				i++

				continue
			}

			x, err := ParseExpr(strings.TrimSpace(text[i+len(inlineOpen) : end]))
			if err != nil {
				return nil, err
			}

			call, ok := x.(*Call)
			if !ok {
				return nil, contentError(text, i, "inline block must be a function call")
			}

			flush()

			segs = append(segs, InlineSegment{Call: call})
			i = end + len(inlineClose)

		case strings.HasPrefix(rest, printOpen):
			end := closing(text, i+len(printOpen), printClose)
			if end < 0 {
				return nil, contentError(text, i, "unterminated print expression")
			}

			x, err := ParseExpr(strings.TrimSpace(text[i+len(printOpen) : end]))
			if err != nil {
				return nil, err
			}

			flush()

			segs = append(segs, PrintSegment{X: x})
			i = end + len(printClose)

		default:
			lit.WriteByte(text[i])
			i++
		}
	}

	flush()

	return segs, nil
}

// closing returns the index of the first delim at or after from that is
// outside a quoted string, or -1.
func closing(s string, from int, delim string) int {
	var quote byte

	for i := from; i < len(s); i++ {
		c := s[i]

		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case strings.HasPrefix(s[i:], delim):
			return i
		}
	}

	return -1
}

func contentError(text string, pos int, reason string) error {
	return ErrInvalidContent.With(
		slog.String("content", text),
		slog.Int("pos", pos),
		slog.String("reason", reason),
	)
}

// renderSegments concatenates the output of segs.
func renderSegments(c *Context, segs []Segment) (string, error) {
	var sb strings.Builder

	for _, s := range segs {
		out, err := s.render(c)
		if err != nil {
			return "", err
		}

		sb.WriteString(out)
	}

	return sb.String(), nil
}

func parseContentStmt(pi lines.PInfo) (*ContentStmt, error) {
	segs, err := ParseContent(strings.TrimRight(pi.Raw, " \t\r"))
	if err != nil {
		return nil, located(pi, err)
	}

	return &ContentStmt{PInfo: pi, Segments: segs}, nil
}

// Execute writes the rendered line and a newline, unless nothing but
// whitespace remains after substitution.
func (s *ContentStmt) Execute(c *Context) error {
	text, err := renderSegments(c, s.Segments)
	if err != nil {
		return err
	}

	text = strings.TrimRight(text, " \t")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.write(text + "\n")

	return nil
}
