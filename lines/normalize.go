package lines

import (
	"log/slog"
	"strings"

	"github.com/modelhike/modelhike-sub001/lex"
	"github.com/modelhike/modelhike-sub001/pkg"
)

// ErrNotBlock reports a block opener on a statement without a block form.
var ErrNotBlock = pkg.NewError("statement cannot open a block")

// BlockOpener reports whether keyword followed by rest opens a block.
type BlockOpener func(keyword, rest string) bool

// StatementMarker prefixes statement lines in templates.
const StatementMarker = ":"

// EndPrefix derives the end keyword of a block from its start keyword.
const EndPrefix = "end-"

// continuations may reopen an if block at the same depth.
var continuations = map[string]bool{
	"else":    true,
	"else-if": true,
	"elseif":  true,
}

type openBlock struct {
	depth   int
	keyword string
}

// Normalize rewrites logic DSL lines into statement lines.
//
// A line with N leading pipes followed by '>' opens a block at depth N; a
// line with N leading pipes and no '>' is a statement at depth N+1. Blocks
// close implicitly at the next line of equal or lesser depth, for which a
// synthetic end line is emitted. An else or else-if opener at the depth of
// an open if continues it instead. Blank and comment lines pass through and
// every emitted line keeps the number of the line it was derived from.
//
// When opens is not nil, an opener it rejects fails with [ErrNotBlock].
func Normalize(ls []Line, commentMarker string, opens BlockOpener) ([]Line, error) {
	if commentMarker == "" {
		commentMarker = lex.DefaultCommentMarker
	}

	var (
		out   = make([]Line, 0, len(ls)+len(ls)/4)
		stack []openBlock
	)

	closeTo := func(depth int, cont bool, no int) {
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.depth < depth {
				return
			}

			if cont && top.depth == depth && top.keyword == "if" {
				return
			}

			stack = stack[:len(stack)-1]
			out = append(out, Line{Text: StatementMarker + EndPrefix + top.keyword, No: no})
		}
	}

	for _, ln := range ls {
		trimmed := strings.TrimSpace(ln.Text)
		if trimmed == "" || strings.HasPrefix(trimmed, commentMarker) {
			out = append(out, ln)

			continue
		}

		pipes := len(trimmed) - len(strings.TrimLeft(trimmed, "|"))
		body := trimmed[pipes:]
		opener := pipes > 0 && strings.HasPrefix(body, ">")

		depth := pipes + 1
		if opener {
			depth = pipes
			body = body[1:]
		}

		body = strings.TrimPrefix(strings.TrimSpace(body), StatementMarker)
		keyword, rest := lex.FirstWord(body)
		cont := opener && continuations[keyword]

		if opener && !cont && opens != nil && !opens(keyword, rest) {
			return nil, ErrNotBlock.With(
				slog.Int("line", ln.No),
				slog.String("text", ln.Text),
				slog.String("keyword", keyword),
			)
		}

		closeTo(depth, cont, ln.No)

		if opener && !cont {
			stack = append(stack, openBlock{depth: depth, keyword: keyword})
		}

		out = append(out, Line{Text: StatementMarker + body, No: ln.No})
	}

	last := 0
	if len(ls) > 0 {
		last = ls[len(ls)-1].No
	}

	closeTo(0, false, last)

	return out, nil
}
