package soup

import (
	"log/slog"
	"strings"

	"github.com/modelhike/modelhike-sub001/lex"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokFloat
	tokString
	tokOp
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// value reports whether the token ends an operand, which decides whether a
// following '-' is binary or starts a negative number.
func (t token) value() bool {
	switch t.kind {
	case tokIdent, tokInt, tokFloat, tokString:
		return true
	case tokOp:
		return t.text == ")" || t.text == "]"
	}

	return false
}

var twoCharOps = []string{"==", "!=", "<=", ">="}

const oneCharOps = "()[],.|<>+-*/%"

// tokenize splits an expression into tokens. Identifiers may contain
// hyphens, so binary minus must be surrounded by spaces.
func tokenize(src string) ([]token, error) {
	var (
		toks []token
		i    int
	)

	last := func() token {
		if len(toks) == 0 {
			return token{kind: tokEOF}
		}

		return toks[len(toks)-1]
	}

	for i < len(src) {
		c := src[i]

		switch {
		case c == ' ' || c == '\t':
			i++

		case c == '"' || c == '\'':
			end := i + 1
			for end < len(src) && src[end] != c {
				if src[end] == '\\' {
					end++
				}

				end++
			}

			if end >= len(src) {
				return nil, ErrInvalidExpr.With(
					slog.String("expr", src),
					slog.Int("pos", i),
					slog.String("reason", "unterminated string"),
				)
			}

			text, err := lex.Unquote(src[i : end+1])
			if err != nil {
				return nil, ErrInvalidExpr.Wrap(err).With(slog.String("expr", src), slog.Int("pos", i))
			}

			toks = append(toks, token{kind: tokString, text: text, pos: i})
			i = end + 1

		case isDigit(c) || (c == '-' && i+1 < len(src) && isDigit(src[i+1]) && !last().value()) ||
			(c == '.' && i+1 < len(src) && isDigit(src[i+1]) && !last().value()):
			start := i
			if c == '-' {
				i++
			}

			for i < len(src) && (isDigit(src[i]) || src[i] == '.' || src[i] == 'e' || src[i] == 'E' ||
				((src[i] == '+' || src[i] == '-') && (src[i-1] == 'e' || src[i-1] == 'E'))) {
				i++
			}

			text := src[start:i]

			switch {
			case lex.IsInt(text):
				toks = append(toks, token{kind: tokInt, text: text, pos: start})
			case lex.IsFloat(text):
				toks = append(toks, token{kind: tokFloat, text: text, pos: start})
			default:
				return nil, ErrInvalidExpr.With(
					slog.String("expr", src),
					slog.Int("pos", start),
					slog.String("reason", "malformed number "+text),
				)
			}

		case lex.IsIdentByte(c, true):
			start := i
			i++

			for i < len(src) && lex.IsIdentByte(src[i], false) {
				i++
			}

			// a trailing hyphen belongs to the operator that follows
			for i > start+1 && src[i-1] == '-' {
				i--
			}

			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})

		default:
			op := ""

			for _, two := range twoCharOps {
				if strings.HasPrefix(src[i:], two) {
					op = two

					break
				}
			}

			if op == "" && strings.IndexByte(oneCharOps, c) >= 0 {
				op = string(c)
			}

			if op == "" {
				return nil, ErrInvalidExpr.With(
					slog.String("expr", src),
					slog.Int("pos", i),
					slog.String("reason", "unexpected character "+string(c)),
				)
			}

			toks = append(toks, token{kind: tokOp, text: op, pos: i})
			i += len(op)
		}
	}

	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
