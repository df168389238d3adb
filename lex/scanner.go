package lex

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scanner walks a single line of text. It never allocates beyond the
// returned substrings and never backtracks past a committed token.
type Scanner struct {
	src string
	pos int
}

// NewScanner returns a Scanner positioned at the start of src.
func NewScanner(src string) *Scanner { return &Scanner{src: src} }

// Pos returns the current byte offset.
func (s *Scanner) Pos() int { return s.pos }

// EOF reports whether only whitespace remains.
func (s *Scanner) EOF() bool {
	s.SkipSpace()

	return s.pos >= len(s.src)
}

// Rest returns the trimmed unconsumed text and consumes it.
func (s *Scanner) Rest() string {
	rest := strings.TrimSpace(s.src[s.pos:])
	s.pos = len(s.src)

	return rest
}

// Peek returns the unconsumed text without consuming it.
func (s *Scanner) Peek() string { return s.src[s.pos:] }

// SkipSpace advances past whitespace.
func (s *Scanner) SkipSpace() {
	for s.pos < len(s.src) {
		r, n := utf8.DecodeRuneInString(s.src[s.pos:])
		if !unicode.IsSpace(r) {
			return
		}

		s.pos += n
	}
}

// Ident consumes an identifier.
func (s *Scanner) Ident() (string, bool) {
	s.SkipSpace()

	start := s.pos
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if IsIdentByte(c, s.pos == start) {
			s.pos++

			continue
		}

		break
	}

	if s.pos == start {
		return "", false
	}

	return s.src[start:s.pos], true
}

// Expect consumes tok if it is next (after whitespace).
func (s *Scanner) Expect(tok string) bool {
	s.SkipSpace()

	if strings.HasPrefix(s.src[s.pos:], tok) {
		s.pos += len(tok)

		return true
	}

	return false
}

// Keyword consumes the word kw if it is next and is not followed by an
// identifier character.
func (s *Scanner) Keyword(kw string) bool {
	s.SkipSpace()

	rest := s.src[s.pos:]
	if !strings.HasPrefix(rest, kw) {
		return false
	}

	if len(rest) > len(kw) && IsIdentByte(rest[len(kw)], false) {
		return false
	}

	s.pos += len(kw)

	return true
}

// Until consumes and returns the trimmed text up to the first top-level
// occurrence of sep, leaving sep unconsumed. ok is false if sep is absent.
func (s *Scanner) Until(sep string) (string, bool) {
	i := IndexTopLevel(s.src[s.pos:], sep)
	if i < 0 {
		return "", false
	}

	out := strings.TrimSpace(s.src[s.pos : s.pos+i])
	s.pos += i

	return out, true
}

// Balanced consumes a parenthesized group starting at the next '(' and
// returns its trimmed inner text.
func (s *Scanner) Balanced() (string, bool) {
	s.SkipSpace()

	if s.pos >= len(s.src) || s.src[s.pos] != '(' {
		return "", false
	}

	inner := s.src[s.pos+1:]

	end := IndexTopLevel(inner, ")")
	if end < 0 {
		return "", false
	}

	s.pos += end + 2

	return strings.TrimSpace(inner[:end]), true
}

// IsIdentByte reports whether c may appear in an identifier; first selects
// the rule for the leading byte.
func IsIdentByte(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		return true
	case c == '@' || c == '$':
		return first
	case c >= '0' && c <= '9', c == '-':
		return !first
	}

	return false
}
