package lex

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// DefaultCommentMarker starts a comment line in both DSLs.
const DefaultCommentMarker = "//"

var (
	identRx  = regexp.MustCompile(`^[A-Za-z_@$][A-Za-z0-9_\-]*$`)
	intRx    = regexp.MustCompile(`^[+-]?[0-9]+$`)
	floatRx  = regexp.MustCompile(`^[+-]?(?:[0-9]+\.[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?$`)
	stringRx = regexp.MustCompile(`^(?:"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*')$`)
	tagRx    = regexp.MustCompile(`#([A-Za-z0-9_\-]+)(?::([A-Za-z0-9_\-.]+))?`)
	attrRx   = regexp.MustCompile(`^\s*([A-Za-z_@$][A-Za-z0-9_\-]*)\s*(?:=\s*(.*?))?\s*$`)
)

// IsIdent reports whether s is a complete identifier. Identifiers may start
// with '@' or '$' and may contain hyphens.
func IsIdent(s string) bool { return identRx.MatchString(s) }

// IsInt reports whether s is a decimal integer literal.
func IsInt(s string) bool { return intRx.MatchString(s) }

// IsFloat reports whether s is a decimal floating point literal.
func IsFloat(s string) bool { return floatRx.MatchString(s) }

// IsQuoted reports whether s is a complete single or double quoted string.
func IsQuoted(s string) bool { return stringRx.MatchString(s) }

// Unquote removes the quotes from a string literal and resolves escapes.
// Single quoted literals are accepted as well.
func Unquote(s string) (string, error) {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		inner := s[1 : len(s)-1]
		inner = strings.ReplaceAll(inner, `\'`, `'`)
		inner = strings.ReplaceAll(inner, `"`, `\"`)
		s = `"` + inner + `"`
	}

	return strconv.Unquote(s)
}

// IsComment reports whether the trimmed line starts with marker.
func IsComment(line, marker string) bool {
	if marker == "" {
		marker = DefaultCommentMarker
	}

	return strings.HasPrefix(strings.TrimSpace(line), marker)
}

// StripComment removes a trailing comment that starts with marker outside
// of any quoted string. The result is right-trimmed.
func StripComment(line, marker string) string {
	if marker == "" {
		marker = DefaultCommentMarker
	}

	var quote byte

	for i := 0; i < len(line); i++ {
		c := line[i]

		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}

		case c == '"' || c == '\'':
			quote = c

		case strings.HasPrefix(line[i:], marker):
			return strings.TrimRightFunc(line[:i], unicode.IsSpace)
		}
	}

	return strings.TrimRightFunc(line, unicode.IsSpace)
}

// Words splits a trimmed line into its first word, second word and the
// remainder following the second word. Words are separated by whitespace.
// The remainder is trimmed.
func Words(line string) (first, second, rest string) {
	line = strings.TrimSpace(line)
	first, tail := cut(line)
	second, rest = cut(tail)

	return first, second, rest
}

// FirstWord returns the first whitespace-delimited word of line and the
// trimmed remainder.
func FirstWord(line string) (word, rest string) {
	return cut(strings.TrimSpace(line))
}

func cut(s string) (string, string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}

	return s[:i], strings.TrimSpace(s[i:])
}

// Attribute is one entry of an attribute list, e.g. "max=10" or "unique".
type Attribute struct {
	Name  string
	Value string
	// HasValue distinguishes "flag" from "flag=".
	HasValue bool
}

// Attributes parses a parenthesized attribute list "(a=1, b, c='x, y')".
// The parentheses are optional. Values keep their quotes removed when
// quoted.
func Attributes(s string) ([]Attribute, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") {
		if !strings.HasSuffix(s, ")") {
			return nil, false
		}

		s = s[1 : len(s)-1]
	}

	if strings.TrimSpace(s) == "" {
		return nil, true
	}

	var attrs []Attribute

	for _, part := range SplitTopLevel(s, ',') {
		m := attrRx.FindStringSubmatch(part)
		if m == nil {
			return nil, false
		}

		a := Attribute{Name: m[1], Value: m[2], HasValue: strings.Contains(part, "=")}
		if IsQuoted(a.Value) {
			if v, err := Unquote(a.Value); err == nil {
				a.Value = v
			}
		}

		attrs = append(attrs, a)
	}

	return attrs, true
}

// Tag is a "#name" or "#name:value" annotation.
type Tag struct {
	Name  string
	Value string
}

// Tags extracts all tags from s, in order of appearance.
func Tags(s string) []Tag {
	var tags []Tag

	for _, m := range tagRx.FindAllStringSubmatch(s, -1) {
		tags = append(tags, Tag{Name: m[1], Value: m[2]})
	}

	return tags
}

// SplitTopLevel splits s on sep, ignoring separators nested inside
// brackets, parentheses, braces or quotes. Parts are trimmed.
func SplitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		depth int
		quote byte
		start int
	)

	for i := 0; i < len(s); i++ {
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

		case c == '(' || c == '[' || c == '{':
			depth++

		case c == ')' || c == ']' || c == '}':
			depth--

		case c == sep && depth == 0:
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}

	return append(parts, strings.TrimSpace(s[start:]))
}

// IndexTopLevel returns the index of the first occurrence of sub in s that
// is not nested inside brackets or quotes, or -1.
func IndexTopLevel(s, sub string) int {
	var (
		depth int
		quote byte
	)

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}

		case depth == 0 && strings.HasPrefix(s[i:], sub):
			return i

		case c == '"' || c == '\'':
			quote = c

		case c == '(' || c == '[' || c == '{':
			depth++

		case c == ')' || c == ']' || c == '}':
			depth--
		}
	}

	return -1
}
