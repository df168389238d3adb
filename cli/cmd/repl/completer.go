package repl

import (
	"context"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/modelhike/modelhike-sub001/soup"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "vars", "mods", "funcs", "load", "clear", "quit"}

// exprKeywords are the word operators and literals of the expression
// language.
var exprKeywords = []string{"and", "or", "not", "in", "not-in", "contains", "true", "false", "nil"}

// isWordBoundary reports whether r delimits a completion word. Hyphens
// and '@' belong to identifiers.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']',
		'+', '*', '/', '%',
		'<', '>', '=', '!',
		'|', ',', ':', '"', '\'':
		return true
	}

	return false
}

// wordBounds returns the word at cursor and its byte offsets in input.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor
	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// completion is what kind of word is being typed.
type completion int

const (
	completeValue completion = iota
	completeModifier
	completeMember
)

func classify(input string, start int) completion {
	before := input[:start]

	if strings.HasSuffix(before, ".") {
		return completeMember
	}

	if strings.HasSuffix(strings.TrimRight(before, " \t"), "|") {
		return completeModifier
	}

	return completeValue
}

// parentPath returns the member chain before the dot preceding start,
// e.g. "entity.module" for "x == entity.module.na".
func parentPath(input string, start int) string {
	prefix := strings.TrimSuffix(input[:start], ".")

	pos := len(prefix)
	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return prefix[pos:]
}

// completer computes candidates from the state of a sandbox.
type completer struct {
	ctx context.Context
	sb  *soup.Sandbox
}

func (c completer) isFunction(name string) bool {
	return slices.Contains(c.sb.Funcs(), name)
}

// candidates returns the names that may replace the word starting at
// start.
func (c completer) candidates(mode inputMode, input string, start int) []string {
	if mode == modeCtrl {
		return ctrlCommands
	}

	switch classify(input, start) {
	case completeModifier:
		return c.sb.Registry().ModifierNames()

	case completeMember:
		parent := parentPath(input, start)
		if parent == "" {
			return nil
		}

		v, err := c.sb.Eval(c.ctx, parent)
		if err != nil {
			return nil
		}

		if m, ok := v.(map[string]any); ok {
			return slices.Sorted(maps.Keys(m))
		}

		return nil
	}

	names := slices.Concat(c.sb.Scope().Names(), c.sb.Funcs(), exprKeywords)
	slices.Sort(names)

	return slices.Compact(names)
}

// complete returns the fuzzy matches for the word under cursor. Members
// are listed in full right after a dot.
func (c completer) complete(mode inputMode, input string, cursor int) (fuzzy.Matches, int, int) {
	word, start, end := wordBounds(input, cursor)
	cands := c.candidates(mode, input, start)

	if len(cands) == 0 {
		return nil, start, end
	}

	if word == "" {
		if classify(input, start) == completeValue || mode == modeCtrl {
			return nil, start, end
		}

		all := make(fuzzy.Matches, len(cands))
		for i, s := range cands {
			all[i] = fuzzy.Match{Str: s, Index: i}
		}

		return all, start, end
	}

	return fuzzy.Find(word, cands), start, end
}

// modifierHint returns the signature of the modifier being typed after
// the last pipe before cursor.
func (c completer) modifierHint(input string, cursor int) string {
	before := input[:min(cursor, len(input))]

	i := strings.LastIndexByte(before, '|')
	if i < 0 {
		return ""
	}

	name := strings.TrimSpace(before[i+1:])
	if j := strings.IndexByte(name, '('); j >= 0 {
		name = name[:j]
	}

	m, ok := c.sb.Registry().Modifier(name)
	if !ok {
		return ""
	}

	return m.Signature()
}

// renderCandidateBar builds the single-line completion bar, ellipsized to
// fit width.
func (c completer) renderCandidateBar(matches fuzzy.Matches, selected int, tabActive bool, width int) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")

	var (
		b    strings.Builder
		used int
	)

	for i, match := range matches {
		rendered := c.renderCandidate(match, tabActive && i == selected)

		w := lipgloss.Width(rendered)
		if i > 0 {
			w += lipgloss.Width(sep)
		}

		if i > 0 && used+w+lipgloss.Width(ellipsis) > width {
			b.WriteString(sep + ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += w
	}

	return b.String()
}

// renderCandidate highlights the matched characters of a candidate.
// Functions are shown with a "()" suffix.
func (c completer) renderCandidate(match fuzzy.Match, selected bool) string {
	base := suggestionStyle
	highlight := lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)

	if selected {
		base = selectedStyle
		highlight = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if c.isFunction(match.Str) {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}
