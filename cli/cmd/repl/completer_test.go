package repl

import (
	"slices"
	"testing"

	"github.com/modelhike/modelhike-sub001/soup"
)

func TestWordBounds(t *testing.T) {
	tests := []struct {
		input  string
		cursor int
		word   string
		start  int
	}{
		{input: "", cursor: 0, word: "", start: 0},
		{input: "name", cursor: 4, word: "name", start: 0},
		{input: "name | upp", cursor: 10, word: "upp", start: 7},
		{input: "entity.mod", cursor: 10, word: "mod", start: 7},
		{input: "@target-fol", cursor: 11, word: "@target-fol", start: 0},
		{input: "a + b", cursor: 2, word: "", start: 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			word, start, _ := wordBounds(tt.input, tt.cursor)
			if word != tt.word || start != tt.start {
				t.Errorf("expected %q at %d, got %q at %d", tt.word, tt.start, word, start)
			}
		})
	}
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		input string
		start int
		want  string
	}{
		{input: "x == entity.module.na", start: 19, want: "entity.module"},
		{input: "cfg.", start: 4, want: "cfg"},
		{input: "(a).b", start: 4, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parentPath(tt.input, tt.start); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestComplete(t *testing.T) {
	sb := soup.New(soup.WithVars(map[string]any{
		"name": "shop",
		"cfg":  map[string]any{"port": 80, "host": "x"},
	}))

	c := completer{ctx: t.Context(), sb: sb}

	tests := []struct {
		name  string
		mode  inputMode
		input string
		want  string
	}{
		{name: "variable", mode: modeEval, input: "nam", want: "name"},
		{name: "keyword", mode: modeEval, input: "name not-i", want: "not-in"},
		{name: "modifier", mode: modeEval, input: "name | upperc", want: "uppercase"},
		{name: "member", mode: modeEval, input: "cfg.", want: "host"},
		{name: "command", mode: modeCtrl, input: "fun", want: "funcs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, _, _ := c.complete(tt.mode, tt.input, len(tt.input))
			if len(matches) == 0 {
				t.Fatal("expected matches")
			}

			if matches[0].Str != tt.want {
				t.Errorf("expected %q, got %q", tt.want, matches[0].Str)
			}
		})
	}

	if matches, _, _ := c.complete(modeEval, "", 0); matches != nil {
		t.Errorf("expected no matches on empty input, got %v", matches)
	}
}

func TestModifierHint(t *testing.T) {
	c := completer{ctx: t.Context(), sb: soup.New()}

	m, _ := c.sb.Registry().Modifier("replace")

	tests := []struct {
		input string
		want  string
	}{
		{input: "x | replace(", want: m.Signature()},
		{input: "x | nope", want: ""},
		{input: "x", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := c.modifierHint(tt.input, len(tt.input)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCandidates_IncludesFuncs(t *testing.T) {
	sb := soup.New()
	if _, err := sb.RunScript(t.Context(), "lib.ss", "|> func greet(who)\n| set-str x = {{ who }}\n"); err != nil {
		t.Fatal(err)
	}

	c := completer{ctx: t.Context(), sb: sb}

	if !slices.Contains(c.candidates(modeEval, "gr", 0), "greet") {
		t.Error("expected declared function among candidates")
	}

	if !c.isFunction("greet") || c.isFunction("x") {
		t.Error("expected only greet to be a function")
	}
}
