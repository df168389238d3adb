package soup

import (
	"strings"
	"testing"
)

func TestParse_Shapes(t *testing.T) {
	text := strings.Join([]string{
		":set x = 1",
		":for a in xs",
		":if a : {{ a }}",
		":end-for",
		":if x",
		"one",
		":else",
		"two",
		":end-if",
		":set-str s",
		"body",
		":end-set-str",
	}, "\n")

	tmpl, err := New().Parse("shapes", text)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	want := strings.Join([]string{
		"1 line set: :set x = 1",
		"2 block for: :for a in xs",
		"  3 block-or-line if: :if a : {{ a }}",
		"5 multi-block if: :if x",
		"  5 sub-block if: :if x",
		"    6 content: one",
		"  7 sub-block else: :else",
		"    8 content: two",
		"10 block-or-line set-str: :set-str s",
		"  11 content: body",
		"",
	}, "\n")

	if got := tmpl.Dump(); got != want {
		t.Errorf("expected\n%s\ngot\n%s", want, got)
	}
}

// Nested blocks of the same keyword close innermost first.
func TestParse_NestedSameKeyword(t *testing.T) {
	text := ":for a in xs\n:for b in ys\n:for c in zs\n:end-for\n:end-for\nx\n:end-for\ny\n"

	tmpl, err := New().Parse("nested", text)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if len(tmpl.Stmts) != 2 {
		t.Fatalf("expected 2 top-level statements, got %d", len(tmpl.Stmts))
	}

	outer, ok := tmpl.Stmts[0].(*BlockStmt)
	if !ok || !outer.Closed || len(outer.Body) != 2 {
		t.Fatalf("unexpected outer block %+v", tmpl.Stmts[0])
	}

	middle, ok := outer.Body[0].(*BlockStmt)
	if !ok || !middle.Closed || len(middle.Body) != 1 {
		t.Fatalf("unexpected middle block %+v", outer.Body[0])
	}

	if c, ok := outer.Body[1].(*ContentStmt); !ok || c.PInfo.LineNo != 6 {
		t.Errorf("expected content at line 6 in the outer block, got %+v", outer.Body[1])
	}
}

// Input ending inside a block is accepted and the block is marked open.
func TestParse_Unterminated(t *testing.T) {
	tmpl, err := New().Parse("open", ":for a in xs\n:if a\nx\n")
	if err != nil {
		t.Fatalf("expected unterminated blocks to be tolerated, got %v", err)
	}

	if got := tmpl.Dump(); !strings.Contains(got, "block for (unterminated)") ||
		!strings.Contains(got, "multi-block if (unterminated)") {
		t.Errorf("expected unterminated markers, got\n%s", got)
	}
}

func TestParse_LineNumbersOfScripts(t *testing.T) {
	tmpl, err := New().ParseScript("s.ss", "\n|> for a in xs\n| set b = a\n")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	loop := tmpl.Stmts[0].(*BlockStmt)
	if loop.PInfo.LineNo != 2 || loop.Body[0].Info().LineNo != 3 {
		t.Errorf("expected original line numbers, got %d and %d", loop.PInfo.LineNo, loop.Body[0].Info().LineNo)
	}
}

func TestParse_Cache(t *testing.T) {
	a, err := New().Parse("cached", "{{ x }}\n")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	b, _ := New().Parse("cached", "{{ x }}\n")
	if a != b {
		t.Error("expected identical source to share the parsed template")
	}

	c, _ := New().ParseScript("cached", "{{ x }}\n")
	if a == c {
		t.Error("expected scripts and templates to be cached apart")
	}

	d, _ := New(WithCommentMarker("#")).Parse("cached", "{{ x }}\n")
	if a == d {
		t.Error("expected comment markers to be part of the cache key")
	}
}

func TestParseContent(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{text: "plain", want: []string{"plain"}},
		{text: "a {{ x }} b", want: []string{"a ", "{{ x }}", " b"}},
		{text: "={{ f(x) }}={{ y }}", want: []string{"={{ f(x) }}=", "{{ y }}"}},
		{text: `{{ "}}" }}`, want: []string{`{{ "}}" }}`}},
		{text: `\{{ x }}`, want: []string{"{{ x }}"}},
		{text: "x={{ v }};", want: []string{"x=", "{{ v }}", ";"}},
		{text: "a={{ v }} b={{ f() }}=", want: []string{"a=", "{{ v }}", " b", "={{ f() }}="}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			segs, err := ParseContent(tt.text)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			got := make([]string, len(segs))
			for i, s := range segs {
				got[i] = s.String()
			}

			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func BenchmarkParse_Cached(b *testing.B) {
	text := strings.Repeat(":for e in entities\nclass {{ e.name | pascal-case }} {}\n:end-for\n", 50)
	sb := New()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := sb.Parse("bench", text); err != nil {
			b.Fatal(err)
		}
	}
}
