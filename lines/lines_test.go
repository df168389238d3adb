package lines

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/modelhike/modelhike-sub001/pkg"
)

func TestSplit(t *testing.T) {
	ls := Split("a\r\nb\n\nc\n")

	if len(ls) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(ls))
	}

	if ls[3].Text != "c" || ls[3].No != 4 {
		t.Errorf("unexpected last line %+v", ls[3])
	}
}

func TestCursor_Navigation(t *testing.T) {
	c := New("t", "  one  \ntwo\nthree")

	if c.CurrentLine() != "one" {
		t.Errorf("expected trimmed current line, got %q", c.CurrentLine())
	}

	if c.NextLine() != "two" || c.LookAhead(2) != "three" || c.LookAhead(3) != "" {
		t.Error("lookahead mismatch")
	}

	c.SkipN(2)

	if c.LineNo() != 3 {
		t.Errorf("expected line 3, got %d", c.LineNo())
	}

	c.SkipN(10)

	if c.LinesRemaining() {
		t.Error("expected exhaustion")
	}

	if c.CurrentLine() != "" {
		t.Error("expected empty line past the end")
	}
}

func TestCursor_Parse_SkipsBlankAndComments(t *testing.T) {
	c := New("t", "first a\n\n   // comment\nsecond b\nend x\nafter")

	var seen []string

	found, err := c.Parse("x", 0, func(pi PInfo, kw string) error {
		seen = append(seen, pi.First+":"+kw)

		return nil
	})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if !found {
		t.Error("expected end keyword to be found")
	}

	if !reflect.DeepEqual(seen, []string{"first:a", "second:b"}) {
		t.Errorf("unexpected lines %v", seen)
	}

	if c.CurrentLine() != "end x" {
		t.Errorf("end line must stay unconsumed, got %q", c.CurrentLine())
	}
}

func TestCursor_Parse_CustomComment(t *testing.T) {
	c := New("t", "# hidden\nshown", WithCommentMarker("#"))

	count := 0
	if _, err := c.Parse("", 0, func(PInfo, string) error { count++; return nil }); err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if count != 1 {
		t.Errorf("expected one line, got %d", count)
	}
}

func TestCursor_Parse_Unterminated(t *testing.T) {
	c := New("t", "a\nb")

	found, err := c.Parse("end-for", 1, func(PInfo, string) error { return nil })
	if err != nil {
		t.Fatalf("unterminated block must not fail: %v", err)
	}

	if found {
		t.Error("expected not found")
	}
}

func TestCursor_Parse_HandlerError(t *testing.T) {
	boom := errors.New("boom")
	c := New("t", "a\nb")

	_, err := c.Parse("", 0, func(PInfo, string) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected handler error, got %v", err)
	}

	if c.LineNo() != 2 {
		t.Errorf("expected cursor after failing line, at %d", c.LineNo())
	}
}

func TestPInfo(t *testing.T) {
	c := New("main.teso", "\n  hello world again")
	c.Skip()

	pi := c.Info(2)

	if pi.Raw != "  hello world again" || pi.Line != "hello world again" {
		t.Errorf("unexpected text %+v", pi)
	}

	if pi.First != "hello" || pi.Second != "world" || pi.Rest != "again" {
		t.Errorf("unexpected words %+v", pi)
	}

	if pi.String() != "main.teso:2" || pi.Level != 2 {
		t.Errorf("unexpected position %s level %d", pi, pi.Level)
	}
}

func texts(ls []Line) string {
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = l.Text
	}

	return strings.Join(parts, "\n")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "flat statements",
			in:   "set a = 1\n| console-log a",
			want: ":set a = 1\n:console-log a",
		},
		{
			name: "block closed at end",
			in:   "|> for x in xs\n| console-log x",
			want: ":for x in xs\n:console-log x\n:end-for",
		},
		{
			name: "nested blocks",
			in:   "|> for x in xs\n||> if x\n|| announce x\n| set y = x\nset z = 1",
			want: ":for x in xs\n:if x\n:announce x\n:end-if\n:set y = x\n:end-for\n:set z = 1",
		},
		{
			name: "else continues if",
			in:   "|> if a\n| announce 1\n|> else-if b\n| announce 2\n|> else\n| announce 3",
			want: ":if a\n:announce 1\n:else-if b\n:announce 2\n:else\n:announce 3\n:end-if",
		},
		{
			name: "sibling blocks",
			in:   "|> for a in b\n| announce a\n|> for c in d\n| announce c",
			want: ":for a in b\n:announce a\n:end-for\n:for c in d\n:announce c\n:end-for",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Normalize(Split(tt.in), "", nil)
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}

			if got := texts(out); got != tt.want {
				t.Errorf("expected:\n%s\ngot:\n%s", tt.want, got)
			}
		})
	}
}

func TestNormalize_KeepsLineNumbers(t *testing.T) {
	out, err := Normalize(Split("|> for x in xs\n\n| announce x\nset y = 1"), "", nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	want := []int{1, 2, 3, 4, 4}
	for i, ln := range out {
		if ln.No != want[i] {
			t.Errorf("line %d (%q): expected number %d, got %d", i, ln.Text, want[i], ln.No)
		}
	}
}

func TestNormalize_RejectsLineOpener(t *testing.T) {
	blocks := func(keyword, rest string) bool {
		return keyword == "for" || (keyword == "if" && !strings.Contains(rest, ":"))
	}

	tests := []struct {
		name string
		in   string
		line int64
	}{
		{name: "line keyword", in: "set a = 1\n|> set b = 2\nset c = 3", line: 2},
		{name: "line variant", in: "|> for x in xs\n||> if x: yes\n| set y = x", line: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(Split(tt.in), "", blocks)
			if !errors.Is(err, ErrNotBlock) {
				t.Fatalf("expected ErrNotBlock, got %v", err)
			}

			var ee *pkg.Error
			if !errors.As(err, &ee) {
				t.Fatalf("expected *pkg.Error, got %T", err)
			}

			if v, ok := ee.Attr("line"); !ok || v.Int64() != tt.line {
				t.Errorf("expected line %d, got %v", tt.line, v)
			}
		})
	}

	if _, err := Normalize(Split("|> for x in xs\n||> if x\n|| set y = x"), "", blocks); err != nil {
		t.Errorf("expected block openers to pass, got %v", err)
	}
}
