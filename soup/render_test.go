package soup

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/modelhike/modelhike-sub001/lines"
	"github.com/modelhike/modelhike-sub001/pkg"
)

func render(t *testing.T, sb *Sandbox, text string) Output {
	t.Helper()

	out, err := sb.RenderString(t.Context(), t.Name(), text)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}

	return out
}

func TestRender(t *testing.T) {
	vars := map[string]any{
		"name":  "order",
		"n":     3,
		"empty": "",
		"flag":  true,
		"outer": []int{1, 2},
		"inner": []string{"x", "y"},
		"list":  []string{"a", "b"},
		"var1":  true,
		"var2":  false,
		"items": []*testData{{name: "n1"}, {name: "n2"}, {name: ""}},
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "content",
			text: "class {{ name | pascal-case }} {}\n",
			want: "class Order {}\n",
		},
		{
			name: "indentation kept trailing space dropped",
			text: "    x = {{ n }};   \n",
			want: "    x = 3;\n",
		},
		{
			name: "whitespace only line suppressed",
			text: "a\n   {{ empty }}   \nb\n",
			want: "a\nb\n",
		},
		{
			name: "empty segment keeps line",
			text: "[{{ empty }}]\n",
			want: "[]\n",
		},
		{
			name: "escaped braces",
			text: `\{{ name }}` + "\n",
			want: "{{ name }}\n",
		},
		{
			name: "comments and blank lines skipped",
			text: "// header\n\none\n   // indented\ntwo\n",
			want: "one\ntwo\n",
		},
		{
			name: "count of objects",
			text: "{{ items | count }}",
			want: "3\n",
		},
		{
			name: "short circuit",
			text: "{{ (var1 and var2) and var2 }}",
			want: "false\n",
		},
		{
			name: "trim is idempotent",
			text: "[{{ \"  a  \" | trim | trim }}]\n[{{ \"  a  \" | trim }}]",
			want: "[a]\n[a]\n",
		},
		{
			name: "nested for",
			text: ":for a in outer\n:for b in inner\n{{ a }}{{ b }}\n:end-for\n-\n:end-for\n",
			want: "1x\n1y\n-\n2x\n2y\n-\n",
		},
		{
			name: "loop variable",
			text: ":for b in inner\n{{ @loop.index }}/{{ @loop.count }} {{ b }}\n:if @loop.last : done\n:end-for\n",
			want: "1/2 x\n2/2 y\ndone\n",
		},
		{
			name: "if chain",
			text: ":if n > 5\nbig\n:else-if n > 2\nmid\n:else\nsmall\n:end-if\n",
			want: "mid\n",
		},
		{
			name: "elseif alias and else",
			text: ":if n > 5\nbig\n:elseif n > 4\nmid\n:else\nsmall\n:end-if\n",
			want: "small\n",
		},
		{
			name: "nested if",
			text: ":if flag\n:if n == 1\none\n:else\nnot one\n:end-if\n:else\nno flag\n:end-if\n",
			want: "not one\n",
		},
		{
			name: "if line variant",
			text: ":if flag : yes {{ name }}\n:if not flag : no\n",
			want: "yes order\n",
		},
		{
			name: "set and set-str",
			text: ":set total = n * 2\n:set-str label = total={{ total }}\n{{ label }}\n",
			want: "total=6\n",
		},
		{
			name: "set-str block",
			text: ":set-str body\n  line {{ n }}\n:end-set-str\n[{{ body }}]\n",
			want: "[  line 3]\n",
		},
		{
			name: "spaceless",
			text: ":spaceless\n  a\n    b {{ n }}\n\n  c\n:end-spaceless\n",
			want: "ab 3c\n",
		},
		{
			name: "newline",
			text: "a\n:newline 2\nb\n",
			want: "a\n\n\nb\n",
		},
		{
			name: "function print and inline",
			text: ":func join(items, sep)\na , b\n:end-func\n={{ join(list, \",\") }}=\n{{ join(list, \",\") }}\n",
			want: "a,b\na , b\n",
		},
		{
			name: "function hoisted",
			text: "{{ greet(\"ada\") }}\n:func greet(who)\nhello {{ who }}\n:end-func\n",
			want: "hello ada\n",
		},
		{
			name: "call statement",
			text: ":func two()\none\ntwo\n:end-func\n:call two()\nthree\n",
			want: "one\ntwo\nthree\n",
		},
		{
			name: "equals before print",
			text: "x={{ name }};\nn={{ -n }}\n",
			want: "x=order;\nn=-3\n",
		},
		{
			name: "unterminated block tolerated",
			text: ":if flag\nyes",
			want: "yes\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, New(WithVars(vars)), tt.text)

			if out.Text != tt.want {
				t.Errorf("expected %q, got %q", tt.want, out.Text)
			}
		})
	}
}

// spaces writes whitespace without a newline.
type spaces struct{}

func (spaces) Info() lines.PInfo        { return lines.PInfo{} }
func (spaces) Execute(c *Context) error { c.write("   "); return nil }
func (spaces) stmt()                    {}

func TestRender_CallWhitespaceOnly(t *testing.T) {
	sb := New()
	sb.funcs["pad"] = &Func{Name: "pad", Body: []Stmt{spaces{}}}

	out := render(t, sb, ":call pad()\nend\n")

	if want := "end\n"; out.Text != want {
		t.Errorf("expected %q, got %q", want, out.Text)
	}

	out = render(t, sb, "[{{ pad() }}]\n")

	if want := "[   ]\n"; out.Text != want {
		t.Errorf("expected %q, got %q", want, out.Text)
	}
}

func TestRender_FunctionScopeSharing(t *testing.T) {
	sb := New()

	out := render(t, sb, strings.Join([]string{
		":set counter = 1",
		`:set x = "outer"`,
		":func bump(x)",
		":set counter = counter + 1",
		`:set x = "inner"`,
		":set fresh = x",
		":end-func",
		`:call bump("arg")`,
		`:call bump("arg")`,
		"{{ counter }} {{ x }} {{ fresh }}",
	}, "\n"))

	// non-parameter assignments survive the call, the parameter does not
	if out.Text != "3 outer inner\n" {
		t.Errorf("expected %q, got %q", "3 outer inner\n", out.Text)
	}
}

func TestRender_ParameterDoesNotLeak(t *testing.T) {
	sb := New()

	_, err := sb.RenderString(t.Context(), "t", ":func f(p)\n{{ p }}\n:end-func\n:call f(1)\n{{ p }}\n")
	if !errors.Is(err, ErrUndefinedVariable) {
		t.Errorf("expected ErrUndefinedVariable, got %v", err)
	}
}

func TestRender_LoopFrameDiscarded(t *testing.T) {
	sb := New(WithVars(map[string]any{"xs": []int{1}}))

	_, err := sb.RenderString(t.Context(), "t", ":for x in xs\n:end-for\n{{ x }}\n")
	if !errors.Is(err, ErrUndefinedVariable) {
		t.Errorf("expected ErrUndefinedVariable, got %v", err)
	}
}

func TestRender_Produced(t *testing.T) {
	sb := New()

	if out := render(t, sb, ":set x = 1\n"); out.Produced || out.Text != "" {
		t.Errorf("expected no output, got %+v", out)
	}

	if out := render(t, sb, ":newline\n"); !out.Produced {
		t.Error("expected output to be produced")
	}
}

func TestRender_StopRender(t *testing.T) {
	sb := New(WithVars(map[string]any{"skip": true}))

	out := render(t, sb, "before\n:if skip\n:stop-render\n:end-if\nafter\n")

	if !out.Stopped || out.Text != "" {
		t.Errorf("expected a stopped render without text, got %+v", out)
	}
}

func TestRender_ModifierTypeError(t *testing.T) {
	sb := New(WithVars(map[string]any{"n": 42}))

	_, err := sb.RenderString(t.Context(), "types.teso", "ok\nvalue {{ n | uppercase }}\n")
	if !errors.Is(err, ErrModifierType) {
		t.Fatalf("expected ErrModifierType, got %v", err)
	}

	var ee *pkg.Error
	if !errors.As(err, &ee) {
		t.Fatalf("expected *pkg.Error, got %T", err)
	}

	for key, want := range map[string]string{
		"modifier": "uppercase",
		"expected": TypeString,
		"actual":   TypeInt,
		"source":   "types.teso",
		"line":     "2",
		"text":     "value {{ n | uppercase }}",
	} {
		v, ok := ee.Attr(key)
		if !ok || v.String() != want {
			t.Errorf("expected %s=%q, got %q", key, want, v.String())
		}
	}
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{name: "unknown keyword", text: ":fro x in xs\n:end-for\n", want: ErrUnidentifiedStatement},
		{name: "unidentified in multi-block", text: ":if true\n:bogus\n:end-if\n", want: ErrUnidentifiedStatement},
		{name: "else outside if", text: "a\n:else\n", want: ErrMisplacedContinuation},
		{name: "else inside for", text: ":if true\n:for x in [1]\n:else\n:end-for\n:end-if\n", want: ErrMisplacedContinuation},
		{name: "else-if after else", text: ":if true\n:else\n:else-if true\n:end-if\n", want: ErrMisplacedContinuation},
		{name: "for without in", text: ":for x xs\n:end-for\n", want: ErrInvalidStatement},
		{name: "set without value", text: ":set x\n", want: ErrInvalidStatement},
		{name: "bad expression", text: ":if (a\n:end-if\n", want: ErrInvalidExpr},
		{name: "unterminated print", text: "a {{ b\n", want: ErrInvalidContent},
		{name: "inline without call", text: "={{ a }}=\n", want: ErrInvalidContent},
		{name: "missing keyword", text: ":\n", want: ErrInvalidStatement},
		{name: "throw", text: ":throw-error bad {{ 1 + 1 }}\n", want: ErrUserThrown},
		{name: "arg count", text: ":func f()\n:end-func\n{{ f(1) }}\n", want: ErrArgCount},
		{name: "unknown function", text: "{{ nope() }}\n", want: ErrUnknownFunction},
		{name: "not iterable", text: ":for x in 1\n:end-for\n", want: ErrNotIterable},
		{name: "recursion", text: ":func f()\n={{ f() }}=\n:end-func\n:call f()\n", want: ErrRecursionLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().RenderString(t.Context(), "t", tt.text)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRender_Suggestion(t *testing.T) {
	_, err := New().RenderString(t.Context(), "t", "{{ \"a\" | uppercse }}\n")

	var ee *pkg.Error
	if !errors.As(err, &ee) {
		t.Fatalf("expected *pkg.Error, got %v", err)
	}

	if v, ok := ee.Attr("suggestion"); !ok || v.String() != "uppercase" {
		t.Errorf("expected suggestion uppercase, got %v", v)
	}
}

func TestRender_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := New().RenderString(ctx, "t", "a\n")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRender_TemplateVariablesDiscarded(t *testing.T) {
	sb := New(WithVars(map[string]any{"kept": 1}))

	render(t, sb, ":set local = 1\n:set kept = 2\n")

	if _, ok := sb.Get("local"); ok {
		t.Error("expected template variable to be discarded")
	}

	if v, _ := sb.Get("kept"); v != int64(2) {
		t.Errorf("expected existing variable to be updated, got %v", v)
	}
}

func TestRunScript(t *testing.T) {
	sb := New(WithVars(map[string]any{"nums": []int{1, 2, 3}}))

	script := strings.Join([]string{
		"// sum the numbers",
		"set total = 0",
		"|> for n in nums",
		"| set total = total + n",
		"set-str label = total={{ total }}",
		"|> if total > 5",
		"| set size = \"big\"",
		"|> else",
		"| set size = \"small\"",
	}, "\n")

	if _, err := sb.RunScript(t.Context(), "sum.ss", script); err != nil {
		t.Fatalf("script error: %v", err)
	}

	if v, _ := sb.Get("label"); v != "total=6" {
		t.Errorf("expected total=6, got %v", v)
	}

	if v, _ := sb.Get("size"); v != "big" {
		t.Errorf("expected big, got %v", v)
	}
}

func TestRunScript_FunctionsVisibleToTemplates(t *testing.T) {
	sb := New()

	script := "|> func greet(who)\n| set-str line = hi {{ who }}\n"

	if _, err := sb.RunScript(t.Context(), "lib.ss", script); err != nil {
		t.Fatalf("script error: %v", err)
	}

	if fns := sb.Funcs(); len(fns) != 1 || fns[0] != "greet" {
		t.Fatalf("expected greet to be declared, got %v", fns)
	}

	out := render(t, sb, ":call greet(\"ada\")\n{{ line }}\n")
	if out.Text != "hi ada\n" {
		t.Errorf("expected %q, got %q", "hi ada\n", out.Text)
	}
}

func TestRunScript_BlockOpeners(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   error
		line   int64
	}{
		{name: "line keyword", script: "set y = 1\n|> set x = 1\n", want: ErrInvalidStatement, line: 2},
		{name: "set-str line variant", script: "|> set-str x = hi\nset y = 1\n", want: ErrInvalidStatement, line: 1},
		{name: "if line variant", script: "|> if v: yes\n", want: ErrInvalidStatement, line: 1},
		{name: "set-str block", script: "|> set-str x\n| console-log hi\nset y = 1\n"},
		{name: "if block", script: "|> if v\n| set y = 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sb := New(WithVars(map[string]any{"v": true}))

			_, err := sb.RunScript(t.Context(), "openers.ss", tt.script)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("script error: %v", err)
				}

				return
			}

			if !errors.Is(err, tt.want) || !errors.Is(err, lines.ErrNotBlock) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			var ee *pkg.Error
			if !errors.As(err, &ee) {
				t.Fatalf("expected *pkg.Error, got %T", err)
			}

			// the attributes of the cause name the opener line
			var cause *pkg.Error
			if !errors.As(ee.Unwrap(), &cause) {
				t.Fatalf("expected *pkg.Error cause, got %v", ee.Unwrap())
			}

			if v, ok := cause.Attr("line"); !ok || v.Int64() != tt.line {
				t.Errorf("expected line %d, got %v", tt.line, v)
			}
		})
	}
}

func TestFill(t *testing.T) {
	sb := New(WithVars(map[string]any{"name": "app"}))

	got, err := sb.Fill(t.Context(), "README.md", "# {{ name }}\n\n:not a statement\n// kept\n")
	if err != nil {
		t.Fatalf("fill error: %v", err)
	}

	if want := "# app\n\n:not a statement\n// kept\n"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
