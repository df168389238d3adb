package cli

import (
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func TestResolve(t *testing.T) {
	doc := `
log-level: debug
log_pretty: false
jobs: 4
generate:
  output: gen
  var:
    - a=1
    - b=2
`

	r, err := resolve(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	cfg := r.(config)

	tests := []struct {
		key  string
		want any
	}{
		{"log-level", "debug"},
		{"log-pretty", false},
		{"jobs", "4"},
		{"generate-output", "gen"},
		{"generate-var", "a=1,b=2"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := cfg[tt.key]; got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestResolve_Empty(t *testing.T) {
	r, err := resolve(strings.NewReader(""))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if n := len(r.(config)); n != 0 {
		t.Errorf("expected empty config, got %d keys", n)
	}
}

func TestResolve_Invalid(t *testing.T) {
	if _, err := resolve(strings.NewReader("- [unclosed")); err == nil {
		t.Error("expected error")
	}
}

func TestConfig_Resolve(t *testing.T) {
	var cli struct {
		Level    string `default:"info"`
		Generate struct {
			Output string `default:"output"`
		} `cmd:""`
	}

	r, err := resolve(strings.NewReader("level: debug\ngenerate:\n  output: gen\n"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	parser, err := kong.New(&cli, kong.Resolvers(r), kong.Exit(func(int) {}))
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}

	if _, err := parser.Parse([]string{"generate"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cli.Level != "debug" {
		t.Errorf("expected level debug, got %q", cli.Level)
	}

	if cli.Generate.Output != "gen" {
		t.Errorf("expected output gen, got %q", cli.Generate.Output)
	}
}

func TestLogConfig_Scan(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		level  logLevel
		pretty bool
		caller bool
	}{
		{"none", []string{"generate"}, "", true, false},
		{"separate", []string{"--log-level", "debug"}, "debug", true, false},
		{"assigned", []string{"--log-level=warn", "--no-log-pretty"}, "warn", false, false},
		{"negated assigned", []string{"--no-log-pretty=false", "--log-caller"}, "", true, true},
		{"bad bool", []string{"--log-caller=maybe"}, "", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := logConfig{Pretty: true}
			f.scan(tt.args)

			if f.Level != tt.level {
				t.Errorf("expected level %q, got %q", tt.level, f.Level)
			}

			if f.Pretty != tt.pretty {
				t.Errorf("expected pretty %v, got %v", tt.pretty, f.Pretty)
			}

			if f.Caller != tt.caller {
				t.Errorf("expected caller %v, got %v", tt.caller, f.Caller)
			}
		})
	}
}
