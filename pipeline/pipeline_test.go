package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelhike/modelhike-sub001/blueprint"
	"github.com/modelhike/modelhike-sub001/log"
	"github.com/modelhike/modelhike-sub001/soup"
)

const shopModel = `
=== Shop API ===
+ Orders

Customer
========
* id   : Id
* name : String

=== Billing ===
+ Invoices

Invoice
=======
* id       : Id
* customer : Reference@Customer
`

const entityTemplate = `export interface {{ entity.name }} {
:for p in entity.properties
  {{ p.name }}: {{ p | typename }};
:end-for
}
`

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, data := range files {
		path := filepath.Join(root, filepath.FromSlash(name))

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}

		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func setup(t *testing.T, entry string) Config {
	t.Helper()

	root := t.TempDir()

	writeFiles(t, root, map[string]string{
		"models/shop.modelhike":        shopModel,
		"bp/" + blueprint.ManifestName: "name: demo\nlanguage: typescript\n",
		"bp/" + blueprint.DefaultEntry: entry,
		"bp/entity.ts.teso":            entityTemplate,
		"bp/static/README.md":          "readme\n",
		"models/notes/ignored.txt":     "not a model",
		"models/.hidden/bad.modelhike": "garbage",
	})

	return Config{
		WorkDir:   filepath.Join(root, "models"),
		Blueprint: filepath.Join(root, "bp"),
		Output:    filepath.Join(root, "out"),
	}
}

const entryScript = `|> for e in @container.entities
| set entity = e
| render-file entity.ts.teso as {{ e.name | kebab-case }}.ts
copy-folder static
`

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}

	return string(data)
}

func TestRun(t *testing.T) {
	cfg := setup(t, entryScript)

	p := New(cfg, log.Logger{})
	if err := p.Run(t.Context()); err != nil {
		t.Fatalf("run error: %v", err)
	}

	if n := len(p.Sources()); n != 1 {
		t.Errorf("expected 1 model source, got %d", n)
	}

	got := readFile(t, filepath.Join(cfg.Output, "billing", "invoice.ts"))
	want := "export interface Invoice {\n  id: string;\n  customer: Customer;\n}\n"

	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if got := readFile(t, filepath.Join(cfg.Output, "shop-api", "static", "README.md")); got != "readme\n" {
		t.Errorf("expected copied readme, got %q", got)
	}

	if _, err := os.Stat(filepath.Join(cfg.Output, "shop-api", "customer.ts")); err != nil {
		t.Errorf("expected customer.ts: %v", err)
	}
}

func TestRun_FailedContainerNotPersisted(t *testing.T) {
	cfg := setup(t, "|> if @container.name == \"Billing\"\n| throw-error no billing\n"+entryScript)

	p := New(cfg, log.Logger{})

	err := p.Run(t.Context())
	if !errors.Is(err, soup.ErrUserThrown) {
		t.Fatalf("expected ErrUserThrown, got %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.Output, "billing")); !os.IsNotExist(err) {
		t.Errorf("expected no output for the failed container, got %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.Output, "shop-api", "customer.ts")); err != nil {
		t.Errorf("expected output for the successful container: %v", err)
	}
}

func TestRun_Containers(t *testing.T) {
	cfg := setup(t, entryScript)
	cfg.Containers = []string{"Billing"}

	p := New(cfg, log.Logger{})
	if err := p.Run(t.Context()); err != nil {
		t.Fatalf("run error: %v", err)
	}

	if res := p.Results(); len(res) != 1 || res[0].Target != "billing" {
		t.Errorf("expected only billing, got %+v", res)
	}

	cfg.Containers = []string{"Nope"}
	if err := New(cfg, log.Logger{}).Run(t.Context()); !errors.Is(err, ErrNoContainer) {
		t.Errorf("expected ErrNoContainer, got %v", err)
	}
}

func TestRun_DryRun(t *testing.T) {
	cfg := setup(t, entryScript)
	cfg.DryRun = true

	p := New(cfg, log.Logger{})
	if err := p.Run(t.Context()); err != nil {
		t.Fatalf("run error: %v", err)
	}

	if _, err := os.Stat(cfg.Output); !os.IsNotExist(err) {
		t.Errorf("expected no output directory, got %v", err)
	}

	if n := p.Results()[0].Files.Len(); n != 2 {
		t.Errorf("expected 2 rendered files, got %d", n)
	}
}

func TestRun_ApplicationState(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "no working dir", mutate: func(c *Config) { c.WorkDir = "" }, want: ErrNoWorkingDir},
		{name: "no models", mutate: func(c *Config) { c.WorkDir = c.Blueprint }, want: ErrNoModels},
		{name: "no blueprint", mutate: func(c *Config) { c.Blueprint += "-missing" }, want: ErrNoBlueprint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := setup(t, entryScript)
			tt.mutate(&cfg)

			err := New(cfg, log.Logger{}).Run(t.Context())
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}

			if !errors.Is(err, ErrPass) {
				t.Errorf("expected ErrPass, got %v", err)
			}

			if _, err := os.Stat(cfg.Output); !os.IsNotExist(err) {
				t.Errorf("expected no output, got %v", err)
			}
		})
	}
}

func TestRun_ModuleScope(t *testing.T) {
	cfg := setup(t, "set-str name = {{ @module.name | snake-case }}.txt\nrender-file entity.ts.teso as {{ name }}\n")
	writeFiles(t, cfg.Blueprint, map[string]string{
		blueprint.ManifestName: "scope: module\n",
		"entity.ts.teso":       "{{ @module.name }} in {{ @container.name }}\n",
	})

	if err := New(cfg, log.Logger{}).Run(t.Context()); err != nil {
		t.Fatalf("run error: %v", err)
	}

	if got := readFile(t, filepath.Join(cfg.Output, "shop-api", "orders.txt")); got != "Orders in Shop API\n" {
		t.Errorf("expected module render, got %q", got)
	}
}

func TestRun_NoEntryRendersTree(t *testing.T) {
	cfg := setup(t, "")
	if err := os.Remove(filepath.Join(cfg.Blueprint, blueprint.DefaultEntry)); err != nil {
		t.Fatal(err)
	}

	writeFiles(t, cfg.Blueprint, map[string]string{"name.txt.teso": "{{ @container.name }}\n"})

	if err := New(cfg, log.Logger{}).Run(t.Context()); err != nil {
		t.Fatalf("run error: %v", err)
	}

	if got := readFile(t, filepath.Join(cfg.Output, "billing", "name.txt")); got != "Billing\n" {
		t.Errorf("expected %q, got %q", "Billing\n", got)
	}
}
