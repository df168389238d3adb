package blueprint

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"testing/fstest"

	"github.com/modelhike/modelhike-sub001/log"
	"github.com/modelhike/modelhike-sub001/soup"
)

func testBlueprint(t *testing.T, files map[string]string) *Blueprint {
	t.Helper()

	fsys := fstest.MapFS{}
	for name, data := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(data)}
	}

	bp, err := Load(t.Context(), fsys)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	return bp
}

func TestLoad_Manifest(t *testing.T) {
	bp := testBlueprint(t, map[string]string{
		ManifestName: "name: api\nlanguage: ts\nscope: module\nvars:\n  author: me\n",
	})

	if bp.Name != "api" || bp.Language != "ts" || bp.Scope != ScopeModule {
		t.Errorf("unexpected manifest %+v", bp.Manifest)
	}

	if bp.Entry != DefaultEntry {
		t.Errorf("expected entry %q, got %q", DefaultEntry, bp.Entry)
	}

	if bp.Vars["author"] != "me" {
		t.Errorf("expected var author, got %v", bp.Vars)
	}

	if n := len(bp.Libraries()); n != 2 {
		t.Errorf("expected 2 libraries, got %d", n)
	}
}

func TestLoad_Defaults(t *testing.T) {
	bp := testBlueprint(t, map[string]string{"main.ss": ""})

	if bp.Scope != ScopeContainer {
		t.Errorf("expected scope %q, got %q", ScopeContainer, bp.Scope)
	}

	if n := len(bp.Libraries()); n != 1 {
		t.Errorf("expected 1 library, got %d", n)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{name: "scope", manifest: "scope: galaxy\n"},
		{name: "language", manifest: "language: cobol\n"},
		{name: "syntax", manifest: "name: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{ManifestName: &fstest.MapFile{Data: []byte(tt.manifest)}}

			if _, err := Load(t.Context(), fsys); !errors.Is(err, ErrManifest) {
				t.Errorf("expected ErrManifest, got %v", err)
			}
		})
	}
}

func TestFiles(t *testing.T) {
	bp := testBlueprint(t, map[string]string{
		ManifestName:        "name: x\n",
		"main.ss":           "",
		"src/b.teso":        "",
		"src/a/c.txt":       "",
		"static/readme.txt": "",
	})

	got, err := bp.Files("src")
	if err != nil {
		t.Fatalf("files error: %v", err)
	}

	if want := []string{"a/c.txt", "b.teso"}; !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	all, _ := bp.Files(".")
	if slices.Contains(all, ManifestName) {
		t.Error("expected manifest to be excluded")
	}

	if !bp.Exists("/static/readme.txt") || bp.Exists("static") {
		t.Error("expected Exists to accept rooted file paths only")
	}
}

func TestFileSet_Add(t *testing.T) {
	tests := []struct {
		path string
		ok   bool
	}{
		{path: "a/b.txt", ok: true},
		{path: "a/../b.txt", ok: true},
		{path: "../b.txt", ok: false},
		{path: "/etc/passwd", ok: false},
		{path: ".", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := NewFileSet().Add(tt.path, nil)
			if tt.ok && err != nil {
				t.Errorf("expected no error, got %v", err)
			}

			if !tt.ok && !errors.Is(err, ErrPath) {
				t.Errorf("expected ErrPath, got %v", err)
			}
		})
	}
}

func TestFileSet_Commit(t *testing.T) {
	fs := NewFileSet()
	_ = fs.Add("z.txt", []byte("last"))
	_ = fs.Add("a/b.txt", []byte("first"))
	_ = fs.Add("z.txt", []byte("replaced"))
	fs.Defer("cat z.txt > copy.txt")

	dir := t.TempDir()
	if err := fs.Commit(t.Context(), dir, log.Logger{}); err != nil {
		t.Fatalf("commit error: %v", err)
	}

	for name, want := range map[string]string{
		"a/b.txt":  "first",
		"z.txt":    "replaced",
		"copy.txt": "replaced",
	} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}

		if string(data) != want {
			t.Errorf("%s: expected %q, got %q", name, want, data)
		}
	}
}

func TestFileSet_CommitCommandFails(t *testing.T) {
	fs := NewFileSet()
	fs.Defer("exit 3")

	if err := fs.Commit(t.Context(), t.TempDir(), log.Logger{}); !errors.Is(err, ErrShell) {
		t.Errorf("expected ErrShell, got %v", err)
	}
}

func TestGenerator(t *testing.T) {
	bp := testBlueprint(t, map[string]string{
		"main.ss":             "render-folder src as out\ncopy-file static/logo.txt as logo.txt\nfill-and-copy-file static/fill.txt\nrun-shell-cmd make fmt\n",
		"src/entity.txt.teso": "entity {{ name | uppercase }}\n",
		"src/skip.teso":       ":stop-render\nnever\n",
		"src/helper.ss":       "set x = 1\n",
		"src/plain.txt":       "plain {{ name }}\n",
		"static/logo.txt":     "logo\n",
		"static/fill.txt":     "hello {{ name }}\n:if keep\n",
	})

	files := NewFileSet()
	gen := NewGenerator(bp, files, log.Logger{})
	sb := soup.New(soup.WithHost(gen), soup.WithVars(map[string]any{"name": "shop"}))

	entry, err := bp.ReadFile(bp.Entry)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}

	if _, err := sb.RunScript(t.Context(), bp.Entry, string(entry)); err != nil {
		t.Fatalf("run error: %v", err)
	}

	want := map[string]string{
		"out/entity.txt":  "entity SHOP\n",
		"out/plain.txt":   "plain {{ name }}\n",
		"logo.txt":        "logo\n",
		"static/fill.txt": "hello shop\n:if keep\n",
	}

	got := map[string]string{}
	for _, f := range files.Files() {
		got[f.Path] = string(f.Data)
	}

	if len(got) != len(want) {
		t.Errorf("expected %d files, got %v", len(want), got)
	}

	for p, w := range want {
		if got[p] != w {
			t.Errorf("%s: expected %q, got %q", p, w, got[p])
		}
	}

	if cmds := files.Commands(); !slices.Equal(cmds, []string{"make fmt"}) {
		t.Errorf("expected deferred command, got %v", cmds)
	}
}

func TestGenerator_MissingFile(t *testing.T) {
	bp := testBlueprint(t, map[string]string{"main.ss": ""})
	sb := soup.New(soup.WithHost(NewGenerator(bp, NewFileSet(), log.Logger{})))

	_, err := sb.RunScript(t.Context(), "main.ss", "render-file missing.teso\n")
	if !errors.Is(err, soup.ErrHost) || !errors.Is(err, ErrRead) {
		t.Errorf("expected ErrHost wrapping ErrRead, got %v", err)
	}
}
