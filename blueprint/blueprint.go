// Package blueprint loads code generation blueprints and persists what
// they generate.
//
// A blueprint is a directory of templates (*.teso), scripts (*.ss) and
// static files, optionally described by a blueprint.yaml manifest. The
// [Generator] executes file statements of a sandbox against a blueprint
// and collects output in a [FileSet] that is written to disk only when
// the whole container rendered successfully.
package blueprint

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"

	"github.com/modelhike/modelhike-sub001/pkg"
	"github.com/modelhike/modelhike-sub001/soup"
	"github.com/modelhike/modelhike-sub001/typemap"
)

// ManifestName is the file name of the blueprint manifest.
const ManifestName = "blueprint.yaml"

// DefaultEntry is the script run for every container when the manifest
// names none.
const DefaultEntry = "main" + pkg.ScriptExt

var (
	ErrManifest = pkg.NewError("invalid blueprint manifest")
	ErrRead     = pkg.NewError("failed to read blueprint file")
	ErrPath     = pkg.NewError("invalid output path")
)

// Scope selects how often the entry runs per container.
type Scope string

const (
	ScopeContainer Scope = "container"
	ScopeModule    Scope = "module"
)

// Manifest is the content of blueprint.yaml.
type Manifest struct {
	Name          string         `yaml:"name"`
	Description   string         `yaml:"description"`
	Language      string         `yaml:"language"`
	Entry         string         `yaml:"entry"`
	Scope         Scope          `yaml:"scope"`
	CommentMarker string         `yaml:"comment-marker"`
	Vars          map[string]any `yaml:"vars"`
}

// Blueprint is a loaded blueprint rooted at a file system.
type Blueprint struct {
	Manifest

	fsys fs.FS
}

// Open loads the blueprint in dir.
func Open(ctx context.Context, dir string) (*Blueprint, error) {
	bp, err := Load(ctx, os.DirFS(dir))
	if err != nil {
		return nil, err
	}

	if bp.Name == "" {
		bp.Name = path.Base(strings.ReplaceAll(dir, string(os.PathSeparator), "/"))
	}

	return bp, nil
}

// Load loads a blueprint from fsys. A missing manifest yields the
// defaults.
func Load(ctx context.Context, fsys fs.FS) (*Blueprint, error) {
	bp := &Blueprint{fsys: fsys}

	f, err := fsys.Open(ManifestName)

	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, ErrRead.Wrap(err).With(slog.String("file", ManifestName))
	default:
		defer f.Close()

		ra := readahead.NewReader(f)
		defer ra.Close()

		if err := yaml.NewDecoder(ra).DecodeContext(ctx, &bp.Manifest); err != nil && !errors.Is(err, io.EOF) {
			return nil, ErrManifest.Wrap(err).With(slog.String("file", ManifestName))
		}
	}

	if bp.Entry == "" {
		bp.Entry = DefaultEntry
	}

	switch bp.Scope {
	case "":
		bp.Scope = ScopeContainer
	case ScopeContainer, ScopeModule:
	default:
		return nil, ErrManifest.With(slog.String("scope", string(bp.Scope)))
	}

	if bp.Language != "" {
		if _, ok := typemap.Lookup(bp.Language); !ok {
			return nil, ErrManifest.With(
				slog.String("language", bp.Language),
				slog.Any("supported", typemap.Names()),
			)
		}
	}

	return bp, nil
}

// Libraries returns the registry libraries the blueprint needs.
func (b *Blueprint) Libraries() []soup.Library {
	libs := []soup.Library{soup.DefaultLibrary}

	if t, ok := typemap.Lookup(b.Language); ok {
		libs = append(libs, t.Library())
	}

	return libs
}

// Exists reports whether name is a regular file of the blueprint.
func (b *Blueprint) Exists(name string) bool {
	info, err := fs.Stat(b.fsys, clean(name))

	return err == nil && info.Mode().IsRegular()
}

// ReadFile returns the content of name.
func (b *Blueprint) ReadFile(name string) ([]byte, error) {
	f, err := b.fsys.Open(clean(name))
	if err != nil {
		return nil, ErrRead.Wrap(err).With(slog.String("file", name))
	}
	defer f.Close()

	ra := readahead.NewReader(f)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrRead.Wrap(err).With(slog.String("file", name))
	}

	return data, nil
}

// Files returns the paths of the regular files below dir relative to
// dir, sorted. The manifest is never included.
func (b *Blueprint) Files(dir string) ([]string, error) {
	root := clean(dir)

	var out []string

	err := fs.WalkDir(b.fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || p == ManifestName {
			return nil
		}

		rel := p
		if root != "." {
			rel = strings.TrimPrefix(p, root+"/")
		}

		out = append(out, rel)

		return nil
	})
	if err != nil {
		return nil, ErrRead.Wrap(err).With(slog.String("dir", dir))
	}

	slices.Sort(out)

	return out, nil
}

// clean turns a template-supplied path into an fs.FS path.
func clean(name string) string {
	name = path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))

	if name == "/" {
		return "."
	}

	return name[1:]
}
