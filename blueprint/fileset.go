package blueprint

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/modelhike/modelhike-sub001/log"
	"github.com/modelhike/modelhike-sub001/pkg"
)

var ErrShell = pkg.NewError("shell command failed")

// File is one generated file.
type File struct {
	Path string
	Data []byte
}

// FileSet collects generated files and deferred shell commands in memory.
// Later writes to the same path replace earlier ones.
type FileSet struct {
	mu       sync.Mutex
	files    map[string][]byte
	commands []string
}

// NewFileSet returns an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{files: map[string][]byte{}}
}

// Add stores data at the relative slash-separated path p.
func (s *FileSet) Add(p string, data []byte) error {
	clean := path.Clean(strings.ReplaceAll(p, "\\", "/"))

	if clean == "." || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return ErrPath.With(slog.String("path", p))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[clean] = data

	return nil
}

// Defer queues a shell command to run in the output directory after the
// files are written.
func (s *FileSet) Defer(cmd string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commands = append(s.commands, cmd)
}

// Len returns the number of files.
func (s *FileSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.files)
}

// Files returns the files sorted by path.
func (s *FileSet) Files() []File {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]File, 0, len(s.files))
	for _, p := range slices.Sorted(maps.Keys(s.files)) {
		out = append(out, File{Path: p, Data: s.files[p]})
	}

	return out
}

// Commands returns the deferred shell commands in order.
func (s *FileSet) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.commands)
}

// Commit writes every file below dir and then runs the deferred commands
// there.
func (s *FileSet) Commit(ctx context.Context, dir string, logger log.Logger) error {
	for _, f := range s.Files() {
		dst := filepath.Join(dir, filepath.FromSlash(f.Path))

		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return ErrPath.Wrap(err).With(slog.String("path", dst))
		}

		if err := os.WriteFile(dst, f.Data, 0o644); err != nil { //nolint:gosec
			return ErrPath.Wrap(err).With(slog.String("path", dst))
		}

		logger.DebugContext(ctx, "wrote file", slog.String("path", dst), slog.Int("bytes", len(f.Data)))
	}

	for _, cmd := range s.Commands() {
		c := exec.CommandContext(ctx, "sh", "-c", cmd) //nolint:gosec
		c.Dir = dir

		out, err := c.CombinedOutput()
		if err != nil {
			return ErrShell.Wrap(err).With(
				slog.String("command", cmd),
				slog.String("output", strings.TrimSpace(string(out))),
			)
		}

		logger.InfoContext(ctx, "ran command", slog.String("command", cmd))
	}

	return nil
}
