package blueprint

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/modelhike/modelhike-sub001/log"
	"github.com/modelhike/modelhike-sub001/pkg"
	"github.com/modelhike/modelhike-sub001/soup"
)

// Generator performs the file statements of templates against a
// blueprint, writing into a FileSet.
type Generator struct {
	bp     *Blueprint
	files  *FileSet
	logger log.Logger
}

var _ soup.Host = (*Generator)(nil)

// NewGenerator returns a Generator reading bp and writing files.
func NewGenerator(bp *Blueprint, files *FileSet, logger log.Logger) *Generator {
	return &Generator{bp: bp, files: files, logger: logger}
}

// Files returns the output file set.
func (g *Generator) Files() *FileSet { return g.files }

// outputName strips the template extension.
func outputName(p string) string {
	return strings.TrimSuffix(p, pkg.TemplateExt)
}

func (g *Generator) CopyFile(_ context.Context, src, dst string) error {
	data, err := g.bp.ReadFile(src)
	if err != nil {
		return err
	}

	return g.files.Add(dst, data)
}

// RenderFile renders the template src into dst. A template that stops
// rendering produces no file.
func (g *Generator) RenderFile(ctx context.Context, sb *soup.Sandbox, src, dst string) error {
	data, err := g.bp.ReadFile(src)
	if err != nil {
		return err
	}

	t, err := sb.Parse(src, string(data))
	if err != nil {
		return err
	}

	out, err := sb.Render(ctx, t)
	if err != nil {
		return err
	}

	dst = outputName(dst)

	if out.Stopped {
		g.logger.DebugContext(ctx, "skipped file", slog.String("template", src), slog.String("path", dst))

		return nil
	}

	g.logger.TraceContext(ctx, "rendered file", slog.String("template", src), slog.String("path", dst))

	return g.files.Add(dst, []byte(out.Text))
}

// FillAndCopyFile interpolates src line by line into dst.
func (g *Generator) FillAndCopyFile(ctx context.Context, sb *soup.Sandbox, src, dst string) error {
	data, err := g.bp.ReadFile(src)
	if err != nil {
		return err
	}

	text, err := sb.Fill(ctx, src, string(data))
	if err != nil {
		return err
	}

	return g.files.Add(dst, []byte(text))
}

func (g *Generator) CopyFolder(ctx context.Context, src, dst string) error {
	files, err := g.bp.Files(src)
	if err != nil {
		return err
	}

	for _, rel := range files {
		if err := g.CopyFile(ctx, path.Join(src, rel), path.Join(dst, rel)); err != nil {
			return err
		}
	}

	return nil
}

// RenderFolder renders every template below src and copies every other
// file. Scripts are skipped.
func (g *Generator) RenderFolder(ctx context.Context, sb *soup.Sandbox, src, dst string) error {
	files, err := g.bp.Files(src)
	if err != nil {
		return err
	}

	for _, rel := range files {
		from, to := path.Join(src, rel), path.Join(dst, rel)

		switch path.Ext(rel) {
		case pkg.ScriptExt:
			continue
		case pkg.TemplateExt:
			err = g.RenderFile(ctx, sb, from, to)
		default:
			err = g.CopyFile(ctx, from, to)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// RunShell defers cmd until the files are committed.
func (g *Generator) RunShell(ctx context.Context, cmd string) (string, error) {
	g.logger.DebugContext(ctx, "deferred command", slog.String("command", cmd))
	g.files.Defer(cmd)

	return "", nil
}

func (g *Generator) Announce(ctx context.Context, msg string) error {
	g.logger.DebugContext(ctx, "announce", slog.String("message", msg))

	return nil
}
