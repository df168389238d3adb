package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/modelhike/modelhike-sub001/log"
	"github.com/modelhike/modelhike-sub001/pkg"
	"github.com/modelhike/modelhike-sub001/soup"
)

// readSource reads path, or stdin for "-".
func readSource(path string) (string, error) {
	var (
		data []byte
		err  error
	)

	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}

	if err != nil {
		return "", ErrReadInput.Wrap(err).With(slog.String("file", path))
	}

	return string(data), nil
}

// Render renders templates (or runs scripts) and prints the output.
type Render struct {
	Env `embed:""`

	Files []string `arg:"" help:"Template (.teso) or script (.ss) files, or '-' for stdin" name:"file"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) error {
	logger := log.Default()

	sb, err := r.sandbox(ctx, logger)
	if err != nil {
		return err
	}

	w := outputFrom(ctx)

	for _, path := range r.Files {
		text, err := readSource(path)
		if err != nil {
			return err
		}

		var out soup.Output

		if filepath.Ext(path) == pkg.ScriptExt {
			out, err = sb.RunScript(ctx, path, text)
		} else {
			out, err = sb.RenderString(ctx, path, text)
		}

		if err != nil {
			return err
		}

		if out.Stopped {
			logger.DebugContext(ctx, "render stopped", slog.String("file", path))

			continue
		}

		if _, err := io.WriteString(w, out.Text); err != nil {
			return err
		}
	}

	return nil
}
