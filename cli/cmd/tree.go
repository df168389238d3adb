package cmd

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/modelhike/modelhike-sub001/log"
	"github.com/modelhike/modelhike-sub001/pkg"
	"github.com/modelhike/modelhike-sub001/soup"
)

// Tree prints the statement tree of a template or script.
type Tree struct {
	File   string `arg:"" help:"Template (.teso) or script (.ss) file, or '-' for stdin" name:"file"`
	Format string `default:"text" enum:"text,json,yaml" help:"Output format" short:"F"`
	Script bool   `help:"Parse as a script regardless of the file extension"  short:"s"`
	Marker string `help:"Comment line marker"`
}

// Run executes the tree command.
func (t *Tree) Run(ctx context.Context) error {
	text, err := readSource(t.File)
	if err != nil {
		return err
	}

	sb := soup.New(
		soup.WithLogger(log.Default()),
		soup.WithCommentMarker(t.Marker),
	)

	var tmpl *soup.Template

	if t.Script || filepath.Ext(t.File) == pkg.ScriptExt {
		tmpl, err = sb.ParseScript(t.File, text)
	} else {
		tmpl, err = sb.Parse(t.File, text)
	}

	if err != nil {
		return err
	}

	return writeTree(outputFrom(ctx), tmpl, t.Format)
}

func writeTree(w io.Writer, tmpl *soup.Template, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(tmpl.Tree()); err != nil {
			return ErrJSONMarshal.Wrap(err).With(slog.String("source", tmpl.Source))
		}

		return nil

	case "yaml":
		b, err := yaml.MarshalWithOptions(tmpl.Tree(), yaml.Indent(2))
		if err != nil {
			return ErrYAMLMarshal.Wrap(err).With(slog.String("source", tmpl.Source))
		}

		_, err = w.Write(b)

		return err
	}

	_, err := io.WriteString(w, tmpl.Dump())

	return err
}
