package cmd

import (
	"context"
	"log/slog"

	"github.com/modelhike/modelhike-sub001/log"
	"github.com/modelhike/modelhike-sub001/pipeline"
)

// Generate runs the full pipeline: models in, generated source tree out.
type Generate struct {
	Models    string            `default:"."      help:"Directory searched for model files"            short:"m" type:"existingdir"`
	Blueprint string            `help:"Blueprint directory"                                            required:"" short:"b" type:"path"`
	Output    string            `default:"output" help:"Output directory"                              short:"o" type:"path"`
	Container []string          `help:"Generate only the named containers"                             short:"c"`
	Var       map[string]string `help:"Define a variable; values are parsed as YAML"                   short:"D"`
	Jobs      int               `default:"0"      help:"Containers rendered at once (0 = GOMAXPROCS)"  short:"j"`
	DryRun    bool              `help:"Render without writing files"                                   short:"n"`
}

// Run executes the generate command.
func (g *Generate) Run(ctx context.Context) error {
	vars, err := parseVars(g.Var)
	if err != nil {
		return err
	}

	logger := log.Default()

	p := pipeline.New(pipeline.Config{
		WorkDir:    g.Models,
		Blueprint:  g.Blueprint,
		Output:     g.Output,
		Containers: g.Container,
		Vars:       vars,
		Jobs:       g.Jobs,
		DryRun:     g.DryRun,
	}, logger)

	err = p.Run(ctx)

	for _, res := range p.Results() {
		if res.Err != nil {
			continue
		}

		logger.DebugContext(ctx, "container done",
			slog.String("container", res.Container),
			slog.String("target", res.Target),
			slog.Int("files", res.Files.Len()),
		)
	}

	return err
}
