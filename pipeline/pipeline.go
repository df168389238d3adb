package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/iancoleman/strcase"
	"golang.org/x/sync/errgroup"

	"github.com/modelhike/modelhike-sub001/blueprint"
	"github.com/modelhike/modelhike-sub001/log"
	"github.com/modelhike/modelhike-sub001/model"
	"github.com/modelhike/modelhike-sub001/pkg"
	"github.com/modelhike/modelhike-sub001/soup"
)

var (
	ErrNoWorkingDir = pkg.NewError("working directory not set")
	ErrNoModels     = pkg.NewError("no models loaded")
	ErrNoContainer  = pkg.NewError("container does not exist")
	ErrNoBlueprint  = pkg.NewError("blueprint does not exist")
	ErrPass         = pkg.NewError("pipeline pass failed")
)

// Pass names a pipeline pass.
type Pass string

const (
	PassDiscover Pass = "discover"
	PassLoad     Pass = "load"
	PassHydrate  Pass = "hydrate"
	PassRender   Pass = "render"
	PassPersist  Pass = "persist"
)

// Passes returns the passes in execution order.
func Passes() []Pass {
	return []Pass{PassDiscover, PassLoad, PassHydrate, PassRender, PassPersist}
}

// Config selects the inputs and output of a pipeline.
type Config struct {
	// WorkDir is searched recursively for model files.
	WorkDir string
	// Blueprint is the blueprint directory.
	Blueprint string
	// Output is the directory receiving one folder per container.
	Output string
	// Containers restricts generation to the named containers.
	Containers []string
	// Vars are defined in every sandbox, after the manifest vars.
	Vars map[string]any
	// Jobs bounds the number of containers rendered at once.
	Jobs int
	// DryRun renders without writing files or running commands.
	DryRun bool
}

// Result is the outcome of one container.
type Result struct {
	Container string
	Target    string
	Files     *blueprint.FileSet
	Err       error
}

// Pipeline holds the state carried between passes.
type Pipeline struct {
	cfg    Config
	logger log.Logger

	sources   []string
	model     *model.Model
	blueprint *blueprint.Blueprint
	results   []*Result
}

// New returns a pipeline for cfg.
func New(cfg Config, logger log.Logger) *Pipeline {
	if cfg.Jobs <= 0 {
		cfg.Jobs = runtime.GOMAXPROCS(0)
	}

	return &Pipeline{cfg: cfg, logger: logger}
}

// Sources returns the model files found by discover.
func (p *Pipeline) Sources() []string { return slices.Clone(p.sources) }

// Model returns the loaded model.
func (p *Pipeline) Model() *model.Model { return p.model }

// Results returns the per-container outcomes of render and persist.
func (p *Pipeline) Results() []*Result { return slices.Clone(p.results) }

// Run executes every pass and stops at the first failing one. Containers
// that rendered are persisted even when others failed; their errors are
// returned afterwards.
func (p *Pipeline) Run(ctx context.Context) error {
	for _, pass := range Passes() {
		if err := p.Step(ctx, pass); err != nil {
			return err
		}
	}

	if err := p.Err(); err != nil {
		return ErrPass.Wrap(err).With(slog.String("pass", string(PassRender)))
	}

	return nil
}

// Step executes a single pass.
func (p *Pipeline) Step(ctx context.Context, pass Pass) error {
	var fn func(context.Context) error

	switch pass {
	case PassDiscover:
		fn = p.discover
	case PassLoad:
		fn = p.load
	case PassHydrate:
		fn = p.hydrate
	case PassRender:
		fn = p.render
	case PassPersist:
		fn = p.persist
	default:
		return ErrPass.With(slog.String("pass", string(pass)))
	}

	p.logger.DebugContext(ctx, "pass", slog.String("pass", string(pass)))

	if err := fn(ctx); err != nil {
		p.logger.ErrorContext(ctx, "pass failed",
			slog.String("pass", string(pass)),
			slog.Any("error", err),
		)

		return ErrPass.Wrap(err).With(slog.String("pass", string(pass)))
	}

	return nil
}

func (p *Pipeline) discover(ctx context.Context) error {
	if p.cfg.WorkDir == "" {
		return ErrNoWorkingDir
	}

	skip := map[string]bool{}
	for _, dir := range []string{p.cfg.Blueprint, p.cfg.Output} {
		if abs, err := filepath.Abs(dir); err == nil && dir != "" {
			skip[abs] = true
		}
	}

	p.sources = nil

	err := filepath.WalkDir(p.cfg.WorkDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			abs, _ := filepath.Abs(path)
			if skip[abs] || (path != p.cfg.WorkDir && strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}

			return nil
		}

		if isModel(d.Name()) {
			p.sources = append(p.sources, path)
		}

		return nil
	})
	if err != nil {
		return ErrNoWorkingDir.Wrap(err).With(slog.String("dir", p.cfg.WorkDir))
	}

	p.logger.DebugContext(ctx, "discovered models", slog.Int("files", len(p.sources)))

	return nil
}

func isModel(name string) bool {
	switch filepath.Ext(name) {
	case pkg.ModelExt:
		return true
	case pkg.ModelYAMLExt:
		return name != blueprint.ManifestName
	}

	return false
}

func (p *Pipeline) load(ctx context.Context) error {
	if len(p.sources) == 0 {
		return ErrNoModels.With(slog.String("dir", p.cfg.WorkDir))
	}

	var m *model.Model

	for _, src := range p.sources {
		f, err := os.Open(src)
		if err != nil {
			return model.ErrReadModel.Wrap(err).With(slog.String("source", src))
		}

		if filepath.Ext(src) == pkg.ModelYAMLExt {
			m, err = model.ParseYAML(ctx, src, f, m, p.logger)
		} else {
			m, err = model.Parse(ctx, src, f, m, p.logger)
		}

		f.Close()

		if err != nil {
			return err
		}
	}

	if m == nil || len(m.Containers) == 0 {
		return ErrNoModels.With(slog.String("dir", p.cfg.WorkDir))
	}

	p.model = m

	return nil
}

func (p *Pipeline) hydrate(context.Context) error {
	if p.model == nil {
		return ErrNoModels
	}

	return p.model.Hydrate()
}

// containers returns the containers selected by the config.
func (p *Pipeline) containers() ([]*model.Container, error) {
	if len(p.cfg.Containers) == 0 {
		return p.model.Containers, nil
	}

	out := make([]*model.Container, 0, len(p.cfg.Containers))

	for _, name := range p.cfg.Containers {
		c, ok := p.model.Container(name)
		if !ok {
			return nil, ErrNoContainer.With(slog.String("container", name))
		}

		out = append(out, c)
	}

	return out, nil
}

func (p *Pipeline) render(ctx context.Context) error {
	if p.model == nil {
		return ErrNoModels
	}

	if p.cfg.Blueprint == "" {
		return ErrNoBlueprint
	}

	if info, err := os.Stat(p.cfg.Blueprint); err != nil || !info.IsDir() {
		return ErrNoBlueprint.With(slog.String("blueprint", p.cfg.Blueprint))
	}

	containers, err := p.containers()
	if err != nil {
		return err
	}

	bp, err := blueprint.Open(ctx, p.cfg.Blueprint)
	if err != nil {
		return err
	}

	p.blueprint = bp
	p.results = make([]*Result, len(containers))

	var g errgroup.Group
	g.SetLimit(p.cfg.Jobs)

	for i, c := range containers {
		res := &Result{
			Container: c.Name,
			Target:    strcase.ToKebab(c.Name),
			Files:     blueprint.NewFileSet(),
		}
		p.results[i] = res

		g.Go(func() error {
			res.Err = p.renderContainer(ctx, c, res)
			if res.Err != nil {
				p.logger.ErrorContext(ctx, "container failed",
					slog.String("container", c.Name),
					slog.Any("error", res.Err),
				)
			}

			return nil
		})
	}

	_ = g.Wait()

	var errs []error
	for _, res := range p.results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}

	// successful containers are still persisted
	if len(errs) > 0 && len(errs) == len(p.results) {
		return errors.Join(errs...)
	}

	for _, err := range errs {
		p.logger.WarnContext(ctx, "container skipped", slog.Any("error", err))
	}

	return nil
}

// renderContainer runs the blueprint entry for c in a fresh sandbox.
func (p *Pipeline) renderContainer(ctx context.Context, c *model.Container, res *Result) error {
	logger := p.logger.With(slog.String("container", c.Name))
	gen := blueprint.NewGenerator(p.blueprint, res.Files, logger)

	sb := soup.New(
		soup.WithLogger(logger),
		soup.WithRegistry(soup.NewRegistry(p.blueprint.Libraries()...)),
		soup.WithHost(gen),
		soup.WithCommentMarker(p.blueprint.CommentMarker),
		soup.WithVars(p.blueprint.Vars),
		soup.WithVars(p.cfg.Vars),
		soup.WithVars(map[string]any{
			"model":          p.model,
			"container":      c,
			"@container":     c,
			"@target-folder": res.Target,
		}),
	)

	entry, err := p.entry(sb)
	if err != nil {
		return err
	}

	if p.blueprint.Scope == blueprint.ScopeModule {
		for _, mod := range c.Modules {
			sb.Set("@module", mod)

			if err := p.runEntry(ctx, sb, gen, entry); err != nil {
				return err
			}
		}

		return nil
	}

	if len(c.Modules) > 0 {
		sb.Set("@module", c.Modules[0])
	}

	return p.runEntry(ctx, sb, gen, entry)
}

// entry parses the blueprint entry script. A blueprint without one
// renders its whole tree.
func (p *Pipeline) entry(sb *soup.Sandbox) (*soup.Template, error) {
	if !p.blueprint.Exists(p.blueprint.Entry) {
		return nil, nil //nolint:nilnil
	}

	data, err := p.blueprint.ReadFile(p.blueprint.Entry)
	if err != nil {
		return nil, err
	}

	return sb.ParseScript(p.blueprint.Entry, string(data))
}

func (p *Pipeline) runEntry(
	ctx context.Context,
	sb *soup.Sandbox,
	gen *blueprint.Generator,
	entry *soup.Template,
) error {
	if entry == nil {
		return gen.RenderFolder(ctx, sb, ".", ".")
	}

	_, err := sb.Run(ctx, entry)

	return err
}

func (p *Pipeline) persist(ctx context.Context) error {
	if p.cfg.Output == "" && !p.cfg.DryRun {
		return ErrNoWorkingDir.With(slog.String("output", p.cfg.Output))
	}

	for _, res := range p.results {
		if res.Err != nil {
			continue
		}

		dir := filepath.Join(p.cfg.Output, res.Target)

		if p.cfg.DryRun {
			for _, f := range res.Files.Files() {
				p.logger.InfoContext(ctx, "would write",
					slog.String("path", filepath.Join(dir, filepath.FromSlash(f.Path))),
					slog.Int("bytes", len(f.Data)),
				)
			}

			continue
		}

		if err := res.Files.Commit(ctx, dir, p.logger); err != nil {
			res.Err = err

			return err
		}

		p.logger.InfoContext(ctx, "generated",
			slog.String("container", res.Container),
			slog.String("dir", dir),
			slog.Int("files", res.Files.Len()),
		)
	}

	return nil
}

// Err returns the joined errors of every failed container.
func (p *Pipeline) Err() error {
	var errs []error
	for _, res := range p.results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}

	return errors.Join(errs...)
}
