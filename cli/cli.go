package cli

import (
	"context"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/modelhike/modelhike-sub001/cli/cmd"
	"github.com/modelhike/modelhike-sub001/pkg"
	"github.com/modelhike/modelhike-sub001/typemap"
)

// CLI is the top-level command-line interface.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version kong.VersionFlag `help:"Print version and exit" short:"V"`

	Generate cmd.Generate `cmd:"" default:"withargs" help:"Generate source code from models with a blueprint"`
	Render   cmd.Render   `cmd:"" help:"Render templates or run scripts and print the output"`
	Eval     cmd.Eval     `cmd:"" help:"Evaluate expressions"`
	Tree     cmd.Tree     `cmd:"" help:"Print the statement tree of a template or script"`
	Repl     cmd.Repl     `cmd:"" help:"Start an interactive session"`
	Init     cmd.Init     `cmd:"" help:"Initialize configuration file"`
}

// Run executes the CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := kong.Vars{
		"version":            pkg.Version(),
		"languages":          strings.Join(typemap.Names(), ","),
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Logger flags are applied before kong parses so that parse errors
	// are already logged in the requested format.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFilePath+".json"),
		kong.Configuration(resolve, configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)

	cli.Log.start(ctx)

	// no-op unless built with tag pprof and a mode is set
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx)
}
