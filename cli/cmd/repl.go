package cmd

import (
	"context"

	"github.com/modelhike/modelhike-sub001/cli/cmd/repl"
	"github.com/modelhike/modelhike-sub001/log"
)

// Repl starts an interactive session on a sandbox.
type Repl struct {
	Env `embed:""`

	Cache string `default:"${cache}" help:"Directory holding the REPL history" hidden:"" type:"path"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	logger := log.Default()

	sb, err := r.sandbox(ctx, logger)
	if err != nil {
		return err
	}

	return repl.Run(ctx, sb, r.Cache, logger)
}
