package cmd

import (
	"context"
	"fmt"

	"github.com/modelhike/modelhike-sub001/log"
	"github.com/modelhike/modelhike-sub001/soup"
)

// Eval evaluates expressions and prints each result.
type Eval struct {
	Env `embed:""`

	Exprs []string `arg:"" help:"Expressions, e.g. 'name | uppercase'" name:"expr"`
	Type  bool     `help:"Print the type of each result"          short:"t"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) error {
	logger := log.Default()

	sb, err := e.sandbox(ctx, logger)
	if err != nil {
		return err
	}

	w := outputFrom(ctx)

	for _, src := range e.Exprs {
		v, err := sb.Eval(ctx, src)
		if err != nil {
			return err
		}

		if e.Type {
			fmt.Fprintf(w, "%s : %s\n", soup.Stringify(v), soup.TypeOf(v))
		} else {
			fmt.Fprintln(w, soup.Stringify(v))
		}
	}

	return nil
}
