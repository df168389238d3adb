package repl

import "github.com/modelhike/modelhike-sub001/pkg"

// Sentinel errors.
var (
	ErrOutOfBounds    = pkg.NewError("index out of range")
	ErrUnknownCommand = pkg.NewError("unknown command")
	ErrMissingArg     = pkg.NewError("missing argument")
)
