// Package profile wraps [github.com/pkg/profile] for the modelhike
// command.
//
// Profiling is compiled in only with the pprof build tag:
//
//	go build -tags pprof .
//	modelhike --pprof-mode=cpu generate -b ./blueprint
//
// Without the tag [Start] returns a no-op [Stopper] and [Modes] is empty.
// Profiles are written to the given directory, named after the mode
// (cpu.pprof, mem.pprof, ...), and can be inspected with go tool pprof.
// The pprof build also registers the net/http/pprof handlers.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

type nop struct{}

func (nop) Stop() {}
