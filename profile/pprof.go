//go:build pprof

package profile

import (
	"maps"
	"slices"

	"github.com/pkg/profile"

	_ "net/http/pprof" // register HTTP handlers
)

var modes = map[string]func(*profile.Profile){
	"allocs":    profile.MemProfileAllocs,
	"block":     profile.BlockProfile,
	"clock":     profile.ClockProfile,
	"cpu":       profile.CPUProfile,
	"goroutine": profile.GoroutineProfile,
	"heap":      profile.MemProfileHeap,
	"mem":       profile.MemProfile,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

// Modes returns the supported profiling modes, sorted.
func Modes() []string { return slices.Sorted(maps.Keys(modes)) }

// Start begins profiling in mode, writing below dir. An unknown or empty
// mode starts nothing.
func Start(mode, dir string, quiet bool) Stopper {
	fn, ok := modes[mode]
	if !ok {
		return nop{}
	}

	opts := []func(*profile.Profile){fn, profile.NoShutdownHook}

	if dir != "" {
		opts = append(opts, profile.ProfilePath(dir))
	}

	if quiet {
		opts = append(opts, profile.Quiet)
	}

	return profile.Start(opts...)
}
