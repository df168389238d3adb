//go:build !pprof

package profile

// Modes returns nil without the pprof build tag.
func Modes() []string { return nil }

// Start does nothing without the pprof build tag.
func Start(string, string, bool) Stopper { return nop{} }
