// Package cmd implements the subcommands of the modelhike command line:
// generate, render, eval, tree, init and repl.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path
	// to the YAML configuration file.
	ConfigIdentifier = "config"
)
