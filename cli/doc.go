// Package cli contains the command line interface for modelhike.
//
// # Usage
//
//	modelhike [flags] <command> [args]
//
// The default command is generate, which discovers models under the working
// directory and renders every container through a blueprint:
//
//	modelhike --blueprint ./blueprints/api-nestjs --output ./gen
//
// The remaining commands expose the template engine directly:
//
//   - render: render templates (.teso) or run scripts (.ss) to stdout
//   - eval: evaluate expressions against the loaded models
//   - tree: print the statement tree of a template or script
//   - repl: start an interactive session
//   - init: write the current flag values to the configuration file
//
// # Configuration
//
// Flags may be set in a YAML file in the user configuration directory.
// Nested mappings name command flags:
//
//	log-level: debug
//	generate:
//	  output: ./gen
//
// # Profiling
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o modelhike .
//	modelhike --pprof-mode=cpu generate ...
package cli
