//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of the module embedded at build time.
func Version() string { return strings.TrimSpace(version) }

const (
	// Name is the command name. It also names the user config and cache
	// directories.
	Name = "modelhike"
	// Description is a one-line summary used in help output.
	Description = "Model-driven source code generator"
)

// Extensions recognized by the generator.
const (
	TemplateExt  = ".teso"
	ScriptExt    = ".ss"
	ModelExt     = ".modelhike"
	ModelYAMLExt = ".yaml"
)
