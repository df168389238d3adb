package cmd

import "github.com/modelhike/modelhike-sub001/pkg"

var (
	ErrYAMLMarshal = pkg.NewError("marshal YAML")
	ErrJSONMarshal = pkg.NewError("marshal JSON")
	ErrWriteConfig = pkg.NewError("write configuration file")
	ErrFileExists  = pkg.NewError("file exists (use --force to overwrite)")
	ErrLanguage    = pkg.NewError("unknown language")
	ErrVar         = pkg.NewError("invalid variable value")
	ErrReadInput   = pkg.NewError("failed to read input")
)
