package model

import "github.com/modelhike/modelhike-sub001/pkg"

var (
	ErrUnknownProperty     = pkg.NewError("unknown property")
	ErrInvalidModelLine    = pkg.NewError("invalid model line")
	ErrNoEntity            = pkg.NewError("property or api outside of an entity")
	ErrUnresolvedReference = pkg.NewError("unresolved reference")
	ErrDuplicateEntity     = pkg.NewError("duplicate entity")
	ErrReadModel           = pkg.NewError("failed to read model")
)
