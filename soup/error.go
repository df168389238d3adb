package soup

import (
	"errors"
	"log/slog"

	"github.com/sahilm/fuzzy"

	"github.com/modelhike/modelhike-sub001/lines"
	"github.com/modelhike/modelhike-sub001/pkg"
)

// Parse errors.
var (
	ErrInvalidStatement      = pkg.NewError("invalid statement")
	ErrUnidentifiedStatement = pkg.NewError("unidentified statement")
	ErrInvalidExpr           = pkg.NewError("invalid expression")
	ErrInvalidContent        = pkg.NewError("invalid content")
	ErrMisplacedContinuation = pkg.NewError("misplaced block continuation")
)

// Evaluation errors.
var (
	ErrPropertyNotFound  = pkg.NewError("property not found")
	ErrUndefinedVariable = pkg.NewError("undefined variable")
	ErrModifierType      = pkg.NewError("modifier called on wrong type")
	ErrOperatorType      = pkg.NewError("operator called on wrong types")
	ErrArgCount          = pkg.NewError("wrong argument count")
	ErrUnknownModifier   = pkg.NewError("unknown modifier")
	ErrUnknownOperator   = pkg.NewError("unknown operator")
	ErrUnknownFunction   = pkg.NewError("unknown function")
	ErrNotIterable       = pkg.NewError("value is not iterable")
	ErrRecursionLimit    = pkg.NewError("function call depth exceeded")
	ErrUserThrown        = pkg.NewError("template error")
	ErrHost              = pkg.NewError("host operation failed")
)

// ErrStopRender aborts the template being rendered. The template produces
// no output and the host writes no file for it.
var ErrStopRender = pkg.NewError("render stopped")

// located decorates err with the position of pi unless an inner statement
// already did.
func located(pi lines.PInfo, err error) error {
	if err == nil || pi.LineNo == 0 {
		return err
	}

	var ee *pkg.Error
	if !errors.As(err, &ee) {
		return pkg.WrapError(err).With(pi.Attrs()...)
	}

	if _, ok := ee.Attr("line"); ok {
		return err
	}

	return ee.With(pi.Attrs()...)
}

// suggest returns a "did you mean" attribute for the closest candidate to
// name, or an empty attribute.
func suggest(name string, candidates []string) slog.Attr {
	matches := fuzzy.Find(name, candidates)
	if len(matches) == 0 {
		return slog.Attr{}
	}

	return slog.String("suggestion", matches[0].Str)
}

// withSuggestion appends a suggestion attribute when one exists.
func withSuggestion(e *pkg.Error, name string, candidates []string) *pkg.Error {
	if a := suggest(name, candidates); a.Key != "" {
		return e.With(a)
	}

	return e
}
