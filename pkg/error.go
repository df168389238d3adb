package pkg

import (
	"errors"
	"log/slog"
	"strings"
)

// Error is an error carrying structured attributes for logging.
// Packages declare sentinel values with [NewError] and decorate them at the
// failure site with [Error.Wrap] and [Error.With]; errors.Is matches the
// decorated copy against its sentinel.
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
	root  *Error
}

// NewError creates a sentinel Error.
func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.root = e

	return e
}

// WrapError converts err into an *Error, returning it unchanged if it
// already is one.
func WrapError(err error) *Error {
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface as "<msg>: <cause> (k=v ...)".
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.msg)

	if e.err != nil {
		if sb.Len() > 0 {
			sb.WriteString(": ")
		}

		sb.WriteString(e.err.Error())
	}

	if len(e.attrs) > 0 {
		sb.WriteString(" (")

		for i, a := range e.attrs {
			if i > 0 {
				sb.WriteByte(' ')
			}

			sb.WriteString(a.String())
		}

		sb.WriteByte(')')
	}

	return sb.String()
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && e.root != nil && t == e.root
}

// Message returns the sentinel message without cause or attributes.
func (e *Error) Message() string { return e.msg }

// Attr returns the value of the attribute named key.
func (e *Error) Attr(key string) (slog.Value, bool) {
	for i := len(e.attrs) - 1; i >= 0; i-- {
		if e.attrs[i].Key == key {
			return e.attrs[i].Value, true
		}
	}

	return slog.Value{}, false
}

// LogValue implements slog.LogValuer.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap returns a copy of e with err as its cause.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, attrs: e.attrs, root: e.root}
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	merged := make([]slog.Attr, 0, len(e.attrs)+len(attrs))
	merged = append(merged, e.attrs...)
	merged = append(merged, attrs...)

	return &Error{msg: e.msg, err: e.err, attrs: merged, root: e.root}
}
