package pkg

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestVersion_NotEmpty(t *testing.T) {
	if Version() == "" {
		t.Error("expected embedded version")
	}

	if strings.ContainsAny(Version(), " \n") {
		t.Errorf("expected trimmed version, got %q", Version())
	}
}

func TestPrefix_NotEmpty(t *testing.T) {
	if Prefix() == "" {
		t.Error("expected non-empty prefix")
	}

	if !strings.HasSuffix(ConfigDir(), Prefix()) {
		t.Errorf("expected config dir to end with %q, got %q", Prefix(), ConfigDir())
	}
}

func TestError_IsSentinel(t *testing.T) {
	errA := NewError("first")
	errB := NewError("second")

	decorated := errA.Wrap(io.EOF).With(slog.Int("line", 3))

	if !errors.Is(decorated, errA) {
		t.Error("expected decorated error to match its sentinel")
	}

	if errors.Is(decorated, errB) {
		t.Error("expected decorated error not to match another sentinel")
	}

	if !errors.Is(decorated, io.EOF) {
		t.Error("expected cause to be reachable")
	}

	wrapped := fmt.Errorf("outer: %w", decorated)
	if !errors.Is(wrapped, errA) {
		t.Error("expected match through fmt wrapping")
	}
}

func TestError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"message", NewError("boom"), "boom"},
		{"cause", NewError("read").Wrap(io.EOF), "read: EOF"},
		{"attrs", NewError("bad").With(slog.String("k", "v")), "bad (k=v)"},
		{"wrap only", WrapError(io.EOF), "EOF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestError_Attr(t *testing.T) {
	err := NewError("x").With(slog.Int("line", 1)).With(slog.Int("line", 2))

	v, ok := err.Attr("line")
	if !ok || v.Int64() != 2 {
		t.Errorf("expected latest line attr 2, got %v (%v)", v, ok)
	}

	if _, ok := err.Attr("missing"); ok {
		t.Error("expected missing attr")
	}
}
