package repl

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"
)

func TestHistory_Persist(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)
	for _, e := range []HistoryEntry{
		{Line: "name", Mode: modeEval},
		{Line: "vars", Mode: modeCtrl},
		{Line: "name", Mode: modeEval},
		{Line: "vars", Mode: modeEval},
		{Line: "  ", Mode: modeEval},
	} {
		if err := h.Add(e.Line, e.Mode); err != nil {
			t.Fatalf("add error: %v", err)
		}
	}

	want := []HistoryEntry{
		{Line: "vars", Mode: modeCtrl},
		{Line: "name", Mode: modeEval},
		{Line: "vars", Mode: modeEval},
	}

	if got := h.Entries(); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	loaded := NewHistory(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("load error: %v", err)
	}

	if got := loaded.Entries(); !slices.Equal(got, want) {
		t.Errorf("expected reloaded %v, got %v", want, got)
	}
}

func TestHistory_Entry(t *testing.T) {
	h := NewHistory("")
	_ = h.Add("x", modeEval)

	if _, err := h.Entry(1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}

	if e, err := h.Entry(0); err != nil || e.Line != "x" {
		t.Errorf("expected x, got %v (%v)", e, err)
	}
}

func TestHistory_LoadMissing(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "none"))
	if err := h.Load(); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
