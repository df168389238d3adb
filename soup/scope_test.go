package soup

import (
	"reflect"
	"testing"
)

func TestScope_Frames(t *testing.T) {
	s := NewScope(map[string]any{"a": 1})

	s.PushFrame()
	s.Define("a", "shadow")
	s.Set("b", 2)

	if v, _ := s.Get("a"); v != "shadow" {
		t.Errorf("expected inner binding, got %v", v)
	}

	s.PopFrame()

	if v, _ := s.Get("a"); v != int64(1) {
		t.Errorf("expected outer binding, got %v", v)
	}

	if _, ok := s.Get("b"); ok {
		t.Error("expected frame variable to be discarded")
	}

	s.PopFrame()

	if s.Depth() != 1 {
		t.Errorf("expected the global frame to stay, got depth %d", s.Depth())
	}
}

func TestScope_BindShadowed(t *testing.T) {
	s := NewScope(map[string]any{"x": "outer", "y": 0})

	b := s.BindShadowed([]string{"x", "p"}, []any{"param", 1})

	if v, _ := s.Get("x"); v != "param" {
		t.Errorf("expected parameter binding, got %v", v)
	}

	s.Set("y", 5)
	s.Set("x", "changed")

	b.Release()
	b.Release()

	want := map[string]any{"x": "outer", "y": int64(5)}
	if got := s.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestScope_Names(t *testing.T) {
	s := NewScope(map[string]any{"b": 1})
	s.PushFrame()
	s.Define("a", 1)
	s.Define("b", 2)

	if got := s.Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("expected [a b], got %v", got)
	}
}
