package profile

import "testing"

func TestStart_UnknownMode(t *testing.T) {
	s := Start("no-such-mode", t.TempDir(), true)
	if _, ok := s.(nop); !ok {
		t.Errorf("expected no-op stopper, got %T", s)
	}

	s.Stop()
}
