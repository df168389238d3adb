package soup

import (
	"maps"
	"slices"
)

// Scope is a stack of variable frames. Lookups search innermost to
// outermost.
//
// Two distinct mechanisms change what is visible:
//
//   - PushFrame/PopFrame give loop bodies a lexical frame that is discarded
//     wholesale on exit.
//   - BindShadowed binds function parameters into the current frame and,
//     on Release, restores exactly those slots. Anything else the function
//     body assigned stays assigned.
//
// Function calls must use BindShadowed and never PushFrame: assignments
// to pre-existing variables made inside a function are visible to the
// caller.
type Scope struct {
	frames []map[string]any
}

// NewScope returns a scope whose outermost frame holds globals.
func NewScope(globals map[string]any) *Scope {
	base := make(map[string]any, len(globals))
	for k, v := range globals {
		base[k] = Normalize(v)
	}

	return &Scope{frames: []map[string]any{base}}
}

// Get resolves name, innermost frame first.
func (s *Scope) Get(name string) (any, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i][name]; ok {
			return v, true
		}
	}

	return nil, false
}

// Set assigns to the innermost existing binding of name, or defines it in
// the innermost frame.
func (s *Scope) Set(name string, v any) {
	v = Normalize(v)

	for i := len(s.frames) - 1; i >= 0; i-- {
		if _, ok := s.frames[i][name]; ok {
			s.frames[i][name] = v

			return
		}
	}

	s.frames[len(s.frames)-1][name] = v
}

// Define binds name in the innermost frame, shadowing outer bindings.
func (s *Scope) Define(name string, v any) {
	s.frames[len(s.frames)-1][name] = Normalize(v)
}

// PushFrame opens a lexical frame.
func (s *Scope) PushFrame() {
	s.frames = append(s.frames, map[string]any{})
}

// PopFrame discards the innermost frame. The outermost frame is never
// popped.
func (s *Scope) PopFrame() {
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Depth returns the number of frames.
func (s *Scope) Depth() int { return len(s.frames) }

// Names returns every visible variable name, sorted.
func (s *Scope) Names() []string {
	seen := map[string]struct{}{}
	for _, f := range s.frames {
		for k := range f {
			seen[k] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(seen))
}

// Snapshot flattens the visible variables into one map.
func (s *Scope) Snapshot() map[string]any {
	out := map[string]any{}
	for _, f := range s.frames {
		maps.Copy(out, f)
	}

	return out
}

type savedSlot struct {
	name    string
	value   any
	existed bool
}

// Binding restores the slots shadowed by [Scope.BindShadowed].
type Binding struct {
	scope *Scope
	frame int
	saved []savedSlot
}

// BindShadowed binds names to values in the innermost frame after
// recording what those slots held. Release puts the recorded values back
// and removes slots that did not exist. names and values must be the same
// length.
func (s *Scope) BindShadowed(names []string, values []any) *Binding {
	frame := len(s.frames) - 1
	b := &Binding{scope: s, frame: frame, saved: make([]savedSlot, len(names))}

	for i, name := range names {
		prev, existed := s.frames[frame][name]
		b.saved[i] = savedSlot{name: name, value: prev, existed: existed}
	}

	for i, name := range names {
		s.frames[frame][name] = Normalize(values[i])
	}

	return b
}

// Release restores the shadowed slots, last bound first.
func (b *Binding) Release() {
	if b == nil || b.frame >= len(b.scope.frames) {
		return
	}

	f := b.scope.frames[b.frame]

	for i := len(b.saved) - 1; i >= 0; i-- {
		slot := b.saved[i]
		if slot.existed {
			f[slot.name] = slot.value
		} else {
			delete(f, slot.name)
		}
	}

	b.saved = nil
}
