package soup

import (
	"strconv"
	"testing"
)

func TestLRU(t *testing.T) {
	c := newLRU[string](2)

	c.LoadOrStore(1, "a")
	c.LoadOrStore(2, "b")

	// refresh 1 so 2 is the eviction candidate
	if v, ok := c.Load(1); !ok || v != "a" {
		t.Fatalf("expected a, got %q (found %v)", v, ok)
	}

	if got := c.LoadOrStore(1, "x"); got != "a" {
		t.Errorf("expected existing value a, got %q", got)
	}

	c.LoadOrStore(3, "c")

	if n := c.Len(); n != 2 {
		t.Errorf("expected 2 entries, got %d", n)
	}

	if _, ok := c.Load(2); ok {
		t.Error("expected least recently used entry to be evicted")
	}

	for _, k := range []uint64{1, 3} {
		if _, ok := c.Load(k); !ok {
			t.Errorf("expected entry %d to remain", k)
		}
	}

	c.Clear()

	if n := c.Len(); n != 0 {
		t.Errorf("expected empty cache, got %d entries", n)
	}
}

func TestParse_CacheBounded(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	sb := New()

	for i := range MaxCachedTemplates + 10 {
		if _, err := sb.Parse("repl", "line "+strconv.Itoa(i)+"\n"); err != nil {
			t.Fatalf("parse %d: %v", i, err)
		}
	}

	if n := cache.Len(); n != MaxCachedTemplates {
		t.Errorf("expected %d cached templates, got %d", MaxCachedTemplates, n)
	}
}
