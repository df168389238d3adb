package soup

import "sync"

// Cache sizes. Once full, the oldest entry is evicted first.
const (
	MaxCachedTemplates = 1024
	MaxCachedPrograms  = 256
)

// lru is a size-bounded map keyed by content hash. Lookups refresh an
// entry's position so blueprint templates rendered per container stay
// resident while one-off inputs (REPL lines) age out.
type lru[V any] struct {
	mu    sync.Mutex
	limit int
	tick  uint64
	items map[uint64]*lruEntry[V]
}

type lruEntry[V any] struct {
	value V
	used  uint64
}

func newLRU[V any](limit int) *lru[V] {
	return &lru[V]{limit: limit, items: map[uint64]*lruEntry[V]{}}
}

func (c *lru[V]) Load(key uint64) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		var zero V

		return zero, false
	}

	c.tick++
	e.used = c.tick

	return e.value, true
}

// LoadOrStore returns the existing value for key, or stores v.
func (c *lru[V]) LoadOrStore(key uint64, v V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tick++

	if e, ok := c.items[key]; ok {
		e.used = c.tick

		return e.value
	}

	if len(c.items) >= c.limit {
		c.evict()
	}

	c.items[key] = &lruEntry[V]{value: v, used: c.tick}

	return v
}

// evict drops the least recently used entry. The scan is linear, which
// is cheap next to the parse or compile that follows a miss.
func (c *lru[V]) evict() {
	var (
		oldest uint64
		found  bool
		least  uint64
	)

	for k, e := range c.items {
		if !found || e.used < least {
			oldest, least, found = k, e.used, true
		}
	}

	if found {
		delete(c.items, oldest)
	}
}

// Len returns the number of entries.
func (c *lru[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

// Clear removes all entries.
func (c *lru[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.items)
}

// ClearCache drops all parsed templates and compiled calc programs.
func ClearCache() {
	cache.Clear()
	programs.Clear()
}
