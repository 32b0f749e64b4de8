package nfp

import (
	"sync"

	"github.com/CeranaStudio/pynest/internal/model"
)

// Key identifies one NFP query. A is the stationary polygon's index (-1 for
// the container), B the moving polygon's index; rotations are in degrees.
type Key struct {
	A, B       int
	ARot, BRot float64
	Inside     bool
}

type entry struct {
	done  chan struct{}
	loops []model.Outline
	err   error
}

// Cache memoises NFP results for the lifetime of one nesting run. Each key
// is computed at most once: concurrent requests for an in-flight key block
// until the first computation finishes. Failures are cached too, so a
// non-placeable pair is never retried.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]*entry)}
}

// GetOrCompute returns the cached value for key, computing it with compute
// on first request. The returned loops are shared and must not be mutated.
func (c *Cache) GetOrCompute(key Key, compute func() ([]model.Outline, error)) ([]model.Outline, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		<-e.done
		return e.loops, e.err
	}
	e := &entry{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	e.loops, e.err = compute()
	close(e.done)
	return e.loops, e.err
}

// Len returns the number of cached keys, including failures.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
