// Package cache provides the registrar's read cache: namespaced, typed,
// TTL-bounded and size-bounded per namespace.
//
// A Cache owns the shared hit/miss counters and the registry of
// namespaces. Each namespace is a Space holding values of one static type,
// so readers never cast.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultMaxEntries is the per-namespace bound used when none is set.
const DefaultMaxEntries = 100

// Cache groups namespaces under shared counters.
type Cache struct {
	mu         sync.RWMutex
	spaces     map[string]space
	maxEntries int
	now        func() time.Time

	hits   atomic.Uint64
	misses atomic.Uint64
}

// space is the type-independent view of a Space used for bulk operations.
type space interface {
	size() int
	sweep(now time.Time) int
	clear()
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxEntries sets the per-namespace entry bound.
func WithMaxEntries(n int) Option {
	return func(c *Cache) { c.maxEntries = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		spaces:     make(map[string]space),
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxEntries <= 0 {
		c.maxEntries = DefaultMaxEntries
	}
	return c
}

// Stats is a snapshot of cache effectiveness.
type Stats struct {
	Hits    uint64         `json:"hits"`
	Misses  uint64         `json:"misses"`
	HitRate float64        `json:"hit_rate"`
	Sizes   map[string]int `json:"sizes"`
}

// Stats returns cumulative counters and current namespace sizes. HitRate
// is 0 before the first lookup.
func (c *Cache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	s := Stats{Hits: hits, Misses: misses, Sizes: make(map[string]int)}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for name, sp := range c.spaces {
		s.Sizes[name] = sp.size()
	}
	return s
}

// SweepExpired removes expired entries from every namespace and returns
// how many were dropped.
func (c *Cache) SweepExpired() int {
	now := c.now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	removed := 0
	for _, sp := range c.spaces {
		removed += sp.sweep(now)
	}
	return removed
}

// Clear drops every entry and resets the counters.
func (c *Cache) Clear() {
	c.mu.RLock()
	for _, sp := range c.spaces {
		sp.clear()
	}
	c.mu.RUnlock()
	c.hits.Store(0)
	c.misses.Store(0)
}

func (c *Cache) register(name string, sp space) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spaces[name] = sp
}
