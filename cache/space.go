package cache

import (
	"strings"
	"sync"
	"time"
)

// Space is one namespace of a Cache holding values of type V.
type Space[V any] struct {
	cache   *Cache
	name    string
	mu      sync.Mutex
	entries map[string]*entry[V]
}

type entry[V any] struct {
	value      V
	insertedAt time.Time
	expiresAt  time.Time
}

// NewSpace registers a namespace called name on c. Registering a name
// twice replaces the earlier namespace in Stats and bulk operations.
func NewSpace[V any](c *Cache, name string) *Space[V] {
	s := &Space[V]{
		cache:   c,
		name:    name,
		entries: make(map[string]*entry[V]),
	}
	c.register(name, s)
	return s
}

// Name returns the namespace name.
func (s *Space[V]) Name() string { return s.name }

// Put stores value under key until ttl elapses. When the namespace is full
// and key is new, the entry inserted earliest is evicted first.
func (s *Space[V]) Put(key string, value V, ttl time.Duration) {
	now := s.cache.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.cache.maxEntries {
		s.evictOldest()
	}
	s.entries[key] = &entry[V]{
		value:      value,
		insertedAt: now,
		expiresAt:  now.Add(ttl),
	}
}

// Get returns the value under key if it has not expired. Expired entries
// are removed. Every call counts as a hit or a miss.
func (s *Space[V]) Get(key string) (V, bool) {
	var zero V
	now := s.cache.now()
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok && now.After(e.expiresAt) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		s.cache.misses.Add(1)
		return zero, false
	}
	s.cache.hits.Add(1)
	return e.value, true
}

// Invalidate removes key. Absent keys are ignored.
func (s *Space[V]) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// InvalidatePrefix removes every key starting with prefix.
func (s *Space[V]) InvalidatePrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
}

// Len returns the number of entries, expired or not.
func (s *Space[V]) Len() int { return s.size() }

func (s *Space[V]) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Space[V]) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

func (s *Space[V]) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry[V])
}

// evictOldest removes the entry with the earliest insertion time. Must
// hold mu.
func (s *Space[V]) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for k, e := range s.entries {
		if !found || e.insertedAt.Before(oldest) {
			oldestKey, oldest, found = k, e.insertedAt, true
		}
	}
	if found {
		delete(s.entries, oldestKey)
	}
}
