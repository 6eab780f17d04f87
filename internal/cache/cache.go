// Package cache provides a small thread-safe keyed cache for GPU resources.
//
// Unlike a general-purpose LRU, entries are never evicted implicitly: cached
// values are device objects (pipelines, samplers, textures) that must be
// destroyed explicitly by their owner, so the cache only ever grows until the
// owner clears it during teardown.
package cache

import (
	"sync"
	"sync/atomic"
)

// Cache is a thread-safe map from keys to cached values with hit/miss
// statistics. The zero value is not usable; use New.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Stats holds a point-in-time snapshot of cache counters.
type Stats struct {
	Len     int
	Hits    uint64
	Misses  uint64
	HitRate float64
}

// New creates an empty cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]V),
	}
}

// Get retrieves a cached value by key.
// Returns (value, true) if found, (zero, false) otherwise.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	value, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	return value, true
}

// Set stores a value in the cache, replacing any existing entry.
// The value is stored as-is (not copied).
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	c.entries[key] = value
	c.mu.Unlock()
}

// GetOrCreate returns a cached value or creates it using the provided
// function. The create function is called with the lock held to prevent
// duplicate resource creation; keep it free of calls back into the cache.
//
// If create returns an error, nothing is stored and the error is returned.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.RLock()
	value, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
		return value, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-check after acquiring write lock
	if value, ok := c.entries[key]; ok {
		c.hits.Add(1)
		return value, nil
	}

	c.misses.Add(1)

	value, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	c.entries[key] = value
	return value, nil
}

// Delete removes an entry from the cache.
// Returns true if the entry was found and removed.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

// Range calls fn for every cached entry. The lock is held for the duration,
// so fn must not call back into the cache.
func (c *Cache[K, V]) Range(fn func(key K, value V)) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for k, v := range c.entries {
		fn(k, v)
	}
}

// Clear removes all entries. If destroy is non-nil it is called for each
// removed value, letting the owner release device objects.
func (c *Cache[K, V]) Clear(destroy func(V)) {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[K]V)
	c.mu.Unlock()

	if destroy == nil {
		return
	}
	for _, v := range entries {
		destroy(v)
	}
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns current cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Len:     c.Len(),
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate,
	}
}

// ResetStats resets all statistics counters to zero.
func (c *Cache[K, V]) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
}
