// Package cache provides an in-memory response cache for the read-heavy
// baseline API endpoints, with invalidation on mutating requests.
package cache

import (
	"sync"
	"time"
)

// entry holds a cached response body with its expiration and last-use
// timestamps.
type entry struct {
	value     []byte
	expiresAt time.Time
	lastUsed  time.Time
}

// TTLCache is a thread-safe in-memory cache with per-cache TTL and
// least-recently-used eviction. Expired entries are lazily evicted on Get.
type TTLCache struct {
	mu      sync.Mutex
	items   map[string]*entry
	maxSize int
	ttl     time.Duration
}

// NewTTLCache creates a cache with the given maximum size and TTL.
func NewTTLCache(maxSize int, ttl time.Duration) *TTLCache {
	if maxSize < 1 {
		maxSize = 1
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &TTLCache{
		items:   make(map[string]*entry, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get retrieves a cached value by key. Returns (nil, false) if the key is
// missing or expired.
func (c *TTLCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	now := time.Now()
	if now.After(e.expiresAt) {
		delete(c.items, key)
		return nil, false
	}
	e.lastUsed = now
	return e.value, true
}

// Set stores a value. When the cache is at capacity the least recently
// used entry is evicted first.
func (c *TTLCache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if _, ok := c.items[key]; !ok && len(c.items) >= c.maxSize {
		c.evictLRU()
	}
	c.items[key] = &entry{
		value:     value,
		expiresAt: now.Add(c.ttl),
		lastUsed:  now,
	}
}

// Invalidate removes a specific key.
func (c *TTLCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// InvalidateAll removes every entry.
func (c *TTLCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*entry, c.maxSize)
}

// Size returns the current entry count, including expired entries not yet
// lazily cleaned.
func (c *TTLCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// evictLRU removes the entry with the oldest lastUsed timestamp. Must be
// called with c.mu held.
func (c *TTLCache) evictLRU() {
	var victim string
	var oldest time.Time
	first := true
	for k, e := range c.items {
		if first || e.lastUsed.Before(oldest) {
			victim = k
			oldest = e.lastUsed
			first = false
		}
	}
	if !first {
		delete(c.items, victim)
	}
}
