package catalog

import (
	"sync"
	"time"
)

const (
	// DefaultTTL bounds how long a fetched record (and its price) is served
	// from memory.
	DefaultTTL = 15 * time.Minute
	// DefaultCapacity caps total entries defensively; lookups are keyed by
	// normalized card name, so real scans stay far below this.
	DefaultCapacity = 2048
)

type cacheEntry struct {
	card    Card
	fetched time.Time
}

// Cache maps normalized lookup keys to fetched cards with time-based expiry.
// One instance lives for the whole process and is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	cap     int
	entries map[string]cacheEntry

	now func() time.Time // injectable for tests
}

// NewCache builds a cache with the given time-to-live and entry cap.
// Non-positive arguments select the defaults.
func NewCache(ttl time.Duration, capacity int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		ttl:     ttl,
		cap:     capacity,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached card for key if present and unexpired. Expired
// entries are removed on access.
func (c *Cache) Get(key string) (Card, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Card{}, false
	}
	if c.now().Sub(e.fetched) > c.ttl {
		delete(c.entries, key)
		return Card{}, false
	}
	return e.card, true
}

// Put stores card under key, evicting the oldest entry when the cache is at
// capacity.
func (c *Cache) Put(key string, card Card) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.cap {
		c.evictOldest()
	}
	c.entries[key] = cacheEntry{card: card, fetched: c.now()}
}

// Len reports the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldest removes the entry with the earliest fetch time. Caller holds
// mu.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range c.entries {
		if first || e.fetched.Before(oldest) {
			oldestKey, oldest = k, e.fetched
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}
