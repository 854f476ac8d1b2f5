package services

import (
	"sync"
	"time"
)

// DedupCache is a short-lived memory of recently processed notification
// keys. Upstream deliveries are at-least-once, so a burst of identical
// notifications is expected; the cache gates them so one physical change
// triggers one fan-out.
//
// Time is injected so the suppression and eviction behavior can be tested
// without wall-clock sleeps.
type DedupCache struct {
	mu      sync.Mutex
	entries map[string]time.Time

	suppression time.Duration
	retention   time.Duration
	now         func() time.Time
}

// NewDedupCache creates a cache that suppresses repeats of a key for the
// suppression window and evicts entries after the retention window.
func NewDedupCache(suppression, retention time.Duration) *DedupCache {
	if retention < suppression {
		retention = suppression
	}
	return &DedupCache{
		entries:     make(map[string]time.Time),
		suppression: suppression,
		retention:   retention,
		now:         time.Now,
	}
}

// WithClock overrides the cache's notion of "now". Test hook.
func (c *DedupCache) WithClock(now func() time.Time) *DedupCache {
	c.now = now
	return c
}

// Seen records the key and reports whether it is a duplicate inside the
// suppression window. Expired entries are swept lazily on each call.
func (c *DedupCache) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweepLocked(now)

	if insertedAt, ok := c.entries[key]; ok && now.Sub(insertedAt) < c.suppression {
		return true
	}

	c.entries[key] = now
	return false
}

// Len returns the number of retained keys.
func (c *DedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked(c.now())
	return len(c.entries)
}

func (c *DedupCache) sweepLocked(now time.Time) {
	for key, insertedAt := range c.entries {
		if now.Sub(insertedAt) >= c.retention {
			delete(c.entries, key)
		}
	}
}
