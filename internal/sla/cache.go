package sla

import (
	"sort"
	"sync"
	"time"
)

const (
	// DefaultCacheTTL bounds how long a resolved configuration is served
	// without going back to storage.
	DefaultCacheTTL = 15 * time.Minute
	// PopularCacheTTL applies to entries hit at least popularHits times.
	PopularCacheTTL = 30 * time.Minute

	popularHits = 5
)

type cacheEntry struct {
	cfg       *Config
	expiresAt time.Time
	hits      int
}

// configCache memoizes resolver lookups, including negative ("no SLA")
// results. It is advisory: expired entries read as misses and concurrent
// writers of the same key overwrite each other with equal values.
type configCache struct {
	mu      sync.Mutex
	entries map[ResolutionKey]*cacheEntry
	now     func() time.Time
}

func newConfigCache(now func() time.Time) *configCache {
	if now == nil {
		now = time.Now
	}
	return &configCache{entries: make(map[ResolutionKey]*cacheEntry), now: now}
}

// get returns the cached value and whether it was present and fresh.
func (c *configCache) get(key ResolutionKey) (*Config, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	e.hits++
	return e.cfg, true
}

// set stores a resolved value, carrying the hit counter across overwrites so
// popularity survives refreshes.
func (c *configCache) set(key ResolutionKey, cfg *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hits := 0
	if prev, ok := c.entries[key]; ok {
		hits = prev.hits
	}
	ttl := DefaultCacheTTL
	if hits >= popularHits {
		ttl = PopularCacheTTL
	}
	c.entries[key] = &cacheEntry{cfg: cfg, expiresAt: c.now().Add(ttl), hits: hits}
}

// purge drops entries past their TTL and reports how many were removed.
func (c *configCache) purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// topKeys returns up to n keys ordered by access count, most used first.
func (c *configCache) topKeys(n int) []ResolutionKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]ResolutionKey, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.entries[keys[i]].hits > c.entries[keys[j]].hits
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func (c *configCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
