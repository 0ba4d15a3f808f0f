package validation

import (
	"sync"
	"time"

	"mdm-backend/internal/rules"
)

// Cache memoizes resolved field-rule sets per context. Entries expire after
// a TTL, but rule mutations must call InvalidateAll explicitly; the TTL is a
// safety net, not the invalidation mechanism.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	rules     []*rules.FieldRule
	expiresAt time.Time
}

const DefaultCacheTTL = 5 * time.Minute

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

func (c *Cache) Get(key string) ([]*rules.FieldRule, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.rules, true
}

func (c *Cache) Set(key string, ruleSet []*rules.FieldRule) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{rules: ruleSet, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Stats reports cache size and keys for the admin diagnostics endpoint.
func (c *Cache) Stats() (int, []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return len(c.entries), keys
}
