package locate

import (
	"sync"
	"sync/atomic"
)

type cacheKey struct {
	name, strength, form string
}

// Cache memoizes lookups for the life of a Resolver.
type Cache struct {
	mu     sync.RWMutex
	items  map[cacheKey]Result
	hits   atomic.Int64
	misses atomic.Int64
}

func newCache() *Cache {
	return &Cache{items: map[cacheKey]Result{}}
}

func (c *Cache) get(k cacheKey) (Result, bool) {
	c.mu.RLock()
	r, ok := c.items[k]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return r, ok
}

func (c *Cache) put(k cacheKey, r Result) {
	c.mu.Lock()
	c.items[k] = r
	c.mu.Unlock()
}

// CacheStats reports cache usage.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	n := len(c.items)
	c.mu.RUnlock()
	return CacheStats{Entries: n, Hits: c.hits.Load(), Misses: c.misses.Load()}
}
