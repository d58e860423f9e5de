package cache

import (
	"context"
	"sync"
	"time"
)

// Cache stores price estimates by canonical input key.
type Cache interface {
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, price float64) error
}

type memoryEntry struct {
	price     float64
	expiresAt time.Time
}

// MemoryCache is a bounded in-process cache. Oldest entries are evicted first.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	order      []string
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

func NewMemoryCache(maxEntries int, ttl time.Duration) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &MemoryCache{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (float64, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return 0, false, nil
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		return 0, false, nil
	}
	return entry.price, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, price float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{price: price}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}

	if _, exists := c.entries[key]; !exists {
		for len(c.order) >= c.maxEntries {
			delete(c.entries, c.order[0])
			c.order = c.order[1:]
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = entry
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
