package cache

import (
	"context"
	"sync"
	"time"
)

type item[V any] struct {
	value     V
	expiresAt time.Time
}

func (i item[V]) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// Cache is a thread-safe in-memory cache with TTL and a size cap. When the
// cap is reached the entry closest to expiry is evicted.
type Cache[K comparable, V any] struct {
	mu         sync.Mutex
	items      map[K]item[V]
	defaultTTL time.Duration
	maxItems   int
	now        func() time.Time
}

// New creates a cache. A zero ttl never expires entries; maxItems <= 0
// means unbounded.
func New[K comparable, V any](ttl time.Duration, maxItems int) *Cache[K, V] {
	return &Cache[K, V]{
		items:      make(map[K]item[V]),
		defaultTTL: ttl,
		maxItems:   maxItems,
		now:        time.Now,
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok || it.expired(c.now()) {
		if ok {
			delete(c.items, key)
		}
		var zero V
		return zero, false
	}
	return it.value, true
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.items[key]; !exists && c.maxItems > 0 && len(c.items) >= c.maxItems {
		c.evictLocked(now)
	}
	var expiresAt time.Time
	if c.defaultTTL > 0 {
		expiresAt = now.Add(c.defaultTTL)
	}
	c.items[key] = item[V]{value: value, expiresAt: expiresAt}
}

// evictLocked drops expired entries, or the one expiring soonest if none
// have expired.
func (c *Cache[K, V]) evictLocked(now time.Time) {
	var (
		victim K
		oldest time.Time
		found  bool
	)
	for k, it := range c.items {
		if it.expired(now) {
			delete(c.items, k)
			continue
		}
		if !found || it.expiresAt.Before(oldest) {
			victim, oldest, found = k, it.expiresAt, true
		}
	}
	if found && len(c.items) >= c.maxItems {
		delete(c.items, victim)
	}
}

// GetOrSet returns the cached value for key or computes, stores and
// returns it. Errors are not cached. Concurrent misses may compute twice.
func (c *Cache[K, V]) GetOrSet(ctx context.Context, key K, fn func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := fn(ctx)
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}
