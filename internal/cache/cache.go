package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Recommended TTLs per concern. Search results go stale the fastest since
// any index write changes them; embeddings are pure functions of their
// input and can live the longest.
const (
	ContentTTL = 10 * time.Minute
	SearchTTL  = 5 * time.Minute
	VectorTTL  = 30 * time.Minute
)

// DefaultCapacity bounds a cache when the caller has no better number.
const DefaultCapacity = 1024

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a bounded TTL cache. It is safe for concurrent use; the
// underlying LRU carries its own lock.
type Cache[V any] struct {
	ttl time.Duration
	now func() time.Time
	lru *lru.Cache[string, entry[V]]
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithClock replaces the time source, for tests.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) { c.now = now }
}

// New creates a cache holding at most capacity entries, each valid for ttl
// after being set. Non-positive capacity falls back to DefaultCapacity.
func New[V any](capacity int, ttl time.Duration, opts ...Option[V]) *Cache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	// lru.New only fails on non-positive size, which is guarded above.
	backing, _ := lru.New[string, entry[V]](capacity)
	c := &Cache[V]{
		ttl: ttl,
		now: time.Now,
		lru: backing,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key if present and not expired. An expired
// entry is removed on the spot.
func (c *Cache[V]) Get(key string) (V, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		c.lru.Remove(key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the cache's TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.lru.Add(key, entry[V]{value: value, expiresAt: c.now().Add(c.ttl)})
}

// Delete removes key if present.
func (c *Cache[V]) Delete(key string) {
	c.lru.Remove(key)
}

// Clear drops every entry. Mutating operations call this on the caches
// whose contents they may have invalidated; with hashed keys there is no
// way to target individual entries, so the whole namespace goes.
func (c *Cache[V]) Clear() {
	c.lru.Purge()
}

// Size returns the number of live entries, evicting any that have expired.
func (c *Cache[V]) Size() int {
	count := 0
	for _, key := range c.lru.Keys() {
		if _, ok := c.Get(key); ok {
			count++
		}
	}
	return count
}

// GetOrCompute returns the cached value for key, or runs compute, stores
// the result, and returns it. The second return reports a cache hit. A
// compute error is returned without caching anything.
func (c *Cache[V]) GetOrCompute(key string, compute func() (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}
	v, err := compute()
	if err != nil {
		var zero V
		return zero, false, err
	}
	c.Set(key, v)
	return v, false, nil
}

// Memoize wraps fn so its results are served from c. The cache key is
// derived from name and the argument's JSON form, so A should carry the
// fields that identify the call; unexported fields stay out of the key.
// Errors are returned without caching.
func Memoize[A, V any](c *Cache[V], name string, fn func(context.Context, A) (V, error)) func(context.Context, A) (V, error) {
	return func(ctx context.Context, arg A) (V, error) {
		key := Key(name, []any{arg}, nil)
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := fn(ctx, arg)
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	}
}
