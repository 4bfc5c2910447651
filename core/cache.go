package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/schema"
)

// FetchFunc produces a fresh value for a cache key.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// cacheEntry tracks one cached value through the three freshness states:
// fresh (now < expiresAt), stale-but-usable (expiresAt <= now < staleAt),
// expired (now >= staleAt). isRevalidating is the sole guard against two
// concurrent background revalidations of the same key; it is only read and
// written under the cache mutex.
type cacheEntry[T any] struct {
	data           T
	createdAt      time.Time
	expiresAt      time.Time
	staleAt        time.Time
	accessCount    int64
	isRevalidating bool
}

// Cache is a concurrency-safe TTL cache with stale-while-revalidate
// semantics. Values past their TTL but within the staleness bound are served
// immediately while a single background revalidation refreshes the entry.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry[T]

	ttl      time.Duration
	maxStale time.Duration
	maxSize  int

	// revalTimeout bounds each background revalidation fetch.
	revalTimeout time.Duration

	clock  func() time.Time
	log    *zap.Logger
	events *Hub[schema.CacheRevalidationEvent]
}

// NewCache builds a cache from the engine configuration.
func NewCache[T any](cfg *contract.Config, log *zap.Logger, events *Hub[schema.CacheRevalidationEvent], clock func() time.Time) *Cache[T] {
	return &Cache[T]{
		entries:      make(map[string]*cacheEntry[T]),
		ttl:          cfg.CacheTTL,
		maxStale:     cfg.CacheMaxStale,
		maxSize:      cfg.CacheMaxSize,
		revalTimeout: cfg.MatchTimeout,
		clock:        clock,
		log:          log,
		events:       events,
	}
}

// Get returns the value for key, consulting the freshness state:
// fresh entries are returned directly; stale-but-usable entries are returned
// immediately while one background revalidation is triggered; expired or
// missing entries are fetched synchronously. The second return value reports
// whether the value came from the cache.
func (c *Cache[T]) Get(ctx context.Context, key string, fetch FetchFunc[T]) (T, bool, error) {
	now := c.clock()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		switch {
		case now.Before(e.expiresAt):
			e.accessCount++
			data := e.data
			c.mu.Unlock()
			return data, true, nil

		case now.Before(e.staleAt):
			if !e.isRevalidating {
				e.isRevalidating = true
				go c.revalidate(key, fetch)
			}
			e.accessCount++
			data := e.data
			c.mu.Unlock()
			return data, true, nil
		}
		// Past staleAt: fall through to a synchronous fetch.
	}
	c.mu.Unlock()

	// Compute outside the lock, commit the result back under the lock.
	data, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	c.put(key, data)
	return data, false, nil
}

// put commits a freshly fetched value, replacing any previous entry.
func (c *Cache[T]) put(key string, data T) {
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &cacheEntry[T]{
		data:      data,
		createdAt: now,
		expiresAt: now.Add(c.ttl),
		staleAt:   now.Add(c.maxStale),
	}
}

// revalidate refreshes a stale entry in the background. The entry keeps
// serving its stale value until the fetch succeeds; on failure the stale
// value remains until the expiry sweep removes it.
func (c *Cache[T]) revalidate(key string, fetch FetchFunc[T]) {
	ctx, cancel := context.WithTimeout(context.Background(), c.revalTimeout)
	defer cancel()

	data, err := fetch(ctx)
	now := c.clock()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if err == nil {
			e.data = data
			e.createdAt = now
			e.expiresAt = now.Add(c.ttl)
			e.staleAt = now.Add(c.maxStale)
		}
		e.isRevalidating = false
	}
	c.mu.Unlock()

	evt := schema.CacheRevalidationEvent{Key: key, Success: err == nil, At: now}
	if err != nil {
		evt.Err = err.Error()
		c.log.Warn("cache revalidation failed", zap.String("key", key), zap.Error(err))
	}
	c.events.Publish(evt)
}

// Invalidate drops the entry for key, if any.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of entries currently held.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep deletes entries past their staleness bound, then evicts the least
// accessed entries while the cache remains over its size limit.
func (c *Cache[T]) Sweep() {
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	expired := 0
	for key, e := range c.entries {
		if !now.Before(e.staleAt) {
			delete(c.entries, key)
			expired++
		}
	}

	evicted := 0
	if over := len(c.entries) - c.maxSize; over > 0 {
		type keyed struct {
			key      string
			accesses int64
		}
		byAccess := make([]keyed, 0, len(c.entries))
		for key, e := range c.entries {
			byAccess = append(byAccess, keyed{key: key, accesses: e.accessCount})
		}
		sort.Slice(byAccess, func(i, j int) bool {
			return byAccess[i].accesses < byAccess[j].accesses
		})
		for i := 0; i < over; i++ {
			delete(c.entries, byAccess[i].key)
			evicted++
		}
	}

	if expired > 0 || evicted > 0 {
		c.log.Debug("cache sweep",
			zap.Int("expired", expired),
			zap.Int("evicted", evicted),
			zap.Int("remaining", len(c.entries)))
	}
}
