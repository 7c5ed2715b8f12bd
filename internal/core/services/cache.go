package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/eolscan/internal/core/domain"
	"github.com/custodia-labs/eolscan/internal/core/ports/driven"
	"github.com/custodia-labs/eolscan/internal/core/ports/driving"
	"github.com/custodia-labs/eolscan/internal/logger"
)

// cacheShards is the number of independently locked partitions.
const cacheShards = 32

// Cache probe outcomes reported to the metrics recorder.
const (
	cacheHit    = "hit"
	cacheMiss   = "miss"
	cacheShared = "shared"
	cacheBypass = "bypass"
)

// ResolveFunc produces a fresh result for a query on a cache miss.
type ResolveFunc func(ctx context.Context) (domain.LookupResult, error)

type cacheShard struct {
	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
}

// ResultCache memoises lookup results per query key with lazy TTL expiry
// and at most one in-flight resolution per key.
type ResultCache struct {
	shards      [cacheShards]*cacheShard
	flights     singleflight.Group
	store       driven.ResultStore
	metrics     driven.MetricsRecorder
	ttl         time.Duration
	negativeTTL time.Duration
	fillTimeout time.Duration
	shardCap    int
	now         func() time.Time

	hits      atomic.Int64
	misses    atomic.Int64
	shared    atomic.Int64
	evictions atomic.Int64
}

// NewResultCache creates a cache. The persistent store and metrics recorder
// are optional (can be nil).
func NewResultCache(
	settings domain.EngineSettings,
	store driven.ResultStore,
	metrics driven.MetricsRecorder,
) *ResultCache {
	settings = settings.WithDefaults()

	shardCap := settings.CacheCapacity / cacheShards
	if shardCap < 1 {
		shardCap = 1
	}

	c := &ResultCache{
		store:       store,
		metrics:     metrics,
		ttl:         settings.CacheTTL,
		negativeTTL: settings.NegativeCacheTTL,
		fillTimeout: settings.QueryDeadline,
		shardCap:    shardCap,
		now:         time.Now,
	}
	for i := range c.shards {
		c.shards[i] = &cacheShard{entries: make(map[string]domain.CacheEntry)}
	}
	return c
}

// SetClock replaces the time source. Intended for tests.
func (c *ResultCache) SetClock(now func() time.Time) {
	c.now = now
}

// Resolve returns the cached result for q, or runs resolve exactly once
// across concurrent callers for the same key and caches its result.
// The boolean reports whether the result came from the cache.
func (c *ResultCache) Resolve(
	ctx context.Context, q domain.NormalizedQuery, resolve ResolveFunc,
) (domain.LookupResult, bool, error) {
	key := q.Key()

	if entry, ok := c.memoryGet(key); ok {
		c.hits.Add(1)
		c.record(cacheHit)
		return entry.Result, true, nil
	}

	if err := ctx.Err(); err != nil {
		return domain.NotFound(""), false, err
	}

	// The flight is shared by every waiter on the key, so it must outlive
	// the caller that happened to start it. Each waiter still stops waiting
	// when its own ctx is done.
	ch := c.flights.DoChan(key, func() (any, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fillTimeout)
		defer cancel()
		return c.fill(fillCtx, q, resolve)
	})

	select {
	case <-ctx.Done():
		return domain.NotFound(""), false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return domain.NotFound(""), false, r.Err
		}
		f := r.Val.(filled)
		if r.Shared {
			c.shared.Add(1)
			c.record(cacheShared)
		}
		return f.result, f.hit, nil
	}
}

// filled is the value shared between callers of one flight.
type filled struct {
	result domain.LookupResult
	hit    bool
}

// fill runs inside the single flight for a key.
func (c *ResultCache) fill(ctx context.Context, q domain.NormalizedQuery, resolve ResolveFunc) (filled, error) {
	key := q.Key()

	// Another flight may have filled the key between our miss and now.
	if entry, ok := c.memoryGet(key); ok {
		c.hits.Add(1)
		c.record(cacheHit)
		return filled{result: entry.Result, hit: true}, nil
	}

	if entry, ok := c.storeGet(ctx, key); ok {
		c.memoryPut(*entry)
		c.hits.Add(1)
		c.record(cacheHit)
		return filled{result: entry.Result, hit: true}, nil
	}

	c.misses.Add(1)
	c.record(cacheMiss)

	result, err := resolve(ctx)
	if err != nil {
		return filled{}, err
	}

	entry := domain.CacheEntry{
		Query:     q,
		Result:    result,
		ExpiresAt: c.now().Add(c.ttlFor(result)),
	}
	c.memoryPut(entry)
	c.storePut(ctx, entry)

	return filled{result: result}, nil
}

func (c *ResultCache) ttlFor(r domain.LookupResult) time.Duration {
	if r.Found {
		return c.ttl
	}
	return c.negativeTTL
}

// Get returns a fresh cached result without resolving.
func (c *ResultCache) Get(ctx context.Context, q domain.NormalizedQuery) (domain.LookupResult, bool) {
	if entry, ok := c.memoryGet(q.Key()); ok {
		return entry.Result, true
	}
	if entry, ok := c.storeGet(ctx, q.Key()); ok {
		c.memoryPut(*entry)
		return entry.Result, true
	}
	return domain.LookupResult{}, false
}

// Invalidate drops a single key from both tiers.
func (c *ResultCache) Invalidate(ctx context.Context, key string) error {
	s := c.shardFor(key)
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()

	if c.store != nil {
		if err := c.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
		}
	}
	return nil
}

// Flush drops every entry from both tiers.
func (c *ResultCache) Flush(ctx context.Context) error {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[string]domain.CacheEntry)
		s.mu.Unlock()
	}

	if c.store != nil {
		n, err := c.store.Purge(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
		}
		logger.Info("Flushed %d persisted cache entries", n)
	}
	return nil
}

// Len returns the number of in-memory entries, including expired ones not
// yet observed.
func (c *ResultCache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// Stats reports cache counters.
func (c *ResultCache) Stats(ctx context.Context) (driving.CacheStats, error) {
	stats := driving.CacheStats{
		Entries:    c.Len(),
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Shared:     c.shared.Load(),
		Evictions:  c.evictions.Load(),
		Persistent: c.store != nil,
	}
	if c.store != nil {
		n, err := c.store.Count(ctx)
		if err != nil {
			return stats, fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
		}
		stats.Persisted = n
	}
	return stats, nil
}

func (c *ResultCache) shardFor(key string) *cacheShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return c.shards[h.Sum32()%cacheShards]
}

// memoryGet returns a fresh entry; expired entries are removed on sight.
func (c *ResultCache) memoryGet(key string) (domain.CacheEntry, bool) {
	s := c.shardFor(key)
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return domain.CacheEntry{}, false
	}
	if entry.Expired(c.now()) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur.Expired(c.now()) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return domain.CacheEntry{}, false
	}
	return entry, true
}

func (c *ResultCache) memoryPut(entry domain.CacheEntry) {
	key := entry.Query.Key()
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists && len(s.entries) >= c.shardCap {
		c.evictLocked(s)
	}
	s.entries[key] = entry
}

// evictLocked drops expired entries, or failing that the entry closest to
// expiry. Caller must hold the shard lock.
func (c *ResultCache) evictLocked(s *cacheShard) {
	now := c.now()
	var oldestKey string
	var oldest time.Time
	removed := 0
	for k, e := range s.entries {
		if e.Expired(now) {
			delete(s.entries, k)
			removed++
			continue
		}
		if oldestKey == "" || e.ExpiresAt.Before(oldest) {
			oldestKey, oldest = k, e.ExpiresAt
		}
	}
	if removed == 0 && oldestKey != "" {
		delete(s.entries, oldestKey)
		removed = 1
	}
	c.evictions.Add(int64(removed))
}

// storeGet consults the persistent tier. Failures are logged and treated as
// a miss so resolution falls back to the sources.
func (c *ResultCache) storeGet(ctx context.Context, key string) (*domain.CacheEntry, bool) {
	if c.store == nil {
		return nil, false
	}
	entry, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("%v: read %s: %v", domain.ErrCacheUnavailable, key, err)
			c.record(cacheBypass)
		}
		return nil, false
	}
	if entry.Expired(c.now()) {
		return nil, false
	}
	return entry, true
}

func (c *ResultCache) storePut(ctx context.Context, entry domain.CacheEntry) {
	if c.store == nil {
		return
	}
	if err := c.store.Put(ctx, entry); err != nil {
		logger.Warn("%v: write %s: %v", domain.ErrCacheUnavailable, entry.Query.Key(), err)
		c.record(cacheBypass)
	}
}

func (c *ResultCache) record(outcome string) {
	if c.metrics != nil {
		c.metrics.CacheLookup(outcome)
	}
}
