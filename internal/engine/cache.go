package engine

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides 2-tier caching for fetched source data (transcripts, titles):
// L1 in-memory + L2 Redis. Session state never goes through the cache.
var sourceCache *tieredCache

// Cache hit and miss counters.
var (
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
)

// tieredCache implements L1 (memory) + L2 (Redis) caching.
type tieredCache struct {
	l1              sync.Map      // key → *cacheEntry
	rdb             *redis.Client // nil if Redis unavailable
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	stop            chan struct{}
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// InitCache installs a fresh transcript cache. Call after Init().
// An empty redisURL keeps the cache memory-only; an unreachable Redis is
// logged and skipped.
func InitCache(redisURL string, ttl time.Duration, maxEntries int, cleanupInterval time.Duration) {
	c := &tieredCache{ttl: ttl, maxEntries: maxEntries, cleanupInterval: cleanupInterval, stop: make(chan struct{})}
	if redisURL != "" {
		c.rdb = dialRedis(redisURL)
	}

	if sourceCache != nil {
		close(sourceCache.stop)
	}
	sourceCache = c
	slog.Info("cache: initialized", slog.Duration("ttl", ttl), slog.Bool("redis", c.rdb != nil), slog.Int("max_entries", maxEntries))

	go c.cleanupLoop()
}

func dialRedis(redisURL string) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		slog.Warn("cache: invalid redis URL, L2 disabled", slog.Any("error", err))
		return nil
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("cache: redis unreachable, L2 disabled", slog.String("addr", opts.Addr), slog.Any("error", err))
		_ = rdb.Close()
		return nil
	}
	slog.Info("cache: L2 redis connected", slog.String("addr", opts.Addr))
	return rdb
}

// CacheKey builds a deterministic cache key from parts.
func CacheKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("tn:%x", hash[:12]) // 24-char hex suffix
}

// CacheGet tries L1, then L2. On L2 hit, populates L1.
func CacheGet(ctx context.Context, key string) ([]byte, bool) {
	if sourceCache == nil {
		cacheMisses.Add(1)
		return nil, false
	}

	if val, ok := sourceCache.l1.Load(key); ok {
		entry := val.(*cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			slog.Debug("cache: L1 hit", slog.String("key", key))
			cacheHits.Add(1)
			return entry.data, true
		}
		sourceCache.l1.Delete(key) // expired
	}

	if sourceCache.rdb != nil {
		data, err := sourceCache.rdb.Get(ctx, key).Bytes()
		if err == nil {
			slog.Debug("cache: L2 hit", slog.String("key", key))
			cacheHits.Add(1)
			sourceCache.l1.Store(key, &cacheEntry{
				data:      data,
				expiresAt: time.Now().Add(sourceCache.ttl),
			})
			return data, true
		}
	}

	cacheMisses.Add(1)
	return nil, false
}

// CacheSet stores value in both L1 and L2.
func CacheSet(ctx context.Context, key string, data []byte) {
	if sourceCache == nil {
		return
	}

	sourceCache.evictIfNeeded()

	sourceCache.l1.Store(key, &cacheEntry{
		data:      data,
		expiresAt: time.Now().Add(sourceCache.ttl),
	})

	if sourceCache.rdb != nil {
		if err := sourceCache.rdb.Set(ctx, key, data, sourceCache.ttl).Err(); err != nil {
			slog.Debug("cache: L2 set failed", slog.Any("error", err))
		}
	}
}

// CacheLoadJSON loads a cached value of type T.
// Returns the decoded value and true on hit; zero value and false on miss or decode error.
func CacheLoadJSON[T any](ctx context.Context, key string) (T, bool) {
	var out T
	data, ok := CacheGet(ctx, key)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(data, &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

// CacheStoreJSON marshals v and stores it in the cache.
func CacheStoreJSON[T any](ctx context.Context, key string, v T) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	CacheSet(ctx, key, data)
}

// CacheStats returns current cache hit/miss counters.
func CacheStats() (hits, misses int64) {
	return cacheHits.Load(), cacheMisses.Load()
}

// evictIfNeeded makes room for one more L1 entry. Expired entries go
// first; if that is not enough, the entries closest to expiry follow.
func (c *tieredCache) evictIfNeeded() {
	if c.maxEntries <= 0 {
		return
	}

	type aged struct {
		key       any
		expiresAt time.Time
	}
	var live []aged
	now := time.Now()
	c.l1.Range(func(key, val any) bool {
		entry, ok := val.(*cacheEntry)
		if !ok || now.After(entry.expiresAt) {
			c.l1.Delete(key)
			return true
		}
		live = append(live, aged{key: key, expiresAt: entry.expiresAt})
		return true
	})

	excess := len(live) - c.maxEntries + 1
	if excess <= 0 {
		return
	}
	slices.SortFunc(live, func(a, b aged) int { return a.expiresAt.Compare(b.expiresAt) })
	for _, e := range live[:excess] {
		c.l1.Delete(e.key)
	}
}

func (c *tieredCache) sweepExpired(now time.Time) {
	c.l1.Range(func(key, val any) bool {
		if entry, ok := val.(*cacheEntry); !ok || now.After(entry.expiresAt) {
			c.l1.Delete(key)
		}
		return true
	})
}

// cleanupLoop sweeps expired L1 entries until the cache is replaced.
func (c *tieredCache) cleanupLoop() {
	interval := c.cleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.sweepExpired(now)
		}
	}
}
