// Package cache stores rendered read-API responses. The event log only
// changes when a generation or analytics run finishes, so responses are
// cached with a TTL and flushed after every write run.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"k8s.io/utils/clock"
)

// KeyPrefix namespaces every cache key.
const KeyPrefix = "procmine:resp:"

// flushBatch is the SCAN count hint and the DEL batch size of Flush.
const flushBatch = 500

// Entry is one cached response.
type Entry struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Cache stores response entries with a TTL.
type Cache interface {
	// Get returns the entry under key. found is false for missing or expired
	// keys.
	Get(ctx context.Context, key string) (entry Entry, found bool, err error)

	// Set stores an entry under key for ttl.
	Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error

	// Flush removes every entry.
	Flush(ctx context.Context) error
}

// FormatKey builds the cache key of a request from its path and query. Query
// parameters are sorted so equivalent requests share a key.
func FormatKey(path string, query url.Values) string {
	sum := sha256.Sum256([]byte(query.Encode()))
	return KeyPrefix + strings.TrimPrefix(path, "/") + ":" + hex.EncodeToString(sum[:8])
}

// --- MemoryCache ---

// MemoryCache is an in-process Cache for single-instance deployments and
// tests.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	clock   clock.PassiveClock
}

type memEntry struct {
	entry     Entry
	expiresAt time.Time
}

// NewMemoryCache creates an empty MemoryCache. Expiry is measured on clk.
func NewMemoryCache(clk clock.PassiveClock) *MemoryCache {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &MemoryCache{entries: make(map[string]memEntry), clock: clk}
}

// Get returns a live entry and drops an expired one.
func (c *MemoryCache) Get(_ context.Context, key string) (Entry, bool, error) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return Entry{}, false, nil
	}
	if !c.clock.Now().Before(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return Entry{}, false, nil
	}
	return e.entry, true, nil
}

// Set stores an entry.
func (c *MemoryCache) Set(_ context.Context, key string, entry Entry, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memEntry{entry: entry, expiresAt: c.clock.Now().Add(ttl)}
	return nil
}

// Flush removes every entry.
func (c *MemoryCache) Flush(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]memEntry)
	return nil
}

// Len returns the number of entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// --- RedisCache ---

// RedisCache is a Redis-backed Cache shared by every API instance.
type RedisCache struct {
	client redis.Cmdable
}

// NewRedisCache creates a RedisCache.
func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

// Get reads an entry from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %q: %w", key, err)
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("unmarshal cache entry %q: %w", key, err)
	}
	return e, true, nil
}

// Set writes an entry to Redis with a TTL.
func (c *RedisCache) Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Flush deletes every key under KeyPrefix. The scan completes before any key
// is deleted, since deleting mid-scan shifts the cursor past live keys.
func (c *RedisCache) Flush(ctx context.Context) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, KeyPrefix+"*", flushBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}

	for start := 0; start < len(keys); start += flushBatch {
		end := min(start+flushBatch, len(keys))
		if err := c.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
	}
	return nil
}

// HealthCheck pings Redis.
func (c *RedisCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
