package fetch

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"math/rand"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultTTL is how long a fetched feed is served from memory.
const DefaultTTL = 12 * time.Hour

type cached struct {
	body    []byte
	expires time.Time
}

// Cache keeps fetched feed bodies in memory for a while so a sync loop
// does not hammer hosts.
type Cache struct {
	fetcher Fetcher
	entries *expirable.LRU[string, cached]
	ttl     time.Duration
	jitter  int
	now     func() time.Time
}

type CacheOption func(*Cache)

// WithJitter stretches each entry's TTL by a random whole factor in
// [1, factor] so feeds cached together do not all expire together.
func WithJitter(factor int) CacheOption {
	return func(c *Cache) {
		if factor > 1 {
			c.jitter = factor
		}
	}
}

// NewCache wraps f with a cache of at most size entries.
func NewCache(f Fetcher, size int, ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		fetcher: f,
		ttl:     ttl,
		jitter:  1,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	// The LRU evicts at the longest possible TTL, shorter ones are checked
	// on read.
	c.entries = expirable.NewLRU[string, cached](size, nil, ttl*time.Duration(c.jitter))

	return c
}

// Key is the cache key for a feed URL.
func Key(url string) string {
	sum := md5.Sum([]byte(url))
	return "feed_" + hex.EncodeToString(sum[:])
}

// Fetch serves url from the cache, fetching and storing it on a miss.
func (c *Cache) Fetch(ctx context.Context, url string) ([]byte, error) {
	return c.Get(ctx, url, false)
}

// Get is [Cache.Fetch] with the option to skip the cached copy. A fresh
// fetch replaces whatever was cached.
func (c *Cache) Get(ctx context.Context, url string, forceFresh bool) ([]byte, error) {
	key := Key(url)
	if !forceFresh {
		if hit, ok := c.entries.Get(key); ok && c.now().Before(hit.expires) {
			slog.DebugContext(ctx, "feed served from cache", "key", key)
			return hit.body, nil
		}
	}

	body, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	ttl := c.ttl
	if c.jitter > 1 {
		ttl *= time.Duration(1 + rand.Intn(c.jitter))
	}
	c.entries.Add(key, cached{body: body, expires: c.now().Add(ttl)})

	return body, nil
}

// Invalidate drops the cached copy of url.
func (c *Cache) Invalidate(url string) {
	c.entries.Remove(Key(url))
}
