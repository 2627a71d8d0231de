// Package cache holds the optional Redis cache for reference data
// served to validators.  When Redis is unreachable the service runs
// without it; a nil client disables every method.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const articlesKey = "validator:articles"

// ArticleCache caches the rendered JSON reply of FETCH_ARTICLES.  The
// curated list changes only when reference data is re-fetched, so a
// short TTL keeps validators off the database without ever serving a
// stale list for long.
type ArticleCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewArticleCache returns a cache over the given client.  A nil client
// yields a cache whose Get always misses and whose Set is a no-op.
func NewArticleCache(client *redis.Client, ttl time.Duration) *ArticleCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ArticleCache{client: client, ttl: ttl}
}

// Get returns the cached reply and whether it was present.
func (c *ArticleCache) Get(ctx context.Context) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}
	v, err := c.client.Get(ctx, articlesKey).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

// Set stores the rendered reply.  Failures are ignored; the cache is an
// optimization, never a source of truth.
func (c *ArticleCache) Set(ctx context.Context, payload string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, articlesKey, payload, c.ttl).Err()
}

// Invalidate drops the cached reply.  Called after a reference-data
// fetch so the next FETCH_ARTICLES sees the new rows.
func (c *ArticleCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, articlesKey).Err()
}
