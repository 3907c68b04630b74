package objectstore

import (
	"context"
	"time"

	"github.com/clipforge/clipper-api/internal/services/cache"
	"github.com/clipforge/clipper-api/internal/services/pipeline"
)

// CachedStore wraps another store and caches signed URLs in memory.
// Presigning is pure computation for S3 but every project fetch signs two
// URLs per ready clip, so a short-lived cache keeps hot projects cheap.
// The cache TTL must stay well below the signed URL TTL so cached URLs
// never outlive their validity.
type CachedStore struct {
	inner pipeline.ObjectStore
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedStore wraps inner with a signed-URL cache. ttl defaults to
// 10 minutes when zero.
func NewCachedStore(inner pipeline.ObjectStore, urlCache cache.Cache, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedStore{inner: inner, cache: urlCache, ttl: ttl}
}

// Upload stores the local file under key
func (c *CachedStore) Upload(ctx context.Context, localPath, key string) error {
	return c.inner.Upload(ctx, localPath, key)
}

// Delete removes the object at key and invalidates its cached URL
func (c *CachedStore) Delete(ctx context.Context, key string) error {
	_ = c.cache.Delete(ctx, cacheKey(key))
	return c.inner.Delete(ctx, key)
}

// SignedURL returns a cached URL when one is still fresh, signing a new
// one otherwise
func (c *CachedStore) SignedURL(ctx context.Context, key string) (string, error) {
	if cached, ok := c.cache.Get(ctx, cacheKey(key)); ok {
		return string(cached), nil
	}

	url, err := c.inner.SignedURL(ctx, key)
	if err != nil {
		return "", err
	}

	_ = c.cache.Set(ctx, cacheKey(key), []byte(url), c.ttl)
	return url, nil
}

func cacheKey(key string) string {
	return "signed-url:" + key
}
