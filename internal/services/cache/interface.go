// Package cache provides a small TTL byte cache used for signed playback
// URLs.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry TTLs
type Cache interface {
	// Get returns the value for key if present and not expired
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key for ttl
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key
	Delete(ctx context.Context, key string) error
}
