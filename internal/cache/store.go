// Package cache holds the small caches used by the server: a bounded FIFO
// map for derived values and a TTL key/value store with in-memory and Redis
// backends.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented key/value cache with per-entry expiry.
// Get reports a miss with ok == false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
