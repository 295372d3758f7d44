// Package cache provides idempotency-key storage for HTTP mutations.
package cache

import (
	"context"
	"time"
)

// IdempotencyStore records idempotency keys for mutating requests. A key that
// is already present means the same command was accepted before and must not
// be re-executed.
type IdempotencyStore interface {
	// MarkProcessed records the key with a TTL. Returns true if the key was
	// newly recorded, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the key has already been recorded.
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}
