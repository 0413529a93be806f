// Package kvstore abstracts the shared, cross-worker key-value store that
// backs ActionUsage, PendingCounter, and CacheEntry state.
package kvstore

import (
	"context"
	"time"
)

// Store is the minimal contract the throttler and cache packages need: get,
// set-with-ttl, atomic increment/decrement, and explicit expiry/deletion.
// Implementations must be safe for concurrent use by multiple workers.
type Store interface {
	// Get returns the raw value stored at key, and false if it does not
	// exist (or has expired).
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value at key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Incr atomically adds delta to the integer stored at key (treating a
	// missing key as 0) and returns the new value. If ttl is non-zero and
	// the key did not previously exist, the key is created with that ttl.
	Incr(ctx context.Context, key string, delta int, ttl time.Duration) (int, error)

	// Expire sets (or refreshes) the ttl on an existing key. No-op if the
	// key does not exist.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Del removes key. No-op if it does not exist.
	Del(ctx context.Context, key string) error
}
