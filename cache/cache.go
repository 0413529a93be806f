// Package cache implements the per-action result cache that sits in front
// of the throttler: a cache hit skips both the HTTP call and the quota
// wait entirely (spec.md §4.4 step 3).
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/garrettmk/broccoli/kvstore"
	"github.com/garrettmk/broccoli/schemas"
)

// Cache wraps a kvstore.Store with the key-construction and
// failure-swallowing rules spec.md §4.4 requires of the cache layer.
type Cache struct {
	store  kvstore.Store
	logger schemas.Logger
}

// New constructs a Cache over the given store.
func New(store kvstore.Store, logger schemas.Logger) *Cache {
	return &Cache{store: store, logger: logger}
}

type cacheArgs struct {
	Args   []any          `json:"args"`
	Kwargs map[string]any `json:"kwargs"`
}

// Key computes the cache key for a call: the fully-qualified action name
// prefixed onto the MD5 of the canonical JSON of {args, kwargs}, with
// "priority" removed from kwargs before hashing (spec.md §3, CacheEntry).
func Key(fqAction string, args []any, kwargs map[string]any) (string, error) {
	trimmed := make(map[string]any, len(kwargs))
	for k, v := range kwargs {
		if k == "priority" {
			continue
		}
		trimmed[k] = v
	}

	raw, err := json.Marshal(cacheArgs{Args: args, Kwargs: trimmed})
	if err != nil {
		return "", err
	}
	sum := md5.Sum(raw) //nolint:gosec // cache key, not a security boundary
	return fqAction + "_" + hex.EncodeToString(sum[:]), nil
}

// Get looks up key. A store error is logged and reported as a miss: per
// spec.md §4.4's failure semantics, cache-layer failures are swallowed and
// the gateway proceeds as though there were no entry.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	value, ok, err := c.store.Get(ctx, key)
	if err != nil {
		if c.logger != nil {
			c.logger.Error(err)
		}
		return "", false
	}
	return value, ok
}

// Set stores value at key with the given per-action ttl. A ttl of 0 or
// less means "do not cache this action" and Set is a no-op. Store errors
// are logged and swallowed — the gateway proceeds as though the write had
// succeeded.
func (c *Cache) Set(ctx context.Context, key string, value string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.store.Set(ctx, key, value, ttl); err != nil && c.logger != nil {
		c.logger.Error(err)
	}
}
