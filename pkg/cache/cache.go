// Package cache stores computed layouts, rendered artifacts and AI analyses.
//
// Three backends implement [Cache]:
//   - [FileCache] for the CLI, rooted in the user's cache directory
//   - [RedisCache] for the API server, shared between replicas
//   - [NullCache] when caching is disabled
//
// Keys are produced by a [Keyer] so every component hashes its inputs the
// same way. [NewScopedKeyer] prefixes keys per user.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/auri-app/auri/pkg/observability"
)

// TTLs for each kind of cached value.
const (
	LayoutTTL   = 30 * 24 * time.Hour
	ArtifactTTL = 30 * 24 * time.Hour
	AnalysisTTL = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired key is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// GetJSON reads key and decodes it into v. Hits and misses are reported to
// the cache hooks under keyType. A value that fails to decode counts as a miss.
func GetJSON(ctx context.Context, c Cache, keyType, key string, v any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok || json.Unmarshal(data, v) != nil {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return false, nil
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, keyType, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
	return nil
}
