// Package cache stores parse results between scans.
//
// A scan of a full aports tree parses roughly twenty thousand recipes. Most
// of them do not change between runs, so the scanner keys each parsed record
// by the recipe's path and content hash and skips the parse on a hit.
//
// # Backends
//
//   - [FileCache]: JSON entries under a local directory, the CLI default
//   - [RedisCache]: shared cache for the API server and CI runners
//   - [NullCache]: disables caching (--no-cache)
//
// All backends treat expired or corrupt entries as misses.
//
// # Keys
//
// Keys come from a [Keyer]. [NewScopedKeyer] prefixes every key, which lets
// several aports checkouts share one Redis database.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// GetJSON loads key into v. It returns [ErrCacheMiss] when key is absent
// or its value does not decode into v.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok || json.Unmarshal(data, v) != nil {
		return ErrCacheMiss
	}
	return nil
}

// SetJSON stores v under key as JSON.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
