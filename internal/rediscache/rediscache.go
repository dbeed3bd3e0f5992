// Package rediscache provides an optional second-tier cache shared by the
// embedding gateway and vector store, backed by Redis. It is a thin
// get/set-bytes wrapper: callers own serialization.
//
// A nil *Tier is valid and behaves as "no L2 cache" — every Get misses and
// every Set is a no-op — so callers never need a separate enabled flag.
package rediscache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tier is a Redis-backed cache tier. The zero value is not usable; use New
// or pass a nil *Tier to disable the tier entirely.
type Tier struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New connects to addr and returns a Tier namespacing all keys under
// prefix. Connectivity is not verified here; a down Redis degrades Get/Set
// to cache misses rather than failing the caller (see Get/Set).
func New(addr, prefix string, ttl time.Duration) *Tier {
	if addr == "" {
		return nil
	}
	return &Tier{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get returns the cached bytes for key, or (nil, false) on miss, error, or
// a disabled tier.
func (t *Tier) Get(ctx context.Context, key string) ([]byte, bool) {
	if t == nil {
		return nil, false
	}
	b, err := t.client.Get(ctx, t.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Debug("rediscache get failed, treating as miss", "key", key, "error", err)
		}
		return nil, false
	}
	return b, true
}

// Set stores value under key with the tier's TTL. Failures are logged and
// swallowed — Redis is a cache, not a source of truth, so a write failure
// must never surface as an error to the caller.
func (t *Tier) Set(ctx context.Context, key string, value []byte) {
	if t == nil {
		return
	}
	if err := t.client.Set(ctx, t.prefix+key, value, t.ttl).Err(); err != nil {
		slog.Debug("rediscache set failed", "key", key, "error", err)
	}
}

// Close releases the underlying connection pool. Safe to call on a nil Tier.
func (t *Tier) Close() error {
	if t == nil {
		return nil
	}
	return t.client.Close()
}
