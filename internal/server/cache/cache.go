// Package cache defines the key-value cache used by the cache-aside
// repositories, its key scheme and the available providers: none,
// in-process memory (sturdyc) and redis, plus a circuit breaker decorator.
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss is returned by Get when the key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")
	// ErrUnavailable wraps transport failures and open-breaker rejections.
	ErrUnavailable = errors.New("cache unavailable")
)

// Provider is a byte-oriented key-value store with per-entry TTL. Any error
// other than ErrCacheMiss must be treated by callers as transient.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Remove(ctx context.Context, keys ...string) error
}
