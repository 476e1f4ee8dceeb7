package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/sony/gobreaker"
)

// BreakerOptions configures the circuit breaker around a Provider.
type BreakerOptions struct {
	Name string
	// ConsecutiveFailures trips the breaker. Default: 5.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before a trial call. Default: 30s.
	OpenTimeout time.Duration
}

// BreakerProvider fails fast with ErrUnavailable while the wrapped provider
// is considered down, so an outage adds no latency to requests.
//
// Keys whose Set or Remove did not reach the provider are remembered as
// stale. They are deleted before any other call is let through, and until
// that succeeds every Get is reported as unavailable, so an entry written
// before the outage is never served after it.
type BreakerProvider struct {
	next Provider
	cb   *gobreaker.CircuitBreaker
	log  logging.Logger

	mu    sync.Mutex
	stale map[string]struct{}
}

func WithBreaker(next Provider, opts BreakerOptions, log logging.Logger) *BreakerProvider {
	if opts.ConsecutiveFailures == 0 {
		opts.ConsecutiveFailures = 5
	}
	if opts.OpenTimeout == 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	threshold := opts.ConsecutiveFailures

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCacheMiss) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn(context.Background(), "cache breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &BreakerProvider{next: next, cb: cb, log: log, stale: make(map[string]struct{})}
}

func (b *BreakerProvider) Get(ctx context.Context, key string) ([]byte, error) {
	if err := b.flush(ctx); err != nil {
		return nil, err
	}
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.Get(ctx, key)
	})
	if err != nil {
		return nil, b.wrap(err)
	}
	bytes, _ := v.([]byte)
	return bytes, nil
}

func (b *BreakerProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := b.flush(ctx); err != nil {
		b.markStale(key)
		return err
	}
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Set(ctx, key, value, ttl)
	})
	if err != nil {
		b.markStale(key)
	}
	return b.wrap(err)
}

// Remove deletes keys together with any stale ones. On failure all of them
// stay stale.
func (b *BreakerProvider) Remove(ctx context.Context, keys ...string) error {
	b.markStale(keys...)
	return b.flush(ctx)
}

// State exposes the breaker state for health reporting.
func (b *BreakerProvider) State() gobreaker.State {
	return b.cb.State()
}

// Stale returns the number of keys waiting to be invalidated.
func (b *BreakerProvider) Stale() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.stale)
}

func (b *BreakerProvider) markStale(keys ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		b.stale[k] = struct{}{}
	}
}

// flush removes the stale keys from the wrapped provider. The lock is held
// for the call so no read can overtake a pending invalidation.
func (b *BreakerProvider) flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.stale) == 0 {
		return nil
	}

	keys := make([]string, 0, len(b.stale))
	for k := range b.stale {
		keys = append(keys, k)
	}

	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Remove(ctx, keys...)
	})
	if err != nil {
		err = b.wrap(err)
		if !errors.Is(err, ErrUnavailable) {
			err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}

	b.log.Info(ctx, "stale cache keys invalidated", "count", len(keys))
	clear(b.stale)
	return nil
}

func (b *BreakerProvider) wrap(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
