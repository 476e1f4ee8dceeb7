package cache

import (
	"context"
	"errors"
	"time"

	"github.com/viccon/sturdyc"
)

// MemoryConfig configures the in-process sturdyc client.
type MemoryConfig struct {
	// Capacity is the maximum number of entries. Must be greater than 0.
	Capacity int
	// NumShards spreads entries for concurrent access. Default: 64.
	NumShards int
	// TTL applies to every entry; sturdyc has no per-entry TTL.
	TTL time.Duration
	// EvictionPercentage is evicted when the cache is full. Default: 10.
	EvictionPercentage int
	// Clock replaces the wall clock, for tests.
	Clock sturdyc.Clock
}

func (c *MemoryConfig) setDefaults() {
	if c.NumShards == 0 {
		c.NumShards = 64
	}
	if c.EvictionPercentage == 0 {
		c.EvictionPercentage = 10
	}
}

func (c MemoryConfig) validate() error {
	switch {
	case c.Capacity <= 0:
		return errors.New("memory cache: capacity must be greater than 0")
	case c.NumShards <= 0:
		return errors.New("memory cache: shards must be greater than 0")
	case c.TTL <= 0:
		return errors.New("memory cache: ttl must be greater than 0")
	case c.EvictionPercentage < 1 || c.EvictionPercentage > 100:
		return errors.New("memory cache: eviction percentage must be between 1 and 100")
	}
	return nil
}

// MemoryProvider is a process-local Provider backed by sturdyc.
type MemoryProvider struct {
	client *sturdyc.Client[[]byte]
}

func NewMemory(cfg MemoryConfig) (*MemoryProvider, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var opts []sturdyc.Option
	if cfg.Clock != nil {
		opts = append(opts, sturdyc.WithClock(cfg.Clock))
	}

	client := sturdyc.New[[]byte](cfg.Capacity, cfg.NumShards, cfg.TTL, cfg.EvictionPercentage, opts...)
	return &MemoryProvider{client: client}, nil
}

func (m *MemoryProvider) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.client.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return clone(v), nil
}

// Set ignores ttl in favour of the client TTL.
func (m *MemoryProvider) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.client.Set(key, clone(value))
	return nil
}

func (m *MemoryProvider) Remove(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.client.Delete(k)
	}
	return nil
}

// Len reports the number of stored entries.
func (m *MemoryProvider) Len() int {
	return m.client.Size()
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
