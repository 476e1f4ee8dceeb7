package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions tunes RedisProvider.
type RedisOptions struct {
	// Sliding renews an entry's TTL to SlidingTTL on every hit (GETEX).
	Sliding    bool
	SlidingTTL time.Duration
}

// RedisProvider is a distributed Provider shared by every server instance.
type RedisProvider struct {
	client redis.UniversalClient
	opts   RedisOptions
}

func NewRedis(client redis.UniversalClient, opts RedisOptions) *RedisProvider {
	return &RedisProvider{client: client, opts: opts}
}

func (r *RedisProvider) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	if r.opts.Sliding && r.opts.SlidingTTL > 0 {
		b, err = r.client.GetEx(ctx, key, r.opts.SlidingTTL).Bytes()
	} else {
		b, err = r.client.Get(ctx, key).Bytes()
	}

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	return b, nil
}

func (r *RedisProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (r *RedisProvider) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: del: %v", ErrUnavailable, err)
	}
	return nil
}
