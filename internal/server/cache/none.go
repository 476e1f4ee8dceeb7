package cache

import (
	"context"
	"time"
)

// NoneProvider disables caching: every Get misses and writes are dropped.
type NoneProvider struct{}

func NewNone() *NoneProvider { return &NoneProvider{} }

func (NoneProvider) Get(context.Context, string) ([]byte, error) { return nil, ErrCacheMiss }

func (NoneProvider) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NoneProvider) Remove(context.Context, ...string) error { return nil }
