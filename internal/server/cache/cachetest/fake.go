// Package cachetest provides an in-memory cache.Provider with a
// controllable clock and fault injection for tests.
package cachetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/todolist/internal/server/cache"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Fake is a deterministic cache.Provider. Entries expire according to the
// fake clock, which only moves when Advance is called.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	entries map[string]entry
	failing bool

	Gets, Sets, Removes int
}

func New() *Fake {
	return &Fake{
		now:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		entries: make(map[string]entry),
	}
}

// Advance moves the fake clock forward.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// SetFailing makes every call return cache.ErrUnavailable while on.
func (f *Fake) SetFailing(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = on
}

// Evict drops every entry, simulating a restart or memory pressure.
func (f *Fake) Evict() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = make(map[string]entry)
}

// Put stores raw bytes without touching counters, e.g. to plant a corrupt payload.
func (f *Fake) Put(key string, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = entry{value: value, expiresAt: f.now.Add(time.Hour)}
}

// Has reports whether key is present and unexpired.
func (f *Fake) Has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[key]
	return ok && f.now.Before(e.expiresAt)
}

// Keys returns the live keys, sorted.
func (f *Fake) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.entries))
	for k, e := range f.entries {
		if f.now.Before(e.expiresAt) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (f *Fake) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Gets++
	if f.failing {
		return nil, fmt.Errorf("%w: injected failure", cache.ErrUnavailable)
	}
	e, ok := f.entries[key]
	if !ok || !f.now.Before(e.expiresAt) {
		delete(f.entries, key)
		return nil, cache.ErrCacheMiss
	}
	return append([]byte(nil), e.value...), nil
}

func (f *Fake) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sets++
	if f.failing {
		return fmt.Errorf("%w: injected failure", cache.ErrUnavailable)
	}
	f.entries[key] = entry{value: append([]byte(nil), value...), expiresAt: f.now.Add(ttl)}
	return nil
}

func (f *Fake) Remove(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Removes++
	if f.failing {
		return fmt.Errorf("%w: injected failure", cache.ErrUnavailable)
	}
	for _, k := range keys {
		delete(f.entries, k)
	}
	return nil
}
