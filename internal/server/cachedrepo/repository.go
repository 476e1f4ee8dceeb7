// Package cachedrepo decorates the source-of-truth repositories with a
// cache-aside layer. Reads populate the cache on miss; writes go to the
// source first and then refresh or invalidate the affected keys. The cache
// is best effort: its failures are logged and never reach the caller.
package cachedrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/dmitrijs2005/todolist/internal/server/cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dmitrijs2005/todolist/internal/server/cachedrepo"

// EntitySource is the source-of-truth side for a single aggregate.
type EntitySource[T, A, U any] interface {
	GetByID(ctx context.Context, id string) (*T, error)
	Add(ctx context.Context, dto A) (*T, error)
	Update(ctx context.Context, dto U) (*T, error)
	Delete(ctx context.Context, id string) error
}

// CollectionSource lists the aggregates owned by a parent.
type CollectionSource[T any] interface {
	GetAll(ctx context.Context, owner string) ([]*T, error)
}

// Scheme describes how an aggregate maps onto cache keys.
type Scheme[T any] struct {
	// Aggregate names the aggregate in spans and logs, e.g. "Lists".
	Aggregate string
	ID        func(*T) string
	EntityKey func(id string) string
	// CollectionKey and Owner are nil for aggregates without a parent.
	CollectionKey func(owner string) string
	Owner         func(*T) string
	// Cascade returns extra keys made stale by deleting the entity. It runs
	// before the source delete, while children are still readable.
	Cascade func(ctx context.Context, entity *T) ([]string, error)
}

// Options are shared by every cached repository.
type Options struct {
	TTL    time.Duration
	Logger logging.Logger
	// Tracer defaults to the global provider's tracer.
	Tracer trace.Tracer
}

// Repository is a cache-aside decorator over an EntitySource and an
// optional CollectionSource.
type Repository[T, A, U any] struct {
	source     EntitySource[T, A, U]
	collection CollectionSource[T]
	scheme     Scheme[T]
	cache      cache.Provider
	ttl        time.Duration
	log        logging.Logger
	tracer     trace.Tracer
}

// New builds a Repository. collection may be nil when the scheme has no
// collection key.
func New[T, A, U any](source EntitySource[T, A, U], collection CollectionSource[T], scheme Scheme[T], provider cache.Provider, opts Options) *Repository[T, A, U] {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &Repository[T, A, U]{
		source:     source,
		collection: collection,
		scheme:     scheme,
		cache:      provider,
		ttl:        opts.TTL,
		log:        log.With("module", "cachedrepo", "aggregate", scheme.Aggregate),
		tracer:     tracer,
	}
}

// GetAll returns the collection owned by owner, from the cache when present.
func (r *Repository[T, A, U]) GetAll(ctx context.Context, owner string) ([]*T, error) {
	ctx, span := r.start(ctx, "GetAll")
	defer span.End()

	if r.collection == nil || r.scheme.CollectionKey == nil {
		return nil, endSpan(span, fmt.Errorf("%s: no collection", r.scheme.Aggregate))
	}

	key := r.scheme.CollectionKey(owner)
	var items []*T
	if r.read(ctx, key, &items) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return items, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	items, err := r.collection.GetAll(ctx, owner)
	if err != nil {
		return nil, endSpan(span, err)
	}
	if items == nil {
		items = []*T{}
	}

	r.write(ctx, key, items)
	return items, nil
}

// GetByID returns one entity. Not-found always comes from the source: a
// cache miss never proves absence.
func (r *Repository[T, A, U]) GetByID(ctx context.Context, id string) (*T, error) {
	ctx, span := r.start(ctx, "GetByID")
	defer span.End()

	key := r.scheme.EntityKey(id)
	var entity T
	if r.read(ctx, key, &entity) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &entity, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	found, err := r.source.GetByID(ctx, id)
	if err != nil {
		return nil, endSpan(span, err)
	}

	r.write(ctx, key, found)
	return found, nil
}

// Add writes to the source and invalidates the owner's collection. The new
// entity is not cached until something reads it.
func (r *Repository[T, A, U]) Add(ctx context.Context, dto A) (*T, error) {
	ctx, span := r.start(ctx, "Add")
	defer span.End()

	entity, err := r.source.Add(ctx, dto)
	if err != nil {
		return nil, endSpan(span, err)
	}

	keys, err := r.collectionKeys(ctx, entity)
	if err != nil {
		return nil, endSpan(span, err)
	}
	r.remove(ctx, keys...)

	return entity, nil
}

// Update writes to the source, refreshes the entity key with the stored
// value and invalidates the owner's collection.
func (r *Repository[T, A, U]) Update(ctx context.Context, dto U) (*T, error) {
	ctx, span := r.start(ctx, "Update")
	defer span.End()

	entity, err := r.source.Update(ctx, dto)
	if err != nil {
		return nil, endSpan(span, err)
	}

	keys, err := r.collectionKeys(ctx, entity)
	if err != nil {
		return nil, endSpan(span, err)
	}

	r.remove(ctx, keys...)
	r.write(ctx, r.scheme.EntityKey(r.scheme.ID(entity)), entity)

	return entity, nil
}

// Delete reads the entity to learn its owner, deletes it from the source,
// then drops its key, the owner's collection and any cascaded keys.
func (r *Repository[T, A, U]) Delete(ctx context.Context, id string) error {
	ctx, span := r.start(ctx, "Delete")
	defer span.End()

	entity, err := r.source.GetByID(ctx, id)
	if err != nil {
		return endSpan(span, err)
	}

	keys, err := r.collectionKeys(ctx, entity)
	if err != nil {
		return endSpan(span, err)
	}
	keys = append(keys, r.scheme.EntityKey(id))

	if r.scheme.Cascade != nil {
		extra, err := r.scheme.Cascade(ctx, entity)
		if err != nil {
			return endSpan(span, fmt.Errorf("resolve cascade: %w", err))
		}
		keys = append(keys, extra...)
	}

	if err := r.source.Delete(ctx, id); err != nil {
		return endSpan(span, err)
	}

	r.remove(ctx, keys...)
	return nil
}

// collectionKeys returns the owner's collection key, or nothing for
// aggregates without a parent. A missing owner is a data-integrity failure.
func (r *Repository[T, A, U]) collectionKeys(ctx context.Context, entity *T) ([]string, error) {
	if r.scheme.Owner == nil || r.scheme.CollectionKey == nil {
		return nil, nil
	}

	owner := r.scheme.Owner(entity)
	if owner == "" {
		r.log.Error(ctx, "entity has no owner, cannot invalidate collection")
		return nil, fmt.Errorf("%s: %w: missing owner reference", r.scheme.Aggregate, common.ErrDataIntegrity)
	}
	return []string{r.scheme.CollectionKey(owner)}, nil
}

func (r *Repository[T, A, U]) read(ctx context.Context, key string, dst any) bool {
	b, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			r.log.Warn(ctx, "cache read failed", "key", key, "err", err)
		}
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		r.log.Warn(ctx, "cache payload is corrupt", "key", key, "err", err)
		return false
	}
	return true
}

func (r *Repository[T, A, U]) write(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		r.log.Warn(ctx, "cache encode failed", "key", key, "err", err)
		return
	}
	if err := r.cache.Set(ctx, key, b, r.ttl); err != nil {
		r.log.Warn(ctx, "cache write failed", "key", key, "err", err)
	}
}

func (r *Repository[T, A, U]) remove(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := r.cache.Remove(ctx, keys...); err != nil {
		r.log.Warn(ctx, "cache invalidation failed", "keys", keys, "err", err)
	}
}

func (r *Repository[T, A, U]) start(ctx context.Context, op string) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "cachedrepo."+r.scheme.Aggregate+"."+op)
}

func endSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
