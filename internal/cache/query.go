package cache

import (
	"context"
	"time"
)

// FetchFunc loads the resource behind a query key.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// QueryOptions tunes a query runner.
type QueryOptions struct {
	// StaleTime is how long a successful result is served without a
	// refetch. Zero means a mounted query always refreshes.
	StaleTime time.Duration
	// Enabled gates fetching; a disabled query serves whatever is cached.
	// nil means enabled.
	Enabled func() bool
	// Retries is the number of automatic retries after a failed fetch.
	Retries int
}

// Query wraps a fetch function for one key. Concurrent runs for the same
// key share a single network call; results land in the store and reach
// subscribers from there. Fetch failures are captured in the entry, never
// returned as panics into rendering code.
type Query[T any] struct {
	store   *Store
	key     Key
	fetch   FetchFunc[T]
	opts    QueryOptions
	unmount func()
}

// NewQuery mounts a query runner on the store. The runner participates in
// prefix invalidation until Close is called.
func NewQuery[T any](store *Store, key Key, fetch FetchFunc[T], opts QueryOptions) *Query[T] {
	q := &Query[T]{store: store, key: key, fetch: fetch, opts: opts}
	q.unmount = store.registerRefetcher(key, func() {
		q.Refetch(context.Background())
	})
	return q
}

// Close unmounts the query. The cached entry stays in the store.
func (q *Query[T]) Close() {
	q.unmount()
}

// Key returns the query's key.
func (q *Query[T]) Key() Key {
	return q.key
}

// State returns the current cache entry for the query's key.
func (q *Query[T]) State() Entry {
	e, _ := q.store.Get(q.key)
	if e.Key == nil {
		e = Entry{Key: q.key, Status: StatusIdle}
	}
	return e
}

// Data returns the typed cached data, if a successful result is present.
func (q *Query[T]) Data() (T, bool) {
	var zero T
	e := q.State()
	if e.Status != StatusSuccess || e.Data == nil {
		return zero, false
	}
	data, ok := e.Data.(T)
	if !ok {
		return zero, false
	}
	return data, true
}

// Run ensures the entry is populated: it fetches when the key has no
// usable entry or the entry has gone stale, and otherwise serves the
// cache. It returns the resulting entry state.
func (q *Query[T]) Run(ctx context.Context) Entry {
	if q.opts.Enabled != nil && !q.opts.Enabled() {
		return q.State()
	}
	if !q.store.Stale(q.key) {
		return q.State()
	}
	return q.execute(ctx, false)
}

// Refetch forces a fresh fetch regardless of staleness.
func (q *Query[T]) Refetch(ctx context.Context) Entry {
	if q.opts.Enabled != nil && !q.opts.Enabled() {
		return q.State()
	}
	return q.execute(ctx, true)
}

// execute performs one de-duplicated fetch. When a run for the key is
// already in flight, the caller joins it instead of issuing a second
// network call; forced refetches start a superseding run.
func (q *Query[T]) execute(ctx context.Context, force bool) Entry {
	if !force {
		if f, ok := q.store.inflight(q.key); ok {
			q.wait(ctx, f)
			return q.State()
		}
	}

	f := q.store.begin(q.key, q.opts.StaleTime)

	data, err := q.fetch(ctx)
	for attempt := 0; err != nil && attempt < q.opts.Retries; attempt++ {
		data, err = q.fetch(ctx)
	}

	if err != nil {
		q.store.commit(q.key, f, nil, err)
	} else {
		q.store.commit(q.key, f, data, nil)
	}
	return q.State()
}

// wait blocks until the shared flight resolves or ctx is done.
func (q *Query[T]) wait(ctx context.Context, f *flight) {
	select {
	case <-f.done:
	case <-ctx.Done():
	}
}
