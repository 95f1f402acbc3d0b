package cache

import (
	"context"
	"sync"
)

// MutateFunc performs a write against the remote API.
type MutateFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

// MutationOptions carries the side-effect callbacks of a mutation runner.
// OnSuccess typically invalidates the cache prefixes the write affects.
type MutationOptions[In, Out any] struct {
	OnSuccess func(result Out, input In)
	OnError   func(err error)
}

// Mutation wraps a write operation, tracking pending/success/error state
// for the UI. Writes are never retried automatically and in-flight calls
// are never cancelled: starting a new call only abandons status tracking
// of the previous one, both network operations still complete.
type Mutation[In, Out any] struct {
	fn   MutateFunc[In, Out]
	opts MutationOptions[In, Out]

	mu     sync.Mutex
	run    uint64
	status Status
	result Out
	err    error
}

// NewMutation creates a mutation runner.
func NewMutation[In, Out any](fn MutateFunc[In, Out], opts MutationOptions[In, Out]) *Mutation[In, Out] {
	return &Mutation[In, Out]{fn: fn, opts: opts, status: StatusIdle}
}

// Status returns the runner's state for the most recent call.
func (m *Mutation[In, Out]) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Result returns the stored result of the last successful call.
func (m *Mutation[In, Out]) Result() (Out, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero Out
	if m.status != StatusSuccess {
		return zero, false
	}
	return m.result, true
}

// Err returns the stored error of the last failed call.
func (m *Mutation[In, Out]) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != StatusError {
		return nil
	}
	return m.err
}

// Mutate runs the write and absorbs the outcome into runner state and the
// configured callbacks. Callers that need to sequence dependent steps use
// MutateAsync instead.
func (m *Mutation[In, Out]) Mutate(ctx context.Context, input In) {
	m.MutateAsync(ctx, input) //nolint:errcheck // outcome is absorbed into status
}

// MutateAsync runs the write and additionally returns the outcome so an
// orchestrating workflow can branch on it.
func (m *Mutation[In, Out]) MutateAsync(ctx context.Context, input In) (Out, error) {
	m.mu.Lock()
	m.run++
	run := m.run
	m.status = StatusPending
	m.err = nil
	m.mu.Unlock()

	result, err := m.fn(ctx, input)

	m.mu.Lock()
	// A newer call has taken over status tracking; this result is only
	// reported to the direct caller.
	superseded := run != m.run
	if !superseded {
		if err != nil {
			m.status = StatusError
			m.err = err
		} else {
			m.status = StatusSuccess
			m.result = result
		}
	}
	m.mu.Unlock()

	if !superseded {
		if err != nil {
			if m.opts.OnError != nil {
				m.opts.OnError(err)
			}
		} else if m.opts.OnSuccess != nil {
			m.opts.OnSuccess(result, input)
		}
	}
	return result, err
}
