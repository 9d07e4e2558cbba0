package market

import "context"

// Result is a derived value that is either already materialized (Ready) or
// still pending the fetch of a missing input (Pending). The two states are
// explicit so callers never have to inspect a return value's shape to learn
// which path they are on.
//
// A pending result is lazy and single-shot: nothing runs until Resolve, and
// every Resolve of a pending result runs its fetch again. Results never cache
// anything themselves; batching fetches is the job of a caller-owned
// TickerCache.
type Result[T any] struct {
	value T
	fetch func(ctx context.Context) (T, error)
}

// Ready wraps an already materialized value.
func Ready[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Pending wraps a computation that must first obtain its missing input.
func Pending[T any](fetch func(ctx context.Context) (T, error)) Result[T] {
	return Result[T]{fetch: fetch}
}

// IsReady reports whether the value is materialized, without driving a fetch.
func (r Result[T]) IsReady() bool {
	return r.fetch == nil
}

// Value returns the materialized value; ok is false for a pending result.
func (r Result[T]) Value() (value T, ok bool) {
	if r.fetch != nil {
		return value, false
	}
	return r.value, true
}

// Resolve returns the value, running the pending fetch when necessary. A
// failed or cancelled fetch fails the whole computation; no partial value is
// ever produced.
func (r Result[T]) Resolve(ctx context.Context) (T, error) {
	if r.fetch == nil {
		return r.value, nil
	}
	return r.fetch(ctx)
}
