// Package future provides a one-shot result-or-error future. It replaces
// success/failure callback pairs with a value a waiter can block on, and it
// resolves exactly once: later resolutions are ignored.
package future

import (
	"context"
	"sync"
)

// Future holds a value of type T that will be resolved exactly once.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// New returns an unresolved future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve completes the future with val. A no-op if already resolved.
func (f *Future[T]) Resolve(val T) {
	f.once.Do(func() {
		f.val = val
		close(f.done)
	})
}

// Fail completes the future with err. A no-op if already resolved.
func (f *Future[T]) Fail(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Get blocks until the future resolves or ctx is done, whichever is first.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the future resolves.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}
