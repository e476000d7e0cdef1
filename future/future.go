// Package future provides a minimal promise-like value for functions whose
// result is produced asynchronously.
//
// A Future settles exactly once, either with a value or with an error.
// Callbacks registered with OnSettled run in the settling goroutine before
// Done is closed, so anything they do is visible to every waiter.
package future

import (
	"context"
	"fmt"
	"sync"
)

// Future is a result that becomes available later.
type Future[T any] struct {
	mu      sync.Mutex
	done    chan struct{}
	settled bool
	value   T
	err     error
	hooks   []func(error)
}

// New returns a pending future together with the functions that settle it.
// Only the first call to resolve or reject has an effect.
func New[T any]() (f *Future[T], resolve func(T), reject func(error)) {
	f = &Future[T]{done: make(chan struct{})}
	resolve = func(v T) { f.settle(v, nil) }
	reject = func(err error) {
		var zero T
		f.settle(zero, err)
	}
	return f, resolve, reject
}

// Go runs fn in a new goroutine and returns a future for its result.
// A panic inside fn rejects the future instead of crashing the process.
func Go[T any](fn func() (T, error)) *Future[T] {
	f, resolve, reject := New[T]()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				reject(fmt.Errorf("future: panic: %v", r))
			}
		}()
		v, err := fn()
		if err != nil {
			reject(err)
			return
		}
		resolve(v)
	}()
	return f
}

// Resolved returns a future already settled with v.
func Resolved[T any](v T) *Future[T] {
	f, resolve, _ := New[T]()
	resolve(v)
	return f
}

// Rejected returns a future already settled with err.
func Rejected[T any](err error) *Future[T] {
	f, _, reject := New[T]()
	reject(err)
	return f
}

func (f *Future[T]) settle(v T, err error) {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	f.settled = true
	f.value = v
	f.err = err
	hooks := f.hooks
	f.hooks = nil
	f.mu.Unlock()

	for _, h := range hooks {
		h(err)
	}
	close(f.done)
}

// OnSettled registers fn to run once the future settles, with the rejection
// error or nil. If the future has already settled fn runs immediately.
func (f *Future[T]) OnSettled(fn func(err error)) {
	if f == nil || fn == nil {
		return
	}
	f.mu.Lock()
	if !f.settled {
		f.hooks = append(f.hooks, fn)
		f.mu.Unlock()
		return
	}
	err := f.err
	f.mu.Unlock()
	fn(err)
}

// Done is closed once the future has settled and its callbacks have run.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future settles or ctx is done.
// Giving up on the wait does not cancel the computation.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Wait blocks until the future settles.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}
