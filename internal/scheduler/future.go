package scheduler

import (
	"errors"
)

// ErrCancelled is the result error of a cancelled future or task.
var ErrCancelled = errors.New("scheduler: cancelled")

// Future is a single-assignment result owned by a Loop.
// It settles exactly once: resolved with a value, rejected with an error, or cancelled.
type Future[T any] struct {
	loop      *Loop
	done      bool
	cancelled bool
	value     T
	err       error
	callbacks []func()
}

// NewFuture creates a pending future bound to loop.
func NewFuture[T any](loop *Loop) *Future[T] {
	return &Future[T]{loop: loop}
}

// Done reports whether the future has settled.
func (f *Future[T]) Done() bool {
	return f.done
}

// Cancelled reports whether the future settled by cancellation.
func (f *Future[T]) Cancelled() bool {
	return f.cancelled
}

// Result returns the settled value and error.
// A cancelled future returns ErrCancelled; a pending one returns a zero value and nil.
func (f *Future[T]) Result() (T, error) {
	return f.value, f.err
}

// Resolve settles the future with v. Returns false if it had already settled.
func (f *Future[T]) Resolve(v T) bool {
	if f.done {
		return false
	}
	f.value = v
	f.settle()
	return true
}

// Reject settles the future with err. Returns false if it had already settled.
func (f *Future[T]) Reject(err error) bool {
	if f.done {
		return false
	}
	if err == nil {
		err = errors.New("scheduler: rejected with nil error")
	}
	f.err = err
	f.settle()
	return true
}

// Cancel settles the future as cancelled. Returns false if it had already settled.
func (f *Future[T]) Cancel() bool {
	if f.done {
		return false
	}
	f.cancelled = true
	f.err = ErrCancelled
	f.settle()
	return true
}

// OnDone registers fn to run on the loop after the future settles.
// Callbacks never run synchronously: a settled result is observed at the
// next scheduling opportunity.
func (f *Future[T]) OnDone(fn func()) {
	if f.done {
		f.loop.CallSoon(fn)
		return
	}
	f.callbacks = append(f.callbacks, fn)
}

func (f *Future[T]) settle() {
	f.done = true
	callbacks := f.callbacks
	f.callbacks = nil
	for _, fn := range callbacks {
		f.loop.CallSoon(fn)
	}
}

// ResultSource is anything Gather can combine: futures and tasks.
type ResultSource[T any] interface {
	Awaitable
	Result() (T, error)
	Cancelled() bool
	OnDone(fn func())
}

// Gather combines children into one future holding their results in submission order.
// The first child failure rejects the combined future; later failures are absorbed.
// A child cancelled from outside rejects it with ErrCancelled.
func Gather[T any, S ResultSource[T]](loop *Loop, children ...S) *Future[[]T] {
	out := NewFuture[[]T](loop)
	if len(children) == 0 {
		out.Resolve([]T{})
		return out
	}

	results := make([]T, len(children))
	remaining := len(children)

	for i, child := range children {
		child.OnDone(func() {
			if out.Done() {
				return
			}
			if child.Cancelled() {
				out.Reject(ErrCancelled)
				return
			}
			v, err := child.Result()
			if err != nil {
				out.Reject(err)
				return
			}
			results[i] = v
			remaining--
			if remaining == 0 {
				out.Resolve(results)
			}
		})
	}

	return out
}
