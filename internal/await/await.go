// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package await

import (
	"errors"
	"sync/atomic"
)

// ErrConcurrentWait is returned when a second Wait is attempted while
// another Wait on the same Completion is still blocked. Overlapping waits
// are a caller error.
var ErrConcurrentWait = errors.New("concurrent wait on the same completion")

// Completion is a write-once asynchronous result of type T.
// It is resolved with a value or rejected with an error exactly once;
// resolving twice panics. The zero value is not usable, use New.
type Completion[T any] struct {
	done     chan struct{}
	val      T
	err      error
	resolved atomic.Bool
	waiting  atomic.Bool
}

// New creates a pending Completion.
func New[T any]() *Completion[T] {
	return &Completion[T]{
		done: make(chan struct{}),
	}
}

// Resolve completes the Completion with a value, releasing any waiter.
func (c *Completion[T]) Resolve(val T) {
	if !c.resolved.CompareAndSwap(false, true) {
		panic("await: completion resolved more than once")
	}

	c.val = val
	close(c.done)
}

// Reject completes the Completion with a failure, releasing any waiter.
// The error is re-raised synchronously from Wait.
func (c *Completion[T]) Reject(err error) {
	if !c.resolved.CompareAndSwap(false, true) {
		panic("await: completion resolved more than once")
	}

	c.err = err
	close(c.done)
}

// Wait blocks the caller until the Completion resolves, then returns its
// value or the rejection error. A resolved Completion may be waited on any
// number of times without blocking. At most one Wait may be blocked at a
// time: an overlapping Wait returns ErrConcurrentWait.
func (c *Completion[T]) Wait() (T, error) {
	select {
	case <-c.done:
		return c.val, c.err
	default:
	}

	if !c.waiting.CompareAndSwap(false, true) {
		var zero T
		return zero, ErrConcurrentWait
	}

	defer c.waiting.Store(false)

	<-c.done

	return c.val, c.err
}

// Resolved reports whether the Completion has resolved, without blocking.
func (c *Completion[T]) Resolved() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed when the Completion resolves.
// It allows select-based composition without consuming the result.
func (c *Completion[T]) Done() <-chan struct{} {
	return c.done
}

// Go runs fn in a new goroutine and returns a Completion that resolves
// with its result.
func Go[T any](fn func() (T, error)) *Completion[T] {
	c := New[T]()

	go func() {
		v, err := fn()
		if err != nil {
			c.Reject(err)
			return
		}

		c.Resolve(v)
	}()

	return c
}
