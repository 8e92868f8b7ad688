package service

import (
	"context"
	"sync"
	"time"
)

// inFlightCall tracks a single computation that multiple callers may wait for.
type inFlightCall[T any] struct {
	done   chan struct{}
	result T
	err    error
}

// coalescer runs at most one computation per key at a time. Callers that
// arrive while a computation is running share its result.
type coalescer[T any] struct {
	mu       sync.Mutex
	inFlight map[string]*inFlightCall[T]
	timeout  time.Duration
}

// newCoalescer creates a coalescer whose callers give up waiting after timeout.
func newCoalescer[T any](timeout time.Duration) *coalescer[T] {
	return &coalescer[T]{
		inFlight: make(map[string]*inFlightCall[T]),
		timeout:  timeout,
	}
}

// Do returns the result of fn for key, starting fn only when no computation
// for key is already running. shared reports whether the caller joined an
// existing computation. Waiting respects ctx and the coalescer timeout; fn
// keeps running for the other callers when one of them gives up.
func (c *coalescer[T]) Do(ctx context.Context, key string, fn func() (T, error)) (result T, shared bool, err error) {
	c.mu.Lock()
	call, exists := c.inFlight[key]
	if !exists {
		call = &inFlightCall[T]{done: make(chan struct{})}
		c.inFlight[key] = call
		go c.run(key, call, fn)
	}
	c.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	select {
	case <-call.done:
		return call.result, exists, call.err
	case <-waitCtx.Done():
		var zero T
		return zero, exists, waitCtx.Err()
	}
}

func (c *coalescer[T]) run(key string, call *inFlightCall[T], fn func() (T, error)) {
	call.result, call.err = fn()

	c.mu.Lock()
	delete(c.inFlight, key)
	c.mu.Unlock()
	close(call.done)
}
