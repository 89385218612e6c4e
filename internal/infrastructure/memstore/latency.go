package memstore

import (
	"context"
	"time"
)

// Latency holds the artificial delay applied to each operation.
type Latency struct {
	Login    time.Duration
	Register time.Duration
	List     time.Duration
	Get      time.Duration
	Create   time.Duration
	Update   time.Duration
	Delete   time.Duration
}

// DefaultLatency mirrors the delays of the mock API the console was built
// against.
func DefaultLatency() Latency {
	return Latency{
		Login:    time.Second,
		Register: 1500 * time.Millisecond,
		List:     500 * time.Millisecond,
		Get:      300 * time.Millisecond,
		Create:   800 * time.Millisecond,
		Update:   800 * time.Millisecond,
		Delete:   600 * time.Millisecond,
	}
}

type result[T any] struct {
	val T
	err error
}

// simulate runs op after delay. Once started, op always runs to completion:
// if ctx ends first the caller gets ctx.Err() and the outcome is discarded.
func simulate[T any](ctx context.Context, delay time.Duration, op func() (T, error)) (T, error) {
	if delay <= 0 {
		return op()
	}

	done := make(chan result[T], 1)
	go func() {
		time.Sleep(delay)
		v, err := op()
		done <- result[T]{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
