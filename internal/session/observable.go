package session

import (
	"context"
	"sync"
)

// Observable is a single-slot broadcast value. Subscribers are called
// synchronously on every Set, in subscription order, and a new subscriber
// is called at once with the current value.
type Observable[T any] struct {
	mu    sync.Mutex
	value T
	subs  []subscriber[T]
	next  uint64
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// NewObservable returns an Observable holding initial.
func NewObservable[T any](initial T) *Observable[T] {
	return &Observable[T]{value: initial}
}

// Get returns the latest value.
func (o *Observable[T]) Get() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

// Set stores v and notifies every subscriber. Callbacks run without the
// internal lock held, so they may call Get or Subscribe.
func (o *Observable[T]) Set(v T) {
	o.mu.Lock()
	o.value = v
	subs := make([]subscriber[T], len(o.subs))
	copy(subs, o.subs)
	o.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Subscribe registers fn and calls it with the current value before
// returning. The returned func removes the subscription.
func (o *Observable[T]) Subscribe(fn func(T)) (cancel func()) {
	o.mu.Lock()
	id := o.next
	o.next++
	o.subs = append(o.subs, subscriber[T]{id: id, fn: fn})
	current := o.value
	o.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			for i, s := range o.subs {
				if s.id == id {
					o.subs = append(o.subs[:i], o.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Watch returns a channel that always holds the latest value only: a value
// the reader has not consumed yet is replaced by a newer one. The channel is
// closed when ctx ends.
func (o *Observable[T]) Watch(ctx context.Context) <-chan T {
	ch := make(chan T, 1)
	var (
		mu     sync.Mutex
		closed bool
	)

	cancel := o.Subscribe(func(v T) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case <-ch:
		default:
		}
		ch <- v
	})

	go func() {
		<-ctx.Done()
		cancel()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()

	return ch
}
