// Package eventbus provides a typed fan-out bus. The batch runner uses it to
// stream check records to the report writer and progress printers.
package eventbus

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when publishing on a closed bus.
var ErrClosed = errors.New("eventbus: closed")

type subscriber[T any] struct {
	ch   chan T
	quit chan struct{}
	mu   sync.RWMutex
	done bool
}

func (s *subscriber[T]) stop() {
	s.mu.RLock()
	done := s.done
	s.mu.RUnlock()
	if done {
		return
	}
	// unblock senders before taking the write lock
	close(s.quit)
	s.mu.Lock()
	s.done = true
	close(s.ch)
	s.mu.Unlock()
}

// TypedBus is a type-safe publish/subscribe bus for events of type T.
type TypedBus[T any] struct {
	mu     sync.RWMutex
	subs   []*subscriber[T]
	closed bool
}

// NewTyped creates a new TypedBus.
func NewTyped[T any]() *TypedBus[T] { return &TypedBus[T]{} }

func (b *TypedBus[T]) snapshot() ([]*subscriber[T], bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]*subscriber[T](nil), b.subs...), b.closed
}

// Publish delivers e to every subscriber, waiting for slow consumers until
// ctx is done. Unsubscribed consumers are skipped.
func (b *TypedBus[T]) Publish(ctx context.Context, e T) error {
	subs, closed := b.snapshot()
	if closed {
		return ErrClosed
	}
	for _, s := range subs {
		if err := s.send(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (s *subscriber[T]) send(ctx context.Context, e T) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.done {
		return nil
	}
	select {
	case s.ch <- e:
		return nil
	case <-s.quit:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPublish delivers e to subscribers with free buffer space and returns
// how many received it.
func (b *TypedBus[T]) TryPublish(e T) int {
	subs, closed := b.snapshot()
	if closed {
		return 0
	}
	n := 0
	for _, s := range subs {
		s.mu.RLock()
		if !s.done {
			select {
			case s.ch <- e:
				n++
			default:
			}
		}
		s.mu.RUnlock()
	}
	return n
}

// Subscribe registers a subscriber with the given buffer size and returns
// its channel. Subscribing to a closed bus returns a closed channel.
func (b *TypedBus[T]) Subscribe(buffer int) <-chan T {
	s := &subscriber[T]{ch: make(chan T, max(buffer, 0)), quit: make(chan struct{})}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.done = true
		close(s.quit)
		close(s.ch)
		return s.ch
	}
	b.subs = append(b.subs, s)
	return s.ch
}

// Unsubscribe removes the subscriber and closes its channel. Publishers
// blocked on it are released.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	var found *subscriber[T]
	for i, s := range b.subs {
		if s.ch == sub {
			found = s
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
	if found != nil {
		found.stop()
	}
}

// Close closes the bus and all subscriber channels.
func (b *TypedBus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()
	for _, s := range subs {
		s.stop()
	}
}
