package broadcast

import (
	"context"
	"sync"
)

// Message wraps data of type T for type-safe broadcasting.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages from a Broadcaster.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns the channel messages are delivered on. The channel is
	// closed once the subscriber or its broadcaster is closed.
	Receive(ctx context.Context) <-chan Message[T]

	// Close detaches the subscriber and closes its channel. Idempotent.
	Close() error
}

// Broadcaster sends messages to multiple subscribers without blocking on
// slow consumers.
type Broadcaster[T any] interface {
	// Subscribe registers a subscriber whose lifetime is bound to ctx.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast hands msg to every active subscriber.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close shuts the broadcaster down and closes all subscribers.
	Close() error
}

// Overflow decides what happens when a subscriber's buffer is full.
type Overflow int

const (
	// DropNewest discards the incoming message and keeps the buffered ones.
	DropNewest Overflow = iota
	// DropOldest discards the oldest buffered message to make room, so a
	// lagging subscriber always ends up holding the most recent value.
	DropOldest
)

type subscriber[T any] struct {
	ch       chan Message[T]
	done     chan struct{}
	overflow Overflow
	detach   func()
	closed   bool
	mu       sync.Mutex
}

func newSubscriber[T any](bufferSize int, overflow Overflow) *subscriber[T] {
	return &subscriber[T]{
		ch:       make(chan Message[T], bufferSize),
		done:     make(chan struct{}),
		overflow: overflow,
	}
}

func (s *subscriber[T]) Receive(context.Context) <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	if s.shutdown() && s.detach != nil {
		s.detach()
	}
	return nil
}

// shutdown closes the channel and reports whether this call did it.
func (s *subscriber[T]) shutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.closed = true
	close(s.ch)
	close(s.done)
	return true
}

// send reports whether msg ended up in the buffer.
func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	for {
		select {
		case s.ch <- msg:
			return true
		default:
		}

		if s.overflow == DropNewest {
			return false
		}

		// Only senders hold the lock, so after draining one slot the
		// next attempt can only fail if the consumer raced us to it.
		select {
		case <-s.ch:
		default:
		}
	}
}
