// Package channel provides a bounded multi-producer channel whose send side
// can be closed while producers are blocked on it.
//
// Closing never closes the underlying Go channel, so a late Send returns
// ErrClosed instead of panicking, and the receiver can still drain every
// item that was accepted before Close.
package channel

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Send after Close, and by Recv once the channel is
// closed and empty.
var ErrClosed = errors.New("channel: closed")

// Channel is a bounded FIFO queue safe for concurrent senders.
type Channel[T any] struct {
	items chan T
	done  chan struct{}
	once  sync.Once
}

// New returns a channel buffering up to capacity items.
func New[T any](capacity int) *Channel[T] {
	return &Channel[T]{
		items: make(chan T, max(capacity, 1)),
		done:  make(chan struct{}),
	}
}

// Send enqueues v, blocking while the channel is full. It fails with
// ErrClosed once Close was called, or with the context error. A Send that
// returns ErrClosed may still have enqueued v.
func (c *Channel[T]) Send(ctx context.Context, v T) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.items <- v:
		// Close may have raced the send. The receiver might already be gone.
		if c.Closed() {
			return ErrClosed
		}
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv blocks until an item is available. After Close it keeps returning
// buffered items and then ErrClosed.
func (c *Channel[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	select {
	case v := <-c.items:
		return v, nil
	case <-c.done:
		select {
		case v := <-c.items:
			return v, nil
		default:
			return zero, ErrClosed
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Drain appends every item available right now to dst without blocking.
func (c *Channel[T]) Drain(dst []T) []T {
	for {
		select {
		case v := <-c.items:
			dst = append(dst, v)
		default:
			return dst
		}
	}
}

// Close closes the send side. It is idempotent.
func (c *Channel[T]) Close() {
	c.once.Do(func() { close(c.done) })
}

// Closed reports whether Close was called.
func (c *Channel[T]) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Done is closed when the send side closes.
func (c *Channel[T]) Done() <-chan struct{} { return c.done }

// Len returns the number of buffered items.
func (c *Channel[T]) Len() int { return len(c.items) }

// Cap returns the buffer capacity.
func (c *Channel[T]) Cap() int { return cap(c.items) }
