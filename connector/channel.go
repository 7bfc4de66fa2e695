package connector

import "sync"

// Channel implements a [Connector] using a buffered channel.
type Channel[T any] struct {
	buffer chan T

	done      chan struct{}
	closeOnce sync.Once
}

// NewChannel creates a new [Channel] with the given capacity.
func NewChannel[T any](size int) *Channel[T] {
	return &Channel[T]{
		buffer: make(chan T, size),
		done:   make(chan struct{}),
	}
}

func (c *Channel[T]) Write(item T) error {
	// Closed wins over free buffer space
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.buffer <- item:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

func (c *Channel[T]) Read() (T, error) {
	// Try to receive without blocking
	select {
	case item := <-c.buffer:
		return item, nil
	default:
	}

	select {
	case item := <-c.buffer:
		return item, nil

	case <-c.done:
		// Drain what was written before closing
		select {
		case item := <-c.buffer:
			return item, nil
		default:
			var zero T
			return zero, ErrClosed
		}
	}
}

// Len returns the number of buffered items.
func (c *Channel[T]) Len() int {
	return len(c.buffer)
}

// Close closes the [Channel] connector.
func (c *Channel[T]) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
