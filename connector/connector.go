// Package connector links the stages of a pipeline.
package connector

import "errors"

var ErrClosed = errors.New("connector: closed")

// Writer is the producer side of a connector.
type Writer[T any] interface {
	// Write blocks until the item is accepted.
	// It returns [ErrClosed] once the connector is closed.
	Write(item T) error
	Close()
}

// Reader is the consumer side of a connector.
type Reader[T any] interface {
	// Read blocks until an item is available.
	// Items written before Close are still returned,
	// then [ErrClosed] is returned.
	Read() (T, error)
}

type Connector[T any] interface {
	Writer[T]
	Reader[T]
}
