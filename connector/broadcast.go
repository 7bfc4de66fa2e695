package connector

import (
	"errors"
	"sync"
)

// Broadcast is a [Writer] that copies every item to all its outputs.
// A slow output slows down all the others.
type Broadcast[T any] struct {
	mux     sync.RWMutex
	outputs []Writer[T]
}

func NewBroadcast[T any](outputs ...Writer[T]) *Broadcast[T] {
	return &Broadcast[T]{
		outputs: outputs,
	}
}

// Add registers a new output.
func (b *Broadcast[T]) Add(output Writer[T]) {
	b.mux.Lock()
	b.outputs = append(b.outputs, output)
	b.mux.Unlock()
}

// Len returns the number of outputs.
func (b *Broadcast[T]) Len() int {
	b.mux.RLock()
	defer b.mux.RUnlock()

	return len(b.outputs)
}

func (b *Broadcast[T]) Write(item T) error {
	b.mux.RLock()
	defer b.mux.RUnlock()

	var errs []error
	for _, out := range b.outputs {
		if err := out.Write(item); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Close closes all the outputs.
func (b *Broadcast[T]) Close() {
	b.mux.RLock()
	defer b.mux.RUnlock()

	for _, out := range b.outputs {
		out.Close()
	}
}
