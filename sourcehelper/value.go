// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package sourcehelper // import "github.com/sdkcore/envcontext/sourcehelper"

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/sdkcore/envcontext/contextprovider"
)

// ValuePublisher is a push source holding a value set by its owner.
type ValuePublisher[T any] struct {
	// mu is held while the receiver is notified so receivers observe changes in order.
	mu       sync.Mutex
	value    T
	receiver func(T)
}

var _ contextprovider.Publisher[bool] = (*ValuePublisher[bool])(nil)

// NewValuePublisher returns a ValuePublisher holding initial.
func NewValuePublisher[T any](initial T) *ValuePublisher[T] {
	return &ValuePublisher[T]{value: initial}
}

// Current returns the last value set.
func (p *ValuePublisher[T]) Current() T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Publish attaches the receiver. It panics if a receiver is already attached.
func (p *ValuePublisher[T]) Publish(receiver func(T)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.receiver != nil {
		panic("sourcehelper: publisher already has a receiver")
	}
	p.receiver = receiver
}

// Cancel detaches the receiver.
func (p *ValuePublisher[T]) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.receiver = nil
}

// Set stores v and notifies the receiver. The receiver must not call back into p.
func (p *ValuePublisher[T]) Set(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = v
	if p.receiver != nil {
		p.receiver(v)
	}
}

// ValueReader is a pull source returning the last value stored by its owner. Read and Set
// never block each other.
type ValueReader[T any] struct {
	value *atomic.Pointer[T]
}

var _ contextprovider.Reader[bool] = (*ValueReader[bool])(nil)

// NewValueReader returns a ValueReader holding initial.
func NewValueReader[T any](initial T) *ValueReader[T] {
	return &ValueReader[T]{value: atomic.NewPointer(&initial)}
}

// Read returns the last value set.
func (r *ValueReader[T]) Read() T {
	return *r.value.Load()
}

// Set replaces the value returned by the next Read.
func (r *ValueReader[T]) Set(v T) {
	r.value.Store(&v)
}
