// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package contextprovider // import "github.com/sdkcore/envcontext/contextprovider"

// Publisher is a push source: it delivers every change of its value to a single receiver.
type Publisher[T any] interface {
	// Current returns the value known to the publisher.
	Current() T
	// Publish attaches the receiver. The receiver is called once per change, in the order
	// the changes occurred, from any goroutine. Implementations must panic if a receiver
	// is already attached.
	Publish(receiver func(T))
	// Cancel detaches the receiver.
	Cancel()
}

// Reader is a pull source. Read must be cheap, free of side effects and safe to call
// concurrently; it is called while the Provider lock is held.
type Reader[T any] interface {
	Read() T
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc[T any] func() T

// Read calls f().
func (f ReaderFunc[T]) Read() T {
	return f()
}
