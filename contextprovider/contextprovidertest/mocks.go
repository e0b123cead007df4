// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package contextprovidertest // import "github.com/sdkcore/envcontext/contextprovider/contextprovidertest"

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sdkcore/envcontext/contextprovider"
)

// PublisherMock is a contextprovider.Publisher whose value is set by the test. Set
// notifies the receiver synchronously.
type PublisherMock[T any] struct {
	mu       sync.Mutex
	value    T
	receiver func(T)
}

var _ contextprovider.Publisher[int] = (*PublisherMock[int])(nil)

// NewPublisherMock returns a PublisherMock holding initial.
func NewPublisherMock[T any](initial T) *PublisherMock[T] {
	return &PublisherMock[T]{value: initial}
}

func (m *PublisherMock[T]) Current() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

func (m *PublisherMock[T]) Publish(receiver func(T)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.receiver != nil {
		panic("contextprovidertest: publisher already has a receiver")
	}
	m.receiver = receiver
}

func (m *PublisherMock[T]) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receiver = nil
}

// Set changes the value and notifies the receiver, if any.
func (m *PublisherMock[T]) Set(v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = v
	if m.receiver != nil {
		m.receiver(v)
	}
}

// HasReceiver reports whether a receiver is attached.
func (m *PublisherMock[T]) HasReceiver() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.receiver != nil
}

// ReaderMock is a contextprovider.Reader whose value is set by the test.
type ReaderMock[T any] struct {
	mu    sync.Mutex
	value T
	reads int
}

var _ contextprovider.Reader[int] = (*ReaderMock[int])(nil)

// NewReaderMock returns a ReaderMock holding initial.
func NewReaderMock[T any](initial T) *ReaderMock[T] {
	return &ReaderMock[T]{value: initial}
}

func (m *ReaderMock[T]) Read() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	return m.value
}

// Set changes the value returned by the next Read.
func (m *ReaderMock[T]) Set(v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = v
}

// Reads returns how many times Read was called.
func (m *ReaderMock[T]) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// NewNopSettings returns Settings with a no-op logger and no metrics registry.
func NewNopSettings() contextprovider.Settings {
	return contextprovider.Settings{
		Name:   "test",
		Logger: zap.NewNop(),
	}
}
