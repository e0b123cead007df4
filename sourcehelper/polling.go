// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package sourcehelper // import "github.com/sdkcore/envcontext/sourcehelper"

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

// Settings holds the telemetry of a source.
type Settings struct {
	Logger *zap.Logger
}

// PollFunc returns the current value of a source.
type PollFunc[T any] func(ctx context.Context) (T, error)

// PollingOption configures a PollingPublisher.
type PollingOption[T any] func(*PollingPublisher[T])

// WithEqual overrides how polled values are compared. Values are compared with cmp.Equal
// by default.
func WithEqual[T any](equal func(a, b T) bool) PollingOption[T] {
	return func(p *PollingPublisher[T]) {
		p.equal = equal
	}
}

// PollingPublisher is a push source that polls a PollFunc on an interval and publishes
// the value whenever it changed.
type PollingPublisher[T any] struct {
	*ValuePublisher[T]

	logger   *zap.Logger
	interval time.Duration
	poll     PollFunc[T]
	equal    func(a, b T) bool

	// pollMu serializes polls so a value is never published out of order.
	pollMu sync.Mutex

	// lifecycleMu guards cancel and stopped.
	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	stopped     bool
	done        chan struct{}
}

// NewPollingPublisher creates a PollingPublisher holding initial until the first poll.
func NewPollingPublisher[T any](set Settings, initial T, interval time.Duration, poll PollFunc[T], opts ...PollingOption[T]) (*PollingPublisher[T], error) {
	if interval <= 0 {
		return nil, errors.New("poll interval must be positive")
	}
	if poll == nil {
		return nil, errors.New("nil poll function")
	}
	logger := set.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &PollingPublisher[T]{
		ValuePublisher: NewValuePublisher(initial),
		logger:         logger,
		interval:       interval,
		poll:           poll,
		equal:          func(a, b T) bool { return cmp.Equal(a, b) },
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Poll polls the source once and publishes the value if it changed. It reports whether
// a value was published.
func (p *PollingPublisher[T]) Poll(ctx context.Context) (bool, error) {
	p.pollMu.Lock()
	defer p.pollMu.Unlock()

	v, err := p.poll(ctx)
	if err != nil {
		return false, err
	}
	if p.equal(p.Current(), v) {
		return false, nil
	}
	p.Set(v)
	return true, nil
}

// Start polls immediately, then on every interval until Shutdown is called. Start is a
// no-op once the publisher was started or shut down.
func (p *PollingPublisher[T]) Start(context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()
	if p.stopped || p.cancel != nil {
		return nil
	}
	// The polling loop outlives the Start context.
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.run(ctx)
	return nil
}

func (p *PollingPublisher[T]) run(ctx context.Context) {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		if _, err := p.Poll(ctx); err != nil && ctx.Err() == nil {
			p.logger.Warn("Failed to poll context source, keeping the previous value", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Shutdown stops polling and waits for an in-flight poll to return.
func (p *PollingPublisher[T]) Shutdown(ctx context.Context) error {
	p.lifecycleMu.Lock()
	if p.stopped {
		p.lifecycleMu.Unlock()
		return nil
	}
	p.stopped = true
	cancel := p.cancel
	p.lifecycleMu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
