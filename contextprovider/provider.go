// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package contextprovider // import "github.com/sdkcore/envcontext/contextprovider"

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/sdkcore/envcontext/sdkcontext"
)

// Settings configures the telemetry of a Provider.
type Settings struct {
	// Name identifies the owning feature in logs and metrics.
	Name string
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// MetricsRegisterer is optional. Metrics are not exported when nil.
	MetricsRegisterer prometheus.Registerer
}

// Provider owns the stored Snapshot of a feature and the registry of bound sources.
type Provider struct {
	name    string
	logger  *zap.Logger
	metrics *providerMetrics

	// mu guards stored, bindings, pulls and stopped.
	mu      sync.Mutex
	stored  sdkcontext.Snapshot
	stopped bool

	bindings map[string]*binding
	// pulls keeps the pull bindings in registration order.
	pulls []*binding

	// owner is the id of the goroutine holding mu, tracked while the reentrancy check
	// gate is enabled.
	owner       atomic.Int64
	operational atomic.Bool
}

// New creates a Provider storing a copy of initial, which must hold a baseline value for
// every attribute.
func New(initial sdkcontext.Snapshot, set Settings) *Provider {
	logger := set.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if set.Name != "" {
		logger = logger.With(zap.String(featureLabel, set.Name))
	}
	return &Provider{
		name:     set.Name,
		logger:   logger,
		metrics:  newProviderMetrics(set.Name, set.MetricsRegisterer, logger),
		stored:   initial.Clone(),
		bindings: map[string]*binding{},
	}
}

// Subscribe binds attr to a push source. The receiver is attached immediately; the current
// value of pub is not read, the stored value only changes on the next notification.
//
// Subscribe must be called during the configuration phase. It panics if attr is already
// bound or if the configuration phase has ended.
func Subscribe[T any](p *Provider, attr sdkcontext.Attribute[T], pub Publisher[T]) {
	b := &binding{
		attribute: attr.Name(),
		kind:      pushBinding,
		source:    pub,
		cancel:    pub.Cancel,
	}
	p.register(b)
	attached := false
	defer func() {
		// A Publisher refusing the receiver must not be cancelled on Shutdown.
		if !attached {
			p.unregister(b)
		}
	}()

	pushes := p.metrics.pushes.WithLabelValues(attr.Name())
	pub.Publish(func(v T) {
		p.lock()
		defer p.unlock()
		if p.stopped {
			return
		}
		attr.Set(&p.stored, v)
		pushes.Inc()
	})
	attached = true
}

// Assign binds attr to a pull source. The reader is not queried until the next Read, and
// is queried again on every Read.
//
// Assign must be called during the configuration phase. It panics if attr is already
// bound or if the configuration phase has ended.
func Assign[T any](p *Provider, attr sdkcontext.Attribute[T], reader Reader[T]) {
	p.register(&binding{
		attribute: attr.Name(),
		kind:      pullBinding,
		source:    reader,
		pull: func(s *sdkcontext.Snapshot) {
			attr.Set(s, reader.Read())
		},
	})
}

func (p *Provider) register(b *binding) {
	if p.operational.Load() {
		panic(fmt.Sprintf("contextprovider: cannot bind attribute %q after the provider started serving reads and writes", b.attribute))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.bindings[b.attribute]; ok {
		panic(fmt.Sprintf("contextprovider: attribute %q is already bound to a %s source", b.attribute, existing.kind))
	}
	p.bindings[b.attribute] = b
	if b.kind == pullBinding {
		p.pulls = append(p.pulls, b)
	}

	p.metrics.bindings.WithLabelValues(b.kind.String()).Inc()
	p.logger.Debug("Bound context source",
		zap.String("attribute", b.attribute),
		zap.Stringer("kind", b.kind))
}

func (p *Provider) unregister(b *binding) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bindings[b.attribute] != b {
		return
	}
	delete(p.bindings, b.attribute)
	p.metrics.bindings.WithLabelValues(b.kind.String()).Dec()
}

// Read returns the stored Snapshot merged with a fresh value of every pull source. Pulled
// values are not stored. The returned Snapshot shares no memory with the Provider.
func (p *Provider) Read() sdkcontext.Snapshot {
	p.enterOperational()
	p.lock()
	defer p.unlock()

	merged := p.stored
	for _, b := range p.pulls {
		b.pull(&merged)
	}
	p.metrics.reads.Inc()
	return merged.Clone()
}

// Write applies mutate to the stored Snapshot atomically. mutate must only modify the
// Snapshot it is given and must not call the Provider.
func (p *Provider) Write(mutate func(*sdkcontext.Snapshot)) {
	p.enterOperational()
	p.lock()
	defer p.unlock()

	next := p.stored.Clone()
	mutate(&next)
	p.stored = next
	p.metrics.writes.Inc()
}

// Shutdown detaches the Provider from every bound Publisher. Notifications still in
// flight are dropped.
func (p *Provider) Shutdown(context.Context) error {
	p.lock()
	if p.stopped {
		p.unlock()
		return nil
	}
	p.stopped = true
	var cancels []func()
	for _, b := range p.bindings {
		if b.kind == pushBinding {
			cancels = append(cancels, b.cancel)
		}
	}
	p.unlock()

	// Publishers may hold their own lock while notifying, cancel outside of mu.
	for _, cancel := range cancels {
		cancel()
	}
	p.logger.Debug("Context provider shut down", zap.Int("publishers", len(cancels)))
	return nil
}

func (p *Provider) enterOperational() {
	if !p.operational.Load() {
		p.operational.Store(true)
	}
}

func (p *Provider) lock() {
	if !reentrancyCheckGate.IsEnabled() {
		p.mu.Lock()
		return
	}
	id := goroutineID()
	if p.owner.Load() == id {
		panic("contextprovider: reentrant call, the provider must not be used from within a Write mutation, a Reader or a synchronous Publisher notification")
	}
	p.mu.Lock()
	p.owner.Store(id)
}

func (p *Provider) unlock() {
	p.owner.Store(0)
	p.mu.Unlock()
}
