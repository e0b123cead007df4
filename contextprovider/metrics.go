// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package contextprovider // import "github.com/sdkcore/envcontext/contextprovider"

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	metricsNamespace = "envcontext"
	metricsSubsystem = "provider"
	featureLabel     = "feature"
)

type providerMetrics struct {
	reads    prometheus.Counter
	writes   prometheus.Counter
	pushes   *prometheus.CounterVec
	bindings *prometheus.GaugeVec
}

func newProviderMetrics(feature string, reg prometheus.Registerer, logger *zap.Logger) *providerMetrics {
	labels := prometheus.Labels{featureLabel: feature}
	m := &providerMetrics{
		reads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Subsystem:   metricsSubsystem,
			Name:        "reads_total",
			Help:        "Number of merged snapshots produced by Read.",
			ConstLabels: labels,
		}),
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Subsystem:   metricsSubsystem,
			Name:        "writes_total",
			Help:        "Number of mutations applied by Write.",
			ConstLabels: labels,
		}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Subsystem:   metricsSubsystem,
			Name:        "pushes_total",
			Help:        "Number of values received from push sources.",
			ConstLabels: labels,
		}, []string{"attribute"}),
		bindings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Subsystem:   metricsSubsystem,
			Name:        "bindings",
			Help:        "Number of attributes bound to a source, by kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
	}
	if reg == nil {
		return m
	}
	m.reads = register(reg, m.reads, logger)
	m.writes = register(reg, m.writes, logger)
	m.pushes = register(reg, m.pushes, logger)
	m.bindings = register(reg, m.bindings, logger)
	return m
}

// register registers c, reusing the collector already registered under the same
// descriptor so several providers of the same feature can share a registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C, logger *zap.Logger) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	logger.Warn("Failed to register context provider metric", zap.Error(err))
	return c
}
