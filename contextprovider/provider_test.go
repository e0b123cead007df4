// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package contextprovider_test

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/collector/featuregate"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sdkcore/envcontext/contextprovider"
	"github.com/sdkcore/envcontext/contextprovider/contextprovidertest"
	"github.com/sdkcore/envcontext/sdkcontext"
)

const reentrancyCheckGateID = "envcontext.provider.reentrancyCheck"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func defaultSnapshot() sdkcontext.Snapshot {
	return sdkcontext.Snapshot{
		Service:         "shop",
		Env:             "test",
		Version:         "1.0.0",
		TrackingConsent: sdkcontext.TrackingConsentGranted,
	}
}

func randomNetwork() *sdkcontext.NetworkConnectionInfo {
	reachability := []sdkcontext.Reachability{sdkcontext.ReachabilityYes, sdkcontext.ReachabilityMaybe, sdkcontext.ReachabilityNo}
	return &sdkcontext.NetworkConnectionInfo{
		Reachability:        reachability[rand.Intn(len(reachability))],
		AvailableInterfaces: []sdkcontext.Interface{sdkcontext.InterfaceWiFi},
		SupportsIPv4:        rand.Intn(2) == 0,
		SupportsIPv6:        rand.Intn(2) == 0,
	}
}

func randomCarrier() *sdkcontext.CarrierInfo {
	return &sdkcontext.CarrierInfo{
		CarrierName:           fmt.Sprintf("carrier-%d", rand.Intn(100)),
		RadioAccessTechnology: sdkcontext.RadioLTE,
	}
}

func TestProviderScenario(t *testing.T) {
	offset := contextprovidertest.NewPublisherMock[time.Duration](0)
	network := contextprovidertest.NewReaderMock[*sdkcontext.NetworkConnectionInfo](nil)

	p := contextprovider.New(sdkcontext.Snapshot{}, contextprovidertest.NewNopSettings())
	contextprovider.Subscribe(p, sdkcontext.AttrServerTimeOffset, offset)
	contextprovider.Assign(p, sdkcontext.AttrNetworkConnectionInfo, network)

	offset.Set(42 * time.Second)
	got := p.Read()
	assert.Equal(t, 42*time.Second, got.ServerTimeOffset)
	assert.Nil(t, got.NetworkConnectionInfo)
	assert.Nil(t, got.CarrierInfo)

	wifi := &sdkcontext.NetworkConnectionInfo{
		Reachability:        sdkcontext.ReachabilityYes,
		AvailableInterfaces: []sdkcontext.Interface{sdkcontext.InterfaceWiFi},
	}
	network.Set(wifi)
	got = p.Read()
	assert.Equal(t, 42*time.Second, got.ServerTimeOffset)
	assert.Equal(t, wifi, got.NetworkConnectionInfo)
	assert.Nil(t, got.CarrierInfo)

	p.Write(func(s *sdkcontext.Snapshot) {
		s.CarrierInfo = &sdkcontext.CarrierInfo{CarrierName: "carrierX"}
	})
	got = p.Read()
	require.NotNil(t, got.CarrierInfo)
	assert.Equal(t, "carrierX", got.CarrierInfo.CarrierName)
	assert.Equal(t, 42*time.Second, got.ServerTimeOffset)
	assert.Equal(t, wifi, got.NetworkConnectionInfo)
}

func TestPublisherPropagation(t *testing.T) {
	offsetPublisher := contextprovidertest.NewPublisherMock[time.Duration](0)
	networkPublisher := contextprovidertest.NewPublisherMock[*sdkcontext.NetworkConnectionInfo](nil)
	carrierPublisher := contextprovidertest.NewPublisherMock[*sdkcontext.CarrierInfo](nil)

	p := contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
	contextprovider.Subscribe(p, sdkcontext.AttrServerTimeOffset, offsetPublisher)
	contextprovider.Subscribe(p, sdkcontext.AttrNetworkConnectionInfo, networkPublisher)
	contextprovider.Subscribe(p, sdkcontext.AttrCarrierInfo, carrierPublisher)

	offset := -time.Duration(rand.Int63n(int64(time.Hour)))
	network := randomNetwork()
	carrier := randomCarrier()
	offsetPublisher.Set(offset)
	networkPublisher.Set(network)
	carrierPublisher.Set(carrier)

	got := p.Read()
	assert.Equal(t, offset, got.ServerTimeOffset)
	assert.Equal(t, network, got.NetworkConnectionInfo)
	assert.Equal(t, carrier, got.CarrierInfo)
}

func TestReaderPropagation(t *testing.T) {
	offsetReader := contextprovidertest.NewReaderMock[time.Duration](0)
	networkReader := contextprovidertest.NewReaderMock[*sdkcontext.NetworkConnectionInfo](nil)
	carrierReader := contextprovidertest.NewReaderMock[*sdkcontext.CarrierInfo](nil)

	p := contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
	contextprovider.Assign(p, sdkcontext.AttrServerTimeOffset, offsetReader)
	contextprovider.Assign(p, sdkcontext.AttrNetworkConnectionInfo, networkReader)
	contextprovider.Assign(p, sdkcontext.AttrCarrierInfo, carrierReader)
	assert.Zero(t, offsetReader.Reads())

	offset := -time.Duration(rand.Int63n(int64(time.Hour)))
	network := randomNetwork()
	carrier := randomCarrier()
	offsetReader.Set(offset)
	networkReader.Set(network)
	carrierReader.Set(carrier)

	got := p.Read()
	assert.Equal(t, offset, got.ServerTimeOffset)
	assert.Equal(t, network, got.NetworkConnectionInfo)
	assert.Equal(t, carrier, got.CarrierInfo)

	p.Read()
	assert.Equal(t, 2, offsetReader.Reads())
}

func TestReaderFunc(t *testing.T) {
	p := contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
	contextprovider.Assign(p, sdkcontext.AttrIsLowPowerModeEnabled, contextprovider.ReaderFunc[bool](func() bool { return true }))
	assert.True(t, p.Read().IsLowPowerModeEnabled)
}

func TestSubscribeDoesNotReadCurrentValue(t *testing.T) {
	pub := contextprovidertest.NewPublisherMock(10 * time.Second)
	p := contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
	contextprovider.Subscribe(p, sdkcontext.AttrServerTimeOffset, pub)

	assert.Zero(t, p.Read().ServerTimeOffset)
	pub.Set(11 * time.Second)
	assert.Equal(t, 11*time.Second, p.Read().ServerTimeOffset)
}

func TestWriteVisibility(t *testing.T) {
	reader := contextprovidertest.NewReaderMock(sdkcontext.TrackingConsentPending)
	p := contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
	contextprovider.Assign(p, sdkcontext.AttrTrackingConsent, reader)

	p.Write(func(s *sdkcontext.Snapshot) {
		s.Version = "2.0.0"
		s.TrackingConsent = sdkcontext.TrackingConsentNotGranted
		s.SetFeatureAttribute("rum", "pending_stop_session", true)
	})

	got := p.Read()
	assert.Equal(t, "2.0.0", got.Version)
	pending, ok := got.FeatureAttribute("rum", "pending_stop_session")
	assert.True(t, ok)
	assert.Equal(t, true, pending)
	// Pull-bound attributes are always re-pulled.
	assert.Equal(t, sdkcontext.TrackingConsentPending, got.TrackingConsent)
}

func TestWriteOverridesPushedValueUntilNextNotification(t *testing.T) {
	pub := contextprovidertest.NewPublisherMock[*sdkcontext.CarrierInfo](nil)
	p := contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
	contextprovider.Subscribe(p, sdkcontext.AttrCarrierInfo, pub)

	pub.Set(&sdkcontext.CarrierInfo{CarrierName: "pushed"})
	p.Write(func(s *sdkcontext.Snapshot) { s.CarrierInfo = &sdkcontext.CarrierInfo{CarrierName: "written"} })
	assert.Equal(t, "written", p.Read().CarrierInfo.CarrierName)

	pub.Set(&sdkcontext.CarrierInfo{CarrierName: "pushed again"})
	assert.Equal(t, "pushed again", p.Read().CarrierInfo.CarrierName)
}

func TestReadIsIdempotent(t *testing.T) {
	pub := contextprovidertest.NewPublisherMock[*sdkcontext.NetworkConnectionInfo](nil)
	reader := contextprovidertest.NewReaderMock(randomCarrier())
	p := contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
	contextprovider.Subscribe(p, sdkcontext.AttrNetworkConnectionInfo, pub)
	contextprovider.Assign(p, sdkcontext.AttrCarrierInfo, reader)
	pub.Set(randomNetwork())

	first := p.Read()
	second := p.Read()
	assert.Empty(t, cmp.Diff(first, second))
}

func TestReadReturnsIndependentSnapshots(t *testing.T) {
	initial := defaultSnapshot()
	initial.NetworkConnectionInfo = &sdkcontext.NetworkConnectionInfo{Reachability: sdkcontext.ReachabilityYes}
	initial.UserInfo.ExtraInfo = map[string]any{"plan": "pro"}
	p := contextprovider.New(initial, contextprovidertest.NewNopSettings())

	// The provider keeps its own copy of the initial snapshot.
	initial.NetworkConnectionInfo.Reachability = sdkcontext.ReachabilityNo

	first := p.Read()
	first.NetworkConnectionInfo.Reachability = sdkcontext.ReachabilityNo
	first.UserInfo.ExtraInfo["plan"] = "free"

	second := p.Read()
	assert.Equal(t, sdkcontext.ReachabilityYes, second.NetworkConnectionInfo.Reachability)
	assert.Equal(t, "pro", second.UserInfo.ExtraInfo["plan"])

	p.Write(func(s *sdkcontext.Snapshot) {
		s.NetworkConnectionInfo.Reachability = sdkcontext.ReachabilityMaybe
	})
	assert.Equal(t, sdkcontext.ReachabilityYes, second.NetworkConnectionInfo.Reachability)
	assert.Equal(t, sdkcontext.ReachabilityMaybe, p.Read().NetworkConnectionInfo.Reachability)
}

func TestDoubleBindingPanics(t *testing.T) {
	tests := []struct {
		name string
		bind func(p *contextprovider.Provider)
	}{
		{
			name: "push then push",
			bind: func(p *contextprovider.Provider) {
				contextprovider.Subscribe(p, sdkcontext.AttrServerTimeOffset, contextprovidertest.NewPublisherMock[time.Duration](0))
				contextprovider.Subscribe(p, sdkcontext.AttrServerTimeOffset, contextprovidertest.NewPublisherMock[time.Duration](0))
			},
		},
		{
			name: "pull then pull",
			bind: func(p *contextprovider.Provider) {
				contextprovider.Assign(p, sdkcontext.AttrServerTimeOffset, contextprovidertest.NewReaderMock[time.Duration](0))
				contextprovider.Assign(p, sdkcontext.AttrServerTimeOffset, contextprovidertest.NewReaderMock[time.Duration](0))
			},
		},
		{
			name: "push then pull",
			bind: func(p *contextprovider.Provider) {
				contextprovider.Subscribe(p, sdkcontext.AttrServerTimeOffset, contextprovidertest.NewPublisherMock[time.Duration](0))
				contextprovider.Assign(p, sdkcontext.AttrServerTimeOffset, contextprovidertest.NewReaderMock[time.Duration](0))
			},
		},
		{
			name: "pull then push",
			bind: func(p *contextprovider.Provider) {
				contextprovider.Assign(p, sdkcontext.AttrServerTimeOffset, contextprovidertest.NewReaderMock[time.Duration](0))
				contextprovider.Subscribe(p, sdkcontext.AttrServerTimeOffset, contextprovidertest.NewPublisherMock[time.Duration](0))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
			assert.Panics(t, func() { tt.bind(p) })
		})
	}
}

func TestDoubleBindingDoesNotAttachSecondPublisher(t *testing.T) {
	first := contextprovidertest.NewPublisherMock[time.Duration](0)
	second := contextprovidertest.NewPublisherMock[time.Duration](0)
	p := contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
	contextprovider.Subscribe(p, sdkcontext.AttrServerTimeOffset, first)
	assert.Panics(t, func() { contextprovider.Subscribe(p, sdkcontext.AttrServerTimeOffset, second) })
	assert.True(t, first.HasReceiver())
	assert.False(t, second.HasReceiver())
}

func TestRefusedPublisherIsNotBound(t *testing.T) {
	pub := contextprovidertest.NewPublisherMock[time.Duration](0)
	owner := contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
	contextprovider.Subscribe(owner, sdkcontext.AttrServerTimeOffset, pub)

	other := contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
	assert.Panics(t, func() { contextprovider.Subscribe(other, sdkcontext.AttrServerTimeOffset, pub) })
	require.NoError(t, other.Shutdown(context.Background()))

	assert.True(t, pub.HasReceiver())
	pub.Set(time.Second)
	assert.Equal(t, time.Second, owner.Read().ServerTimeOffset)

	// The attribute is free again after the refused binding.
	third := contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
	assert.Panics(t, func() { contextprovider.Subscribe(third, sdkcontext.AttrServerTimeOffset, pub) })
	contextprovider.Assign(third, sdkcontext.AttrServerTimeOffset, contextprovidertest.NewReaderMock(3*time.Second))
	assert.Equal(t, 3*time.Second, third.Read().ServerTimeOffset)
}

func TestBindingAfterConfigurationPanics(t *testing.T) {
	p := contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
	p.Read()
	assert.Panics(t, func() {
		contextprovider.Subscribe(p, sdkcontext.AttrServerTimeOffset, contextprovidertest.NewPublisherMock[time.Duration](0))
	})

	p = contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
	p.Write(func(*sdkcontext.Snapshot) {})
	assert.Panics(t, func() {
		contextprovider.Assign(p, sdkcontext.AttrServerTimeOffset, contextprovidertest.NewReaderMock[time.Duration](0))
	})
}

func TestReentrantCallsPanic(t *testing.T) {
	pub := contextprovidertest.NewPublisherMock[time.Duration](0)
	p := contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
	contextprovider.Subscribe(p, sdkcontext.AttrServerTimeOffset, pub)

	assert.Panics(t, func() {
		p.Write(func(*sdkcontext.Snapshot) { p.Read() })
	}, "read from write")
	assert.Panics(t, func() {
		p.Write(func(*sdkcontext.Snapshot) { p.Write(func(*sdkcontext.Snapshot) {}) })
	}, "write from write")
	assert.Panics(t, func() {
		p.Write(func(*sdkcontext.Snapshot) { pub.Set(time.Second) })
	}, "notification from write")
	assert.Panics(t, func() {
		p.Write(func(*sdkcontext.Snapshot) { _ = p.Shutdown(context.Background()) })
	}, "shutdown from write")

	// The lock is released after a contract violation.
	pub.Set(2 * time.Second)
	assert.Equal(t, 2*time.Second, p.Read().ServerTimeOffset)
}

func TestReentrantReaderPanics(t *testing.T) {
	p := contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
	contextprovider.Assign(p, sdkcontext.AttrIsLowPowerModeEnabled, contextprovider.ReaderFunc[bool](func() bool {
		p.Read()
		return true
	}))
	assert.Panics(t, func() { p.Read() })
}

func TestReentrancyCheckDisabled(t *testing.T) {
	require.NoError(t, featuregate.GlobalRegistry().Set(reentrancyCheckGateID, false))
	defer func() {
		require.NoError(t, featuregate.GlobalRegistry().Set(reentrancyCheckGateID, true))
	}()

	p := contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
	p.Write(func(s *sdkcontext.Snapshot) { s.Version = "3.0.0" })
	assert.Equal(t, "3.0.0", p.Read().Version)
}

func TestShutdown(t *testing.T) {
	pub := contextprovidertest.NewPublisherMock[time.Duration](0)
	p := contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
	contextprovider.Subscribe(p, sdkcontext.AttrServerTimeOffset, pub)
	pub.Set(time.Second)

	require.NoError(t, p.Shutdown(context.Background()))
	assert.False(t, pub.HasReceiver())
	pub.Set(time.Minute)
	assert.Equal(t, time.Second, p.Read().ServerTimeOffset)

	// Shutdown is idempotent.
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestBindingIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	set := contextprovidertest.NewNopSettings()
	set.Logger = zap.New(core)

	p := contextprovider.New(defaultSnapshot(), set)
	contextprovider.Assign(p, sdkcontext.AttrCarrierInfo, contextprovidertest.NewReaderMock[*sdkcontext.CarrierInfo](nil))

	entries := logs.FilterMessage("Bound context source").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "carrier_info", fields["attribute"])
	assert.Equal(t, "pull", fields["kind"])
	assert.Equal(t, "test", fields["feature"])
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	set := contextprovidertest.NewNopSettings()
	set.Name = "rum"
	set.MetricsRegisterer = reg

	pub := contextprovidertest.NewPublisherMock[time.Duration](0)
	p := contextprovider.New(defaultSnapshot(), set)
	contextprovider.Subscribe(p, sdkcontext.AttrServerTimeOffset, pub)
	contextprovider.Assign(p, sdkcontext.AttrCarrierInfo, contextprovidertest.NewReaderMock[*sdkcontext.CarrierInfo](nil))

	pub.Set(time.Second)
	pub.Set(2 * time.Second)
	p.Read()
	p.Write(func(*sdkcontext.Snapshot) {})

	expected := `
# HELP envcontext_provider_bindings Number of attributes bound to a source, by kind.
# TYPE envcontext_provider_bindings gauge
envcontext_provider_bindings{feature="rum",kind="pull"} 1
envcontext_provider_bindings{feature="rum",kind="push"} 1
# HELP envcontext_provider_pushes_total Number of values received from push sources.
# TYPE envcontext_provider_pushes_total counter
envcontext_provider_pushes_total{attribute="server_time_offset",feature="rum"} 2
# HELP envcontext_provider_reads_total Number of merged snapshots produced by Read.
# TYPE envcontext_provider_reads_total counter
envcontext_provider_reads_total{feature="rum"} 1
# HELP envcontext_provider_writes_total Number of mutations applied by Write.
# TYPE envcontext_provider_writes_total counter
envcontext_provider_writes_total{feature="rum"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"envcontext_provider_bindings",
		"envcontext_provider_pushes_total",
		"envcontext_provider_reads_total",
		"envcontext_provider_writes_total",
	))

	// A second provider of the same feature shares the registered collectors.
	other := contextprovider.New(defaultSnapshot(), set)
	other.Read()
	expected = `
# HELP envcontext_provider_reads_total Number of merged snapshots produced by Read.
# TYPE envcontext_provider_reads_total counter
envcontext_provider_reads_total{feature="rum"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "envcontext_provider_reads_total"))
}

func TestThreadSafety(t *testing.T) {
	offsetPublisher := contextprovidertest.NewPublisherMock[time.Duration](0)
	networkPublisher := contextprovidertest.NewPublisherMock[*sdkcontext.NetworkConnectionInfo](nil)
	carrierPublisher := contextprovidertest.NewPublisherMock[*sdkcontext.CarrierInfo](nil)

	consentReader := contextprovidertest.NewReaderMock(sdkcontext.TrackingConsentGranted)
	batteryReader := contextprovidertest.NewReaderMock[*sdkcontext.BatteryStatus](nil)
	lowPowerReader := contextprovidertest.NewReaderMock(false)

	p := contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
	contextprovider.Subscribe(p, sdkcontext.AttrServerTimeOffset, offsetPublisher)
	contextprovider.Subscribe(p, sdkcontext.AttrNetworkConnectionInfo, networkPublisher)
	contextprovider.Subscribe(p, sdkcontext.AttrCarrierInfo, carrierPublisher)
	contextprovider.Assign(p, sdkcontext.AttrTrackingConsent, consentReader)
	contextprovider.Assign(p, sdkcontext.AttrBatteryStatus, batteryReader)
	contextprovider.Assign(p, sdkcontext.AttrIsLowPowerModeEnabled, lowPowerReader)

	// Every write sets Service and Env to the same value, a torn snapshot would not.
	var written sync.Map
	writeBoth := func(v string) {
		written.Store(v, struct{}{})
		p.Write(func(s *sdkcontext.Snapshot) {
			s.Service = v
			s.Env = v
		})
	}
	writeBoth("initial")

	contextprovidertest.CallConcurrently(1_000,
		func() { consentReader.Set(sdkcontext.TrackingConsentPending) },
		func() { batteryReader.Set(&sdkcontext.BatteryStatus{State: sdkcontext.BatteryCharging, Level: rand.Float64()}) },
		func() { lowPowerReader.Set(rand.Intn(2) == 0) },
		func() { offsetPublisher.Set(time.Duration(rand.Int63n(int64(time.Hour)))) },
		func() { networkPublisher.Set(randomNetwork()) },
		func() { carrierPublisher.Set(randomCarrier()) },
		func() {
			s := p.Read()
			assert.Equal(t, s.Service, s.Env)
			_, ok := written.Load(s.Service)
			assert.True(t, ok, "unexpected service %q", s.Service)
		},
		func() { writeBoth(fmt.Sprint(rand.Int())) },
	)
}

func TestConcurrentWritesAreNotLost(t *testing.T) {
	p := contextprovider.New(defaultSnapshot(), contextprovidertest.NewNopSettings())
	p.Write(func(s *sdkcontext.Snapshot) { s.SetFeatureAttribute("test", "count", 0) })

	contextprovidertest.CallConcurrently(500,
		func() {
			p.Write(func(s *sdkcontext.Snapshot) {
				v, _ := s.FeatureAttribute("test", "count")
				s.SetFeatureAttribute("test", "count", v.(int)+1)
			})
		},
		func() { p.Read() },
	)

	v, ok := p.Read().FeatureAttribute("test", "count")
	require.True(t, ok)
	assert.Equal(t, 500, v)
}
