// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package sdkcontext // import "github.com/sdkcore/envcontext/sdkcontext"

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Snapshot holds the current value of every tracked environment attribute.
type Snapshot struct {
	Service    string
	Env        string
	Version    string
	Source     string
	SDKVersion string
	Site       string
	Device     DeviceInfo
	LaunchTime LaunchTime

	// ServerTimeOffset is the difference between the server time and the device time.
	ServerTimeOffset time.Duration
	// NetworkConnectionInfo is nil until the network state is known.
	NetworkConnectionInfo *NetworkConnectionInfo
	// CarrierInfo is nil until the carrier is known, or when there is none.
	CarrierInfo *CarrierInfo
	// BatteryStatus is nil until the battery state is known.
	BatteryStatus         *BatteryStatus
	IsLowPowerModeEnabled bool
	TrackingConsent       TrackingConsent
	UserInfo              UserInfo

	FeaturesAttributes map[string]FeatureBaggage
}

// Clone returns a deep copy of the Snapshot, sharing no pointer or map with the receiver.
func (s Snapshot) Clone() Snapshot {
	c := s
	c.NetworkConnectionInfo = s.NetworkConnectionInfo.clone()
	c.CarrierInfo = s.CarrierInfo.clone()
	c.BatteryStatus = s.BatteryStatus.clone()
	c.UserInfo = s.UserInfo.clone()
	if s.FeaturesAttributes != nil {
		c.FeaturesAttributes = make(map[string]FeatureBaggage, len(s.FeaturesAttributes))
		for feature, baggage := range s.FeaturesAttributes {
			c.FeaturesAttributes[feature] = cloneAnyMap(baggage)
		}
	}
	return c
}

// ServerTime converts a device time to the server time using the ServerTimeOffset.
func (s Snapshot) ServerTime(local time.Time) time.Time {
	return local.Add(s.ServerTimeOffset)
}

// SetFeatureAttribute records a fact for the given feature. It is meant to be called from
// within a provider Write.
func (s *Snapshot) SetFeatureAttribute(feature, key string, value any) {
	if s.FeaturesAttributes == nil {
		s.FeaturesAttributes = map[string]FeatureBaggage{}
	}
	baggage := s.FeaturesAttributes[feature]
	if baggage == nil {
		baggage = FeatureBaggage{}
		s.FeaturesAttributes[feature] = baggage
	}
	baggage[key] = value
}

// FeatureAttribute returns the fact recorded for the given feature and key.
func (s Snapshot) FeatureAttribute(feature, key string) (any, bool) {
	v, ok := s.FeaturesAttributes[feature][key]
	return v, ok
}

// Attributes flattens the Snapshot into attributes that can be embedded into a record.
// Unknown values are omitted.
func (s Snapshot) Attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("service", s.Service),
		attribute.String("env", s.Env),
		attribute.String("version", s.Version),
		attribute.String("source", s.Source),
		attribute.String("sdk.version", s.SDKVersion),
		attribute.Int64("server.time_offset_ms", s.ServerTimeOffset.Milliseconds()),
		attribute.String("tracking_consent", string(s.TrackingConsent)),
		attribute.Bool("power.low_power_mode", s.IsLowPowerModeEnabled),
	}
	if s.Device.Model != "" {
		attrs = append(attrs, attribute.String("device.model", s.Device.Model))
	}
	if s.Device.OSName != "" {
		attrs = append(attrs,
			attribute.String("os.name", s.Device.OSName),
			attribute.String("os.version", s.Device.OSVersion),
		)
	}
	if n := s.NetworkConnectionInfo; n != nil {
		ifaces := make([]string, 0, len(n.AvailableInterfaces))
		for _, i := range n.AvailableInterfaces {
			ifaces = append(ifaces, string(i))
		}
		attrs = append(attrs,
			attribute.String("network.client.reachability", string(n.Reachability)),
			attribute.StringSlice("network.client.available_interfaces", ifaces),
			attribute.Bool("network.client.supports_ipv4", n.SupportsIPv4),
			attribute.Bool("network.client.supports_ipv6", n.SupportsIPv6),
			attribute.Bool("network.client.is_expensive", n.IsExpensive),
			attribute.Bool("network.client.is_constrained", n.IsConstrained),
		)
	}
	if c := s.CarrierInfo; c != nil {
		attrs = append(attrs,
			attribute.String("network.client.sim_carrier.name", c.CarrierName),
			attribute.String("network.client.sim_carrier.iso_country", c.CarrierISOCountryCode),
			attribute.String("network.client.sim_carrier.technology", string(c.RadioAccessTechnology)),
			attribute.Bool("network.client.sim_carrier.allows_voip", c.CarrierAllowsVOIP),
		)
	}
	if b := s.BatteryStatus; b != nil {
		attrs = append(attrs,
			attribute.String("battery.state", string(b.State)),
			attribute.Float64("battery.level", b.Level),
		)
	}
	if s.UserInfo.ID != "" {
		attrs = append(attrs, attribute.String("usr.id", s.UserInfo.ID))
	}
	if s.UserInfo.AnonymousID != "" {
		attrs = append(attrs, attribute.String("usr.anonymous_id", s.UserInfo.AnonymousID))
	}
	return attrs
}
