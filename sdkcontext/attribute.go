// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package sdkcontext // import "github.com/sdkcore/envcontext/sdkcontext"

import "time"

// Attribute is a typed, named slot of the Snapshot that a source can be bound to.
//
// The set of attributes is fixed: the package-level variables below are the only
// Attribute values that exist.
type Attribute[T any] struct {
	name string
	get  func(*Snapshot) T
	set  func(*Snapshot, T)
}

// Name returns the unique name of the attribute.
func (a Attribute[T]) Name() string {
	return a.name
}

// Get returns the value of the attribute in s.
func (a Attribute[T]) Get(s Snapshot) T {
	return a.get(&s)
}

// Set replaces the value of the attribute in s.
func (a Attribute[T]) Set(s *Snapshot, v T) {
	a.set(s, v)
}

var (
	// AttrServerTimeOffset is the offset of the server clock, usually pushed by a periodic
	// synchronization.
	AttrServerTimeOffset = Attribute[time.Duration]{
		name: "server_time_offset",
		get:  func(s *Snapshot) time.Duration { return s.ServerTimeOffset },
		set:  func(s *Snapshot, v time.Duration) { s.ServerTimeOffset = v },
	}
	// AttrNetworkConnectionInfo is the current network connection, nil until known.
	AttrNetworkConnectionInfo = Attribute[*NetworkConnectionInfo]{
		name: "network_connection_info",
		get:  func(s *Snapshot) *NetworkConnectionInfo { return s.NetworkConnectionInfo },
		set:  func(s *Snapshot, v *NetworkConnectionInfo) { s.NetworkConnectionInfo = v },
	}
	// AttrCarrierInfo is the cellular carrier, nil until known or without a carrier.
	AttrCarrierInfo = Attribute[*CarrierInfo]{
		name: "carrier_info",
		get:  func(s *Snapshot) *CarrierInfo { return s.CarrierInfo },
		set:  func(s *Snapshot, v *CarrierInfo) { s.CarrierInfo = v },
	}
	// AttrBatteryStatus is the battery of the device, nil until known.
	AttrBatteryStatus = Attribute[*BatteryStatus]{
		name: "battery_status",
		get:  func(s *Snapshot) *BatteryStatus { return s.BatteryStatus },
		set:  func(s *Snapshot, v *BatteryStatus) { s.BatteryStatus = v },
	}
	// AttrIsLowPowerModeEnabled reports whether the device saves power.
	AttrIsLowPowerModeEnabled = Attribute[bool]{
		name: "is_low_power_mode_enabled",
		get:  func(s *Snapshot) bool { return s.IsLowPowerModeEnabled },
		set:  func(s *Snapshot, v bool) { s.IsLowPowerModeEnabled = v },
	}
	// AttrTrackingConsent is the user consent for collecting telemetry.
	AttrTrackingConsent = Attribute[TrackingConsent]{
		name: "tracking_consent",
		get:  func(s *Snapshot) TrackingConsent { return s.TrackingConsent },
		set:  func(s *Snapshot, v TrackingConsent) { s.TrackingConsent = v },
	}
	// AttrUserInfo identifies the user of the application.
	AttrUserInfo = Attribute[UserInfo]{
		name: "user_info",
		get:  func(s *Snapshot) UserInfo { return s.UserInfo },
		set:  func(s *Snapshot, v UserInfo) { s.UserInfo = v },
	}
)
