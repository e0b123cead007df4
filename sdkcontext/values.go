// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package sdkcontext // import "github.com/sdkcore/envcontext/sdkcontext"

import "time"

// Reachability describes whether the network is currently reachable.
type Reachability string

const (
	ReachabilityYes Reachability = "yes"
	// ReachabilityMaybe is used while the reachability could not be determined yet.
	ReachabilityMaybe Reachability = "maybe"
	ReachabilityNo    Reachability = "no"
)

// Interface is the kind of a network interface available to the host.
type Interface string

const (
	InterfaceWiFi          Interface = "wifi"
	InterfaceWiredEthernet Interface = "wired_ethernet"
	InterfaceCellular      Interface = "cellular"
	InterfaceLoopback      Interface = "loopback"
	InterfaceOther         Interface = "other"
)

// NetworkConnectionInfo describes the current network connection.
type NetworkConnectionInfo struct {
	Reachability        Reachability
	AvailableInterfaces []Interface
	SupportsIPv4        bool
	SupportsIPv6        bool
	IsExpensive         bool
	IsConstrained       bool
}

func (n *NetworkConnectionInfo) clone() *NetworkConnectionInfo {
	if n == nil {
		return nil
	}
	c := *n
	if n.AvailableInterfaces != nil {
		c.AvailableInterfaces = append([]Interface(nil), n.AvailableInterfaces...)
	}
	return &c
}

// RadioAccessTechnology is the radio technology used by the cellular carrier.
type RadioAccessTechnology string

const (
	RadioGPRS    RadioAccessTechnology = "GPRS"
	RadioEdge    RadioAccessTechnology = "Edge"
	RadioWCDMA   RadioAccessTechnology = "WCDMA"
	RadioHSDPA   RadioAccessTechnology = "HSDPA"
	RadioHSUPA   RadioAccessTechnology = "HSUPA"
	RadioCDMA1x  RadioAccessTechnology = "CDMA1x"
	RadioLTE     RadioAccessTechnology = "LTE"
	RadioNR      RadioAccessTechnology = "NR"
	RadioUnknown RadioAccessTechnology = "unknown"
)

// CarrierInfo describes the cellular carrier.
type CarrierInfo struct {
	CarrierName           string
	CarrierISOCountryCode string
	CarrierAllowsVOIP     bool
	RadioAccessTechnology RadioAccessTechnology
}

func (c *CarrierInfo) clone() *CarrierInfo {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// BatteryState is the charging state of the battery.
type BatteryState string

const (
	BatteryUnknown   BatteryState = "unknown"
	BatteryUnplugged BatteryState = "unplugged"
	BatteryCharging  BatteryState = "charging"
	BatteryFull      BatteryState = "full"
)

// BatteryStatus describes the battery of the device.
type BatteryStatus struct {
	State BatteryState
	// Level is in the [0, 1] range.
	Level float64
}

func (b *BatteryStatus) clone() *BatteryStatus {
	if b == nil {
		return nil
	}
	cp := *b
	return &cp
}

// TrackingConsent is the user consent for collecting telemetry.
type TrackingConsent string

const (
	TrackingConsentGranted    TrackingConsent = "granted"
	TrackingConsentNotGranted TrackingConsent = "not_granted"
	TrackingConsentPending    TrackingConsent = "pending"
)

// UserInfo identifies the user of the application.
type UserInfo struct {
	ID          string
	Name        string
	Email       string
	AnonymousID string
	// ExtraInfo values must be immutable (strings, numbers, booleans).
	ExtraInfo map[string]any
}

func (u UserInfo) clone() UserInfo {
	u.ExtraInfo = cloneAnyMap(u.ExtraInfo)
	return u
}

// DeviceInfo describes the device the SDK runs on.
type DeviceInfo struct {
	Name         string
	Model        string
	OSName       string
	OSVersion    string
	Architecture string
	HostID       string
}

// LaunchTime describes the launch of the application process.
type LaunchTime struct {
	LaunchDate      time.Time
	LaunchDuration  time.Duration
	IsActivePrewarm bool
}

// FeatureBaggage holds facts a feature computed itself, such as a pending stop-session
// marker. Values must be immutable.
type FeatureBaggage map[string]any

func cloneAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
