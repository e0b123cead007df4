// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package hostsource // import "github.com/sdkcore/envcontext/hostsource"

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	psnet "github.com/shirou/gopsutil/net"

	"github.com/sdkcore/envcontext/sdkcontext"
	"github.com/sdkcore/envcontext/sourcehelper"
)

type interfacesFunc func(context.Context) ([]psnet.InterfaceStat, error)

// NewNetworkPublisher returns a push source for sdkcontext.AttrNetworkConnectionInfo that
// inspects the host network interfaces every interval. The caller owns its lifecycle
// (Start/Shutdown). The value is unknown (nil) until the first successful poll.
func NewNetworkPublisher(set sourcehelper.Settings, interval time.Duration) (*sourcehelper.PollingPublisher[*sdkcontext.NetworkConnectionInfo], error) {
	return newNetworkPublisher(set, interval, func(ctx context.Context) ([]psnet.InterfaceStat, error) {
		return psnet.InterfacesWithContext(ctx)
	})
}

func newNetworkPublisher(set sourcehelper.Settings, interval time.Duration, interfaces interfacesFunc) (*sourcehelper.PollingPublisher[*sdkcontext.NetworkConnectionInfo], error) {
	return sourcehelper.NewPollingPublisher[*sdkcontext.NetworkConnectionInfo](set, nil, interval,
		func(ctx context.Context) (*sdkcontext.NetworkConnectionInfo, error) {
			stats, err := interfaces(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to list network interfaces: %w", err)
			}
			return networkConnectionInfo(stats), nil
		})
}

func networkConnectionInfo(stats []psnet.InterfaceStat) *sdkcontext.NetworkConnectionInfo {
	info := &sdkcontext.NetworkConnectionInfo{Reachability: sdkcontext.ReachabilityNo}
	kinds := map[sdkcontext.Interface]struct{}{}
	onlyCellular := true

	for _, stat := range stats {
		if !hasFlag(stat.Flags, "up") {
			continue
		}
		kind := interfaceKind(stat)
		kinds[kind] = struct{}{}
		if kind == sdkcontext.InterfaceLoopback {
			continue
		}
		for _, addr := range stat.Addrs {
			ip, _, err := net.ParseCIDR(addr.Addr)
			if err != nil {
				ip = net.ParseIP(addr.Addr)
			}
			if ip == nil {
				continue
			}
			if ip.To4() != nil {
				info.SupportsIPv4 = true
			} else {
				info.SupportsIPv6 = true
			}
			if ip.IsGlobalUnicast() {
				info.Reachability = sdkcontext.ReachabilityYes
				if kind != sdkcontext.InterfaceCellular {
					onlyCellular = false
				}
			}
		}
	}

	info.IsExpensive = info.Reachability == sdkcontext.ReachabilityYes && onlyCellular
	for kind := range kinds {
		info.AvailableInterfaces = append(info.AvailableInterfaces, kind)
	}
	sort.Slice(info.AvailableInterfaces, func(i, j int) bool {
		return info.AvailableInterfaces[i] < info.AvailableInterfaces[j]
	})
	return info
}

var interfacePrefixes = []struct {
	prefix string
	kind   sdkcontext.Interface
}{
	{"lo", sdkcontext.InterfaceLoopback},
	{"wl", sdkcontext.InterfaceWiFi},
	{"wi-fi", sdkcontext.InterfaceWiFi},
	{"eth", sdkcontext.InterfaceWiredEthernet},
	{"en", sdkcontext.InterfaceWiredEthernet},
	{"wwan", sdkcontext.InterfaceCellular},
	{"rmnet", sdkcontext.InterfaceCellular},
	{"pdp_ip", sdkcontext.InterfaceCellular},
	{"ccmni", sdkcontext.InterfaceCellular},
}

func interfaceKind(stat psnet.InterfaceStat) sdkcontext.Interface {
	if hasFlag(stat.Flags, "loopback") {
		return sdkcontext.InterfaceLoopback
	}
	name := strings.ToLower(stat.Name)
	for _, p := range interfacePrefixes {
		if strings.HasPrefix(name, p.prefix) {
			return p.kind
		}
	}
	return sdkcontext.InterfaceOther
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}
