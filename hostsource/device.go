// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package hostsource // import "github.com/sdkcore/envcontext/hostsource"

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/host"

	"github.com/sdkcore/envcontext/sdkcontext"
)

// DeviceInfo describes the host, to seed the initial Snapshot. The model is left empty,
// the host does not report one.
func DeviceInfo(ctx context.Context) (sdkcontext.DeviceInfo, error) {
	return deviceInfo(ctx, host.InfoWithContext)
}

func deviceInfo(ctx context.Context, info func(context.Context) (*host.InfoStat, error)) (sdkcontext.DeviceInfo, error) {
	stat, err := info(ctx)
	if err != nil {
		return sdkcontext.DeviceInfo{}, fmt.Errorf("failed to read host info: %w", err)
	}
	osName := stat.Platform
	if osName == "" {
		osName = stat.OS
	}
	osVersion := stat.PlatformVersion
	if osVersion == "" {
		osVersion = stat.KernelVersion
	}
	return sdkcontext.DeviceInfo{
		Name:         stat.Hostname,
		OSName:       osName,
		OSVersion:    osVersion,
		Architecture: stat.KernelArch,
		HostID:       stat.HostID,
	}, nil
}
