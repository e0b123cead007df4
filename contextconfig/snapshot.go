// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package contextconfig // import "github.com/sdkcore/envcontext/contextconfig"

import (
	"time"

	"github.com/google/uuid"

	"github.com/sdkcore/envcontext/sdkcontext"
)

// InitialSnapshot returns the baseline Snapshot: static identity from the Config, the
// device and the launch time. Values only known to sources are left unknown.
func (cfg *Config) InitialSnapshot(device sdkcontext.DeviceInfo, launched time.Time) sdkcontext.Snapshot {
	anonymousID := cfg.User.AnonymousID
	if anonymousID == "" {
		anonymousID = uuid.NewString()
	}
	var extra map[string]any
	if len(cfg.User.ExtraInfo) > 0 {
		extra = make(map[string]any, len(cfg.User.ExtraInfo))
		for k, v := range cfg.User.ExtraInfo {
			extra[k] = v
		}
	}
	return sdkcontext.Snapshot{
		Service:    cfg.Service,
		Env:        cfg.Env,
		Version:    cfg.Version,
		Source:     cfg.Source,
		SDKVersion: cfg.SDKVersion,
		Site:       cfg.Site,
		Device:     device,
		LaunchTime: sdkcontext.LaunchTime{LaunchDate: launched},
		UserInfo: sdkcontext.UserInfo{
			ID:          cfg.User.ID,
			Name:        cfg.User.Name,
			Email:       cfg.User.Email,
			AnonymousID: anonymousID,
			ExtraInfo:   extra,
		},
		TrackingConsent: cfg.TrackingConsent,
	}
}
