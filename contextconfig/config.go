// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package contextconfig loads the configuration of the envcontext SDK core and turns it
// into the initial sdkcontext.Snapshot.
package contextconfig // import "github.com/sdkcore/envcontext/contextconfig"

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/sdkcore/envcontext/sdkcontext"
	"github.com/sdkcore/envcontext/servertime"
)

// Config is the configuration of the SDK context.
type Config struct {
	Service         string                     `mapstructure:"service"`
	Env             string                     `mapstructure:"env"`
	Version         string                     `mapstructure:"version"`
	Source          string                     `mapstructure:"source"`
	SDKVersion      string                     `mapstructure:"sdk_version"`
	Site            string                     `mapstructure:"site"`
	TrackingConsent sdkcontext.TrackingConsent `mapstructure:"tracking_consent"`
	User            UserConfig                 `mapstructure:"user"`
	Sources         SourcesConfig              `mapstructure:"sources"`
	Logs            LogsConfig                 `mapstructure:"logs"`
}

// UserConfig identifies the user. AnonymousID is generated when empty.
type UserConfig struct {
	ID          string         `mapstructure:"id"`
	Name        string         `mapstructure:"name"`
	Email       string         `mapstructure:"email"`
	AnonymousID string         `mapstructure:"anonymous_id"`
	ExtraInfo   map[string]any `mapstructure:"extra_info"`
}

// SourcesConfig configures the sources bound to the provider.
type SourcesConfig struct {
	Network    NetworkSourceConfig    `mapstructure:"network"`
	ServerTime ServerTimeSourceConfig `mapstructure:"server_time"`
}

// NetworkSourceConfig configures the host network publisher.
type NetworkSourceConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// ServerTimeSourceConfig configures the server time offset publisher.
type ServerTimeSourceConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	servertime.Config `mapstructure:",squash"`
}

// NewDefaultConfig returns the default Config.
func NewDefaultConfig() *Config {
	return &Config{
		Source:          "go",
		SDKVersion:      "0.1.0",
		Site:            "datadoghq.com",
		TrackingConsent: sdkcontext.TrackingConsentPending,
		Sources: SourcesConfig{
			Network: NetworkSourceConfig{
				Enabled:      true,
				PollInterval: 30 * time.Second,
			},
			ServerTime: ServerTimeSourceConfig{
				Config: servertime.NewDefaultConfig(),
			},
		},
		Logs: NewDefaultLogsConfig(),
	}
}

// Validate checks the Config and returns every problem found.
func (cfg *Config) Validate() error {
	var errs error
	if cfg.Service == "" {
		errs = multierr.Append(errs, errors.New("service must be set"))
	}
	switch cfg.TrackingConsent {
	case sdkcontext.TrackingConsentGranted, sdkcontext.TrackingConsentNotGranted, sdkcontext.TrackingConsentPending:
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown tracking_consent %q", cfg.TrackingConsent))
	}
	if cfg.Sources.Network.Enabled && cfg.Sources.Network.PollInterval <= 0 {
		errs = multierr.Append(errs, errors.New("sources::network::poll_interval must be positive"))
	}
	if st := cfg.Sources.ServerTime; st.Enabled {
		if st.ClientConfig.Endpoint == "" {
			errs = multierr.Append(errs, errors.New("sources::server_time::endpoint must be set"))
		}
		if err := st.Config.Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sources::server_time: %w", err))
		}
	}
	errs = multierr.Append(errs, cfg.Logs.Validate())
	return errs
}
