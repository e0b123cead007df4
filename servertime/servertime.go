// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package servertime measures the offset between the server clock and the device clock
// and publishes it as a push source for sdkcontext.AttrServerTimeOffset.
package servertime // import "github.com/sdkcore/envcontext/servertime"

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/collector/config/confighttp"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/sdkcore/envcontext/sourcehelper"
)

// Fetcher returns the current server time.
type Fetcher func(ctx context.Context) (time.Time, error)

// Config configures the synchronization with the server clock.
type Config struct {
	// ClientConfig points at a server answering with a Date header. Its Timeout bounds a
	// single measurement.
	ClientConfig confighttp.ClientConfig `mapstructure:",squash"`
	// SyncInterval is the time between two measurements.
	SyncInterval time.Duration `mapstructure:"sync_interval"`
	// Threshold is the smallest change of the offset that is published.
	Threshold time.Duration `mapstructure:"threshold"`
}

// NewDefaultConfig returns the default Config.
func NewDefaultConfig() Config {
	clientCfg := confighttp.NewDefaultClientConfig()
	clientCfg.Timeout = 5 * time.Second
	return Config{
		ClientConfig: clientCfg,
		SyncInterval: 5 * time.Minute,
		Threshold:    time.Second,
	}
}

// Validate checks the Config.
func (cfg Config) Validate() error {
	if cfg.SyncInterval <= 0 {
		return errors.New("sync_interval must be positive")
	}
	if cfg.ClientConfig.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if cfg.Threshold < 0 {
		return errors.New("threshold must not be negative")
	}
	return nil
}

// NewPublisher returns a push source of the server time offset. The offset is 0 until the
// first successful measurement. A failed measurement is logged and the next interval
// measures again.
func NewPublisher(set sourcehelper.Settings, cfg Config, fetch Fetcher) (*sourcehelper.PollingPublisher[time.Duration], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fetch == nil {
		return nil, errors.New("nil fetcher")
	}
	return sourcehelper.NewPollingPublisher(set, time.Duration(0), cfg.SyncInterval,
		func(ctx context.Context) (time.Duration, error) {
			ctx, cancel := context.WithTimeout(ctx, cfg.ClientConfig.Timeout)
			defer cancel()
			return Measure(ctx, fetch, time.Now)
		},
		sourcehelper.WithEqual(func(a, b time.Duration) bool {
			d := a - b
			if d < 0 {
				d = -d
			}
			return d <= cfg.Threshold
		}),
	)
}

// Measure returns the offset of the server clock, assuming the server read its clock
// halfway through the round trip.
func Measure(ctx context.Context, fetch Fetcher, now func() time.Time) (time.Duration, error) {
	sent := now()
	server, err := fetch(ctx)
	if err != nil {
		return 0, err
	}
	received := now()
	midpoint := sent.Add(received.Sub(sent) / 2)
	return server.Sub(midpoint), nil
}

// NewHTTPFetcher builds an HTTP client from cfg.ClientConfig and returns a Fetcher reading
// the Date header of its Endpoint.
func NewHTTPFetcher(ctx context.Context, cfg Config, set sourcehelper.Settings) (Fetcher, error) {
	if cfg.ClientConfig.Endpoint == "" {
		return nil, errors.New("endpoint must be set")
	}
	logger := set.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := cfg.ClientConfig.ToClient(ctx, nil, component.TelemetrySettings{
		Logger:         logger,
		TracerProvider: tracenoop.NewTracerProvider(),
		MeterProvider:  metricnoop.NewMeterProvider(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server time client: %w", err)
	}
	return HTTPDateFetcher(client, cfg.ClientConfig.Endpoint), nil
}

// HTTPDateFetcher returns a Fetcher reading the Date header of a HEAD request to url.
func HTTPDateFetcher(client *http.Client, url string) Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) (time.Time, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to create time request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to request server time: %w", err)
		}
		defer resp.Body.Close()

		date := resp.Header.Get("Date")
		if date == "" {
			return time.Time{}, fmt.Errorf("no Date header in response from %s", url)
		}
		t, err := http.ParseTime(date)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid Date header %q: %w", date, err)
		}
		return t, nil
	}
}
