// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/collector/featuregate"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/sdkcore/envcontext/contextconfig"
	"github.com/sdkcore/envcontext/contextprovider"
	"github.com/sdkcore/envcontext/hostsource"
	"github.com/sdkcore/envcontext/sdkcontext"
	"github.com/sdkcore/envcontext/servertime"
	"github.com/sdkcore/envcontext/sourcehelper"
)

const featureName = "envcontext"

func newCommand(out io.Writer) *cobra.Command {
	opts := &options{}
	flagSet := flags(featuregate.GlobalRegistry(), opts)
	rootCmd := &cobra.Command{
		Use:          "envcontext",
		Short:        "Print the environment context attached to telemetry",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.interval <= 0 {
				return errors.New("--interval must be positive")
			}
			cfg, err := contextconfig.Load(opts.configPath)
			if err != nil {
				return err
			}
			if err = cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger, err := cfg.Logs.NewLogger()
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ins, err := newInspector(cmd.Context(), cfg, logger, hostsource.DeviceInfo)
			if err != nil {
				return err
			}
			return ins.run(cmd.Context(), out, *opts)
		},
	}
	rootCmd.Flags().AddGoFlagSet(flagSet)
	return rootCmd
}

// lifecycle is implemented by the polling sources.
type lifecycle interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
	Poll(ctx context.Context) (bool, error)
}

type inspector struct {
	logger   *zap.Logger
	provider *contextprovider.Provider
	registry *prometheus.Registry
	sources  map[string]lifecycle
}

func newInspector(ctx context.Context, cfg *contextconfig.Config, logger *zap.Logger,
	deviceInfo func(context.Context) (sdkcontext.DeviceInfo, error)) (*inspector, error) {
	device, err := deviceInfo(ctx)
	if err != nil {
		logger.Warn("Failed to read device info, continuing without it", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	provider := contextprovider.New(cfg.InitialSnapshot(device, time.Now()), contextprovider.Settings{
		Name:              featureName,
		Logger:            logger,
		MetricsRegisterer: registry,
	})
	ins := &inspector{
		logger:   logger,
		provider: provider,
		registry: registry,
		sources:  map[string]lifecycle{},
	}

	set := sourcehelper.Settings{Logger: logger}
	if nc := cfg.Sources.Network; nc.Enabled {
		pub, err := hostsource.NewNetworkPublisher(set, nc.PollInterval)
		if err != nil {
			return nil, fmt.Errorf("failed to create network source: %w", err)
		}
		contextprovider.Subscribe(provider, sdkcontext.AttrNetworkConnectionInfo, pub)
		ins.sources["network"] = pub
	}
	if stc := cfg.Sources.ServerTime; stc.Enabled {
		fetch, err := servertime.NewHTTPFetcher(ctx, stc.Config, set)
		if err != nil {
			return nil, fmt.Errorf("failed to create server time source: %w", err)
		}
		pub, err := servertime.NewPublisher(set, stc.Config, fetch)
		if err != nil {
			return nil, fmt.Errorf("failed to create server time source: %w", err)
		}
		contextprovider.Subscribe(provider, sdkcontext.AttrServerTimeOffset, pub)
		ins.sources["server_time"] = pub
	}
	return ins, nil
}

func (ins *inspector) run(ctx context.Context, out io.Writer, opts options) (err error) {
	defer func() {
		err = multierr.Append(err, ins.shutdown())
	}()

	if opts.once {
		for name, src := range ins.sources {
			if _, perr := src.Poll(ctx); perr != nil {
				ins.logger.Warn("Failed to poll source", zap.String("source", name), zap.Error(perr))
			}
		}
		return ins.print(out)
	}

	if opts.metricsAddr != "" {
		stopMetrics, merr := ins.serveMetrics(opts.metricsAddr)
		if merr != nil {
			return merr
		}
		defer stopMetrics()
	}

	for _, src := range ins.sources {
		if err = src.Start(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err = ins.print(out); err != nil {
				return err
			}
		}
	}
}

func (ins *inspector) print(out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ins.provider.Read()); err != nil {
		return fmt.Errorf("failed to print snapshot: %w", err)
	}
	return nil
}

func (ins *inspector) serveMetrics(addr string) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(ins.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if serr := srv.Serve(ln); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			ins.logger.Error("Metrics server failed", zap.Error(serr))
		}
	}()
	ins.logger.Info("Serving provider metrics", zap.String("address", ln.Addr().String()))
	return func() { _ = srv.Close() }, nil
}

func (ins *inspector) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var errs error
	for _, src := range ins.sources {
		errs = multierr.Append(errs, src.Shutdown(ctx))
	}
	return multierr.Append(errs, ins.provider.Shutdown(ctx))
}
