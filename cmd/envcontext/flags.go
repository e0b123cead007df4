// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"time"

	"go.opentelemetry.io/collector/featuregate"
)

const (
	configFlag      = "config"
	onceFlag        = "once"
	intervalFlag    = "interval"
	metricsAddrFlag = "metrics-addr"
)

type options struct {
	configPath  string
	once        bool
	interval    time.Duration
	metricsAddr string
}

func flags(reg *featuregate.Registry, opts *options) *flag.FlagSet {
	flagSet := new(flag.FlagSet)
	flagSet.StringVar(&opts.configPath, configFlag, "",
		"Path to the YAML config file. ENVCONTEXT_ environment variables override its values.")
	flagSet.BoolVar(&opts.once, onceFlag, false,
		"Poll every source once, print a single snapshot and exit.")
	flagSet.DurationVar(&opts.interval, intervalFlag, 10*time.Second,
		"Time between two printed snapshots.")
	flagSet.StringVar(&opts.metricsAddr, metricsAddrFlag, "",
		"Address to serve the provider metrics on, e.g. localhost:8888. Disabled when empty.")
	reg.RegisterFlags(flagSet)
	return flagSet
}
