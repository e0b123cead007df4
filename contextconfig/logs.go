// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package contextconfig // import "github.com/sdkcore/envcontext/contextconfig"

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogsConfig configures the logger of the SDK core.
type LogsConfig struct {
	Level             zapcore.Level `mapstructure:"level"`
	Development       bool          `mapstructure:"development"`
	Encoding          string        `mapstructure:"encoding"`
	DisableCaller     bool          `mapstructure:"disable_caller"`
	DisableStacktrace bool          `mapstructure:"disable_stacktrace"`
	OutputPaths       []string      `mapstructure:"output_paths"`
	ErrorOutputPaths  []string      `mapstructure:"error_output_paths"`
}

// NewDefaultLogsConfig returns the default LogsConfig.
func NewDefaultLogsConfig() LogsConfig {
	return LogsConfig{
		Level:            zapcore.InfoLevel,
		Encoding:         "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

// Validate checks the LogsConfig.
func (cfg LogsConfig) Validate() error {
	if cfg.Encoding != "console" && cfg.Encoding != "json" {
		return fmt.Errorf("logs::encoding must be console or json, got %q", cfg.Encoding)
	}
	return nil
}

// NewLogger builds the logger described by the LogsConfig.
func (cfg LogsConfig) NewLogger(opts ...zap.Option) (*zap.Logger, error) {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg := &zap.Config{
		Level:             zap.NewAtomicLevelAt(cfg.Level),
		Development:       cfg.Development,
		Encoding:          cfg.Encoding,
		EncoderConfig:     ec,
		OutputPaths:       cfg.OutputPaths,
		ErrorOutputPaths:  cfg.ErrorOutputPaths,
		DisableCaller:     cfg.DisableCaller,
		DisableStacktrace: cfg.DisableStacktrace,
	}
	return zapCfg.Build(opts...)
}
