// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package contextconfig // import "github.com/sdkcore/envcontext/contextconfig"

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/mitchellh/mapstructure"
)

const (
	// EnvPrefix is the prefix of the environment variables overriding the file.
	EnvPrefix = "ENVCONTEXT_"
	// KeyDelimiter separates the levels of a configuration key.
	KeyDelimiter = "::"
)

// Load reads the configuration, from lowest to highest precedence: defaults, the YAML
// file at path (skipped when empty) and ENVCONTEXT_ environment variables. Environment
// variables use a double underscore between levels:
//
//	ENVCONTEXT_SOURCES__NETWORK__POLL_INTERVAL=10s -> sources::network::poll_interval
func Load(path string) (*Config, error) {
	k := koanf.New(KeyDelimiter)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %q: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, KeyDelimiter, envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := NewDefaultConfig()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "mapstructure",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			Result:           cfg,
			TagName:          "mapstructure",
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", KeyDelimiter)
}
