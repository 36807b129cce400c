// Package config loads gonugetizer settings from a config file, GONUGETIZER_*
// environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/willibrandon/gonugetizer/observability"
	"github.com/willibrandon/gonugetizer/pack"
)

// ConfigName is the base name searched for in the working directory and the
// user's home directory.
const ConfigName = "gonugetizer"

// EnvPrefix prefixes environment overrides, e.g. GONUGETIZER_LOG_LEVEL.
const EnvPrefix = "GONUGETIZER"

// PackConfig holds path assignment settings.
type PackConfig struct {
	Exclude []string `mapstructure:"exclude"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// TraceConfig holds tracing settings.
type TraceConfig struct {
	Exporter     string  `mapstructure:"exporter"`
	Endpoint     string  `mapstructure:"endpoint"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

// MetricsConfig holds the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Config is the effective configuration of one invocation.
type Config struct {
	// Kinds replaces the default kind table when non-empty.
	Kinds   []pack.KindDefinition `mapstructure:"kinds"`
	Pack    PackConfig            `mapstructure:"pack"`
	Log     LogConfig             `mapstructure:"log"`
	Trace   TraceConfig           `mapstructure:"trace"`
	Metrics MetricsConfig         `mapstructure:"metrics"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// flagKeys binds command line flags to config keys.
var flagKeys = map[string]string{
	"log-level":      "log.level",
	"exclude":        "pack.exclude",
	"trace-exporter": "trace.exporter",
	"trace-endpoint": "trace.endpoint",
	"metrics-addr":   "metrics.addr",
}

// Load reads configuration. path names an explicit config file; when empty
// gonugetizer.{yaml,yml,json,toml} is looked up in the working directory
// and then in $HOME, and a missing file is not an error. Flags that were set
// on the command line take precedence over the file and the environment.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "warn")
	v.SetDefault("trace.exporter", observability.ExporterNone)
	v.SetDefault("trace.sampling_rate", 1.0)
	v.SetDefault("pack.exclude", []string{})
	v.SetDefault("metrics.addr", "")
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := observability.ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Trace.Exporter {
	case "", observability.ExporterNone, observability.ExporterStdout, observability.ExporterOTLP:
	default:
		return fmt.Errorf("trace.exporter: unsupported exporter %q", c.Trace.Exporter)
	}
	if c.Trace.SamplingRate < 0 || c.Trace.SamplingRate > 1 {
		return fmt.Errorf("trace.sampling_rate: %v is outside [0, 1]", c.Trace.SamplingRate)
	}
	for i, k := range c.Kinds {
		if k.Name == "" {
			return fmt.Errorf("kinds[%d]: name is required", i)
		}
	}
	return nil
}

// KindTable returns the configured kinds, or the defaults when none are set.
func (c *Config) KindTable() *pack.KindTable {
	if len(c.Kinds) == 0 {
		return pack.DefaultKinds()
	}
	return pack.NewKindTable(c.Kinds...)
}

// TracerConfig projects the trace settings.
func (c *Config) TracerConfig(serviceVersion string) observability.TracerConfig {
	tc := observability.DefaultTracerConfig()
	tc.ServiceVersion = serviceVersion
	if c.Trace.Exporter != "" {
		tc.ExporterType = c.Trace.Exporter
	}
	tc.OTLPEndpoint = c.Trace.Endpoint
	tc.SamplingRate = c.Trace.SamplingRate
	return tc
}
