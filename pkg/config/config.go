// Package config loads the gateway's static configuration from a YAML file
// with spf13/viper, lets OSDPGW_* environment variables override keys the
// file sets, fills unset fields with built-in defaults, and validates the
// result with go-playground/validator. Command-line flags other than
// --config are not merged in.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/osdpgw/gateway/internal/bytesize"
	"github.com/osdpgw/gateway/pkg/store/gormstore"
	"github.com/osdpgw/gateway/pkg/trace"
)

// Config is the gateway's complete static configuration.
//
// Dynamic configuration (readers, plugin mappings, feedback records) is
// owned by the configuration services and lives in Storage, not here.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (OSDPGW_*), for keys present in the file
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
//
// When no configuration file is found, the built-in defaults are used
// unchanged and environment variables are not consulted.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics contains the Prometheus metrics HTTP server configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// HTTP contains the ambient health/metrics server configuration.
	HTTP HTTPConfig `mapstructure:"http" yaml:"http"`

	// ShutdownTimeout bounds Gateway.Stop's grace period for draining
	// in-flight buses and pipelines.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Storage selects and configures the persistence backend.
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Security configures at-rest protection of stored secure-channel keys.
	Security SecurityConfig `mapstructure:"security" yaml:"security"`

	// PluginDir is the directory the Plugin Host scans for loadable
	// artifacts.
	PluginDir string `mapstructure:"plugin_dir" validate:"required" yaml:"plugin_dir"`

	// Trace holds the default Packet Trace Store settings applied at
	// startup; they may be changed at runtime via the admin
	// surface.
	Trace TraceConfig `mapstructure:"trace" yaml:"trace"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry tracing and Pyroscope profiling.
type TelemetryConfig struct {
	Enabled    bool             `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string           `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool             `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64          `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
	Profiling  ProfilingConfig  `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// HTTPConfig configures the ambient chi-routed health/metrics server.
type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" validate:"required" yaml:"addr"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Type selects the backend: sqlite, postgres, badger, or memory.
	Type     string           `mapstructure:"type" validate:"required,oneof=sqlite postgres badger memory" yaml:"type"`
	GORM     gormstore.Config `mapstructure:"gorm" yaml:"gorm"`
	BadgerDir string          `mapstructure:"badger_dir" yaml:"badger_dir"`
}

// SecurityConfig configures at-rest protection for stored secure-channel
// keys.
type SecurityConfig struct {
	// MasterSecretEnv names the environment variable holding the
	// key-encryption-key material. Never stored in the config file itself.
	MasterSecretEnv string `mapstructure:"master_secret_env" yaml:"master_secret_env"`
}

// TraceConfig seeds the Packet Trace Store's default settings at startup.
type TraceConfig struct {
	Enabled             bool   `mapstructure:"enabled" yaml:"enabled"`
	LimitMode           string `mapstructure:"limit_mode" validate:"omitempty,oneof=size time hybrid" yaml:"limit_mode"`
	MaxPacketsPerReader int    `mapstructure:"max_packets_per_reader" yaml:"max_packets_per_reader"`
	MaxPacketsTotal     int    `mapstructure:"max_packets_total" yaml:"max_packets_total"`
	MaxAgeMinutes       int    `mapstructure:"max_age_minutes" yaml:"max_age_minutes"`

	// MemoryLimit accepts a human-readable size ("64Mi", "100MB", a bare
	// number of bytes) the way the rest of this config file's durations
	// read as "30s"/"5m" rather than raw nanoseconds; trace.Settings still
	// carries this as whole megabytes, so
	// ToSettings does the unit conversion once at load time.
	MemoryLimit           bytesize.ByteSize `mapstructure:"memory_limit" yaml:"memory_limit"`
	AutoStopOnMemoryLimit bool              `mapstructure:"auto_stop_on_memory_limit" yaml:"auto_stop_on_memory_limit"`
}

// ToSettings converts the static bootstrap config into a trace.Settings.
func (t TraceConfig) ToSettings() trace.Settings {
	s := trace.DefaultSettings()
	s.Enabled = t.Enabled
	if t.LimitMode != "" {
		s.LimitMode = trace.LimitMode(t.LimitMode)
	}
	if t.MaxPacketsPerReader > 0 {
		s.MaxPacketsPerReader = t.MaxPacketsPerReader
	}
	if t.MaxPacketsTotal > 0 {
		s.MaxPacketsTotal = t.MaxPacketsTotal
	}
	if t.MaxAgeMinutes > 0 {
		s.MaxAgeMinutes = t.MaxAgeMinutes
	}
	if t.MemoryLimit > 0 {
		s.MemoryLimitMB = int(t.MemoryLimit / bytesize.MiB)
	}
	s.AutoStopOnMemoryLimit = t.AutoStopOnMemoryLimit
	return s
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return &cfg, nil
}

// MustLoad loads configuration with a user-friendly error when the file is
// missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"create one with:\n  osdpgatewayd init\n\n"+
				"or point at a custom file:\n  osdpgatewayd <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: load: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML with owner-only permissions, since
// Storage.GORM.Postgres may carry a password.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("OSDPGW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(durationDecodeHook(), byteSizeDecodeHook())
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(_, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// byteSizeDecodeHook lets TraceConfig.MemoryLimit accept human-readable sizes
// ("64Mi", "100MB") or a bare number of bytes from YAML/env, mirroring
// durationDecodeHook's treatment of time.Duration fields.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(_, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "osdpgatewayd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "osdpgatewayd")
}

// GetConfigDir returns the configuration directory (exposed for `config init`).
func GetConfigDir() string { return getConfigDir() }

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
