package config

import (
	"path/filepath"
	"time"

	"github.com/osdpgw/gateway/internal/bytesize"
	"github.com/osdpgw/gateway/pkg/store/gormstore"
)

// ApplyDefaults fills in every unset field of cfg, one nested apply
// function per section.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyHTTPDefaults(&cfg.HTTP)
	applyStorageDefaults(&cfg.Storage)
	applySecurityDefaults(&cfg.Security)
	applyTraceDefaults(&cfg.Trace)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.PluginDir == "" {
		cfg.PluginDir = filepath.Join(getConfigDir(), "plugins")
	}
}

func applyLoggingDefaults(c *LoggingConfig) {
	if c.Level == "" {
		c.Level = "INFO"
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}

func applyTelemetryDefaults(c *TelemetryConfig) {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4317"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	applyProfilingDefaults(&c.Profiling)
}

func applyProfilingDefaults(c *ProfilingConfig) {
	if c.Endpoint == "" {
		c.Endpoint = "http://localhost:4040"
	}
	if len(c.ProfileTypes) == 0 {
		c.ProfileTypes = []string{"cpu", "alloc_objects", "alloc_space"}
	}
}

func applyMetricsDefaults(c *MetricsConfig) {
	// Enabled defaults to false (zero value); no other fields to default.
}

func applyHTTPDefaults(c *HTTPConfig) {
	// Enabled defaults to false (zero value), matching MetricsConfig.
	if c.Addr == "" {
		c.Addr = ":9080"
	}
}

func applyStorageDefaults(c *StorageConfig) {
	if c.Type == "" {
		c.Type = "sqlite"
	}
	if c.Type == "sqlite" || c.Type == "postgres" {
		c.GORM.Type = gormstore.DatabaseType(c.Type)
		c.GORM.ApplyDefaults()
	}
	if c.Type == "badger" && c.BadgerDir == "" {
		c.BadgerDir = filepath.Join(getConfigDir(), "badger")
	}
}

func applySecurityDefaults(c *SecurityConfig) {
	if c.MasterSecretEnv == "" {
		c.MasterSecretEnv = "OSDPGW_MASTER_SECRET"
	}
}

func applyTraceDefaults(c *TraceConfig) {
	if c.LimitMode == "" {
		c.LimitMode = "size"
	}
	if c.MaxPacketsPerReader == 0 {
		c.MaxPacketsPerReader = 1000
	}
	if c.MaxPacketsTotal == 0 {
		c.MaxPacketsTotal = 5000
	}
	if c.MaxAgeMinutes == 0 {
		c.MaxAgeMinutes = 60
	}
	if c.MemoryLimit == 0 {
		c.MemoryLimit = 64 * bytesize.MiB
	}
}

// GetDefaultConfig returns a fully-defaulted Config, used when no config
// file is present.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
