package config

import (
	"strings"
	"time"

	"github.com/kyberchat/kyberchat/internal/bytesize"
	"github.com/kyberchat/kyberchat/pkg/store"
)

// ApplyDefaults fills in every unset field with its built-in default.
// Zero values (0, "", false, nil) count as unset; anything configured
// explicitly is left alone.
//
// Runs after file and environment loading so that partial configs work.
func ApplyDefaults(cfg *Config) {
	cfg.Logging.applyDefaults()
	cfg.Telemetry.applyDefaults()
	cfg.Auth.applyDefaults()
	cfg.Uploads.applyDefaults()
	cfg.Metrics.applyDefaults()
	cfg.Database.ApplyDefaults()

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
}

func (c *LoggingConfig) applyDefaults() {
	if c.Level == "" {
		c.Level = "INFO"
	}
	// The logger expects upper-case level names.
	c.Level = strings.ToUpper(c.Level)

	if c.Format == "" {
		c.Format = "text"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}

// applyDefaults leaves Enabled alone: tracing stays opt-in, so only the
// endpoint and sampling rate get values.
func (c *TelemetryConfig) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4317" // standard OTLP gRPC port
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	c.Profiling.applyDefaults()
}

func (c *ProfilingConfig) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "http://localhost:4040" // standard Pyroscope port
	}
	// CPU, the allocation/in-use pairs, and goroutines. The mutex and block
	// profiles stay off unless asked for since arming them costs runtime
	// overhead.
	if len(c.ProfileTypes) == 0 {
		c.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// applyDefaults sets token lifetimes. The JWT secret has no default; it
// must be configured.
func (c *AuthConfig) applyDefaults() {
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = time.Hour
	}
	if c.RefreshTokenTTL == 0 {
		c.RefreshTokenTTL = 720 * time.Hour // 30 days
	}
}

func (c *UploadsConfig) applyDefaults() {
	if c.Backend == "" {
		c.Backend = "filesystem"
	}
	if c.Backend == "filesystem" && c.Path == "" {
		c.Path = "./uploads"
	}
	if c.MaxFileSize == 0 {
		c.MaxFileSize = 50 * bytesize.MiB
	}
}

// applyDefaults only picks a port; metrics collection itself stays opt-in.
func (c *MetricsConfig) applyDefaults() {
	if c.Enabled && c.Port == 0 {
		c.Port = 9091
	}
}

// GetDefaultConfig builds a Config carrying nothing but defaults. Used when
// no config file exists, for generating sample files, and in tests.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Database: store.Config{
			// SQLite keeps the single-node setup dependency-free.
			Type: store.DatabaseTypeSQLite,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
