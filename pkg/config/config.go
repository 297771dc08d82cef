package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/kyberchat/kyberchat/internal/bytesize"
	"github.com/kyberchat/kyberchat/pkg/api"
	"github.com/kyberchat/kyberchat/pkg/store"
)

// Config is the static configuration of a KyberChat server:
//   - Logging (level, format, destination)
//   - Telemetry (tracing and continuous profiling)
//   - Server settings (port, CORS, shutdown timeout)
//   - Database connection (SQLite or PostgreSQL)
//   - Auth settings (JWT secret and token lifetimes)
//   - Upload settings (attachment backend and size cap)
//   - Metrics server
//
// Dynamic state (users, rooms, keys, messages) lives in the database and is
// managed through the API and the websocket gateway.
//
// Values come from three sources; later sources never override earlier ones:
//  1. Environment variables (KYBERCHAT_*)
//  2. Configuration file (YAML or TOML)
//  3. Built-in defaults
type Config struct {
	// Logging controls log level, format, and destination
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls trace export and profiling
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout bounds how long graceful shutdown may take
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Server configures the HTTP listener that serves both the REST API
	// and the websocket gateway.
	Server api.Config `mapstructure:"server" yaml:"server"`

	// Database configures the relational store (SQLite or PostgreSQL).
	// This is the persistent store for users, rooms, keys, and messages.
	Database store.Config `mapstructure:"database" yaml:"database"`

	// Auth contains JWT and session cookie configuration.
	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`

	// Uploads configures encrypted attachment storage.
	Uploads UploadsConfig `mapstructure:"uploads" yaml:"uploads"`

	// Metrics configures the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is the minimum level that gets emitted.
	// One of DEBUG, INFO, WARN, ERROR (case-insensitive; normalized to upper)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format selects between human-readable "text" and "json" lines
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is "stdout", "stderr", or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// AuthConfig contains JWT and session cookie configuration.
type AuthConfig struct {
	// JWTSecret is the HMAC signing key for access and refresh tokens.
	// Must be at least 32 characters. Required to start the server; the
	// default config leaves it empty so that a secret is never implicit.
	JWTSecret string `mapstructure:"jwt_secret" validate:"omitempty,min=32" yaml:"jwt_secret,omitempty"`

	// AccessTokenTTL is the access token lifetime.
	// Default: 1h
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl" yaml:"access_token_ttl"`

	// RefreshTokenTTL is the refresh token lifetime. Also bounds the
	// refresh cookie's max-age.
	// Default: 720h (30 days)
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl" yaml:"refresh_token_ttl"`

	// CookieSecure sets the Secure flag on the refresh cookie.
	// Enable when serving over HTTPS.
	// Default: false
	CookieSecure bool `mapstructure:"cookie_secure" yaml:"cookie_secure"`

	// ValidatePasswordStrength requires upper, lower, and digit characters
	// in passwords on registration.
	// Default: false (length-only check)
	ValidatePasswordStrength bool `mapstructure:"validate_password_strength" yaml:"validate_password_strength"`
}

// UploadsConfig configures encrypted attachment storage.
//
// Attachments are client-side encrypted; the server stores opaque blobs
// either on the local filesystem or in S3.
type UploadsConfig struct {
	// Backend selects the blob store implementation.
	// Valid values: filesystem, s3
	// Default: filesystem
	Backend string `mapstructure:"backend" validate:"required,oneof=filesystem s3" yaml:"backend"`

	// Path is the root directory for the filesystem backend.
	// Default: ./uploads
	Path string `mapstructure:"path" yaml:"path,omitempty"`

	// MaxFileSize is the per-upload size cap.
	// Supports human-readable formats: "50Mi", "100MB", or plain bytes.
	// Default: 50Mi
	MaxFileSize bytesize.ByteSize `mapstructure:"max_file_size" yaml:"max_file_size,omitempty"`

	// S3 configures the S3 backend. Only used when Backend is "s3".
	S3 UploadsS3Config `mapstructure:"s3" yaml:"s3,omitempty"`
}

// UploadsS3Config contains S3 backend settings for attachments.
type UploadsS3Config struct {
	// Bucket is the S3 bucket name (required for the s3 backend)
	Bucket string `mapstructure:"bucket" yaml:"bucket,omitempty"`

	// Region is the AWS region (optional, SDK default chain if empty)
	Region string `mapstructure:"region" yaml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint URL (for MinIO/Localstack)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`

	// KeyPrefix is prepended to all object keys, e.g. "attachments/"
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix,omitempty"`

	// ForcePathStyle forces path-style addressing (required for MinIO)
	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style,omitempty"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 9091
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// TelemetryConfig controls OpenTelemetry tracing. Spans are exported over
// OTLP gRPC to whatever collector listens at Endpoint (Jaeger, Tempo, or the
// otel-collector itself).
type TelemetryConfig struct {
	// Enabled turns tracing on. Off by default.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address as host:port.
	// Default: "localhost:4317"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure disables TLS on the collector connection.
	// Default: true, which suits local collectors
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the fraction of traces to keep, between 0 and 1.
	// Default: 1.0 (keep everything)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling configures Pyroscope continuous profiling
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling. When enabled the
// process streams CPU and memory profiles to a Pyroscope server for flame
// graph analysis.
type ProfilingConfig struct {
	// Enabled turns continuous profiling on. Off by default.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server URL.
	// Default: "http://localhost:4040"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes lists the profile streams to collect, out of: cpu,
	// alloc_objects, alloc_space, inuse_objects, inuse_space, goroutines,
	// mutex_count, mutex_duration, block_count, block_duration.
	// Default: cpu, the alloc/inuse pairs, and goroutines
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// Load reads configuration for the given path, overlays KYBERCHAT_*
// environment variables, fills in defaults, and validates the result.
//
// An empty configPath searches the default location; if no file exists
// there, the built-in defaults are returned as-is.
func Load(configPath string) (*Config, error) {
	v := newViper(configPath)

	if err := v.ReadInConfig(); err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No file anywhere: run on defaults alone.
		return GetDefaultConfig(), nil
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// MustLoad is Load with friendlier errors for the CLI: when the config file
// is missing it tells the user how to create one instead of silently falling
// back to defaults.
func MustLoad(configPath string) (*Config, error) {
	switch {
	case configPath == "" && !DefaultConfigExists():
		return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
			"Please initialize a configuration file first:\n"+
			"  kyberchat init\n\n"+
			"Or specify a custom config file:\n"+
			"  kyberchat <command> --config /path/to/config.yaml",
			GetDefaultConfigPath())

	case configPath == "":
		configPath = GetDefaultConfigPath()

	default:
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  kyberchat init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// newViper builds a viper instance wired for the KYBERCHAT_ environment
// prefix and either the explicit config file or the default search path.
func newViper(configPath string) *viper.Viper {
	v := viper.New()

	// KYBERCHAT_LOGGING_LEVEL=DEBUG overrides logging.level, and so on.
	v.SetEnvPrefix("KYBERCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		// Format is inferred from the file extension.
		v.SetConfigFile(configPath)
		return v
	}

	// Look for config.yaml under $XDG_CONFIG_HOME/kyberchat (or ~/.config).
	v.AddConfigPath(configDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	return v
}

// isNotFound reports whether err means the config file simply does not
// exist. Viper returns its own error type when searching its paths; an
// explicit path that is missing surfaces as a plain fs not-exist error.
func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || os.IsNotExist(err)
}

// decodeHooks builds the mapstructure hook chain used during unmarshalling.
// On top of the stock comma-separated-list hook it adds two conversions so
// config files can say "50Mi" for sizes and "30s" for durations.
func decodeHooks() mapstructure.DecodeHookFunc {
	sizeType := reflect.TypeOf(bytesize.ByteSize(0))
	durationType := reflect.TypeOf(time.Duration(0))

	sizes := func(_, to reflect.Type, raw interface{}) (interface{}, error) {
		if to != sizeType {
			return raw, nil
		}
		switch v := raw.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML decoders hand over bare numbers as float64.
			return bytesize.ByteSize(v), nil
		}
		return raw, nil
	}

	durations := func(_, to reflect.Type, raw interface{}) (interface{}, error) {
		if to != durationType {
			return raw, nil
		}
		switch v := raw.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Raw integers count as nanoseconds.
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		}
		return raw, nil
	}

	return mapstructure.ComposeDecodeHookFunc(
		sizes,
		durations,
		mapstructure.StringToSliceHookFunc(","),
	)
}

// configDir resolves the configuration directory: $XDG_CONFIG_HOME/kyberchat
// when XDG_CONFIG_HOME is set, ~/.config/kyberchat otherwise, and the current
// directory as a last resort when the home directory is unknown.
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "kyberchat")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "kyberchat")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return configDir()
}
