package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration for invalid or inconsistent values.
//
// Struct tags cover ranges and enumerations (ports, log levels, sample
// rates); rules that tags cannot express are checked explicitly. Validation
// does not normalize values - that happens in ApplyDefaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return err
	}

	// Telemetry needs a collector endpoint when enabled
	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry is enabled but no endpoint is configured")
	}

	// Database settings are validated by the store package
	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	// Backend-specific upload settings
	if err := validateUploads(&cfg.Uploads); err != nil {
		return err
	}

	return nil
}

// validateUploads checks backend-specific attachment storage settings.
func validateUploads(cfg *UploadsConfig) error {
	switch cfg.Backend {
	case "filesystem":
		if cfg.Path == "" {
			return fmt.Errorf("uploads path is required for the filesystem backend")
		}
	case "s3":
		if cfg.S3.Bucket == "" {
			return fmt.Errorf("uploads s3 bucket is required for the s3 backend")
		}
	}

	return nil
}
