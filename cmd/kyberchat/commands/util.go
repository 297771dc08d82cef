package commands

import (
	"fmt"

	"github.com/kyberchat/kyberchat/internal/logger"
	"github.com/kyberchat/kyberchat/pkg/config"
)

// InitLogger wires the process-wide structured logger to whatever the
// loaded configuration asks for. Commands call this before their first
// log line so even startup failures come out in the configured format.
func InitLogger(cfg *config.Config) error {
	err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// getConfigSource names where the effective configuration came from, for
// the startup log line.
func getConfigSource(configFile string) string {
	switch {
	case configFile != "":
		return configFile
	case config.DefaultConfigExists():
		return config.GetDefaultConfigPath()
	default:
		return "defaults"
	}
}
