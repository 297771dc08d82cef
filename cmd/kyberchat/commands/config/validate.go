package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kyberchat/kyberchat/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the KyberChat configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  kyberchat config validate

  # Validate specific config file
  kyberchat config validate --config /etc/kyberchat/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	cmd.Printf("Configuration file: %s\n", configPathFromFlags(cmd))
	cmd.Println("Validation: OK")

	if warnings := validationWarnings(cfg); len(warnings) > 0 {
		cmd.Println("\nWarnings:")
		for _, w := range warnings {
			cmd.Printf("  - %s\n", w)
		}
	}

	cmd.Printf("\nConfiguration summary:\n")
	cmd.Printf("  Database type:   %s\n", cfg.Database.Type)
	cmd.Printf("  Server port:     %d\n", cfg.Server.Port)
	cmd.Printf("  Uploads backend: %s\n", cfg.Uploads.Backend)
	cmd.Printf("  Log level:       %s\n", cfg.Logging.Level)
	return nil
}

// validationWarnings flags settings that load fine but will bite at runtime.
func validationWarnings(cfg *config.Config) []string {
	var warnings []string

	if cfg.Auth.JWTSecret == "" {
		warnings = append(warnings, "JWT secret not configured - the server will refuse to start")
	}

	// A relative uploads path silently depends on where the server happens
	// to be started from.
	if cfg.Uploads.Backend == "filesystem" && !filepath.IsAbs(cfg.Uploads.Path) {
		warnings = append(warnings, fmt.Sprintf("Uploads path %q is relative - it resolves against the server's working directory", cfg.Uploads.Path))
	}

	return warnings
}
