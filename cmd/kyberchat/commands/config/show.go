package config

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kyberchat/kyberchat/internal/cli/output"
	"github.com/kyberchat/kyberchat/pkg/config"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective KyberChat configuration: the file contents
after defaults and environment variable overrides are applied.

Examples:
  # Show effective config as YAML
  kyberchat config show

  # Show as JSON
  kyberchat config show --output json

  # Show specific config file
  kyberchat config show --config /etc/kyberchat/config.yaml`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}
	if format == output.FormatJSON {
		return output.PrintJSON(os.Stdout, cfg)
	}
	return output.PrintYAML(os.Stdout, cfg)
}
