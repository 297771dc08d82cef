// Package config groups the configuration management subcommands.
package config

import (
	"github.com/spf13/cobra"

	"github.com/kyberchat/kyberchat/pkg/config"
)

// Cmd is the parent "config" command; the root command mounts it.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Inspect and maintain the KyberChat configuration file.

The file itself is created with 'kyberchat init'. From there:

  edit      open the configuration in $EDITOR
  show      print the effective configuration
  validate  check a configuration file for errors
  schema    emit a JSON schema for IDE completion`,
}

func init() {
	Cmd.AddCommand(editCmd, showCmd, validateCmd, schemaCmd)
}

// configPathFromFlags resolves the root command's --config flag, falling
// back to the default location when it is unset.
func configPathFromFlags(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	return path
}
