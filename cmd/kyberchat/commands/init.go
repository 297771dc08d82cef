package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kyberchat/kyberchat/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Write a commented sample configuration file.

Without --config the file goes to $XDG_CONFIG_HOME/kyberchat/config.yaml.
An existing file is left untouched unless --force is given.

Examples:
  # Initialize with default location
  kyberchat init

  # Initialize with custom path
  kyberchat init --config /etc/kyberchat/config.yaml

  # Force overwrite existing config
  kyberchat init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, _ []string) error {
	path, err := writeSampleConfig(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	cmd.Printf("Configuration file created at: %s\n", path)
	cmd.Println("\nNext steps:")
	cmd.Println("  1. Edit the configuration file to customize your setup")
	cmd.Println("  2. Start the server with: kyberchat serve")
	cmd.Printf("  3. Or specify custom config: kyberchat serve --config %s\n", path)
	cmd.Println("\nSecurity note:")
	cmd.Println("  A random JWT secret has been generated for development use.")
	cmd.Println("  For production, generate a secure secret and use an environment variable:")
	cmd.Println("    # Generates a 64-character hex string (32 bytes of entropy)")
	cmd.Println("    export KYBERCHAT_AUTH_JWT_SECRET=$(openssl rand -hex 32)")
	return nil
}

// writeSampleConfig creates the sample file at path, or at the default
// location when path is empty.
func writeSampleConfig(path string) (string, error) {
	if path != "" {
		return path, config.InitConfigToPath(path, initForce)
	}
	return config.InitConfig(initForce)
}
