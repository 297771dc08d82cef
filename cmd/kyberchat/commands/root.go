// Package commands implements the kyberchat server CLI.
package commands

import (
	"github.com/kyberchat/kyberchat/cmd/kyberchat/commands/config"
	"github.com/spf13/cobra"
)

// build carries the linker-injected version metadata; main forwards it
// through SetVersionInfo before Execute runs.
var build = buildInfo{version: "dev", commit: "none", date: "unknown"}

type buildInfo struct {
	version string
	commit  string
	date    string
}

// SetVersionInfo records the build metadata injected into package main.
func SetVersionInfo(version, commit, date string) {
	build = buildInfo{version: version, commit: commit, date: date}
}

// cfgFile holds the --config flag shared by every subcommand.
var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "kyberchat",
	Short: "KyberChat - Post-quantum end-to-end encrypted chat server",
	Long: `KyberChat is the server side of a post-quantum end-to-end encrypted
group chat: it verifies ML-KEM credential material, relays encrypted room
keys between members, stores ciphertext it cannot read, and fans chat
events out over websockets. Private keys and plaintext never reach it.

Use "kyberchat [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI; main reports any returned error.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetConfigFile returns the path passed via --config, or "" when the
// default lookup should apply.
func GetConfigFile() string {
	return cfgFile
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/kyberchat/config.yaml)")

	rootCmd.AddCommand(versionCmd, serveCmd, initCmd, migrateCmd, userCmd, config.Cmd)
}
