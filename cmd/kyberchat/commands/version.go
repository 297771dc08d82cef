package commands

import (
	"runtime"

	"github.com/spf13/cobra"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display the kyberchat version, build information, and system details.`,
	Run:   runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show only version number")
}

func runVersion(cmd *cobra.Command, _ []string) {
	if versionShort {
		cmd.Println(build.version)
		return
	}

	cmd.Printf("kyberchat %s\n", build.version)
	cmd.Printf("  Commit:     %s\n", build.commit)
	cmd.Printf("  Built:      %s\n", build.date)
	cmd.Printf("  Go version: %s\n", runtime.Version())
	cmd.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
