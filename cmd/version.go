package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build information, set from main.
var (
	BuildVersion = "dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

// SetVersionInfo records the build information injected at link time.
// Empty values keep their defaults.
func SetVersionInfo(version, commit, date string) {
	if version != "" {
		BuildVersion = version
	}
	if commit != "" {
		BuildCommit = commit
	}
	if date != "" {
		BuildDate = date
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display the dockcatalog version, commit hash, and build date.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Fprintln(out, BuildVersion)
			return
		}
		fmt.Fprintf(out, "dockcatalog %s\n", BuildVersion)
		fmt.Fprintf(out, "Commit: %s\n", BuildCommit)
		fmt.Fprintf(out, "Built: %s\n", BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "Show only version number")
}
