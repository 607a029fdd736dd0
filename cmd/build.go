package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Assemble the catalog from the apps directory",
	Long: `Scan the apps directory for entry descriptors, assign identifiers
(reusing those of the previous catalog) and replace the catalog file.
Entries whose descriptor cannot be read are kept with a description_error.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	svc, cfg, err := newService("build")
	if err != nil {
		return err
	}

	cat, err := svc.Build(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	diagnostics := cat.Diagnostics()
	for _, e := range diagnostics {
		color.New(color.FgYellow).Fprintf(out, "! %s (%s): %s\n", e.Path, e.ID, e.DescriptionError)
	}
	color.New(color.FgGreen).Fprintf(out, "Catalog written to %s: ", cfg.Paths.Catalog)
	fmt.Fprintf(out, "%d entries, %d with diagnostics\n", len(cat.Apps), len(diagnostics))
	return nil
}
