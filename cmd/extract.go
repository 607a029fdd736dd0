package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <raw-dir>",
	Short: "Turn raw generated output into manifests",
	Long: `Read every "<id>.txt" file in raw-dir, pull the manifest out of its
fenced block, normalize it for the catalog entry with that identifier and
write it to the manifest store. Rejected files are listed in paths.failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	svc, cfg, err := newService("extract")
	if err != nil {
		return err
	}

	report, err := svc.Extract(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range report.Failed {
		color.New(color.FgRed).Fprintf(out, "✗ %s\n", f)
	}
	color.New(color.FgGreen).Fprintf(out, "Wrote %d manifests to %s: ", len(report.Written), cfg.Paths.Manifests)
	fmt.Fprintf(out, "%d rejected\n", len(report.Failed))
	return nil
}
