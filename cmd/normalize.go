package cmd

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [entry...]",
	Short: "Rewrite entry manifests into canonical form",
	Long: `Rewrite the docker-compose manifest of each entry directory in place:
installer keys and the vendor name prefix are removed, the service is
re-keyed by the directory name and the name placeholder is substituted.
Without arguments every entry directory is processed.`,
	RunE: runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	normalizeCmd.Flags().Bool("prune", false, "remove stale per-entry files (manifest.prune_files)")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	prune, _ := cmd.Flags().GetBool("prune")

	svc, _, err := newService("normalize")
	if err != nil {
		return err
	}

	report, err := svc.Normalize(cmd.Context(), args, prune)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := make([]string, 0, len(report.Failed))
	for name := range report.Failed {
		failed = append(failed, name)
	}
	sort.Strings(failed)
	for _, name := range failed {
		color.New(color.FgRed).Fprintf(out, "✗ %s: %s\n", name, report.Failed[name])
	}

	color.New(color.FgGreen).Fprintf(out, "Normalized %d manifests: ", len(report.Normalized))
	fmt.Fprintf(out, "%d skipped, %d failed, %d files pruned\n", len(report.Skipped), len(report.Failed), len(report.Pruned))
	return nil
}
