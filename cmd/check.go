package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report catalog entries missing an icon or manifest",
	Long: `List every catalog entry without an icon or a manifest. The findings
are printed and written to paths.report. With --prune, empty manifests are
removed from the manifest store first and reported as missing.
Findings alone do not make the command fail.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Bool("prune", false, "delete empty manifests before checking")
}

func runCheck(cmd *cobra.Command, args []string) error {
	prune, _ := cmd.Flags().GetBool("prune")

	svc, cfg, err := newService("check")
	if err != nil {
		return err
	}

	report, err := svc.Check(cmd.Context(), prune)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, id := range report.Pruned {
		fmt.Fprintf(out, "removed empty manifest %s\n", id)
	}
	for _, f := range report.Findings {
		color.New(color.FgYellow).Fprintln(out, f.String())
	}

	if len(report.Findings) == 0 {
		color.New(color.FgGreen).Fprintf(out, "All %d entries have an icon and a manifest\n", report.Entries)
		return nil
	}
	fmt.Fprintf(out, "%d of %d entries incomplete, report written to %s\n", len(report.Findings), report.Entries, cfg.Paths.Report)
	return nil
}
