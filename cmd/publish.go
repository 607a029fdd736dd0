package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Write the catalog with public icon and manifest URLs",
	Long: `Enrich every catalog entry with its icon_url and docker_compose_url,
built from the links templates, and write the list to paths.published.`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	svc, cfg, err := newService("publish")
	if err != nil {
		return err
	}

	n, err := svc.Publish(cmd.Context())
	if err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Published %d entries to %s\n", n, cfg.Paths.Published)
	return nil
}
