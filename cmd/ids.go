package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var idsCmd = &cobra.Command{
	Use:   "ids",
	Short: "Print fresh entry identifiers",
	Long:  `Print identifiers that collide with no entry of the current catalog.`,
	Args:  cobra.NoArgs,
	RunE:  runIDs,
}

func init() {
	rootCmd.AddCommand(idsCmd)
	idsCmd.Flags().IntP("count", "n", 1, "number of identifiers to print")
}

func runIDs(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")

	svc, _, err := newService("ids")
	if err != nil {
		return err
	}

	ids, err := svc.FreshIDs(count)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}
