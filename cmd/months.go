package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Tiliavir/pioneer-tracker/internal/view"
)

var monthsCmd = &cobra.Command{
	Use:   "months",
	Short: "List months with records, for use with stats --month",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		view.Months(cmd.OutOrStdout(), tracker.Translator(), tracker.Months())
		return nil
	},
}
