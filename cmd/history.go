package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Tiliavir/pioneer-tracker/internal/view"
)

var historySearch string

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"list", "ls"},
	Short:   "List records, most recent first",
	Long: `List records, most recent first. Without --search only the last
few months are shown (tracker.history_months); a search term matches the
category, notes or date of every record.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historySearch, "search", "s", "", "Filter by category, notes or date")
}

func runHistory(cmd *cobra.Command, args []string) error {
	view.History(cmd.OutOrStdout(), tracker.Translator(), tracker.History(historySearch))
	return nil
}
