package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Tiliavir/pioneer-tracker/internal/view"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show week and month totals, the forecast and upcoming plans",
	Args:  cobra.NoArgs,
	RunE:  runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if tracker.NeedsGoalPrompt() && interactive() {
		promptGoal()
	}
	view.Dashboard(cmd.OutOrStdout(), tracker.Translator(), tracker.Dashboard(), tracker.Now())
	return nil
}
