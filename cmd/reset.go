package cmd

import (
	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all records, plans and settings",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Do not ask for confirmation")
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetYes && !confirm(tracker.Translator().T("feedbackClearAllConfirm", nil)) {
		return nil
	}
	if err := tracker.ClearAll(); err != nil {
		fail(err)
	}
	return nil
}
