package cmd

import (
	"github.com/spf13/cobra"
)

var rmYes bool

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(1),
	RunE:  runRm,
}

func init() {
	rmCmd.Flags().BoolVarP(&rmYes, "yes", "y", false, "Do not ask for confirmation")
}

func runRm(cmd *cobra.Command, args []string) error {
	id := parseID(args[0])
	if _, ok := tracker.Store().Entry(id); ok && !rmYes {
		if !confirm(tracker.Translator().T("feedbackDeleteRecordConfirm", nil)) {
			return nil
		}
	}
	if _, err := tracker.DeleteRecord(id); err != nil {
		fail(err)
	}
	return nil
}
