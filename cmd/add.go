package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/pioneer-tracker/internal/app"
	"github.com/Tiliavir/pioneer-tracker/internal/timecalc"
)

var (
	addDate  string
	addTag   string
	addNotes string
	addID    string
)

var addCmd = &cobra.Command{
	Use:   "add <time>",
	Short: "Log hours, or edit a record with --id",
	Long: `Log hours for a day. Time accepts H:MM, plain minutes ("45") or
compact hours and minutes ("130" for 1:30).

With --id the record is edited instead; only the flags given change.`,
	Example: `  pioneer add 1:30
  pioneer add 45 --date 2026-10-14 --tag "Bible study" --notes "Rua A"
  pioneer add 2:00 --id 1760601600000`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addDate, "date", "", "Date (YYYY-MM-DD); defaults to today")
	addCmd.Flags().StringVar(&addTag, "tag", "", "Category; defaults to house to house")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "Optional notes")
	addCmd.Flags().StringVar(&addID, "id", "", "Edit the record with this id")
}

func runAdd(cmd *cobra.Command, args []string) error {
	in := app.RecordInput{Date: timecalc.DateString(tracker.Now())}
	if addID != "" {
		var err error
		if in, err = tracker.StartRecordEdit(parseID(addID)); err != nil {
			fail(err)
		}
	}

	in.Time = args[0]
	flags := cmd.Flags()
	if flags.Changed("date") {
		in.Date = addDate
	}
	if flags.Changed("tag") {
		in.Tag = addTag
	}
	if flags.Changed("notes") {
		in.Notes = addNotes
	}

	e, err := tracker.SubmitRecord(in)
	if err != nil {
		fail(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %d  %s  %s  %s\n",
		e.ID, timecalc.FormatDisplayDate(e.Date), timecalc.FormatTimeInput(e.Hours), e.Tag)
	return nil
}
