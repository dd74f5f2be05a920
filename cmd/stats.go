package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/pioneer-tracker/internal/timecalc"
	"github.com/Tiliavir/pioneer-tracker/internal/view"
)

var statsMonth string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show monthly statistics and hours by category",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsMonth, "month", "", "Month (MM/YYYY); defaults to the current month")
}

func runStats(cmd *cobra.Command, args []string) error {
	month := timecalc.MonthOf(tracker.Now())
	if statsMonth != "" {
		m, err := timecalc.ParseMonth(statsMonth)
		if err != nil {
			usageError("%v", err)
		}
		month = m
	}

	out := cmd.OutOrStdout()
	tr := tracker.Translator()
	view.Statistics(out, tr, tracker.Statistics(month))
	fmt.Fprintln(out)
	view.CategoryChart(out, tr, &month, tracker.Categories(month))
	return nil
}
