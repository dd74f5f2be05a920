package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/pioneer-tracker/internal/app"
	"github.com/Tiliavir/pioneer-tracker/internal/timecalc"
	"github.com/Tiliavir/pioneer-tracker/internal/view"
)

var (
	planID  string
	planYes bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Schedule hours for upcoming days",
	Args:  cobra.NoArgs,
	RunE:  runPlanList,
}

var planAddCmd = &cobra.Command{
	Use:   "add <date> <time>",
	Short: "Plan hours for a day (today or later), or edit a plan with --id",
	Example: `  pioneer plan add 2026-10-20 2:00
  pioneer plan add 2026-10-21 1:30 --id 1760601600000`,
	Args: cobra.ExactArgs(2),
	RunE: runPlanAdd,
}

var planListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all plans",
	Args:    cobra.NoArgs,
	RunE:    runPlanList,
}

var planDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Turn a plan into a record",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanDone,
}

var planRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanRm,
}

func init() {
	planAddCmd.Flags().StringVar(&planID, "id", "", "Edit the plan with this id")
	planRmCmd.Flags().BoolVarP(&planYes, "yes", "y", false, "Do not ask for confirmation")
	planCmd.AddCommand(planAddCmd, planListCmd, planDoneCmd, planRmCmd)
}

func runPlanAdd(cmd *cobra.Command, args []string) error {
	if planID != "" {
		if _, err := tracker.StartPlanEdit(parseID(planID)); err != nil {
			fail(err)
		}
	}
	p, err := tracker.SubmitPlan(app.PlanInput{Date: args[0], Time: args[1]})
	if err != nil {
		fail(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %d  %s  %s\n",
		p.ID, timecalc.FormatRelativeDate(tracker.Translator(), p.Date, tracker.Now()), timecalc.FormatTimeInput(p.Hours))
	return nil
}

func runPlanList(cmd *cobra.Command, args []string) error {
	view.Plans(cmd.OutOrStdout(), tracker.Translator(), tracker.Plans(), tracker.Now())
	return nil
}

func runPlanDone(cmd *cobra.Command, args []string) error {
	e, err := tracker.MarkPlanDone(parseID(args[0]))
	if err != nil {
		fail(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %d  %s  %s  %s\n",
		e.ID, timecalc.FormatDisplayDate(e.Date), timecalc.FormatTimeInput(e.Hours), e.Notes)
	return nil
}

func runPlanRm(cmd *cobra.Command, args []string) error {
	id := parseID(args[0])
	if _, ok := tracker.Store().Plan(id); ok && !planYes {
		if !confirm(tracker.Translator().T("feedbackDeletePlanConfirm", nil)) {
			return nil
		}
	}
	if _, err := tracker.DeletePlan(id); err != nil {
		fail(err)
	}
	return nil
}
