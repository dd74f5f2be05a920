package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/pioneer-tracker/internal/logger"
)

var goalCmd = &cobra.Command{
	Use:   "goal [hours]",
	Short: "Set the monthly hour goal",
	Long: `Set the monthly hour goal. Without an argument the current goal is
shown, or asked for interactively when running in a terminal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGoal,
}

func runGoal(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		// Anything but a positive whole number is rejected by SaveGoal.
		n, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil {
			n = 0
		}
		if err := tracker.SaveGoal(n); err != nil {
			fail(err)
		}
		return nil
	}

	if interactive() {
		promptGoal()
		return nil
	}
	tr := tracker.Translator()
	fmt.Fprintln(cmd.OutOrStdout(), tr.T("dashboardGoal", map[string]string{
		"goal": strconv.Itoa(tracker.Settings().MonthlyGoal),
	}))
	return nil
}

// promptGoal asks for the monthly goal. Aborting keeps the current goal and
// stops further prompts.
func promptGoal() {
	tr := tracker.Translator()
	s := tracker.Settings()
	current := s.MonthlyGoal
	if !s.GoalHasBeenSet && cfg.Tracker.DefaultGoal > 0 {
		current = cfg.Tracker.DefaultGoal
	}
	value := strconv.Itoa(current)

	err := huh.NewInput().
		Title(tr.T("feedbackGoalPrompt", nil)).
		Value(&value).
		Validate(func(v string) error {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err != nil || n <= 0 {
				return errors.New(tr.T("feedbackGoalInvalid", nil))
			}
			return nil
		}).
		Run()
	if err != nil {
		if !errors.Is(err, huh.ErrUserAborted) {
			logger.Warn("goal prompt failed", "err", err)
		}
		if err := tracker.DismissGoalPrompt(); err != nil {
			fail(err)
		}
		return
	}

	n, _ := strconv.Atoi(strings.TrimSpace(value))
	if err := tracker.SaveGoal(n); err != nil {
		fail(err)
	}
}
