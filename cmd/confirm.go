package cmd

import (
	"errors"

	"github.com/charmbracelet/huh"
)

// confirm asks a yes/no question. Without a terminal it refuses, so
// destructive commands need --yes in scripts.
func confirm(title string) bool {
	if !interactive() {
		usageError("refusing to continue without confirmation; pass --yes")
	}
	tr := tracker.Translator()
	ok := false
	err := huh.NewConfirm().
		Title(title).
		Affirmative(tr.T("dialogConfirm", nil)).
		Negative(tr.T("dialogCancel", nil)).
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false
	}
	if err != nil {
		usageError("%v", err)
	}
	return ok
}
