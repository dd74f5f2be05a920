package model

// NotesMaxLength is the maximum number of characters kept in Entry.Notes.
const NotesMaxLength = 300

// DefaultMonthlyGoal is the monthly hour goal used until the user sets one.
const DefaultMonthlyGoal = 70

// Entry represents a logged block of hours on a specific date.
type Entry struct {
	ID    int64   `json:"id"`
	Date  string  `json:"date"` // YYYY-MM-DD, local calendar date
	Hours float64 `json:"hours"`
	Tag   string  `json:"tag"`
	Notes string  `json:"notes"`
	// ExternalID links entries imported from a calendar back to their event.
	ExternalID string `json:"externalId,omitempty"`
}

// Plan is a commitment of hours on a future (or lapsed) date.
type Plan struct {
	ID    int64   `json:"id"`
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// Settings holds the user's monthly goal.
type Settings struct {
	MonthlyGoal    int  `json:"monthlyGoal"`
	GoalHasBeenSet bool `json:"goalHasBeenSet"`
}

// DefaultSettings returns the settings of a fresh install.
func DefaultSettings() Settings {
	return Settings{MonthlyGoal: DefaultMonthlyGoal}
}

// TruncateNotes cuts s to NotesMaxLength characters.
func TruncateNotes(s string) string {
	r := []rune(s)
	if len(r) <= NotesMaxLength {
		return s
	}
	return string(r[:NotesMaxLength])
}
