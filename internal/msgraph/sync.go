package msgraph

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/Tiliavir/pioneer-tracker/internal/model"
	"github.com/Tiliavir/pioneer-tracker/internal/timecalc"
)

// EntryStore is the part of the store an import needs.
type EntryStore interface {
	Entries() []model.Entry
	PutEntry(e model.Entry) (bool, error)
	NextID(now time.Time) int64
	Save() error
}

// SyncResult holds counters for an import.
type SyncResult struct {
	Imported int
	Skipped  int
	Updated  int
	Errors   int
}

// SyncOptions configures an import.
type SyncOptions struct {
	DryRun   bool
	Tag      string
	Timezone string
	// Out receives one progress line per event. Nil discards them.
	Out io.Writer
}

// parseGraphTime parses a Graph API dateTime string in the given timezone.
// Graph returns times like "2026-02-27T09:00:00.0000000" without a zone suffix
// when a Prefer: outlook.timezone header is set.
func parseGraphTime(dt, tz string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, dt); err == nil {
		return t, nil
	}

	loc := time.UTC
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	for _, layout := range []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, dt, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse graph time %q", dt)
}

// buildNotes combines subject and location into the entry notes.
func buildNotes(event CalendarEvent) string {
	parts := []string{}
	if s := strings.TrimSpace(event.Subject); s != "" {
		parts = append(parts, s)
	}
	if event.Location.DisplayName != "" {
		parts = append(parts, event.Location.DisplayName)
	}
	return model.TruncateNotes(strings.Join(parts, " @ "))
}

// shouldSkip returns true if the event should not be imported.
func shouldSkip(event CalendarEvent) bool {
	switch {
	case event.IsCancelled, event.IsAllDay:
		return true
	case event.Sensitivity == "private", event.ShowAs == "free":
		return true
	case event.Start.DateTime == "" || event.End.DateTime == "":
		return true
	}
	return false
}

// MapEventToEntry converts a Graph CalendarEvent into an entry dated on the
// event's start day. The ID is left for the caller to assign.
func MapEventToEntry(event CalendarEvent, timezone, tag string) (model.Entry, time.Time, error) {
	start, err := parseGraphTime(event.Start.DateTime, timezone)
	if err != nil {
		return model.Entry{}, time.Time{}, fmt.Errorf("parsing start time: %w", err)
	}
	end, err := parseGraphTime(event.End.DateTime, timezone)
	if err != nil {
		return model.Entry{}, time.Time{}, fmt.Errorf("parsing end time: %w", err)
	}
	hours := end.Sub(start).Hours()
	if hours <= 0 {
		return model.Entry{}, time.Time{}, fmt.Errorf("event %q ends before it starts", event.Subject)
	}

	return model.Entry{
		Date:       timecalc.DateString(start),
		Hours:      math.Round(hours*60) / 60,
		Tag:        tag,
		Notes:      buildNotes(event),
		ExternalID: event.ID,
	}, start, nil
}

// findByExternalID searches entries for one with the given external ID.
func findByExternalID(entries []model.Entry, externalID string) (model.Entry, bool) {
	for _, e := range entries {
		if e.ExternalID == externalID {
			return e, true
		}
	}
	return model.Entry{}, false
}

func unchanged(a, b model.Entry) bool {
	return a.Date == b.Date && a.Notes == b.Notes && math.Abs(a.Hours-b.Hours) < 1e-9
}

// SyncEvents imports events into store. Events already imported are skipped
// when unchanged and updated in place otherwise; manual entries are never
// touched. The store is saved once at the end unless DryRun is set.
func SyncEvents(events []CalendarEvent, store EntryStore, opts SyncOptions) (SyncResult, error) {
	var result SyncResult
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	existing := store.Entries()

	for _, event := range events {
		if shouldSkip(event) {
			continue
		}

		entry, start, err := MapEventToEntry(event, opts.Timezone, opts.Tag)
		if err != nil {
			fmt.Fprintf(out, "  ! Error mapping event %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}
		dur := timecalc.FormatTimeInput(entry.Hours)

		if found, ok := findByExternalID(existing, event.ID); ok {
			if unchanged(found, entry) {
				fmt.Fprintf(out, "  – Skipped:  %s (already exists)\n", event.Subject)
				result.Skipped++
				continue
			}
			entry.ID = found.ID
			if found.Tag != "" {
				entry.Tag = found.Tag
			}
			if !opts.DryRun {
				if _, err := store.PutEntry(entry); err != nil {
					fmt.Fprintf(out, "  ! Error updating %q: %v\n", event.Subject, err)
					result.Errors++
					continue
				}
			}
			fmt.Fprintf(out, "  ↑ Updated:  %s (%s)\n", event.Subject, dur)
			result.Updated++
			continue
		}

		entry.ID = store.NextID(start)
		if !opts.DryRun {
			if _, err := store.PutEntry(entry); err != nil {
				fmt.Fprintf(out, "  ! Error saving %q: %v\n", event.Subject, err)
				result.Errors++
				continue
			}
		}
		existing = append(existing, entry)
		fmt.Fprintf(out, "  ✓ Imported: %s (%s)\n", event.Subject, dur)
		result.Imported++
	}

	if opts.DryRun || result.Imported+result.Updated == 0 {
		return result, nil
	}
	if err := store.Save(); err != nil {
		return result, err
	}
	return result, nil
}
