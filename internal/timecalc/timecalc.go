package timecalc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the on-disk layout of calendar dates.
const DateLayout = "2006-01-02"

// ErrInvalidTime is returned by ParseTimeInput for malformed input.
var ErrInvalidTime = errors.New("invalid time input")

// GenerateID returns an entry ID derived from the creation timestamp.
func GenerateID(t time.Time) int64 {
	return t.UnixMilli()
}

// DateString formats t as YYYY-MM-DD in its own location.
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := StartOfDay(t.AddDate(0, 0, -(wd - 1)))
	sunday := EndOfDay(monday.AddDate(0, 0, 6))
	return monday, sunday
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// DaysInMonth returns the number of days in t's month.
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// MonthsAgo returns midnight of the same day n months before t.
func MonthsAgo(t time.Time, n int) time.Time {
	return StartOfDay(t.AddDate(0, -n, 0))
}

// Month identifies a calendar month. Its text form is "MM/YYYY".
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses "MM/YYYY".
func ParseMonth(s string) (Month, error) {
	m, y, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Month{}, fmt.Errorf("invalid month %q: want MM/YYYY", s)
	}
	mi, err := strconv.Atoi(m)
	if err != nil || mi < 1 || mi > 12 {
		return Month{}, fmt.Errorf("invalid month %q: want MM/YYYY", s)
	}
	yi, err := strconv.Atoi(y)
	if err != nil || yi <= 0 {
		return Month{}, fmt.Errorf("invalid month %q: want MM/YYYY", s)
	}
	return Month{Year: yi, Month: time.Month(mi)}, nil
}

func (m Month) String() string {
	return fmt.Sprintf("%02d/%d", int(m.Month), m.Year)
}

// Prefix returns the "YYYY-MM-" prefix shared by all dates in m.
func (m Month) Prefix() string {
	return fmt.Sprintf("%04d-%02d-", m.Year, int(m.Month))
}

// Contains reports whether the YYYY-MM-DD date falls in m.
func (m Month) Contains(date string) bool {
	return strings.HasPrefix(date, m.Prefix())
}

// Before reports whether m is earlier than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// MonthOfDate returns the month of a YYYY-MM-DD date.
func MonthOfDate(date string) (Month, bool) {
	if len(date) < 7 || date[4] != '-' {
		return Month{}, false
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return Month{}, false
	}
	m, err := strconv.Atoi(date[5:7])
	if err != nil || m < 1 || m > 12 {
		return Month{}, false
	}
	return Month{Year: y, Month: time.Month(m)}, true
}

// ParseTimeInput converts "H:MM", "HMM", "HHMM" or "MM" into decimal hours.
//
// Digit-only input of one or two digits is always minutes ("90" is 1.5h).
// Three or four digits are hours followed by two minute digits ("130" is 1h30m).
// Blank input yields 0 with no error.
func ParseTimeInput(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if h, m, ok := strings.Cut(s, ":"); ok {
		if len(h) < 1 || len(h) > 3 || len(m) < 1 || len(m) > 2 || !allDigits(h) || !allDigits(m) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		return hoursMinutes(s, h, m)
	}

	if !allDigits(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if len(s) <= 2 {
		m, _ := strconv.Atoi(s)
		return float64(m) / 60, nil
	}
	if len(s) > 4 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return hoursMinutes(s, s[:len(s)-2], s[len(s)-2:])
}

func hoursMinutes(raw, h, m string) (float64, error) {
	hours, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes >= 60 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	return float64(hours) + float64(minutes)/60, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// SplitMinutes rounds decimal hours to the nearest minute and splits the
// result into whole hours and remaining minutes.
func SplitMinutes(hours float64) (int, int) {
	total := int(hours*60 + 0.5)
	return total / 60, total % 60
}

// FormatTimeInput renders decimal hours as "H:MM". Non-positive or NaN input
// yields "".
func FormatTimeInput(hours float64) string {
	if hours != hours || hours <= 0 {
		return ""
	}
	h, m := SplitMinutes(hours)
	return fmt.Sprintf("%d:%02d", h, m)
}

// FormatDisplayDate renders YYYY-MM-DD as DD/MM/YYYY. Anything else is
// returned unchanged.
func FormatDisplayDate(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return date
	}
	return parts[2] + "/" + parts[1] + "/" + parts[0]
}
