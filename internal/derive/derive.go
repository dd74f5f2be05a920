// Package derive computes dashboard, forecast and statistics figures from a
// snapshot of entries, plans and settings. Nothing here touches storage.
package derive

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Tiliavir/pioneer-tracker/internal/model"
	"github.com/Tiliavir/pioneer-tracker/internal/timecalc"
)

// DefaultMinHoursPerDay is the lowest daily average a forecast suggests.
const DefaultMinHoursPerDay = 1.0

// DefaultOverdueHour is the local hour after which a plan for today counts
// as overdue.
const DefaultOverdueHour = 18

// DefaultPlanLimit caps the plans shown on the dashboard.
const DefaultPlanLimit = 3

// Totals holds the hours logged in the current week and month.
type Totals struct {
	Week  float64
	Month float64
}

// WeekAndMonthTotals sums entries from Monday of today's week up to and
// including today, and entries in today's calendar month.
func WeekAndMonthTotals(entries []model.Entry, today time.Time) Totals {
	monday, _ := timecalc.WeekRange(today)
	from := timecalc.DateString(monday)
	to := timecalc.DateString(today)
	month := timecalc.MonthOf(today)

	var t Totals
	for _, e := range entries {
		if e.Date >= from && e.Date <= to {
			t.Week += e.Hours
		}
		if month.Contains(e.Date) {
			t.Month += e.Hours
		}
	}
	return t
}

// GoalProgress returns monthHours as a percentage of goal, rounded and
// capped at 100.
func GoalProgress(monthHours float64, goal int) int {
	if goal <= 0 || monthHours <= 0 {
		return 0
	}
	p := int(math.Round(monthHours / float64(goal) * 100))
	if p > 100 {
		return 100
	}
	return p
}

// ForecastStatus tells which forecast message applies.
type ForecastStatus int

const (
	// GoalNotSet means the user never confirmed a goal.
	GoalNotSet ForecastStatus = iota
	// GoalReached means the month total met the goal.
	GoalReached
	// GoalNotReached means today is the last day and the goal was missed.
	GoalNotReached
	// OnTrack means hours remain and there are days left to do them.
	OnTrack
)

// Forecast is the daily recommendation to reach the monthly goal.
type Forecast struct {
	Status         ForecastStatus
	RemainingHours float64
	// AvgPerDay is the hours per day needed over Days days.
	AvgPerDay float64
	Days      int
	// Respread is set when the raw average fell under the minimum and the
	// remaining hours were spread over fewer days at the minimum rate.
	Respread bool
}

// ComputeForecast derives the forecast for today's month. minPerDay values
// that are not positive fall back to DefaultMinHoursPerDay.
func ComputeForecast(monthHours float64, goal int, today time.Time, goalSet bool, minPerDay float64) Forecast {
	if !goalSet {
		return Forecast{Status: GoalNotSet}
	}
	if monthHours >= float64(goal) {
		return Forecast{Status: GoalReached}
	}

	remaining := float64(goal) - monthHours
	remainingDays := timecalc.DaysInMonth(today) - today.Day()
	if remainingDays <= 0 {
		return Forecast{Status: GoalNotReached, RemainingHours: remaining}
	}
	if minPerDay <= 0 || math.IsNaN(minPerDay) {
		minPerDay = DefaultMinHoursPerDay
	}

	f := Forecast{
		Status:         OnTrack,
		RemainingHours: remaining,
		AvgPerDay:      remaining / float64(remainingDays),
		Days:           remainingDays,
	}
	if f.AvgPerDay < minPerDay {
		f.Respread = true
		f.AvgPerDay = minPerDay
		f.Days = int(math.Ceil(remaining / minPerDay))
	}
	return f
}

// Statistics summarises one month.
type Statistics struct {
	Month      timecalc.Month
	TotalHours float64
	ActiveDays int
	AvgPerDay  float64
	// Progress is the goal percentage; only meaningful when ProgressApplicable.
	Progress           int
	ProgressApplicable bool
}

// MonthlyStatistics totals the entries of month and averages them over the
// distinct days with at least one entry.
func MonthlyStatistics(entries []model.Entry, month timecalc.Month, goal int, goalSet bool) Statistics {
	st := Statistics{Month: month}
	days := map[string]struct{}{}
	for _, e := range entries {
		if !month.Contains(e.Date) {
			continue
		}
		st.TotalHours += e.Hours
		days[e.Date] = struct{}{}
	}
	st.ActiveDays = len(days)
	if st.ActiveDays > 0 {
		st.AvgPerDay = st.TotalHours / float64(st.ActiveDays)
	}
	if goalSet {
		st.ProgressApplicable = true
		st.Progress = GoalProgress(st.TotalHours, goal)
	}
	return st
}

// CategoryTotal is the hours logged under one tag.
type CategoryTotal struct {
	Label string
	Hours float64
}

// CategoryTotals groups the entries of month by tag. Untagged entries are
// grouped under otherLabel. Results are rounded to two decimals and sorted by
// hours descending; ties keep first-seen order.
func CategoryTotals(entries []model.Entry, month timecalc.Month, otherLabel string) []CategoryTotal {
	index := map[string]int{}
	var out []CategoryTotal
	for _, e := range entries {
		if !month.Contains(e.Date) {
			continue
		}
		label := strings.TrimSpace(e.Tag)
		if label == "" {
			label = otherLabel
		}
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, CategoryTotal{Label: label})
		}
		out[i].Hours += e.Hours
	}
	for i := range out {
		out[i].Hours = math.Round(out[i].Hours*100) / 100
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hours > out[j].Hours })
	return out
}

// MonthOption is one entry of the month selector.
type MonthOption struct {
	Month   timecalc.Month
	HasData bool
	Current bool
}

// AvailableMonths lists every month with at least one entry, most recent
// first. Today's month is always present; it is injected at the front with
// HasData unset when no entry falls in it.
func AvailableMonths(entries []model.Entry, today time.Time) []MonthOption {
	current := timecalc.MonthOf(today)
	seen := map[timecalc.Month]bool{}
	var months []timecalc.Month
	for _, e := range entries {
		m, ok := timecalc.MonthOfDate(e.Date)
		if !ok || seen[m] {
			continue
		}
		seen[m] = true
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[j].Before(months[i]) })

	out := make([]MonthOption, 0, len(months)+1)
	if !seen[current] {
		out = append(out, MonthOption{Month: current, Current: true})
	}
	for _, m := range months {
		out = append(out, MonthOption{Month: m, HasData: true, Current: m == current})
	}
	return out
}

// RelevantPlan is a plan annotated for the dashboard.
type RelevantPlan struct {
	model.Plan
	Overdue bool
}

// IsOverdue reports whether a plan dated date has lapsed at now: its date
// is before today, or it is today and the local hour reached cutoffHour.
func IsOverdue(date string, now time.Time, cutoffHour int) bool {
	today := timecalc.DateString(now)
	return date < today || (date == today && now.Hour() >= cutoffHour)
}

// RelevantPlans returns the upcoming plans together with the overdue ones,
// deduplicated by id, soonest first and cut to limit. A limit of zero or less
// uses DefaultPlanLimit.
func RelevantPlans(plans []model.Plan, now time.Time, cutoffHour, limit int) []RelevantPlan {
	if limit <= 0 {
		limit = DefaultPlanLimit
	}
	today := timecalc.DateString(now)

	seen := map[int64]bool{}
	var out []RelevantPlan
	add := func(p model.Plan) {
		if seen[p.ID] {
			return
		}
		seen[p.ID] = true
		out = append(out, RelevantPlan{Plan: p, Overdue: IsOverdue(p.Date, now, cutoffHour)})
	}
	for _, p := range plans {
		if p.Date >= today {
			add(p)
		}
	}
	for _, p := range plans {
		if IsOverdue(p.Date, now, cutoffHour) {
			add(p)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// EntryFromPlan builds the entry recorded when plan is marked done. The entry
// keeps the plan's date when that date has passed, otherwise it is dated today.
func EntryFromPlan(plan model.Plan, today time.Time, id int64, tag, note string) model.Entry {
	date := timecalc.DateString(today)
	if plan.Date < date {
		date = plan.Date
	}
	return model.Entry{
		ID:    id,
		Date:  date,
		Hours: plan.Hours,
		Tag:   tag,
		Notes: model.TruncateNotes(note),
	}
}

// FilterHistory selects the entries shown in the history list. A blank search
// keeps entries from the last months months; otherwise every entry whose tag,
// notes or display date contains search (case-insensitively) is kept.
func FilterHistory(entries []model.Entry, search string, today time.Time, months int) []model.Entry {
	search = strings.ToLower(strings.TrimSpace(search))
	var out []model.Entry
	if search == "" {
		cutoff := timecalc.DateString(timecalc.MonthsAgo(today, months))
		for _, e := range entries {
			if e.Date >= cutoff {
				out = append(out, e)
			}
		}
		return out
	}
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Tag), search) ||
			strings.Contains(strings.ToLower(e.Notes), search) ||
			strings.Contains(timecalc.FormatDisplayDate(e.Date), search) ||
			strings.Contains(e.Date, search) {
			out = append(out, e)
		}
	}
	return out
}
