package app

import (
	"github.com/Tiliavir/pioneer-tracker/internal/derive"
	"github.com/Tiliavir/pioneer-tracker/internal/model"
	"github.com/Tiliavir/pioneer-tracker/internal/timecalc"
)

// Dashboard is everything the dashboard shows.
type Dashboard struct {
	Totals   derive.Totals
	Goal     int
	GoalSet  bool
	Progress int
	Forecast derive.Forecast
	Plans    []derive.RelevantPlan
}

// Dashboard derives the dashboard from the current snapshot.
func (a *App) Dashboard() Dashboard {
	now := a.Now()
	entries := a.store.Entries()
	settings := a.store.Settings()
	totals := derive.WeekAndMonthTotals(entries, now)
	return Dashboard{
		Totals:   totals,
		Goal:     settings.MonthlyGoal,
		GoalSet:  settings.GoalHasBeenSet,
		Progress: derive.GoalProgress(totals.Month, settings.MonthlyGoal),
		Forecast: derive.ComputeForecast(totals.Month, settings.MonthlyGoal, now, settings.GoalHasBeenSet, a.opts.MinHoursPerDay),
		Plans:    derive.RelevantPlans(a.store.Plans(), now, a.opts.OverdueHour, derive.DefaultPlanLimit),
	}
}

// Statistics derives the statistics card for month.
func (a *App) Statistics(month timecalc.Month) derive.Statistics {
	s := a.store.Settings()
	return derive.MonthlyStatistics(a.store.Entries(), month, s.MonthlyGoal, s.GoalHasBeenSet)
}

// Categories groups month's hours by tag.
func (a *App) Categories(month timecalc.Month) []derive.CategoryTotal {
	return derive.CategoryTotals(a.store.Entries(), month, a.tr.T("chartCategoryOther", nil))
}

// Months lists the month selector options.
func (a *App) Months() []derive.MonthOption {
	return derive.AvailableMonths(a.store.Entries(), a.Now())
}

// History returns the entries matching search, most recent first.
func (a *App) History(search string) []model.Entry {
	return derive.FilterHistory(a.store.Entries(), search, a.Now(), a.opts.HistoryMonths)
}

// Plans returns every plan, soonest first, with its overdue flag.
func (a *App) Plans() []derive.RelevantPlan {
	now := a.Now()
	plans := a.store.Plans()
	out := make([]derive.RelevantPlan, 0, len(plans))
	for _, p := range plans {
		out = append(out, derive.RelevantPlan{Plan: p, Overdue: derive.IsOverdue(p.Date, now, a.opts.OverdueHour)})
	}
	return out
}

// Entries returns every entry, most recent first.
func (a *App) Entries() []model.Entry {
	return a.store.Entries()
}

// Settings returns the current settings.
func (a *App) Settings() model.Settings {
	return a.store.Settings()
}
