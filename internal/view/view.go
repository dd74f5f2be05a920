// Package view renders derived results for the terminal. It never reads the
// store directly.
package view

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/Tiliavir/pioneer-tracker/internal/app"
	"github.com/Tiliavir/pioneer-tracker/internal/derive"
	"github.com/Tiliavir/pioneer-tracker/internal/i18n"
	"github.com/Tiliavir/pioneer-tracker/internal/model"
	"github.com/Tiliavir/pioneer-tracker/internal/timecalc"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#0A84FF")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	badgeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF453A")).Bold(true)
)

// Feedback prints a notice coloured by its level.
func Feedback(w io.Writer, n app.Notice) {
	c := color.New(color.FgCyan)
	switch n.Level {
	case app.Success:
		c = color.New(color.FgGreen)
	case app.Danger:
		c = color.New(color.FgRed, color.Bold)
	}
	_, _ = c.Fprintln(w, n.Message)
}

// ForecastText returns the localized forecast lines.
func ForecastText(tr *i18n.Translator, f derive.Forecast) []string {
	switch f.Status {
	case derive.GoalNotSet:
		return []string{tr.T("forecastGoalNotSet", nil)}
	case derive.GoalReached:
		return []string{tr.T("forecastGoalReached", nil)}
	case derive.GoalNotReached:
		return []string{tr.T("forecastGoalNotReached", nil)}
	}

	daysSuffix := tr.T("daySuffix", nil)
	if f.Days == 1 {
		daysSuffix = tr.T("daySuffixSingular", nil)
	}
	return []string{
		tr.T("forecastRemaining", map[string]string{
			"hours": timecalc.FormatHoursExtensive(tr, f.RemainingHours, false),
		}),
		tr.T("forecastPerDay", map[string]string{
			"avg":        timecalc.FormatHoursExtensive(tr, f.AvgPerDay, true),
			"days":       strconv.Itoa(f.Days),
			"daysSuffix": daysSuffix,
		}),
	}
}

// Dashboard prints the dashboard panel.
func Dashboard(w io.Writer, tr *i18n.Translator, d app.Dashboard, now time.Time) {
	var b strings.Builder
	b.WriteString(titleStyle.Render(tr.T("appTitle", nil)))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s: %s\n", tr.T("dashboardWeek", nil), timecalc.FormatHoursExtensive(tr, d.Totals.Week, false))
	fmt.Fprintf(&b, "%s: %s (%d%%)\n", tr.T("dashboardMonth", nil), timecalc.FormatHoursExtensive(tr, d.Totals.Month, false), d.Progress)
	b.WriteString(progressBar(d.Progress, 30))
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render(tr.T("dashboardGoal", map[string]string{"goal": strconv.Itoa(d.Goal)})))
	b.WriteString("\n\n")

	for _, line := range ForecastText(tr, d.Forecast) {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(tr.T("dashboardPlans", nil)))
	b.WriteString("\n")
	if len(d.Plans) == 0 {
		b.WriteString(mutedStyle.Render(tr.T("dashboardNoPlans", nil)))
	}
	for i, p := range d.Plans {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "• %s  %s", timecalc.FormatRelativeDate(tr, p.Date, now), timecalc.FormatHoursExtensive(tr, p.Hours, true))
		if p.Overdue {
			b.WriteString("  " + badgeStyle.Render(tr.T("overdueBadge", nil)))
		}
	}

	fmt.Fprintln(w, panelStyle.Render(b.String()))
}

func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#30D158")).Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
}

// Statistics prints the monthly statistics card.
func Statistics(w io.Writer, tr *i18n.Translator, st derive.Statistics) {
	bold := color.New(color.Bold)
	_, _ = bold.Fprintln(w, tr.T("statsTitle", map[string]string{"month": timecalc.FormatMonthExtensive(tr, st.Month)}))

	progress := tr.T("statsNotApplicable", nil)
	if st.ProgressApplicable {
		progress = fmt.Sprintf("%d%%", st.Progress)
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(tr.T("statsMonthHours", nil), timecalc.FormatHoursExtensive(tr, st.TotalHours, false))
	tbl.AddRow(tr.T("statsGoalProgress", nil), progress)
	tbl.AddRow(tr.T("statsAvgHoursDay", nil), timecalc.FormatHoursExtensive(tr, st.AvgPerDay, true))
	tbl.AddRow(tr.T("statsDaysActive", nil), strconv.Itoa(st.ActiveDays))
	fmt.Fprintln(w, tbl)
}

// History prints entries as a table with a result count.
func History(w io.Writer, tr *i18n.Translator, entries []model.Entry) {
	if len(entries) == 0 {
		_, _ = color.New(color.Faint, color.Italic).Fprintln(w, tr.T("historyEmpty", nil))
		return
	}
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	tbl.AddRow(
		bold.Sprint(tr.T("columnId", nil)),
		bold.Sprint(tr.T("columnDate", nil)),
		bold.Sprint(tr.T("columnHours", nil)),
		bold.Sprint(tr.T("columnTag", nil)),
		bold.Sprint(tr.T("columnNotes", nil)),
	)
	for _, e := range entries {
		tbl.AddRow(e.ID, timecalc.FormatDisplayDate(e.Date), timecalc.FormatTimeInput(e.Hours), e.Tag, e.Notes)
	}
	fmt.Fprintln(w, tbl)
	_, _ = color.New(color.Faint).Fprintln(w, tr.T("showingResults", map[string]string{"count": strconv.Itoa(len(entries))}))
}

// Plans prints every plan with its relative date and overdue flag.
func Plans(w io.Writer, tr *i18n.Translator, plans []derive.RelevantPlan, now time.Time) {
	if len(plans) == 0 {
		_, _ = color.New(color.Faint, color.Italic).Fprintln(w, tr.T("planningEmpty", nil))
		return
	}
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(
		bold.Sprint(tr.T("columnId", nil)),
		bold.Sprint(tr.T("columnDate", nil)),
		bold.Sprint(tr.T("columnHours", nil)),
		bold.Sprint(tr.T("columnStatus", nil)),
	)
	for _, p := range plans {
		status := ""
		if p.Overdue {
			status = red.Sprint(tr.T("overdueBadge", nil))
		}
		tbl.AddRow(p.ID, timecalc.FormatRelativeDate(tr, p.Date, now), timecalc.FormatTimeInput(p.Hours), status)
	}
	fmt.Fprintln(w, tbl)
}

// Months prints the month selector options.
func Months(w io.Writer, tr *i18n.Translator, months []derive.MonthOption) {
	faint := color.New(color.Faint)
	tbl := uitable.New()
	tbl.Separator = "  "
	for _, m := range months {
		var notes []string
		if m.Current {
			notes = append(notes, tr.T("monthsCurrent", nil))
		}
		if !m.HasData {
			notes = append(notes, tr.T("monthsNoData", nil))
		}
		tbl.AddRow(m.Month.String(), timecalc.FormatMonthExtensive(tr, m.Month), faint.Sprint(strings.Join(notes, ", ")))
	}
	fmt.Fprintln(w, tbl)
}
