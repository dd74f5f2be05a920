package view_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Tiliavir/pioneer-tracker/internal/app"
	"github.com/Tiliavir/pioneer-tracker/internal/derive"
	"github.com/Tiliavir/pioneer-tracker/internal/i18n"
	"github.com/Tiliavir/pioneer-tracker/internal/model"
	"github.com/Tiliavir/pioneer-tracker/internal/timecalc"
	"github.com/Tiliavir/pioneer-tracker/internal/view"
)

var en = i18n.New(i18n.Embedded(), "en")

func TestForecastText(t *testing.T) {
	tests := []struct {
		name string
		f    derive.Forecast
		want []string
	}{
		{"not set", derive.Forecast{Status: derive.GoalNotSet}, []string{"Set a monthly goal to see your forecast."}},
		{"reached", derive.Forecast{Status: derive.GoalReached}, []string{"Goal reached! Well done."}},
		{"missed", derive.Forecast{Status: derive.GoalNotReached}, []string{"Goal not reached this month."}},
		{
			"on track",
			derive.Forecast{Status: derive.OnTrack, RemainingHours: 35, AvgPerDay: 35.0 / 15, Days: 15},
			[]string{"35 hours remaining", "~2h 20m/day for 15 days"},
		},
		{
			"single day",
			derive.Forecast{Status: derive.OnTrack, RemainingHours: 1, AvgPerDay: 1, Days: 1, Respread: true},
			[]string{"1 hour remaining", "~1h/day for 1 day"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, view.ForecastText(en, tt.f)); diff != "" {
				t.Errorf("ForecastText mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDashboard(t *testing.T) {
	now := time.Date(2026, 10, 16, 19, 0, 0, 0, time.UTC)
	d := app.Dashboard{
		Totals:   derive.Totals{Week: 2.5, Month: 35},
		Goal:     70,
		GoalSet:  true,
		Progress: 50,
		Forecast: derive.Forecast{Status: derive.OnTrack, RemainingHours: 35, AvgPerDay: 35.0 / 15, Days: 15},
		Plans: []derive.RelevantPlan{
			{Plan: model.Plan{ID: 1, Date: "2026-10-16", Hours: 2}, Overdue: true},
			{Plan: model.Plan{ID: 2, Date: "2026-10-17", Hours: 1.5}},
		},
	}
	var buf bytes.Buffer
	view.Dashboard(&buf, en, d, now)
	out := buf.String()

	for _, want := range []string{
		"This week: 2 hours and 30 minutes",
		"This month: 35 hours (50%)",
		"Goal: 70h",
		"35 hours remaining",
		"Today  2h",
		"overdue",
		"Tomorrow  1h 30m",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard missing %q:\n%s", want, out)
		}
	}
}

func TestDashboardNoPlans(t *testing.T) {
	var buf bytes.Buffer
	view.Dashboard(&buf, en, app.Dashboard{Goal: 70}, time.Now())
	if !strings.Contains(buf.String(), "No plans scheduled.") {
		t.Errorf("missing empty-plans text:\n%s", buf.String())
	}
}

func TestCategoryChart(t *testing.T) {
	oct := timecalc.Month{Year: 2026, Month: time.October}

	tests := []struct {
		name  string
		month *timecalc.Month
		cats  []derive.CategoryTotal
		want  string
	}{
		{"no month", nil, nil, "Select a month to see the chart."},
		{"no data", &oct, nil, "No records for October 2026."},
		{"render error", &oct, []derive.CategoryTotal{{Label: "A", Hours: 3}, {Label: "B", Hours: -1}}, "Could not render the chart."},
		{"zero hours", &oct, []derive.CategoryTotal{{Label: "A", Hours: 0}}, "No category data for this month."},
		{"bars", &oct, []derive.CategoryTotal{{Label: "A", Hours: 3}, {Label: "Bible", Hours: 1}}, "Bible"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			view.CategoryChart(&buf, en, tt.month, tt.cats)
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("chart output missing %q:\n%s", tt.want, buf.String())
			}
		})
	}
}

func TestCategoryChartBarLengths(t *testing.T) {
	oct := timecalc.Month{Year: 2026, Month: time.October}
	var buf bytes.Buffer
	view.CategoryChart(&buf, en, &oct, []derive.CategoryTotal{{Label: "A", Hours: 4}, {Label: "B", Hours: 1}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want title + 2 bars:\n%s", len(lines), buf.String())
	}
	if a, b := strings.Count(lines[1], "█"), strings.Count(lines[2], "█"); a != view.ChartWidth || b != view.ChartWidth/4 {
		t.Errorf("bar lengths = %d, %d; want %d, %d", a, b, view.ChartWidth, view.ChartWidth/4)
	}
}

func TestHistoryAndPlans(t *testing.T) {
	var buf bytes.Buffer
	view.History(&buf, en, nil)
	if !strings.Contains(buf.String(), "No records found.") {
		t.Errorf("history empty = %q", buf.String())
	}

	buf.Reset()
	view.History(&buf, en, []model.Entry{{ID: 7, Date: "2026-10-16", Hours: 1.5, Tag: "Letters", Notes: "n"}})
	for _, want := range []string{"16/10/2026", "1:30", "Letters", "Showing 1 records"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("history missing %q:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	view.Plans(&buf, en, []derive.RelevantPlan{{Plan: model.Plan{ID: 1, Date: "2026-10-15", Hours: 1}, Overdue: true}}, now)
	for _, want := range []string{"15/10/2026", "overdue"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("plans missing %q:\n%s", want, buf.String())
		}
	}
}

func TestMonths(t *testing.T) {
	var buf bytes.Buffer
	view.Months(&buf, en, []derive.MonthOption{
		{Month: timecalc.Month{Year: 2026, Month: time.October}, Current: true},
		{Month: timecalc.Month{Year: 2026, Month: time.August}, HasData: true},
	})
	out := buf.String()
	for _, want := range []string{"10/2026", "October 2026", "current, no data", "August 2026"} {
		if !strings.Contains(out, want) {
			t.Errorf("months missing %q:\n%s", want, out)
		}
	}
}

func TestFeedback(t *testing.T) {
	var buf bytes.Buffer
	view.Feedback(&buf, app.Notice{Level: app.Danger, Message: "boom"})
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("feedback = %q", buf.String())
	}
}
