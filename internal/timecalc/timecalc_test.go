package timecalc_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Tiliavir/pioneer-tracker/internal/i18n"
	"github.com/Tiliavir/pioneer-tracker/internal/timecalc"
)

func TestParseTimeInput(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"", 0},
		{"   ", 0},
		{"2:15", 2.25},
		{"0:30", 0.5},
		{"12:05", 12 + 5.0/60},
		{"100:00", 100},
		{"30", 0.5},
		{"5", 5.0 / 60},
		{"90", 1.5},
		{"130", 1.5},
		{"110", 1 + 10.0/60},
		{"1230", 12.5},
		{" 1:30 ", 1.5},
	}
	for _, tt := range tests {
		got, err := timecalc.ParseTimeInput(tt.input)
		if err != nil {
			t.Errorf("ParseTimeInput(%q) error: %v", tt.input, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ParseTimeInput(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseTimeInputInvalid(t *testing.T) {
	for _, input := range []string{"1:75", "1:60", "175", "abc", "1:", ":30", "1234:00", "12345", "1.5", "-1:00", "1:2:3"} {
		if _, err := timecalc.ParseTimeInput(input); !errors.Is(err, timecalc.ErrInvalidTime) {
			t.Errorf("ParseTimeInput(%q) err = %v, want ErrInvalidTime", input, err)
		}
	}
}

func TestFormatTimeInput(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{0, ""},
		{-1, ""},
		{math.NaN(), ""},
		{2.25, "2:15"},
		{0.5, "0:30"},
		{1 + 10.0/60, "1:10"},
		{1.999, "2:00"},
	}
	for _, tt := range tests {
		if got := timecalc.FormatTimeInput(tt.hours); got != tt.want {
			t.Errorf("FormatTimeInput(%v) = %q, want %q", tt.hours, got, tt.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for h := 0; h < 30; h += 7 {
		for m := 0; m < 60; m++ {
			if h == 0 && m == 0 {
				continue
			}
			in := timecalc.FormatTimeInput(float64(h) + float64(m)/60)
			got, err := timecalc.ParseTimeInput(in)
			if err != nil {
				t.Fatalf("ParseTimeInput(%q): %v", in, err)
			}
			if out := timecalc.FormatTimeInput(got); out != in {
				t.Errorf("round trip %q -> %v -> %q", in, got, out)
			}
		}
	}
}

func TestWeekRange(t *testing.T) {
	// 2026-02-27 is a Friday (week 9).
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	monday, sunday := timecalc.WeekRange(fri)

	wantMonday := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	wantSunday := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)

	if !monday.Equal(wantMonday) {
		t.Errorf("WeekRange monday = %v, want %v", monday, wantMonday)
	}
	if !sunday.Equal(wantSunday) {
		t.Errorf("WeekRange sunday = %v, want %v", sunday, wantSunday)
	}

	// Sunday belongs to the week that started six days earlier.
	sun := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	if monday, _ := timecalc.WeekRange(sun); !monday.Equal(wantMonday) {
		t.Errorf("WeekRange(sunday) monday = %v, want %v", monday, wantMonday)
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		t    time.Time
		want int
	}{
		{time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), 28},
		{time.Date(2028, 2, 10, 0, 0, 0, 0, time.UTC), 29},
		{time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC), 30},
		{time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), 31},
	}
	for _, tt := range tests {
		if got := timecalc.DaysInMonth(tt.t); got != tt.want {
			t.Errorf("DaysInMonth(%v) = %d, want %d", tt.t, got, tt.want)
		}
	}
}

func TestMonth(t *testing.T) {
	m, err := timecalc.ParseMonth("03/2026")
	if err != nil {
		t.Fatalf("ParseMonth: %v", err)
	}
	if m.String() != "03/2026" {
		t.Errorf("String = %q", m.String())
	}
	if !m.Contains("2026-03-31") || m.Contains("2026-04-01") {
		t.Error("Contains mismatch")
	}
	if got, ok := timecalc.MonthOfDate("2026-03-05"); !ok || got != m {
		t.Errorf("MonthOfDate = %v, %v", got, ok)
	}
	if !m.Before(timecalc.Month{Year: 2026, Month: time.April}) {
		t.Error("Before mismatch")
	}
	for _, bad := range []string{"13/2026", "2026-03", "xx/2026", "03/"} {
		if _, err := timecalc.ParseMonth(bad); err == nil {
			t.Errorf("ParseMonth(%q) expected error", bad)
		}
	}
}

func TestFormatDisplayDate(t *testing.T) {
	if got := timecalc.FormatDisplayDate("2026-10-16"); got != "16/10/2026" {
		t.Errorf("FormatDisplayDate = %q", got)
	}
	if got := timecalc.FormatDisplayDate("garbage"); got != "garbage" {
		t.Errorf("FormatDisplayDate(garbage) = %q", got)
	}
}

func TestGenerateID(t *testing.T) {
	ts := time.Date(2026, 2, 27, 8, 32, 10, 0, time.UTC)
	if got := timecalc.GenerateID(ts); got != ts.UnixMilli() {
		t.Errorf("GenerateID = %d, want %d", got, ts.UnixMilli())
	}
}

func TestFormatHoursExtensive(t *testing.T) {
	tr := i18n.New(i18n.Embedded(), "en")
	tests := []struct {
		hours float64
		short bool
		want  string
	}{
		{0, false, "0 hours"},
		{0, true, "0h"},
		{math.NaN(), false, "0 hours"},
		{2.5, false, "2 hours and 30 minutes"},
		{2.5, true, "2h 30m"},
		{1, false, "1 hour"},
		{1 + 1.0/60, false, "1 hour and 1 minute"},
		{0.25, false, "15 minutes"},
		{35, false, "35 hours"},
		{35.0 / 15, true, "2h 20m"},
	}
	for _, tt := range tests {
		if got := timecalc.FormatHoursExtensive(tr, tt.hours, tt.short); got != tt.want {
			t.Errorf("FormatHoursExtensive(%v, %v) = %q, want %q", tt.hours, tt.short, got, tt.want)
		}
	}

	pt := i18n.New(i18n.Embedded(), "pt-BR")
	if got := timecalc.FormatHoursExtensive(pt, 2.5, false); got != "2 horas e 30 minutos" {
		t.Errorf("pt-BR = %q", got)
	}
}

func TestFormatRelativeDate(t *testing.T) {
	tr := i18n.New(i18n.Embedded(), "en")
	// 2026-10-16 is a Friday.
	today := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		date string
		want string
	}{
		{"2026-10-16", "Today"},
		{"2026-10-17", "Tomorrow"},
		{"2026-10-20", "Next Tue"},
		{"2026-10-23", "Next Fri"},
		{"2026-10-24", "24/10/2026"},
		{"2026-10-15", "15/10/2026"},
		{"bad", "bad"},
	}
	for _, tt := range tests {
		if got := timecalc.FormatRelativeDate(tr, tt.date, today); got != tt.want {
			t.Errorf("FormatRelativeDate(%q) = %q, want %q", tt.date, got, tt.want)
		}
	}
}

func TestFormatMonthExtensive(t *testing.T) {
	tr := i18n.New(i18n.Embedded(), "es")
	m := timecalc.Month{Year: 2026, Month: time.October}
	if got := timecalc.FormatMonthExtensive(tr, m); got != "Octubre 2026" {
		t.Errorf("FormatMonthExtensive = %q", got)
	}
}
