package timecalc

import (
	"strconv"
	"strings"
	"time"
)

// Translator resolves localized strings.
type Translator interface {
	T(key string, params map[string]string) string
	List(key string) []string
}

// FormatHoursExtensive renders decimal hours as "2 hours and 30 minutes", or
// "2h 30m" when short is set, using the hoursFormat template of tr.
func FormatHoursExtensive(tr Translator, hours float64, short bool) string {
	zeroKey := "hoursSuffix"
	if short {
		zeroKey = "hoursShortSuffix"
	}
	zero := "0" + tr.T(zeroKey, nil)
	if hours != hours || hours <= 0 {
		return zero
	}

	h, m := SplitMinutes(hours)
	if h == 0 && m == 0 {
		return zero
	}

	hKey, mKey := "hoursShortSuffix", "minutesShortSuffix"
	if !short {
		hKey, mKey = "hoursSuffix", "minutesSuffix"
		if h == 1 {
			hKey = "hoursSuffixSingular"
		}
		if m == 1 {
			mKey = "minutesSuffixSingular"
		}
	}

	params := map[string]string{"hours": "", "hSuffix": "", "connector": "", "minutes": "", "mSuffix": ""}
	if h > 0 {
		params["hours"] = strconv.Itoa(h)
		params["hSuffix"] = tr.T(hKey, nil)
	}
	if m > 0 {
		params["minutes"] = strconv.Itoa(m)
		params["mSuffix"] = tr.T(mKey, nil)
	}
	if h > 0 && m > 0 {
		params["connector"] = " "
		if !short {
			params["connector"] = tr.T("connectorAnd", nil)
		}
	}

	out := strings.Join(strings.Fields(tr.T("hoursFormat", params)), " ")
	if out == "" {
		return zero
	}
	return out
}

// FormatMonthExtensive renders a month as "October 2026".
func FormatMonthExtensive(tr Translator, m Month) string {
	names := tr.List("monthNames")
	if len(names) != 12 {
		return m.String()
	}
	return names[m.Month-1] + " " + strconv.Itoa(m.Year)
}

// FormatRelativeDate renders a YYYY-MM-DD date relative to today: "today",
// "tomorrow", "next <weekday>" within a week, DD/MM/YYYY otherwise.
func FormatRelativeDate(tr Translator, date string, today time.Time) string {
	d, err := ParseDate(date, today.Location())
	if err != nil {
		return FormatDisplayDate(date)
	}
	weekdays := tr.List("weekdayNamesShort")
	if len(weekdays) != 7 {
		return FormatDisplayDate(date)
	}

	start := StartOfDay(today)
	tomorrow := start.AddDate(0, 0, 1)
	weekOut := start.AddDate(0, 0, 7)
	switch {
	case d.Equal(start):
		return tr.T("today", nil)
	case d.Equal(tomorrow):
		return tr.T("tomorrow", nil)
	case d.After(tomorrow) && !d.After(weekOut):
		return tr.T("nextWeekday", map[string]string{"weekday": weekdays[d.Weekday()]})
	}
	return FormatDisplayDate(date)
}
