package view

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Tiliavir/pioneer-tracker/internal/derive"
	"github.com/Tiliavir/pioneer-tracker/internal/i18n"
	"github.com/Tiliavir/pioneer-tracker/internal/logger"
	"github.com/Tiliavir/pioneer-tracker/internal/timecalc"
)

// ChartColors is the category palette, reused in order.
var ChartColors = []string{
	"#0A84FF", "#30D158", "#FF9F0A", "#AF52DE", "#5E5CE6", "#FF453A",
	"#FFD60A", "#A2845E", "#8E8E93", "#409CFF", "#52D1AA", "#FFB340",
}

// ChartWidth is the length of the longest bar.
const ChartWidth = 40

// CategoryChart prints a horizontal bar per category. A nil month, an empty
// month or a failed render each print a placeholder instead.
func CategoryChart(w io.Writer, tr *i18n.Translator, month *timecalc.Month, cats []derive.CategoryTotal) {
	title := lipgloss.NewStyle().Bold(true).Render(tr.T("categoryChartCardTitle", nil))
	if month == nil {
		fmt.Fprintln(w, placeholder(title, tr.T("feedbackChartSelectMonth", nil)))
		return
	}
	if len(cats) == 0 {
		fmt.Fprintln(w, placeholder(title, tr.T("feedbackChartNoDataMonth", map[string]string{
			"month": timecalc.FormatMonthExtensive(tr, *month),
		})))
		return
	}

	out, err := renderBars(tr, cats)
	if err != nil {
		logger.Error("chart render failed", "month", month.String(), "err", err)
		fmt.Fprintln(w, placeholder(title, tr.T("feedbackChartRenderError", nil)))
		return
	}
	if out == "" {
		fmt.Fprintln(w, placeholder(title, tr.T("chartNoCategoryData", nil)))
		return
	}
	fmt.Fprintln(w, title+"\n"+out)
}

func placeholder(title, msg string) string {
	return title + "\n" + mutedStyle.Italic(true).Render(msg)
}

func renderBars(tr *i18n.Translator, cats []derive.CategoryTotal) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rendering bars: %v", r)
		}
	}()

	var max float64
	labelWidth := 0
	for _, c := range cats {
		if c.Hours > max {
			max = c.Hours
		}
		if n := lipgloss.Width(c.Label); n > labelWidth {
			labelWidth = n
		}
	}
	if max <= 0 || math.IsNaN(max) || math.IsInf(max, 0) {
		return "", nil
	}

	var b strings.Builder
	for i, c := range cats {
		width := int(math.Round(c.Hours / max * ChartWidth))
		if c.Hours > 0 && width == 0 {
			width = 1
		}
		bar := lipgloss.NewStyle().
			Foreground(lipgloss.Color(ChartColors[i%len(ChartColors)])).
			Render(strings.Repeat("█", width))
		label := c.Label + strings.Repeat(" ", labelWidth-lipgloss.Width(c.Label))
		fmt.Fprintf(&b, "%s  %s %s\n", label, bar, timecalc.FormatHoursExtensive(tr, c.Hours, true))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
