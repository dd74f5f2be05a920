package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/pioneer-tracker/internal/model"
	"github.com/Tiliavir/pioneer-tracker/internal/timecalc"
)

var (
	exportFormat string
	exportMonth  string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export records to stdout or a file",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json, md")
	exportCmd.Flags().StringVar(&exportMonth, "month", "", "Only records of this month (MM/YYYY)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write to this file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	entries := tracker.Entries()
	if exportMonth != "" {
		m, err := timecalc.ParseMonth(exportMonth)
		if err != nil {
			usageError("%v", err)
		}
		entries = filterMonth(entries, m)
	}

	var buf bytes.Buffer
	switch exportFormat {
	case "json":
		if err := writeJSON(&buf, entries); err != nil {
			return err
		}
	case "md":
		writeMarkdown(&buf, entries)
	case "csv":
		writeCSV(&buf, entries)
	default:
		usageError("unknown format %q: want csv, json or md", exportFormat)
	}

	if exportOut == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := atomic.WriteFile(exportOut, &buf); err != nil {
		return fmt.Errorf("writing %s: %w", exportOut, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", len(entries), exportOut)
	return nil
}

func filterMonth(entries []model.Entry, m timecalc.Month) []model.Entry {
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if m.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

func writeJSON(w io.Writer, entries []model.Entry) error {
	if entries == nil {
		entries = []model.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeCSV(w io.Writer, entries []model.Entry) {
	fmt.Fprintln(w, "id,date,hours,minutes,tag,notes,external_id")
	for _, e := range entries {
		h, m := timecalc.SplitMinutes(e.Hours)
		fmt.Fprintf(w, "%d,%s,%s,%d,%s,%s,%s\n",
			e.ID,
			csvEscape(e.Date),
			csvEscape(timecalc.FormatTimeInput(e.Hours)),
			h*60+m,
			csvEscape(e.Tag),
			csvEscape(e.Notes),
			csvEscape(e.ExternalID),
		)
	}
}

// writeMarkdown prints one table per month, newest month first.
func writeMarkdown(w io.Writer, entries []model.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries found.")
		return
	}
	var current string
	var total float64
	flush := func() {
		if current != "" {
			fmt.Fprintf(w, "| | **Total** | **%s** | | |\n\n", timecalc.FormatTimeInput(total))
		}
	}
	for _, e := range entries {
		month := e.Date[:min(7, len(e.Date))]
		if month != current {
			flush()
			current, total = month, 0
			fmt.Fprintf(w, "## %s\n\n", month)
			fmt.Fprintln(w, "| ID | Date | Hours | Category | Notes |")
			fmt.Fprintln(w, "|---|---|---|---|---|")
		}
		total += e.Hours
		fmt.Fprintf(w, "| %d | %s | %s | %s | %s |\n",
			e.ID, timecalc.FormatDisplayDate(e.Date), timecalc.FormatTimeInput(e.Hours), mdEscape(e.Tag), mdEscape(e.Notes))
	}
	flush()
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	needsQuote := false
	for _, c := range s {
		if c == ',' || c == '"' || c == '\n' || c == '\r' {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return s
	}
	// Escape internal double quotes by doubling them.
	escaped := ""
	for _, c := range s {
		if c == '"' {
			escaped += "\""
		}
		escaped += string(c)
	}
	return `"` + escaped + `"`
}
