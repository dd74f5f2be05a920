package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/pioneer-tracker/internal/msgraph"
	"github.com/Tiliavir/pioneer-tracker/internal/timecalc"
)

var (
	outlookSyncFrom   string
	outlookSyncTo     string
	outlookSyncDate   string
	outlookSyncToday  bool
	outlookSyncDryRun bool
	outlookSyncTag    string
	outlookSyncTZ     string
)

var outlookCmd = &cobra.Command{
	Use:   "outlook",
	Short: "Outlook calendar integration",
}

var outlookImportCmd = &cobra.Command{
	Use:     "import",
	Aliases: []string{"sync"},
	Short:   "Import Outlook calendar events as records",
	Long: `Import Outlook calendar events as records. Cancelled, all-day,
private and free events are skipped. Running the import again only
updates events that changed.`,
	Args: cobra.NoArgs,
	RunE: runOutlookImport,
}

func init() {
	f := outlookImportCmd.Flags()
	f.StringVar(&outlookSyncFrom, "from", "", "Start date (YYYY-MM-DD); required when --to is specified")
	f.StringVar(&outlookSyncTo, "to", "", "End date (YYYY-MM-DD); defaults to today")
	f.StringVar(&outlookSyncDate, "date", "", "Import a specific date (YYYY-MM-DD)")
	f.BoolVar(&outlookSyncToday, "today", false, "Import only today (default)")
	f.BoolVar(&outlookSyncDryRun, "dry-run", false, "Print planned operations without writing")
	f.StringVar(&outlookSyncTag, "tag", "", "Category for imported events (default from config, then house to house)")
	f.StringVar(&outlookSyncTZ, "timezone", "", "IANA timezone for event times (e.g. America/Sao_Paulo)")
	outlookCmd.AddCommand(outlookImportCmd)
}

// importRange resolves the --date/--from/--to flags into a time range.
func importRange(now time.Time) (time.Time, time.Time) {
	switch {
	case outlookSyncDate != "":
		d, err := time.ParseInLocation(timecalc.DateLayout, outlookSyncDate, now.Location())
		if err != nil {
			usageError("invalid --date value %q: %v", outlookSyncDate, err)
		}
		return timecalc.StartOfDay(d), timecalc.EndOfDay(d)

	case outlookSyncFrom != "" || outlookSyncTo != "":
		if outlookSyncFrom == "" {
			usageError("--from is required when --to is specified")
		}
		from, err := time.ParseInLocation(timecalc.DateLayout, outlookSyncFrom, now.Location())
		if err != nil {
			usageError("invalid --from value %q: %v", outlookSyncFrom, err)
		}
		to := now
		if outlookSyncTo != "" {
			if to, err = time.ParseInLocation(timecalc.DateLayout, outlookSyncTo, now.Location()); err != nil {
				usageError("invalid --to value %q: %v", outlookSyncTo, err)
			}
		}
		if to.Before(from) {
			usageError("--to must not be before --from")
		}
		return timecalc.StartOfDay(from), timecalc.EndOfDay(to)
	}
	return timecalc.StartOfDay(now), timecalc.EndOfDay(now)
}

func runOutlookImport(cmd *cobra.Command, args []string) error {
	from, to := importRange(tracker.Now())
	out := cmd.OutOrStdout()

	tag := firstNonEmpty(outlookSyncTag, cfg.Outlook.Tag, tracker.DefaultTag())
	timezone := firstNonEmpty(outlookSyncTZ, cfg.Outlook.Timezone)

	dryTag := ""
	if outlookSyncDryRun {
		dryTag = " [dry-run]"
	}
	fmt.Fprintf(out, "Importing Outlook events (%s → %s)%s...\n\n",
		timecalc.DateString(from), timecalc.DateString(to), dryTag)

	ctx := background(cmd)
	tokenPath := msgraph.TokenFile(cfg.DataDir)

	tok, oc, err := msgraph.Authenticate(ctx, cfg.Outlook.TenantID, cfg.Outlook.ClientID, tokenPath, out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Authentication failed: %v\n", err)
		closeStore()
		os.Exit(1)
	}

	client := msgraph.NewClient(ctx, tok, oc, tokenPath)
	events, err := client.GetCalendarView(ctx, from, to, timezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch calendar events: %v\n", err)
		closeStore()
		os.Exit(1)
	}

	result, err := msgraph.SyncEvents(events, tracker.Store(), msgraph.SyncOptions{
		DryRun:   outlookSyncDryRun,
		Tag:      tag,
		Timezone: timezone,
		Out:      out,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import error: %v\n", err)
		closeStore()
		os.Exit(exitCode(err))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Summary:")
	fmt.Fprintf(out, "  %d imported\n", result.Imported)
	fmt.Fprintf(out, "  %d skipped\n", result.Skipped)
	fmt.Fprintf(out, "  %d updated\n", result.Updated)
	if result.Errors > 0 {
		fmt.Fprintf(out, "  %d errors\n", result.Errors)
		closeStore()
		os.Exit(2)
	}
	return nil
}
