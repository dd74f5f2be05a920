package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Tiliavir/pioneer-tracker/internal/app"
	"github.com/Tiliavir/pioneer-tracker/internal/config"
	"github.com/Tiliavir/pioneer-tracker/internal/i18n"
	"github.com/Tiliavir/pioneer-tracker/internal/logger"
	"github.com/Tiliavir/pioneer-tracker/internal/storage"
	"github.com/Tiliavir/pioneer-tracker/internal/view"
)

var (
	flagDataDir string
	flagLang    string
	flagBackend string
	flagDebug   bool
)

// State shared by every command once setup has run.
var (
	cfg     config.Config
	kv      storage.KV
	tracker *app.App
)

var rootCmd = &cobra.Command{
	Use:   "pioneer",
	Short: "Pioneer Tracker – log field service hours against a monthly goal",
	Long: `pioneer records the hours you spend in the ministry, plans future
sessions and forecasts how much is left to reach your monthly goal.
Data is kept in ~/.pioneer/ unless configured otherwise.`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { closeStore() },
	RunE:              runDashboard,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagDataDir, "data-dir", "", "Data directory (default ~/.pioneer)")
	pf.StringVar(&flagLang, "lang", "", "Language: pt-BR, en or es (default from $LANG)")
	pf.StringVar(&flagBackend, "backend", "", "Storage backend: disk or sqlite")
	pf.BoolVar(&flagDebug, "debug", false, "Log debug output to stderr")

	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(goalCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(monthsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(outlookCmd)
	rootCmd.AddCommand(serveCmd)
}

// setup loads the configuration, starts logging, and opens the store.
func setup(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	pf := cmd.Root().PersistentFlags()
	for key, flag := range map[string]string{
		"data_dir": "data-dir",
		"language": "lang",
		"backend":  "backend",
		"debug":    "debug",
	} {
		if f := pf.Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	path, err := config.FilePath()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	c, err := config.Load(v, path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg = c

	if err := logger.Init(logger.Config{Debug: cfg.Debug, DataDir: cfg.DataDir}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	lang := i18n.DetectLanguage(firstNonEmpty(cfg.Language, os.Getenv("LC_ALL"), os.Getenv("LANG")))
	tr, err := i18n.Load(background(cmd), cfg.Translations, lang)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	kv, err = openKV(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	tracker = app.New(storage.New(kv), tr, app.Options{
		MinHoursPerDay: cfg.Tracker.MinHoursPerDay,
		OverdueHour:    cfg.Tracker.OverdueHour,
		HistoryMonths:  cfg.Tracker.HistoryMonths,
	})
	out := cmd.OutOrStdout()
	tracker.OnNotice(func(n app.Notice) { view.Feedback(out, n) })

	report, err := tracker.Startup()
	if err != nil {
		logger.Error("startup failed", "err", err)
	}
	if len(report.CorruptKeys) > 0 {
		logger.Warn("corrupt data removed", "keys", report.CorruptKeys)
	}
	logger.Debug("started", "lang", lang, "backend", cfg.Backend, "dataDir", cfg.DataDir)
	return nil
}

func openKV(c config.Config) (storage.KV, error) {
	switch c.Backend {
	case "sqlite":
		if err := os.MkdirAll(c.DataDir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return storage.OpenSQLite(filepath.Join(c.DataDir, "pioneer.db"))
	default:
		return storage.OpenDisk(c.DataDir)
	}
}

func closeStore() {
	if kv == nil {
		return
	}
	if err := kv.Close(); err != nil {
		logger.Warn("closing store", "err", err)
	}
	kv = nil
}

// exitCode maps an operation error to the process exit status: 2 when the
// data could not be read or written, 1 otherwise.
func exitCode(err error) int {
	if errors.Is(err, storage.ErrSave) || errors.Is(err, storage.ErrLoad) {
		return 2
	}
	return 1
}

// fail exits after an operation error. The user has already seen the
// localized notice, so the error itself only goes to the log.
func fail(err error) {
	logger.Error("command failed", "err", err)
	closeStore()
	os.Exit(exitCode(err))
}

// usageError reports bad arguments and exits 1.
func usageError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	closeStore()
	os.Exit(1)
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		usageError("invalid id %q", s)
	}
	return id
}

func interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func background(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
