package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/pioneer-tracker/internal/logger"
	"github.com/Tiliavir/pioneer-tracker/internal/offline"
)

var (
	serveAddr      string
	serveOrigin    string
	serveCacheName string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an offline-capable mirror of the web app",
	Long: `Serve a local mirror of the web app. Its assets are precached under a
versioned cache name so the app keeps loading when the origin is
unreachable. A new cache version waits until the previous one is released
or POST /_offline/skip-waiting is called.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:8787)")
	serveCmd.Flags().StringVar(&serveOrigin, "origin", "", "Upstream URL of the web app")
	serveCmd.Flags().StringVar(&serveCacheName, "cache-name", "", "Cache version to install")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := firstNonEmpty(serveAddr, cfg.Server.Addr)
	origin := firstNonEmpty(serveOrigin, cfg.Server.Origin)
	name := firstNonEmpty(serveCacheName, cfg.Server.CacheName)
	if origin == "" {
		usageError("no origin configured: pass --origin or set server.origin")
	}

	m, err := offline.NewManager(filepath.Join(cfg.DataDir, "cache"), origin, nil, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		usageError("%v", err)
	}

	ctx, stop := signal.NotifyContext(background(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := m.Install(ctx, name); err != nil {
		logger.Warn("installing offline cache failed", "cache", name, "err", err)
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not install cache %s: %v\n", name, err)
	}
	if w := m.Waiting(); w != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Cache %s is waiting; POST %s to activate it.\n", w, offline.SkipWaitingPath)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           m,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s (cache %s)\n", origin, addr, m.Active())

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down offline server")
	return srv.Shutdown(shutdownCtx)
}
