package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the feed over HTTP",
	Long:  "Run the refresh loop and expose GET /api/jobs, POST /api/refresh, /health and /metrics.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(os.Stdout, debug)
	cfg := mustLoad(logger)
	a := newApp(cfg, logger)

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.feed.Start(ctx); err != nil {
		return err
	}
	defer a.feed.Stop()

	srv := httpapi.New(a.feed, logger, httpapi.WithGatherer(a.registry))
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		logger.Error("http server error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
