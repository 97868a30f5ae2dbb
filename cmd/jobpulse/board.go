package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/board"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Browse the live feed in the terminal",
	Long:  "Interactive TUI over the feed: search, filter by location, open postings and refresh with r.",
	RunE:  runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
}

func runBoard(cmd *cobra.Command, args []string) error {
	// Log lines would corrupt the alternate screen.
	logger := setupLogger(io.Discard, debug)
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		setupLogger(os.Stderr, debug).Error("failed to load config", "error", err)
		os.Exit(1)
	}
	a := newApp(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.feed.Start(ctx); err != nil {
		return err
	}
	defer a.feed.Stop()

	return board.Run(ctx, a.feed)
}
