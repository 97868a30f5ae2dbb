package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/feed"
	"github.com/amishk599/jobpulse/internal/filter"
)

var (
	checkSearch   string
	checkLocation string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Refresh once, print the feed, exit",
	Long:  "One-shot refresh: fetches from every enabled provider (or the synthetic fallback), prints the filtered feed and exits. Notifications are not sent.",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkSearch, "search", "s", "", "only show postings whose title, company or description contains this text")
	checkCmd.Flags().StringVarP(&checkLocation, "location", "l", "", "only show postings whose location contains this text")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(os.Stdout, debug)
	cfg := mustLoad(logger)
	cfg.Notification.Type = ""
	a := newApp(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snap := a.feed.Refresh(ctx)
	printSnapshot(os.Stdout, snap, checkSearch, checkLocation, time.Now())

	logger.Info("check complete")
	return nil
}

func printSnapshot(w io.Writer, snap feed.Snapshot, search, location string, now time.Time) {
	if snap.LastError != "" {
		fmt.Fprintf(w, "! %s\n\n", snap.LastError)
	}

	postings := filter.Apply(snap.Postings, search, location)
	fmt.Fprintf(w, "%-36s %-22s %-24s %s\n", "Title", "Company", "Location", "Posted")
	fmt.Fprintln(w, strings.Repeat("─", 100))
	for _, p := range postings {
		fmt.Fprintf(w, "%-36s %-22s %-24s %s\n",
			truncate(p.Title, 36), truncate(p.Company, 22), truncate(p.Location, 24),
			humanize.RelTime(p.PostedAt, now, "ago", "from now"))
	}

	fmt.Fprintf(w, "\nShowing %d of %d postings (~%s available)\n",
		len(postings), len(snap.Postings), humanize.Comma(int64(snap.AvailableCount)))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
