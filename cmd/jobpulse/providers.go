package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/config"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List all configured providers",
	Long:  "Reads the config and prints a table of all configured job providers.",
	RunE:  runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	printProviders(os.Stdout, cfg.Providers)
	return nil
}

func printProviders(w io.Writer, providers []config.ProviderConfig) {
	fmt.Fprintf(w, "%-20s %-12s %-40s %s\n", "Provider", "Type", "Target", "Status")
	fmt.Fprintln(w, strings.Repeat("─", 84))

	enabled, disabled := 0, 0
	for _, p := range providers {
		status := "enabled"
		if !p.Enabled {
			status = "disabled"
			disabled++
		} else {
			enabled++
		}
		target := p.BoardToken
		if p.Type == config.ProviderJobSearch {
			target = p.BaseURL
		}
		fmt.Fprintf(w, "%-20s %-12s %-40s %s\n", p.Name, p.Type, target, status)
	}

	fmt.Fprintf(w, "\nTotal: %d providers (%d enabled, %d disabled)\n", len(providers), enabled, disabled)
}
