package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/adapter"
	"github.com/amishk599/jobpulse/internal/config"
	"github.com/amishk599/jobpulse/internal/feed"
	"github.com/amishk599/jobpulse/internal/metrics"
	"github.com/amishk599/jobpulse/internal/model"
	"github.com/amishk599/jobpulse/internal/notifier"
	"github.com/amishk599/jobpulse/internal/ratelimit"
	"github.com/amishk599/jobpulse/internal/retry"
	"github.com/amishk599/jobpulse/internal/source"
	"github.com/amishk599/jobpulse/internal/synthetic"
)

const httpClientTimeout = 30 * time.Second

var (
	cfgPath string
	envFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobpulse",
	Short: "Live job feed with a synthetic fallback",
	Long:  "JobPulse keeps a capped, filterable list of fresh job postings, refreshed from upstream job APIs with sample data when they fail.",
	// Default to `start` so that `jobpulse` with no args runs the daemon.
	RunE:          runStart,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBPULSE_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config is expanded")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig loads the dotenv file, resolves the config path and parses it.
// Priority: explicit path arg > JOBPULSE_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if path == "" {
		if env := os.Getenv("JOBPULSE_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(w io.Writer, dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// setupNotifier returns nil when notifications are off.
func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	case "log":
		return notifier.NewLogNotifier(logger)
	default:
		return nil
	}
}

func createProvider(p config.ProviderConfig, httpClient *http.Client) (model.Provider, string) {
	switch p.Type {
	case config.ProviderJobSearch:
		query := adapter.JobSearchQuery{Keywords: p.Keywords, Location: p.Location, DatePosted: p.DatePosted}
		return adapter.NewJobSearchAdapter(p.Name, p.BaseURL, p.APIKey, query, httpClient), backendFor(p.BaseURL)
	case config.ProviderGreenhouse:
		return adapter.NewGreenhouseAdapter(p.BoardToken, p.Name, httpClient), config.ProviderGreenhouse
	case config.ProviderLever:
		return adapter.NewLeverAdapter(p.BoardToken, p.Name, httpClient), config.ProviderLever
	default:
		return nil, ""
	}
}

// backendFor keys the rate limiter by API host so providers sharing an API share its budget.
func backendFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return config.ProviderJobSearch
	}
	return u.Host
}

// buildProviders wraps every enabled provider in rate limiting and retry.
// The first job-search provider doubles as the approximate-count source and
// draws on the same per-backend budget.
func buildProviders(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) ([]model.Provider, model.Counter) {
	limiter := ratelimit.NewBackendLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	policy := retry.Policy{MaxRetries: cfg.Retry.MaxRetries, BaseDelay: cfg.Retry.BaseDelay}

	var (
		providers []model.Provider
		counter   model.Counter
	)
	for _, pc := range cfg.EnabledProviders() {
		p, backend := createProvider(pc, httpClient)
		if p == nil {
			logger.Warn("unsupported provider type, skipping", "provider", pc.Name, "type", pc.Type)
			continue
		}

		if c, ok := p.(model.Counter); ok && counter == nil {
			counter = retry.NewCounter(ratelimit.NewCounter(c, limiter, backend), policy, logger)
		}

		p = ratelimit.NewProvider(p, limiter, backend)
		p = retry.NewProvider(p, policy, logger)
		providers = append(providers, p)
		logger.Info("registered provider", "name", pc.Name, "type", pc.Type)
	}
	return providers, counter
}

// app bundles the pieces every feed-running command needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	feed     *feed.Feed
}

func newApp(cfg *config.Config, logger *slog.Logger) *app {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(registry)

	httpClient := &http.Client{Timeout: httpClientTimeout}
	providers, counter := buildProviders(cfg, httpClient, logger)
	if len(providers) == 0 {
		logger.Warn("no providers enabled, serving synthetic postings only")
	}

	srcOpts := []source.Option{source.WithTimeout(cfg.ProviderTimeout), source.WithMetrics(recorder)}
	if counter != nil {
		srcOpts = append(srcOpts, source.WithCounter(counter))
	}
	gen := synthetic.NewGenerator(synthetic.WithLatency(cfg.Synthetic.Latency))
	src := source.New(providers, gen, logger, srcOpts...)

	feedOpts := []feed.Option{
		feed.WithMetrics(recorder),
		feed.WithMaxPostings(cfg.MaxPostings),
		feed.WithInterval(cfg.RefreshInterval),
	}
	if n := setupNotifier(cfg, httpClient, logger); n != nil {
		feedOpts = append(feedOpts, feed.WithNotifier(n))
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		feed:     feed.New(src, logger, feedOpts...),
	}
}

// mustLoad loads the config or exits.
func mustLoad(logger *slog.Logger) *config.Config {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Debug("config loaded",
		"refresh_interval", cfg.RefreshInterval.String(),
		"max_postings", cfg.MaxPostings,
		"providers", len(cfg.EnabledProviders()),
		"provider_timeout", cfg.ProviderTimeout.String(),
	)
	return cfg
}
