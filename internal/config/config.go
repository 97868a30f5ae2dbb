package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider types understood by the CLI.
const (
	ProviderJobSearch  = "jobsearch"
	ProviderGreenhouse = "greenhouse"
	ProviderLever      = "lever"
)

const (
	defaultRefreshInterval = 5 * time.Minute
	defaultMaxPostings     = 20
	defaultProviderTimeout = 15 * time.Second
	defaultRequestsPerSec  = 1.0
	defaultBurst           = 2
	defaultMaxRetries      = 2
	defaultRetryBaseDelay  = time.Second
	defaultServerAddr      = ":8080"

	slackWebhookPrefix = "https://hooks.slack.com/"
)

// Config is the root configuration for jobpulse.
type Config struct {
	RefreshInterval time.Duration
	MaxPostings     int
	ProviderTimeout time.Duration
	Providers       []ProviderConfig
	RateLimit       RateLimitConfig
	Retry           RetryConfig
	Synthetic       SyntheticConfig
	Notification    NotificationConfig
	Server          ServerConfig
}

// ProviderConfig describes one upstream job source.
type ProviderConfig struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"` // "jobsearch", "greenhouse" or "lever"
	Enabled bool   `yaml:"enabled"`

	// jobsearch
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"` // expanded from env var by Load
	Keywords   string `yaml:"keywords"`
	Location   string `yaml:"location"`
	DatePosted string `yaml:"date_posted"`

	// greenhouse and lever
	BoardToken string `yaml:"board_token"`
}

// RateLimitConfig bounds request rate per upstream backend.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// RetryConfig controls retries of transient provider failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// SyntheticConfig tunes the fallback generator.
type SyntheticConfig struct {
	Latency time.Duration // simulated generation delay
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log", "slack" or "" for none
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// ServerConfig configures `jobpulse serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// EnabledProviders returns the providers with enabled set.
func (c *Config) EnabledProviders() []ProviderConfig {
	var out []ProviderConfig
	for _, p := range c.Providers {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	RefreshInterval string             `yaml:"refresh_interval"`
	MaxPostings     int                `yaml:"max_postings"`
	ProviderTimeout string             `yaml:"provider_timeout"`
	Providers       []ProviderConfig   `yaml:"providers"`
	RateLimit       rawRateLimitConfig `yaml:"rate_limit"`
	Retry           rawRetryConfig     `yaml:"retry"`
	Synthetic       rawSyntheticConfig `yaml:"synthetic"`
	Notification    NotificationConfig `yaml:"notification"`
	Server          ServerConfig       `yaml:"server"`
}

type rawRateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

type rawSyntheticConfig struct {
	Latency string `yaml:"latency"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse expands environment variables in data, decodes it and applies defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	interval, err := parseDuration("refresh_interval", raw.RefreshInterval, defaultRefreshInterval)
	if err != nil {
		return nil, err
	}
	timeout, err := parseDuration("provider_timeout", raw.ProviderTimeout, defaultProviderTimeout)
	if err != nil {
		return nil, err
	}
	baseDelay, err := parseDuration("retry.base_delay", raw.Retry.BaseDelay, defaultRetryBaseDelay)
	if err != nil {
		return nil, err
	}
	latency, err := parseDuration("synthetic.latency", raw.Synthetic.Latency, 0)
	if err != nil {
		return nil, err
	}

	maxRetries := defaultMaxRetries
	if raw.Retry.MaxRetries != nil {
		maxRetries = *raw.Retry.MaxRetries
	}

	cfg := &Config{
		RefreshInterval: interval,
		MaxPostings:     raw.MaxPostings,
		ProviderTimeout: timeout,
		Providers:       raw.Providers,
		RateLimit: RateLimitConfig{
			RequestsPerSecond: raw.RateLimit.RequestsPerSecond,
			Burst:             raw.RateLimit.Burst,
		},
		Retry:        RetryConfig{MaxRetries: maxRetries, BaseDelay: baseDelay},
		Synthetic:    SyntheticConfig{Latency: latency},
		Notification: raw.Notification,
		Server:       raw.Server,
	}
	if cfg.MaxPostings == 0 {
		cfg.MaxPostings = defaultMaxPostings
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = defaultRequestsPerSec
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = defaultBurst
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultServerAddr
	}
	for i := range cfg.Providers {
		if cfg.Providers[i].Name == "" {
			cfg.Providers[i].Name = cfg.Providers[i].BoardToken
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDuration(key, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, value, err)
	}
	return d, nil
}

func validate(cfg *Config) error {
	if cfg.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be positive, got %v", cfg.RefreshInterval)
	}
	if cfg.MaxPostings < 1 || cfg.MaxPostings > defaultMaxPostings {
		return fmt.Errorf("max_postings must be between 1 and %d, got %d", defaultMaxPostings, cfg.MaxPostings)
	}
	if cfg.ProviderTimeout <= 0 {
		return fmt.Errorf("provider_timeout must be positive, got %v", cfg.ProviderTimeout)
	}
	if cfg.RateLimit.RequestsPerSecond < 0 || cfg.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit values must not be negative")
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Synthetic.Latency < 0 {
		return fmt.Errorf("synthetic.latency must not be negative, got %v", cfg.Synthetic.Latency)
	}

	seen := make(map[string]bool)
	for i, p := range cfg.Providers {
		if p.Name == "" {
			return fmt.Errorf("providers[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("providers[%d]: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = true

		if !p.Enabled {
			continue
		}
		switch p.Type {
		case ProviderJobSearch:
			if p.BaseURL == "" {
				return fmt.Errorf("provider %q: base_url is required for type %q", p.Name, p.Type)
			}
		case ProviderGreenhouse, ProviderLever:
			if p.BoardToken == "" {
				return fmt.Errorf("provider %q: board_token is required for type %q", p.Name, p.Type)
			}
		default:
			return fmt.Errorf("provider %q: unknown type %q", p.Name, p.Type)
		}
	}

	switch cfg.Notification.Type {
	case "", "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, slackWebhookPrefix) {
			return fmt.Errorf("notification.webhook_url must start with %s", slackWebhookPrefix)
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	return nil
}
