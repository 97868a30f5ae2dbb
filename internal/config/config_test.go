package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Setenv("JOBSEARCH_API_KEY", "s3cret")
	path := writeConfig(t, `
refresh_interval: 2m
max_postings: 15
provider_timeout: 10s
providers:
  - name: jsearch
    type: jobsearch
    base_url: https://jobs.example.com/v1
    api_key: ${JOBSEARCH_API_KEY}
    keywords: software engineer
    location: India
    date_posted: today
    enabled: true
  - type: greenhouse
    board_token: acme
    enabled: true
  - name: beta
    type: lever
    board_token: beta
    enabled: false
rate_limit:
  requests_per_second: 0.5
  burst: 3
retry:
  max_retries: 0
  base_delay: 2s
synthetic:
  latency: 250ms
notification:
  type: log
server:
  addr: 127.0.0.1:9090
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RefreshInterval != 2*time.Minute {
		t.Errorf("RefreshInterval = %v, want 2m", cfg.RefreshInterval)
	}
	if cfg.MaxPostings != 15 {
		t.Errorf("MaxPostings = %d, want 15", cfg.MaxPostings)
	}
	if cfg.ProviderTimeout != 10*time.Second {
		t.Errorf("ProviderTimeout = %v, want 10s", cfg.ProviderTimeout)
	}
	if len(cfg.Providers) != 3 {
		t.Fatalf("Providers = %d, want 3", len(cfg.Providers))
	}
	js := cfg.Providers[0]
	if js.APIKey != "s3cret" || js.Keywords != "software engineer" || js.DatePosted != "today" {
		t.Errorf("jobsearch provider = %+v", js)
	}
	if cfg.Providers[1].Name != "acme" {
		t.Errorf("unnamed provider should default to its board token, got %q", cfg.Providers[1].Name)
	}
	if got := len(cfg.EnabledProviders()); got != 2 {
		t.Errorf("EnabledProviders = %d, want 2", got)
	}
	if cfg.RateLimit.RequestsPerSecond != 0.5 || cfg.RateLimit.Burst != 3 {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Retry.MaxRetries != 0 || cfg.Retry.BaseDelay != 2*time.Second {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
	if cfg.Synthetic.Latency != 250*time.Millisecond {
		t.Errorf("Synthetic.Latency = %v", cfg.Synthetic.Latency)
	}
	if cfg.Server.Addr != "127.0.0.1:9090" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("providers: []\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.RefreshInterval != 5*time.Minute {
		t.Errorf("RefreshInterval = %v, want 5m", cfg.RefreshInterval)
	}
	if cfg.MaxPostings != 20 {
		t.Errorf("MaxPostings = %d, want 20", cfg.MaxPostings)
	}
	if cfg.ProviderTimeout != 15*time.Second {
		t.Errorf("ProviderTimeout = %v, want 15s", cfg.ProviderTimeout)
	}
	if cfg.Retry.MaxRetries != 2 || cfg.Retry.BaseDelay != time.Second {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
	if cfg.RateLimit.RequestsPerSecond != 1 || cfg.RateLimit.Burst != 2 {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if len(cfg.EnabledProviders()) != 0 {
		t.Error("expected no enabled providers")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml")); err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "refresh_interval: [broken")
	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"zero interval", "refresh_interval: 0s", "refresh_interval must be positive"},
		{"bad interval", "refresh_interval: soon", "parse refresh_interval"},
		{"negative max postings", "max_postings: -1", "max_postings"},
		{"max postings above cap", "max_postings: 21", "max_postings"},
		{"bad timeout", "provider_timeout: forever", "parse provider_timeout"},
		{"negative retries", "retry:\n  max_retries: -1", "retry.max_retries"},
		{"unknown provider type", "providers:\n  - name: x\n    type: workday\n    enabled: true", "unknown type"},
		{"jobsearch without base_url", "providers:\n  - name: x\n    type: jobsearch\n    enabled: true", "base_url is required"},
		{"greenhouse without token", "providers:\n  - name: x\n    type: greenhouse\n    enabled: true", "board_token is required"},
		{"duplicate names", "providers:\n  - name: x\n    type: lever\n    board_token: a\n  - name: x\n    type: lever\n    board_token: b", "duplicate name"},
		{"slack without webhook", "notification:\n  type: slack", "webhook_url is required"},
		{"slack with bad webhook", "notification:\n  type: slack\n  webhook_url: https://example.com/hook", "must start with https://hooks.slack.com/"},
		{"unknown notifier", "notification:\n  type: email", "notification.type"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.content))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestParse_DisabledProviderSkipsTypeChecks(t *testing.T) {
	content := "providers:\n  - name: legacy\n    type: workday\n    enabled: false"
	if _, err := Parse([]byte(content)); err != nil {
		t.Fatalf("Parse: %v", err)
	}
}
