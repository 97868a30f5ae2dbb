package model

import (
	"context"
	"time"
)

// Posting is the canonical representation of a job listing from any provider.
type Posting struct {
	ID          string    `json:"id"`          // unique within the current feed
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	PostedAt    time.Time `json:"posted_at"`
	LogoURL     string    `json:"logo_url"`
	ApplyURL    string    `json:"apply_url"`            // "#" when the provider has none
	SourceURL   string    `json:"source_url,omitempty"` // original listing, not all providers set it
	Source      string    `json:"source"`               // provider name, "synthetic" or "sample"
}

// Record is one raw provider-specific job record, as decoded from JSON.
// Field names differ between providers; see adapter.Normalize.
type Record map[string]any

// Provider fetches raw job records from an upstream job-listing source.
type Provider interface {
	Name() string
	FetchRecords(ctx context.Context) ([]Record, error)
}

// Counter reports the approximate number of postings an upstream source
// has for the configured query.
type Counter interface {
	CountPostings(ctx context.Context) (int, error)
}

// Notifier announces postings that appeared in the feed after a refresh.
// Implementations should give up once ctx is done.
type Notifier interface {
	Notify(ctx context.Context, postings []Posting) error
}
