// Package source produces batches of postings for the feed. It asks the
// configured providers first and falls back to synthetic postings when they
// fail or come back empty. Nothing here returns a provider error to the caller.
package source

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobpulse/internal/adapter"
	"github.com/amishk599/jobpulse/internal/metrics"
	"github.com/amishk599/jobpulse/internal/model"
)

const defaultTimeout = 15 * time.Second

// Kind tags where a batch came from.
type Kind int

const (
	// Authoritative batches come from at least one real provider.
	Authoritative Kind = iota
	// Fallback batches were generated because no provider yielded postings.
	Fallback
)

func (k Kind) String() string {
	switch k {
	case Authoritative:
		return "authoritative"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Batch is the result of one Fetch.
type Batch struct {
	Postings []model.Posting
	Kind     Kind
	Reason   error // why the fallback ran; nil for Authoritative batches
}

// Generator produces synthetic postings.
type Generator interface {
	Generate(ctx context.Context) ([]model.Posting, error)
}

// JobSource fetches and normalizes postings from a set of providers.
type JobSource struct {
	providers []model.Provider
	counter   model.Counter
	generator Generator
	timeout   time.Duration
	metrics   *metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a JobSource.
type Option func(*JobSource)

// WithCounter sets the collaborator answering FetchApproximateCount.
func WithCounter(c model.Counter) Option {
	return func(s *JobSource) { s.counter = c }
}

// WithTimeout bounds each provider and count call. A call exceeding it is
// treated as a provider failure.
func WithTimeout(d time.Duration) Option {
	return func(s *JobSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMetrics records per-provider counters.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *JobSource) { s.metrics = m }
}

// WithClock replaces time.Now for stamping records without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *JobSource) { s.now = now }
}

// New creates a JobSource over providers, falling back to gen.
func New(providers []model.Provider, gen Generator, logger *slog.Logger, opts ...Option) *JobSource {
	s := &JobSource{
		providers: providers,
		generator: gen,
		timeout:   defaultTimeout,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch runs the two-step pipeline: providers first, then the synthetic
// generator if they produced nothing.
func (s *JobSource) Fetch(ctx context.Context) Batch {
	postings, err := s.fetchPrimary(ctx)
	if len(postings) > 0 {
		return Batch{Postings: postings, Kind: Authoritative}
	}

	reason := err
	if reason == nil {
		reason = model.ErrEmptyResult
	}

	generated, genErr := s.generator.Generate(ctx)
	if genErr != nil {
		s.logger.Error("synthetic generation failed", "error", genErr)
		reason = errors.Join(reason, genErr)
	}

	s.logger.Warn("using synthetic postings", "count", len(generated), "reason", reason)
	return Batch{Postings: generated, Kind: Fallback, Reason: reason}
}

// FetchBatch returns the normalized postings from all providers. Provider
// failures are logged and contribute nothing; the result may be empty.
func (s *JobSource) FetchBatch(ctx context.Context) []model.Posting {
	postings, _ := s.fetchPrimary(ctx)
	return postings
}

// FetchApproximateCount returns the upstream's reported match count, or 0
// when there is no counter or the query fails.
func (s *JobSource) FetchApproximateCount(ctx context.Context) int {
	if s.counter == nil {
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.counter.CountPostings(ctx)
	if err != nil {
		s.logger.Debug("count query failed", "error", err)
		return 0
	}
	if n < 0 {
		return 0
	}
	return n
}

// fetchPrimary queries every provider concurrently and concatenates the
// normalized results in provider order. The returned error joins each
// provider's failure.
func (s *JobSource) fetchPrimary(ctx context.Context) ([]model.Posting, error) {
	results := make([][]model.Posting, len(s.providers))
	errs := make([]error, len(s.providers))

	var g errgroup.Group
	for i, p := range s.providers {
		g.Go(func() error {
			results[i], errs[i] = s.fetchOne(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	var postings []model.Posting
	for _, r := range results {
		postings = append(postings, r...)
	}
	return postings, errors.Join(errs...)
}

func (s *JobSource) fetchOne(ctx context.Context, p model.Provider) ([]model.Posting, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	recs, err := p.FetchRecords(ctx)
	if err != nil {
		s.metrics.RecordProviderError(p.Name())
		s.logger.Error("provider fetch failed", "provider", p.Name(), "error", err)
		return nil, &model.ProviderError{Provider: p.Name(), Err: err}
	}

	postings := adapter.NormalizeAll(recs, p.Name(), s.now())
	s.metrics.RecordProviderRecords(p.Name(), len(postings))
	s.logger.Debug("provider fetched", "provider", p.Name(), "records", len(postings))
	return postings, nil
}
