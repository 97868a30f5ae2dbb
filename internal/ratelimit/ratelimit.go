package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/amishk599/jobpulse/internal/model"
)

// BackendLimiter holds one token bucket per upstream backend (a job-search
// API, greenhouse, lever) so providers hitting the same backend share a budget.
type BackendLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewBackendLimiter allows requestsPerSecond sustained requests per backend
// with bursts of up to burst. A burst below 1 is raised to 1.
func NewBackendLimiter(requestsPerSecond float64, burst int) *BackendLimiter {
	if burst < 1 {
		burst = 1
	}
	return &BackendLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (l *BackendLimiter) limiterFor(backend string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[backend]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.limiters[backend] = lim
	return lim
}

// Wait blocks until the backend's bucket has a token or ctx is done.
func (l *BackendLimiter) Wait(ctx context.Context, backend string) error {
	if err := l.limiterFor(backend).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", backend, err)
	}
	return nil
}

var _ model.Provider = (*Provider)(nil)

// Provider waits on a shared BackendLimiter before delegating to the wrapped
// provider.
type Provider struct {
	inner   model.Provider
	limiter *BackendLimiter
	backend string
}

// NewProvider wraps inner with backend-level rate limiting. All providers
// targeting the same backend should share the same limiter.
func NewProvider(inner model.Provider, limiter *BackendLimiter, backend string) *Provider {
	return &Provider{inner: inner, limiter: limiter, backend: backend}
}

func (p *Provider) Name() string { return p.inner.Name() }

// FetchRecords waits for the limiter, then fetches from the wrapped provider.
func (p *Provider) FetchRecords(ctx context.Context) ([]model.Record, error) {
	if err := p.limiter.Wait(ctx, p.backend); err != nil {
		return nil, err
	}
	return p.inner.FetchRecords(ctx)
}

var _ model.Counter = (*Counter)(nil)

// Counter waits on the same BackendLimiter as the search requests before
// asking the wrapped counter.
type Counter struct {
	inner   model.Counter
	limiter *BackendLimiter
	backend string
}

// NewCounter wraps inner with backend-level rate limiting.
func NewCounter(inner model.Counter, limiter *BackendLimiter, backend string) *Counter {
	return &Counter{inner: inner, limiter: limiter, backend: backend}
}

// CountPostings waits for the limiter, then queries the wrapped counter.
func (c *Counter) CountPostings(ctx context.Context) (int, error) {
	if err := c.limiter.Wait(ctx, c.backend); err != nil {
		return 0, err
	}
	return c.inner.CountPostings(ctx)
}
