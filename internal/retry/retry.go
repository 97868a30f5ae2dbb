// Package retry wraps providers so transient upstream failures are retried
// with exponential backoff before a refresh gives up on them.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

const (
	DefaultMaxRetries = 2
	DefaultBaseDelay  = time.Second
)

// Policy controls how many times and how long apart failed calls are retried.
type Policy struct {
	// MaxRetries is the number of additional attempts after the first failure.
	MaxRetries int
	// BaseDelay is the wait before the first retry, doubled on each later one.
	BaseDelay time.Duration
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, BaseDelay: DefaultBaseDelay}
}

var (
	_ model.Provider = (*Provider)(nil)
	_ model.Counter  = (*Counter)(nil)
)

// Provider retries FetchRecords on transient errors.
type Provider struct {
	inner  model.Provider
	policy Policy
	logger *slog.Logger
}

// NewProvider wraps inner with retry logic.
func NewProvider(inner model.Provider, policy Policy, logger *slog.Logger) *Provider {
	return &Provider{inner: inner, policy: policy, logger: logger}
}

func (p *Provider) Name() string { return p.inner.Name() }

// FetchRecords fetches from the wrapped provider, retrying on transient errors.
func (p *Provider) FetchRecords(ctx context.Context) ([]model.Record, error) {
	return do(ctx, p.policy, p.logger.With("provider", p.inner.Name()), p.inner.FetchRecords)
}

// Counter retries CountPostings on transient errors.
type Counter struct {
	inner  model.Counter
	policy Policy
	logger *slog.Logger
}

// NewCounter wraps inner with retry logic.
func NewCounter(inner model.Counter, policy Policy, logger *slog.Logger) *Counter {
	return &Counter{inner: inner, policy: policy, logger: logger}
}

// CountPostings asks the wrapped counter, retrying on transient errors.
func (c *Counter) CountPostings(ctx context.Context) (int, error) {
	return do(ctx, c.policy, c.logger, c.inner.CountPostings)
}

func do[T any](ctx context.Context, policy Policy, logger *slog.Logger, call func(context.Context) (T, error)) (T, error) {
	var zero T

	v, err := call(ctx)
	if err == nil {
		return v, nil
	}
	if !isRetryable(err) {
		return zero, err
	}

	lastErr := err
	for attempt := 1; attempt <= policy.MaxRetries; attempt++ {
		delay := policy.backoff(attempt, lastErr)

		logger.Warn("retrying after transient error",
			"attempt", attempt,
			"max_retries", policy.MaxRetries,
			"delay", delay,
			"error", lastErr,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}

		v, err = call(ctx)
		if err == nil {
			return v, nil
		}
		if !isRetryable(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, lastErr
}

// backoff computes the delay before a retry with ±30% jitter. A Retry-After
// carried by the error takes precedence.
func (p Policy) backoff(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := p.BaseDelay << (attempt - 1)
	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable reports whether err is a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// an empty board will still be empty a second from now, and a bad payload still bad
	if errors.Is(err, model.ErrEmptyResult) || errors.Is(err, model.ErrMalformedResponse) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}

	// network and DNS errors
	return true
}
