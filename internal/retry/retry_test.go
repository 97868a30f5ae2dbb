package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockProvider calls fn on each invocation, tracking call count.
type mockProvider struct {
	calls int
	fn    func(attempt int) ([]model.Record, error)
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) FetchRecords(_ context.Context) ([]model.Record, error) {
	m.calls++
	return m.fn(m.calls)
}

type mockCounter struct {
	calls int
	fn    func(attempt int) (int, error)
}

func (m *mockCounter) CountPostings(_ context.Context) (int, error) {
	m.calls++
	return m.fn(m.calls)
}

func fastPolicy() Policy {
	return Policy{MaxRetries: 2, BaseDelay: 10 * time.Millisecond}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	mock := &mockProvider{fn: func(_ int) ([]model.Record, error) {
		return []model.Record{{"id": "1", "title": "Engineer"}}, nil
	}}

	rp := NewProvider(mock, fastPolicy(), discardLogger())
	got, err := rp.FetchRecords(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0]["id"] != "1" {
		t.Fatalf("unexpected records: %v", got)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
	if rp.Name() != "mock" {
		t.Errorf("Name() = %q, want mock", rp.Name())
	}
}

func TestRetry_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	mock := &mockProvider{fn: func(attempt int) ([]model.Record, error) {
		if attempt == 1 {
			return nil, &model.HTTPError{StatusCode: 503, Err: errors.New("service unavailable")}
		}
		return []model.Record{{"id": "1"}}, nil
	}}

	got, err := NewProvider(mock, fastPolicy(), discardLogger()).FetchRecords(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_NonRetryableErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"4xx", &model.HTTPError{StatusCode: 404, Err: errors.New("not found")}},
		{"empty result", model.ErrEmptyResult},
		{"malformed payload", fmt.Errorf("decoding response: %w: %w", model.ErrMalformedResponse, errors.New("unexpected EOF"))},
		{"deadline", context.DeadlineExceeded},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mock := &mockProvider{fn: func(_ int) ([]model.Record, error) { return nil, tc.err }}

			_, err := NewProvider(mock, fastPolicy(), discardLogger()).FetchRecords(context.Background())
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
			if mock.calls != 1 {
				t.Fatalf("expected 1 call (no retry), got %d", mock.calls)
			}
		})
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	mock := &mockProvider{fn: func(_ int) ([]model.Record, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	_, err := NewProvider(mock, fastPolicy(), discardLogger()).FetchRecords(context.Background())
	if err == nil {
		t.Fatal("expected error after max retries, got nil")
	}
	// 1 initial + 2 retries
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls (1 + 2 retries), got %d", mock.calls)
	}
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	mock := &mockProvider{fn: func(_ int) ([]model.Record, error) {
		return nil, errors.New("connection reset")
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProvider(mock, Policy{MaxRetries: 2, BaseDelay: time.Second}, discardLogger()).FetchRecords(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", mock.calls)
	}
}

func TestRetry_HonoursRetryAfter(t *testing.T) {
	p := fastPolicy()
	err := &model.HTTPError{StatusCode: 429, RetryAfter: 7 * time.Second}
	if got := p.backoff(1, err); got != 7*time.Second {
		t.Errorf("backoff = %v, want 7s", got)
	}
}

func TestRetry_BackoffDoublesWithinJitter(t *testing.T) {
	p := Policy{MaxRetries: 3, BaseDelay: 100 * time.Millisecond}
	for attempt, base := range map[int]time.Duration{1: 100 * time.Millisecond, 2: 200 * time.Millisecond, 3: 400 * time.Millisecond} {
		got := p.backoff(attempt, errors.New("x"))
		low, high := time.Duration(float64(base)*0.7), time.Duration(float64(base)*1.3)
		if got < low || got > high {
			t.Errorf("attempt %d: backoff = %v, want within [%v, %v]", attempt, got, low, high)
		}
	}
}

func TestCounter_RetriesTransientFailure(t *testing.T) {
	mock := &mockCounter{fn: func(attempt int) (int, error) {
		if attempt == 1 {
			return 0, &model.HTTPError{StatusCode: 429, Err: errors.New("slow down")}
		}
		return 512, nil
	}}

	got, err := NewCounter(mock, fastPolicy(), discardLogger()).CountPostings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 512 || mock.calls != 2 {
		t.Errorf("got %d after %d calls, want 512 after 2", got, mock.calls)
	}
}
