package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyResult means every provider was reachable but none returned a usable record.
	ErrEmptyResult = errors.New("providers returned no postings")

	// ErrMalformedResponse marks a payload that could not be decoded into records or a count.
	ErrMalformedResponse = errors.New("malformed response")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// ProviderError records a network, HTTP or decode failure from one provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
