package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/amishk599/jobpulse/internal/model"
)

var (
	_ model.Provider = (*JobSearchAdapter)(nil)
	_ model.Counter  = (*JobSearchAdapter)(nil)
)

// JobSearchQuery holds the keyword, location and recency filters sent upstream.
type JobSearchQuery struct {
	Keywords   string
	Location   string
	DatePosted string // e.g. "today", "3days", "week"
}

// JobSearchAdapter queries a keyword job-search API authenticated with a
// bearer token. The payload is either a JSON array of job records or an
// object wrapping one.
type JobSearchAdapter struct {
	name    string
	baseURL string
	apiKey  string
	query   JobSearchQuery
	client  *http.Client
}

// NewJobSearchAdapter creates an adapter for the search API rooted at baseURL.
func NewJobSearchAdapter(name, baseURL, apiKey string, query JobSearchQuery, client *http.Client) *JobSearchAdapter {
	return &JobSearchAdapter{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		query:   query,
		client:  client,
	}
}

func (a *JobSearchAdapter) Name() string { return a.name }

// FetchRecords retrieves the first page of results for the configured query.
func (a *JobSearchAdapter) FetchRecords(ctx context.Context) ([]model.Record, error) {
	var raw json.RawMessage
	if err := getJSON(ctx, a.client, a.endpoint("search", true), a.header(), &raw); err != nil {
		return nil, fmt.Errorf("jobsearch fetch for %s: %w", a.name, err)
	}

	recs, err := decodeRecords(raw)
	if err != nil {
		return nil, fmt.Errorf("jobsearch fetch for %s: %w", a.name, err)
	}
	return recs, nil
}

// CountPostings asks the count endpoint how many postings match the query.
func (a *JobSearchAdapter) CountPostings(ctx context.Context) (int, error) {
	var body map[string]any
	if err := getJSON(ctx, a.client, a.endpoint("count", false), a.header(), &body); err != nil {
		return 0, fmt.Errorf("jobsearch count for %s: %w", a.name, err)
	}

	for _, key := range []string{"count", "total"} {
		n := toString(body[key])
		if n == "" {
			continue
		}
		v, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("jobsearch count for %s: %s=%q: %w: %w", a.name, key, n, model.ErrMalformedResponse, err)
		}
		return v, nil
	}
	return 0, fmt.Errorf("jobsearch count for %s: response has no count: %w", a.name, model.ErrMalformedResponse)
}

func (a *JobSearchAdapter) endpoint(path string, paged bool) string {
	params := url.Values{}
	if a.query.Keywords != "" {
		params.Set("query", a.query.Keywords)
	}
	if a.query.Location != "" {
		params.Set("location", a.query.Location)
	}
	if a.query.DatePosted != "" {
		params.Set("date_posted", a.query.DatePosted)
	}
	if paged {
		params.Set("page", "1")
	}
	u := a.baseURL + "/" + path
	if enc := params.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

func (a *JobSearchAdapter) header() http.Header {
	h := http.Header{}
	if a.apiKey != "" {
		h.Set("Authorization", "Bearer "+a.apiKey)
	}
	return h
}
