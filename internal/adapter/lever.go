package adapter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/amishk599/jobpulse/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

var _ model.Provider = (*LeverAdapter)(nil)

// LeverAdapter fetches jobs from the Lever public postings API.
type LeverAdapter struct {
	companySlug string
	companyName string
	client      *http.Client
}

// NewLeverAdapter creates a new adapter for a Lever board.
func NewLeverAdapter(companySlug string, companyName string, client *http.Client) *LeverAdapter {
	return &LeverAdapter{
		companySlug: companySlug,
		companyName: companyName,
		client:      client,
	}
}

func (a *LeverAdapter) Name() string { return a.companyName }

// FetchRecords retrieves all postings from the Lever board. Lever nests the
// location under categories, so it is lifted to the top level here.
func (a *LeverAdapter) FetchRecords(ctx context.Context) ([]model.Record, error) {
	url := fmt.Sprintf("%s/%s?mode=json", leverBaseURL, a.companySlug)

	var recs []model.Record
	if err := getJSON(ctx, a.client, url, nil, &recs); err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", a.companySlug, err)
	}

	for _, rec := range recs {
		if rec == nil {
			continue
		}
		rec["company"] = a.companyName
		cats, ok := rec["categories"].(map[string]any)
		if !ok {
			continue
		}
		// Prefer allLocations if available, fallback to location
		if all, ok := cats["allLocations"].([]any); ok && len(all) > 0 {
			rec["location"] = all
		} else if loc, ok := cats["location"]; ok {
			rec["location"] = loc
		}
	}
	return recs, nil
}
