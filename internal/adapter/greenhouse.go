package adapter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/amishk599/jobpulse/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

var _ model.Provider = (*GreenhouseAdapter)(nil)

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []model.Record `json:"jobs"`
}

// GreenhouseAdapter fetches jobs from the Greenhouse public boards API.
type GreenhouseAdapter struct {
	boardToken  string
	companyName string
	client      *http.Client
}

// NewGreenhouseAdapter creates a new adapter for a Greenhouse board.
func NewGreenhouseAdapter(boardToken string, companyName string, client *http.Client) *GreenhouseAdapter {
	return &GreenhouseAdapter{
		boardToken:  boardToken,
		companyName: companyName,
		client:      client,
	}
}

func (a *GreenhouseAdapter) Name() string { return a.companyName }

// FetchRecords retrieves all jobs from the Greenhouse board, including the
// HTML-encoded content used as the description.
func (a *GreenhouseAdapter) FetchRecords(ctx context.Context) ([]model.Record, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", greenhouseBaseURL, a.boardToken)

	var ghResp greenhouseResponse
	if err := getJSON(ctx, a.client, url, nil, &ghResp); err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.boardToken, err)
	}

	for _, rec := range ghResp.Jobs {
		if rec != nil {
			rec["company"] = a.companyName
		}
	}
	return ghResp.Jobs, nil
}
