package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobpulse/internal/model"
)

var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes newly added postings to the given logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each posting via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs one line per posting. It never fails.
func (n *LogNotifier) Notify(_ context.Context, postings []model.Posting) error {
	for _, p := range postings {
		n.logger.Info("new posting",
			"id", p.ID,
			"company", p.Company,
			"title", p.Title,
			"location", p.Location,
			"apply_url", p.ApplyURL,
			"posted_at", p.PostedAt,
			"source", p.Source,
		)
	}
	return nil
}
