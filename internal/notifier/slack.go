package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/amishk599/jobpulse/internal/model"
)

const (
	defaultSpacing    = 500 * time.Millisecond
	maxSnippetRunes   = 280
	maxRateLimitRetry = 1
)

var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier posts new postings to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
	spacing    time.Duration
	now        func() time.Time
}

// SlackOption configures a SlackNotifier.
type SlackOption func(*SlackNotifier)

// WithSpacing sets the pause between consecutive messages.
func WithSpacing(d time.Duration) SlackOption {
	return func(s *SlackNotifier) { s.spacing = d }
}

// WithSlackClock replaces time.Now when rendering relative post times.
func WithSlackClock(now func() time.Time) SlackOption {
	return func(s *SlackNotifier) { s.now = now }
}

// NewSlackNotifier returns a notifier that posts each posting to Slack.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger, opts ...SlackOption) *SlackNotifier {
	s := &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
		spacing:    defaultSpacing,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify sends each posting as a separate Block Kit message. It returns an
// error if every message fails or ctx ends before all are sent; individual
// failures are logged.
func (s *SlackNotifier) Notify(ctx context.Context, postings []model.Posting) error {
	if len(postings) == 0 {
		return nil
	}

	failures := 0
	for i, p := range postings {
		if i > 0 && s.spacing > 0 {
			if err := sleepCtx(ctx, s.spacing); err != nil {
				return fmt.Errorf("slack notify stopped after %d of %d postings: %w", i, len(postings), err)
			}
		}
		if err := s.send(ctx, buildPayload(p, s.now())); err != nil {
			s.logger.Error("slack notification failed", "company", p.Company, "title", p.Title, "error", err)
			failures++
		}
	}

	if failures == len(postings) {
		return fmt.Errorf("all %d slack notifications failed", failures)
	}
	s.logger.Info("slack notifications complete", "sent", len(postings)-failures, "failed", failures)
	return nil
}

func (s *SlackNotifier) send(ctx context.Context, payload slackPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build slack request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("post to slack: %w", err)
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return nil
		case resp.StatusCode == http.StatusTooManyRequests && attempt < maxRateLimitRetry:
			secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
			if secs <= 0 {
				secs = 1
			}
			s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
			if err := sleepCtx(ctx, time.Duration(secs)*time.Second); err != nil {
				return fmt.Errorf("waiting out slack rate limit: %w", err)
			}
		default:
			return &model.HTTPError{StatusCode: resp.StatusCode, Err: fmt.Errorf("slack returned %d", resp.StatusCode)}
		}
	}
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style,omitempty"`
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SendTestMessage sends a dummy posting to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	return n.Notify(ctx, []model.Posting{{
		ID:          "test-001",
		Title:       "Test Notification: Integration Verified",
		Company:     "JobPulse",
		Location:    "Everywhere",
		Description: "If you can read this, new postings will show up here.",
		PostedAt:    time.Now(),
		ApplyURL:    "https://example.com/apply/test",
		Source:      "test",
	}})
}

func buildPayload(p model.Posting, now time.Time) slackPayload {
	posted := "Just detected"
	if !p.PostedAt.IsZero() {
		posted = humanize.RelTime(p.PostedAt, now, "ago", "from now")
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: p.Company + ": " + p.Title},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Company:*\n" + p.Company},
				{Type: "mrkdwn", Text: "*Location:*\n" + p.Location},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Posted:*\n" + posted},
				{Type: "mrkdwn", Text: "*Source:*\n" + p.Source},
			},
		},
	}

	if p.Description != "" && p.Description != model.DefaultDescription {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: snippet(p.Description, maxSnippetRunes)},
		})
	}

	if link := postingLink(p); link != "" {
		blocks = append(blocks, slackBlock{
			Type: "actions",
			Elements: []slackElement{{
				Type:  "button",
				Text:  slackText{Type: "plain_text", Text: "Apply Now"},
				URL:   link,
				Style: "primary",
			}},
		})
	}

	blocks = append(blocks, slackBlock{Type: "divider"})
	return slackPayload{Blocks: blocks}
}

// postingLink prefers the apply link, falling back to the listing page.
// The "#" placeholder is not a usable link.
func postingLink(p model.Posting) string {
	if p.ApplyURL != "" && p.ApplyURL != model.DefaultApplyURL {
		return p.ApplyURL
	}
	return p.SourceURL
}

func snippet(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit])) + "…"
}
