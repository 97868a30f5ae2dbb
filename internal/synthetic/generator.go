// Package synthetic produces placeholder postings without any network I/O.
// They stand in for real listings when every provider comes back empty.
package synthetic

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobpulse/internal/model"
)

// Source is the Posting.Source value stamped on generated postings.
const Source = "synthetic"

const (
	minPerBatch = 1
	maxPerBatch = 3
)

var (
	titles    = []string{"React Developer", "Frontend Engineer", "Full Stack Developer", "UI/UX Designer", "JavaScript Engineer"}
	companies = []string{"TechGrow", "Skynet Solutions", "Digital Wizards", "Code Masters", "Web Experts"}
	locations = []string{"Hyderabad", "Bengaluru", "Chennai", "Delhi", "Mumbai", "Remote"}
)

// Generator builds batches of random postings from fixed pools.
type Generator struct {
	rnd     *rand.Rand
	latency time.Duration
	now     func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithLatency makes Generate wait d before returning, imitating a network call.
func WithLatency(d time.Duration) Option {
	return func(g *Generator) { g.latency = d }
}

// WithRand replaces the random source, mainly for tests.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rnd = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator returns a generator seeded from the runtime's random source.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns between one and three postings stamped with the current
// time. A ctx that ends during the simulated latency only cuts the wait
// short; the postings are still returned and the error is always nil.
func (g *Generator) Generate(ctx context.Context) ([]model.Posting, error) {
	if g.latency > 0 {
		t := time.NewTimer(g.latency)
		select {
		case <-ctx.Done():
		case <-t.C:
		}
		t.Stop()
	}

	n := minPerBatch + g.rnd.IntN(maxPerBatch-minPerBatch+1)
	now := g.now()
	postings := make([]model.Posting, 0, n)
	for i := 0; i < n; i++ {
		postings = append(postings, g.posting(now))
	}
	return postings, nil
}

func (g *Generator) posting(now time.Time) model.Posting {
	title := titles[g.rnd.IntN(len(titles))]
	company := companies[g.rnd.IntN(len(companies))]
	location := locations[g.rnd.IntN(len(locations))]
	color := fmt.Sprintf("%06x", g.rnd.IntN(1<<24))
	suffix := g.rnd.IntN(1_000_000)
	slug := slugify(company + " " + title)

	return model.Posting{
		ID:          uuid.NewString(),
		Title:       title,
		Company:     company,
		Location:    location + ", India",
		Description: fmt.Sprintf("We're looking for a talented %s to join our team. Great opportunity to grow and learn!", title),
		PostedAt:    now,
		LogoURL:     model.AvatarURL(company, color),
		ApplyURL:    fmt.Sprintf("https://example.com/apply/%s-%d", slug, suffix),
		SourceURL:   fmt.Sprintf("https://example.com/jobs/%s-%d", slug, suffix),
		Source:      Source,
	}
}

// slugify lowercases s and joins its alphanumeric runs with hyphens.
func slugify(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return strings.Join(fields, "-")
}
