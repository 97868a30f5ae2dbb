package synthetic

import (
	"context"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"
	"time"
)

func seeded(seed uint64, opts ...Option) *Generator {
	return NewGenerator(append([]Option{WithRand(rand.New(rand.NewPCG(seed, seed)))}, opts...)...)
}

func TestGenerate_BatchSizeAndPools(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		postings, err := seeded(seed).Generate(context.Background())
		if err != nil {
			t.Fatalf("seed %d: Generate: %v", seed, err)
		}
		if n := len(postings); n < minPerBatch || n > maxPerBatch {
			t.Fatalf("seed %d: %d postings, want %d..%d", seed, n, minPerBatch, maxPerBatch)
		}
		for _, p := range postings {
			if !slices.Contains(titles, p.Title) {
				t.Errorf("title %q not in pool", p.Title)
			}
			if !slices.Contains(companies, p.Company) {
				t.Errorf("company %q not in pool", p.Company)
			}
			city, ok := strings.CutSuffix(p.Location, ", India")
			if !ok || !slices.Contains(locations, city) {
				t.Errorf("location %q not built from pool", p.Location)
			}
		}
	}
}

func TestGenerate_Fields(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	postings, err := seeded(7, WithClock(func() time.Time { return now })).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	seen := map[string]bool{}
	for _, p := range postings {
		if seen[p.ID] {
			t.Errorf("duplicate ID %s", p.ID)
		}
		seen[p.ID] = true

		if !p.PostedAt.Equal(now) {
			t.Errorf("PostedAt = %v, want %v", p.PostedAt, now)
		}
		if p.Source != Source {
			t.Errorf("Source = %q, want %q", p.Source, Source)
		}
		if !strings.HasPrefix(p.LogoURL, "https://ui-avatars.com/api/?name=") {
			t.Errorf("LogoURL = %q", p.LogoURL)
		}
		if !strings.HasPrefix(p.ApplyURL, "https://example.com/apply/") {
			t.Errorf("ApplyURL = %q", p.ApplyURL)
		}
		if !strings.HasPrefix(p.SourceURL, "https://example.com/jobs/") {
			t.Errorf("SourceURL = %q", p.SourceURL)
		}
		if !strings.Contains(p.Description, p.Title) {
			t.Errorf("Description %q does not mention title %q", p.Description, p.Title)
		}
	}
}

func TestGenerate_CancelledLatencyStillReturnsPostings(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	postings, err := seeded(1, WithLatency(time.Hour)).Generate(ctx)
	if err != nil {
		t.Fatalf("Generate() error = %v, want nil", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Generate did not return promptly on cancellation")
	}
	if n := len(postings); n < 1 || n > 3 {
		t.Errorf("postings = %d, want 1..3", n)
	}
}

func TestGenerate_RepeatedCallsNeedNoIO(t *testing.T) {
	g := NewGenerator()
	for i := 0; i < 100; i++ {
		if _, err := g.Generate(context.Background()); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Code Masters UI/UX Designer": "code-masters-ui-ux-designer",
		"  TechGrow  React Developer": "techgrow-react-developer",
		"":                            "",
	}
	for in, want := range tests {
		if got := slugify(in); got != want {
			t.Errorf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSamples(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	samples := Samples(now)

	if len(samples) != 6 {
		t.Fatalf("samples = %d, want 6", len(samples))
	}
	if got := now.Sub(samples[0].PostedAt); got != 30*time.Minute {
		t.Errorf("first sample age = %v, want 30m", got)
	}
	if got := now.Sub(samples[5].PostedAt); got != 3*time.Hour {
		t.Errorf("last sample age = %v, want 3h", got)
	}
	if samples[0].LogoURL != "https://ui-avatars.com/api/?name=Techno+Solutions&background=0D8ABC&color=fff" {
		t.Errorf("LogoURL = %q", samples[0].LogoURL)
	}
	ids := map[string]bool{}
	for _, s := range samples {
		if ids[s.ID] {
			t.Errorf("duplicate sample ID %s", s.ID)
		}
		ids[s.ID] = true
	}
}
