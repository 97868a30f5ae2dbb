// Package feed owns the in-memory job list and its refresh lifecycle.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/amishk599/jobpulse/internal/metrics"
	"github.com/amishk599/jobpulse/internal/model"
	"github.com/amishk599/jobpulse/internal/scheduler"
	"github.com/amishk599/jobpulse/internal/source"
	"github.com/amishk599/jobpulse/internal/synthetic"
)

const (
	DefaultMaxPostings    = 20
	DefaultInterval       = 5 * time.Minute
	DefaultRefreshTimeout = 2 * time.Minute
	DefaultNotifyTimeout  = time.Minute

	// DegradedMessage is set as LastError when a refresh falls back to synthetic postings.
	DegradedMessage = "Failed to fetch jobs. Using sample data instead."
)

// ErrAlreadyStarted is returned by Start when the periodic refresh is already running.
var ErrAlreadyStarted = errors.New("feed already started")

// Source produces the batches a refresh merges into the feed.
type Source interface {
	Fetch(ctx context.Context) source.Batch
	FetchApproximateCount(ctx context.Context) int
}

// Snapshot is an immutable copy of the feed state handed to readers.
type Snapshot struct {
	Postings       []model.Posting `json:"postings"`
	Loading        bool            `json:"loading"`
	LastUpdated    time.Time       `json:"last_updated"`
	LastError      string          `json:"last_error,omitempty"`
	AvailableCount int             `json:"available_count"`
	Degraded       bool            `json:"degraded"`
}

func (s Snapshot) clone() Snapshot {
	s.Postings = append([]model.Posting(nil), s.Postings...)
	return s
}

// Feed holds the current postings and refreshes them from a Source, once at
// start, every interval, and on demand. Overlapping refreshes coalesce.
type Feed struct {
	source      Source
	notifier    model.Notifier
	metrics     *metrics.Recorder
	logger      *slog.Logger
	now         func() time.Time
	maxPostings int
	interval    time.Duration
	seed        []model.Posting

	refreshTimeout time.Duration
	notifyTimeout  time.Duration

	group singleflight.Group

	lifeMu sync.Mutex
	life   context.Context

	// bg counts shared refreshes and pending notifications.
	bgMu     sync.Mutex
	bg       sync.WaitGroup
	notifyMu sync.Mutex

	mu    sync.RWMutex
	state Snapshot

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Feed.
type Option func(*Feed)

// WithNotifier announces postings that are new after an authoritative refresh.
func WithNotifier(n model.Notifier) Option {
	return func(f *Feed) { f.notifier = n }
}

// WithMetrics records refresh outcomes.
func WithMetrics(m *metrics.Recorder) Option {
	return func(f *Feed) { f.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Feed) { f.now = now }
}

// WithMaxPostings lowers the list cap. Values outside 1..DefaultMaxPostings
// keep the default.
func WithMaxPostings(n int) Option {
	return func(f *Feed) {
		if n > 0 && n <= DefaultMaxPostings {
			f.maxPostings = n
		}
	}
}

// WithInterval sets the period between scheduled refreshes.
func WithInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.interval = d
		}
	}
}

// WithRefreshTimeout bounds a single shared refresh.
func WithRefreshTimeout(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.refreshTimeout = d
		}
	}
}

// WithNotifyTimeout bounds the delivery of one batch of notifications.
func WithNotifyTimeout(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.notifyTimeout = d
		}
	}
}

// WithSeed replaces the bundled sample postings shown before the first refresh.
func WithSeed(postings []model.Posting) Option {
	return func(f *Feed) { f.seed = postings }
}

// New creates a feed seeded with the bundled sample postings so readers
// never see an empty list before the first refresh completes.
func New(src Source, logger *slog.Logger, opts ...Option) *Feed {
	f := &Feed{
		source:      src,
		logger:      logger,
		now:         time.Now,
		maxPostings: DefaultMaxPostings,
		interval:    DefaultInterval,
		subs:        make(map[int]chan Snapshot),

		refreshTimeout: DefaultRefreshTimeout,
		notifyTimeout:  DefaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	created := f.now()
	if f.seed == nil {
		f.seed = synthetic.Samples(created)
	}
	postings := append([]model.Posting(nil), f.seed...)
	if len(postings) > f.maxPostings {
		postings = postings[:f.maxPostings]
	}
	f.state = Snapshot{
		Postings:       postings,
		LastUpdated:    created,
		AvailableCount: len(postings),
	}
	return f
}

// Snapshot returns a copy of the current state.
func (f *Feed) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state.clone()
}

// Interval returns the period between scheduled refreshes.
func (f *Feed) Interval() time.Duration {
	return f.interval
}

// Subscribe returns a channel that receives a snapshot after every state
// change, and a function that cancels the subscription. Slow readers only
// see the latest snapshot.
func (f *Feed) Subscribe() (<-chan Snapshot, func()) {
	f.subMu.Lock()
	defer f.subMu.Unlock()

	id := f.nextSub
	f.nextSub++
	ch := make(chan Snapshot, 1)
	f.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.subMu.Lock()
			defer f.subMu.Unlock()
			delete(f.subs, id)
			close(ch)
		})
	}
}

func (f *Feed) publish(snap Snapshot) {
	f.subMu.Lock()
	defer f.subMu.Unlock()

	for _, ch := range f.subs {
		select {
		case ch <- snap.clone():
			continue
		default:
		}
		// Drop the stale snapshot so the newest one fits.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap.clone():
		default:
		}
	}
}

// Refresh fetches a batch, merges it into the feed and returns the new
// state. Calls made while a refresh is in flight wait for it and share its
// result instead of starting another one. The shared refresh does not run on
// ctx: if ctx ends first, Refresh returns the current state and the refresh
// carries on for the remaining callers.
func (f *Feed) Refresh(ctx context.Context) Snapshot {
	ch := f.group.DoChan("refresh", func() (any, error) {
		done := f.track()
		defer done()

		rctx, cancel := context.WithTimeout(f.lifetime(), f.refreshTimeout)
		defer cancel()
		return f.refresh(rctx), nil
	})

	select {
	case res := <-ch:
		return res.Val.(Snapshot).clone()
	case <-ctx.Done():
		return f.Snapshot()
	}
}

func (f *Feed) refresh(ctx context.Context) Snapshot {
	start := f.now()

	f.mu.Lock()
	prevErr := f.state.LastError
	f.state.Loading = true
	f.state.LastError = ""
	loading := f.state.clone()
	f.mu.Unlock()
	f.publish(loading)

	var (
		batch source.Batch
		count int
		g     errgroup.Group
	)
	g.Go(func() error {
		batch = f.source.Fetch(ctx)
		return nil
	})
	g.Go(func() error {
		count = f.source.FetchApproximateCount(ctx)
		return nil
	})
	_ = g.Wait()

	// A refresh cut short by shutdown or its own deadline leaves the list alone.
	if err := ctx.Err(); err != nil {
		f.mu.Lock()
		f.state.Loading = false
		f.state.LastError = prevErr
		snap := f.state.clone()
		f.mu.Unlock()
		f.publish(snap)

		f.logger.Warn("refresh abandoned", "error", err)
		return snap
	}

	f.mu.Lock()
	merged, added := merge(batch.Postings, f.state.Postings, f.maxPostings)
	f.state.Postings = merged
	f.state.Degraded = batch.Kind == source.Fallback
	if f.state.Degraded {
		f.state.LastError = DegradedMessage
	}
	f.state.AvailableCount = count
	if count <= 0 {
		f.state.AvailableCount = len(batch.Postings)
	}
	f.state.LastUpdated = f.now()
	f.state.Loading = false
	snap := f.state.clone()
	f.mu.Unlock()
	f.publish(snap)

	f.metrics.RecordRefresh(batch.Kind.String(), snap.LastUpdated.Sub(start), len(snap.Postings), snap.AvailableCount, snap.LastUpdated)

	if batch.Kind == source.Authoritative && len(added) > 0 && f.notifier != nil {
		// The enclosing refresh is tracked, so the counter is already above zero.
		f.bg.Add(1)
		go func() {
			defer f.bg.Done()
			f.deliver(added)
		}()
	}

	args := []any{
		"kind", batch.Kind.String(),
		"fetched", len(batch.Postings),
		"new", len(added),
		"total", len(snap.Postings),
		"available", snap.AvailableCount,
	}
	if batch.Reason != nil {
		args = append(args, "reason", batch.Reason)
	}
	f.logger.Info("refreshed feed", args...)

	return snap
}

// deliver sends one batch of new postings to the notifier. Batches are sent
// one at a time.
func (f *Feed) deliver(postings []model.Posting) {
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), f.notifyTimeout)
	defer cancel()

	if err := f.notifier.Notify(ctx, postings); err != nil {
		f.logger.Error("notifying new postings failed", "count", len(postings), "error", err)
	}
}

// track registers one unit of background work and returns its release func.
func (f *Feed) track() func() {
	f.bgMu.Lock()
	defer f.bgMu.Unlock()
	f.bg.Add(1)
	return f.bg.Done
}

// drain waits for in-flight refreshes and notifications.
func (f *Feed) drain() {
	f.bgMu.Lock()
	defer f.bgMu.Unlock()
	f.bg.Wait()
}

// lifetime is the context shared refreshes run under: the one passed to Run
// while it is running, otherwise a background context.
func (f *Feed) lifetime() context.Context {
	f.lifeMu.Lock()
	defer f.lifeMu.Unlock()
	if f.life == nil {
		return context.Background()
	}
	return f.life
}

func (f *Feed) setLifetime(ctx context.Context) {
	f.lifeMu.Lock()
	defer f.lifeMu.Unlock()
	f.life = ctx
}

// merge places batch before existing, drops later duplicates by ID and caps
// the result at limit entries. added holds the kept postings whose IDs were
// not in existing.
func merge(batch, existing []model.Posting, limit int) (merged, added []model.Posting) {
	prev := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		prev[p.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(batch)+len(existing))
	merged = make([]model.Posting, 0, min(len(batch)+len(existing), limit))
	for _, list := range [][]model.Posting{batch, existing} {
		for _, p := range list {
			if len(merged) == limit {
				break
			}
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			merged = append(merged, p)
		}
	}

	for _, p := range merged {
		if _, ok := prev[p.ID]; !ok {
			added = append(added, p)
		}
	}
	return merged, added
}

// Run refreshes immediately and then every interval until ctx is cancelled.
// Cancelling ctx also abandons an in-flight refresh. Run returns once pending
// notifications are delivered or time out.
func (f *Feed) Run(ctx context.Context) error {
	f.setLifetime(ctx)
	defer func() {
		f.setLifetime(nil)
		f.drain()
	}()

	task := func(ctx context.Context) { f.Refresh(ctx) }
	return scheduler.NewScheduler("feed refresh", task, f.interval, f.logger).Run(ctx)
}

// Start runs the periodic refresh in the background until Stop is called
// or ctx is cancelled.
func (f *Feed) Start(ctx context.Context) error {
	f.runMu.Lock()
	defer f.runMu.Unlock()

	if f.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	f.cancel = cancel
	f.done = done

	go func() {
		defer close(done)
		if err := f.Run(ctx); err != nil {
			f.logger.Error("feed scheduler stopped", "error", err)
		}
	}()
	return nil
}

// Stop cancels the periodic refresh and waits for in-flight refreshes and
// pending notifications. It is safe to call more than once, and without Start.
func (f *Feed) Stop() {
	f.runMu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel, f.done = nil, nil
	f.runMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	f.drain()
}
