// Package httpapi serves the feed over HTTP: filtered reads, a manual
// refresh trigger, health and Prometheus metrics.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amishk599/jobpulse/internal/feed"
	"github.com/amishk599/jobpulse/internal/filter"
	"github.com/amishk599/jobpulse/internal/model"
)

const (
	defaultRefreshTimeout = 60 * time.Second
	shutdownTimeout       = 10 * time.Second
	maxQueryLength        = 200
)

// Feed is the part of *feed.Feed the API serves.
type Feed interface {
	Snapshot() feed.Snapshot
	Refresh(ctx context.Context) feed.Snapshot
}

// Server wires the routes to a feed.
type Server struct {
	feed           Feed
	gatherer       prometheus.Gatherer
	logger         *slog.Logger
	refreshTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer exposes the given registry on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithRefreshTimeout bounds how long POST /api/refresh waits.
func WithRefreshTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.refreshTimeout = d
		}
	}
}

// New creates a server for f.
func New(f Feed, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		feed:           f,
		logger:         logger,
		refreshTimeout: defaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// jobsResponse is the body of GET /api/jobs and POST /api/refresh.
type jobsResponse struct {
	Postings       []model.Posting `json:"postings"`
	Total          int             `json:"total"`
	Loading        bool            `json:"loading"`
	LastUpdated    time.Time       `json:"last_updated"`
	LastError      string          `json:"last_error,omitempty"`
	AvailableCount int             `json:"available_count"`
	Degraded       bool            `json:"degraded"`
}

func newJobsResponse(snap feed.Snapshot, postings []model.Posting) jobsResponse {
	if postings == nil {
		postings = []model.Posting{}
	}
	return jobsResponse{
		Postings:       postings,
		Total:          len(snap.Postings),
		Loading:        snap.Loading,
		LastUpdated:    snap.LastUpdated,
		LastError:      snap.LastError,
		AvailableCount: snap.AvailableCount,
		Degraded:       snap.Degraded,
	}
}

// Handler returns the gin engine serving every route.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery(), s.requestLogger())

	g.GET("/health", healthHandler)

	api := g.Group("/api")
	{
		api.GET("/jobs", s.listJobs)
		api.GET("/jobs/:id", s.getJob)
		api.POST("/refresh", withTimeout(s.refreshTimeout, s.refresh))
	}

	if s.gatherer != nil {
		g.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	g.NoRoute(func(c *gin.Context) {
		JSONError(c, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})

	return g
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *Server) listJobs(c *gin.Context) {
	search := c.Query("q")
	location := c.Query("location")
	if len(search) > maxQueryLength || len(location) > maxQueryLength {
		JSONError(c, http.StatusBadRequest, ErrorCodeValidation, "filter values must be at most 200 characters")
		return
	}

	snap := s.feed.Snapshot()
	c.JSON(http.StatusOK, newJobsResponse(snap, filter.Apply(snap.Postings, search, location)))
}

func (s *Server) getJob(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	for _, p := range s.feed.Snapshot().Postings {
		if p.ID == id {
			c.JSON(http.StatusOK, p)
			return
		}
	}
	JSONError(c, http.StatusNotFound, ErrorCodeNotFound, "posting not found")
}

func (s *Server) refresh(c *gin.Context) {
	snap := s.feed.Refresh(c.Request.Context())
	if err := c.Request.Context().Err(); errors.Is(err, context.DeadlineExceeded) {
		JSONError(c, http.StatusGatewayTimeout, ErrorCodeTimeout, "refresh timed out")
		return
	}
	c.JSON(http.StatusOK, newJobsResponse(snap, snap.Postings))
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func withTimeout(d time.Duration, fn gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		fn(c)
	}
}
