// Package metrics provides Prometheus metrics for the job feed.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "jobpulse"

// Recorder groups the feed's collectors. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	refreshTotal    *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	providerErrors  *prometheus.CounterVec
	providerRecords *prometheus.CounterVec
	postings        prometheus.Gauge
	availableCount  prometheus.Gauge
	lastRefresh     prometheus.Gauge
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		refreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_total",
				Help:      "Total number of feed refreshes by outcome",
			},
			[]string{"outcome"},
		),
		refreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "refresh_duration_seconds",
				Help:      "Duration of feed refreshes in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		providerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_errors_total",
				Help:      "Total number of failed provider fetches",
			},
			[]string{"provider"},
		),
		providerRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_records_total",
				Help:      "Total number of records returned by providers",
			},
			[]string{"provider"},
		),
		postings: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "postings",
				Help:      "Number of postings currently in the feed",
			},
		),
		availableCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "available_count",
				Help:      "Approximate number of matching postings reported upstream",
			},
		),
		lastRefresh: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_refresh_timestamp_seconds",
				Help:      "Unix time of the last completed refresh",
			},
		),
	}
	reg.MustRegister(
		r.refreshTotal,
		r.refreshDuration,
		r.providerErrors,
		r.providerRecords,
		r.postings,
		r.availableCount,
		r.lastRefresh,
	)
	return r
}

// RecordRefresh records a completed refresh. outcome is "authoritative" or "fallback".
func (r *Recorder) RecordRefresh(outcome string, d time.Duration, postings, available int, at time.Time) {
	if r == nil {
		return
	}
	r.refreshTotal.WithLabelValues(outcome).Inc()
	r.refreshDuration.Observe(d.Seconds())
	r.postings.Set(float64(postings))
	r.availableCount.Set(float64(available))
	r.lastRefresh.Set(float64(at.Unix()))
}

// RecordProviderError counts a failed fetch from provider.
func (r *Recorder) RecordProviderError(provider string) {
	if r == nil {
		return
	}
	r.providerErrors.WithLabelValues(provider).Inc()
}

// RecordProviderRecords counts records returned by provider.
func (r *Recorder) RecordProviderRecords(provider string, n int) {
	if r == nil {
		return
	}
	r.providerRecords.WithLabelValues(provider).Add(float64(n))
}
