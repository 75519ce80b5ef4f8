// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scoring
	ScoringDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripradar_scoring_duration_seconds",
			Help:    "Time spent scoring one candidate batch",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
		[]string{"mode"},
	)

	CandidatesScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripradar_candidates_scored_total",
			Help: "Candidates passed through the scoring engine",
		},
		[]string{"mode"},
	)

	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripradar_recommendations_served_total",
			Help: "Ranked recommendations returned to callers",
		},
		[]string{"mode"},
	)

	// External sources
	SourceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripradar_source_requests_total",
			Help: "Requests made to external place and image sources",
		},
		[]string{"source", "result"},
	)

	SourceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripradar_source_request_duration_seconds",
			Help:    "Latency of external source requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tripradar_circuit_breaker_state",
			Help: "Circuit breaker state per source (0=closed, 1=half-open, 2=open)",
		},
		[]string{"source"},
	)

	PlaceCacheFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripradar_place_cache_fallbacks_total",
			Help: "Place requests served from the cache because every source failed",
		},
	)

	// Scheduler
	TopPickChanges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripradar_top_pick_changes_total",
			Help: "Profiles whose top catalog destination changed",
		},
	)

	// HTTP
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripradar_api_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordScoring observes one engine call.
func RecordScoring(mode string, candidates int, duration time.Duration) {
	ScoringDuration.WithLabelValues(mode).Observe(duration.Seconds())
	CandidatesScored.WithLabelValues(mode).Add(float64(candidates))
}

// RecordSourceRequest counts a source call and its latency.
func RecordSourceRequest(source string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	SourceRequests.WithLabelValues(source, result).Inc()
	SourceDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordAPIRequest observes one HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}
