package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Session lifecycle
	SessionsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "earnclock_sessions_started_total",
			Help: "Total sessions started",
		},
	)

	SessionsStopped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earnclock_sessions_stopped_total",
			Help: "Total sessions ended, by how they ended",
		},
		[]string{"reason"}, // explicit, switched, abandoned
	)

	SessionsRateMissing = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "earnclock_sessions_rate_missing_total",
			Help: "Sessions ended without an hourly rate",
		},
	)

	EarningsCents = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "earnclock_earnings_cents_total",
			Help: "Total virtual earnings credited, in cents",
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "earnclock_active_sessions",
			Help: "Sessions started minus sessions ended since process start",
		},
	)

	// Service use cases
	UseCaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "earnclock_use_case_duration_seconds",
			Help:    "Service use case latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5},
		},
		[]string{"use_case", "success"},
	)

	// HTTP API
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earnclock_http_requests_total",
			Help: "HTTP API requests by route and status",
		},
		[]string{"route", "status"},
	)

	HTTPStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "earnclock_http_event_streams",
			Help: "Open server-sent event streams",
		},
	)

	// Broadcast
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earnclock_events_published_total",
			Help: "Change events published on the bus",
		},
		[]string{"kind"},
	)

	PublishFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "earnclock_event_publish_failures_total",
			Help: "Change events that could not be published",
		},
	)

	EventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "earnclock_events_dropped_total",
			Help: "Events discarded because a subscriber fell behind",
		},
	)

	// Summary cache
	SummaryCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "earnclock_summary_cache_hits_total",
			Help: "Confirmed summary cache hits",
		},
	)

	SummaryCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "earnclock_summary_cache_misses_total",
			Help: "Confirmed summary cache misses",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsStarted,
		SessionsStopped,
		SessionsRateMissing,
		EarningsCents,
		ActiveSessions,
		UseCaseDuration,
		HTTPRequests,
		HTTPStreams,
		EventsPublished,
		PublishFailures,
		EventsDropped,
		SummaryCacheHits,
		SummaryCacheMisses,
	)
}
