package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polylogue_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "polylogue_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	MessagesPosted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polylogue_messages_posted_total",
			Help: "Total messages appended to room logs",
		},
		[]string{"room"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polylogue_cache_hits_total",
			Help: "Total query cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polylogue_cache_misses_total",
			Help: "Total query cache misses",
		},
	)

	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polylogue_cache_invalidations_total",
			Help: "Total room-scoped cache invalidations",
		},
	)

	// Turn selection metrics
	SpeakerSelections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polylogue_speaker_selections_total",
			Help: "Total speaker selections",
		},
		[]string{"method"}, // "oracle" or "fallback"
	)

	OracleFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polylogue_oracle_failures_total",
			Help: "Total oracle call failures",
		},
		[]string{"kind"}, // "judge" or "text"
	)

	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polylogue_reply_cycles_total",
			Help: "Total reply cycles by outcome",
		},
		[]string{"outcome"}, // "posted", "skipped", "empty_room", "error", "panic"
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polylogue_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
