// Package metrics defines the Prometheus metrics exported by the service.
// All Record* methods are nil-safe so components can run without metrics
// in tests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// LLM metrics
	LLMRequestsTotal *prometheus.CounterVec
	LLMDuration      *prometheus.HistogramVec
	LLMRetriesTotal  *prometheus.CounterVec
	LLMFallbackTotal *prometheus.CounterVec

	// Chat stream metrics
	ChatStreamsTotal      *prometheus.CounterVec
	ChatStreamChunksTotal prometheus.Counter

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	CacheEntries     *prometheus.GaugeVec

	// Singleflight metrics
	SingleflightDedupTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
	RateLimiterClients prometheus.Gauge

	// Session metrics
	SessionTransitionsTotal *prometheus.CounterVec

	// Warmup metrics
	WarmupTasksTotal *prometheus.CounterVec
	WarmupDuration   prometheus.Histogram

	// Snapshot metrics
	SnapshotTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		LLMRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcas_llm_requests_total",
				Help: "Total LLM requests by provider, operation and status",
			},
			[]string{"provider", "operation", "status"}, // operation: universities, details, chat
		),

		LLMDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tcas_llm_duration_seconds",
				Help:    "LLM request duration in seconds by provider and operation",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90}, // Details calls can take tens of seconds
			},
			[]string{"provider", "operation"},
		),

		LLMRetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcas_llm_retries_total",
				Help: "Total LLM retry attempts by provider and operation",
			},
			[]string{"provider", "operation"},
		),

		LLMFallbackTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcas_llm_fallback_total",
				Help: "Total provider fallbacks by source, target and operation",
			},
			[]string{"from", "to", "operation"},
		),

		ChatStreamsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcas_chat_streams_total",
				Help: "Total chat streams by outcome",
			},
			[]string{"status"}, // status: success, error, canceled
		),

		ChatStreamChunksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tcas_chat_stream_chunks_total",
				Help: "Total text chunks delivered to chat clients",
			},
		),

		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcas_cache_hits_total",
				Help: "Total number of AI response cache hits by kind",
			},
			[]string{"kind"},
		),

		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcas_cache_misses_total",
				Help: "Total number of AI response cache misses by kind",
			},
			[]string{"kind"},
		),

		CacheEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tcas_cache_entries",
				Help: "Current number of rows per table",
			},
			[]string{"table"}, // table: ai_responses, sessions
		),

		SingleflightDedupTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcas_singleflight_dedup_total",
				Help: "Total number of deduplicated requests (requests that waited instead of executing)",
			},
			[]string{"kind"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcas_http_requests_total",
				Help: "Total HTTP requests by route and status class",
			},
			[]string{"route", "status"}, // status: 2xx, 4xx, 5xx
		),

		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tcas_http_duration_seconds",
				Help:    "HTTP request duration in seconds by route",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
			},
			[]string{"route"},
		),

		RateLimiterDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcas_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: client, global
		),

		RateLimiterClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tcas_rate_limiter_active_clients",
				Help: "Number of clients with an active rate limiter",
			},
		),

		SessionTransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcas_session_transitions_total",
				Help: "Total session view transitions by target view",
			},
			[]string{"view"},
		),

		WarmupTasksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcas_warmup_tasks_total",
				Help: "Total number of warmup tasks by status",
			},
			[]string{"status"}, // status: success, error, skipped
		),

		WarmupDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tcas_warmup_duration_seconds",
				Help:    "Total duration of warmup process",
				Buckets: []float64{10, 30, 60, 120, 300, 600, 900, 1800},
			},
		),

		SnapshotTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcas_snapshot_operations_total",
				Help: "Total cache snapshot operations by operation and status",
			},
			[]string{"operation", "status"}, // operation: upload, restore
		),
	}
}

// RecordLLM records one LLM call outcome.
func (m *Metrics) RecordLLM(provider, operation, status string, duration float64) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	if status == "success" {
		m.LLMDuration.WithLabelValues(provider, operation).Observe(duration)
	}
}

// RecordLLMRetry records a retry attempt against the same provider.
func (m *Metrics) RecordLLMRetry(provider, operation string) {
	if m == nil {
		return
	}
	m.LLMRetriesTotal.WithLabelValues(provider, operation).Inc()
}

// RecordLLMFallback records a switch from one provider to the next.
func (m *Metrics) RecordLLMFallback(from, to, operation string) {
	if m == nil {
		return
	}
	m.LLMFallbackTotal.WithLabelValues(from, to, operation).Inc()
}

// RecordChatStream records a finished chat stream.
func (m *Metrics) RecordChatStream(status string, chunks int) {
	if m == nil {
		return
	}
	m.ChatStreamsTotal.WithLabelValues(status).Inc()
	m.ChatStreamChunksTotal.Add(float64(chunks))
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(kind string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(kind).Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(kind string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(kind).Inc()
}

// SetCacheEntries sets the row count gauge for a table.
func (m *Metrics) SetCacheEntries(table string, n int) {
	if m == nil {
		return
	}
	m.CacheEntries.WithLabelValues(table).Set(float64(n))
}

// RecordSingleflightDedup records a deduplicated request
func (m *Metrics) RecordSingleflightDedup(kind string) {
	if m == nil {
		return
	}
	m.SingleflightDedupTotal.WithLabelValues(kind).Inc()
}

// RecordHTTP records a served HTTP request.
func (m *Metrics) RecordHTTP(route string, status int, duration float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, statusClass(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(duration)
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	if m == nil {
		return
	}
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// SetRateLimiterClients sets the number of tracked clients.
func (m *Metrics) SetRateLimiterClients(n int) {
	if m == nil {
		return
	}
	m.RateLimiterClients.Set(float64(n))
}

// RecordSessionTransition records a session entering a view.
func (m *Metrics) RecordSessionTransition(view string) {
	if m == nil {
		return
	}
	m.SessionTransitionsTotal.WithLabelValues(view).Inc()
}

// RecordWarmupTask records a warmup task completion
func (m *Metrics) RecordWarmupTask(status string) {
	if m == nil {
		return
	}
	m.WarmupTasksTotal.WithLabelValues(status).Inc()
}

// RecordWarmupDuration records total warmup duration
func (m *Metrics) RecordWarmupDuration(duration float64) {
	if m == nil {
		return
	}
	m.WarmupDuration.Observe(duration)
}

// RecordSnapshot records a snapshot upload or restore.
func (m *Metrics) RecordSnapshot(operation, status string) {
	if m == nil {
		return
	}
	m.SnapshotTotal.WithLabelValues(operation, status).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
