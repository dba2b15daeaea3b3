package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	assert.NotNil(t, m.LLMRequestsTotal)
	assert.NotNil(t, m.ChatStreamChunksTotal)
	assert.NotNil(t, m.CacheEntries)
	assert.NotNil(t, m.WarmupDuration)
	assert.NotNil(t, m.SnapshotTotal)
}

func TestRecordLLM(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordLLM("gemini", "details", "success", 12.5)
	m.RecordLLM("gemini", "details", "rate_limit", 0)
	m.RecordLLMFallback("gemini", "groq", "details")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("gemini", "details", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("gemini", "details", "rate_limit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMFallbackTotal.WithLabelValues("gemini", "groq", "details")))
}

func TestRecordChatStream(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordChatStream("success", 7)
	m.RecordChatStream("error", 2)

	assert.Equal(t, 9.0, testutil.ToFloat64(m.ChatStreamChunksTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChatStreamsTotal.WithLabelValues("error")))
}

func TestRecordHTTP_StatusClass(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordHTTP("/api/v1/sessions/:id/search", 200, 0.1)
	m.RecordHTTP("/api/v1/sessions/:id/search", 429, 0.01)
	m.RecordHTTP("/api/v1/sessions/:id/search", 502, 3)

	for _, class := range []string{"2xx", "4xx", "5xx"} {
		assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/v1/sessions/:id/search", class)), class)
	}
}

func TestSetCacheEntries(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SetCacheEntries("sessions", 42)
	assert.Equal(t, 42.0, testutil.ToFloat64(m.CacheEntries.WithLabelValues("sessions")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordLLM("gemini", "chat", "success", 1)
		m.RecordCacheHit("universities")
		m.RecordRateLimiterDrop("client")
		m.RecordWarmupDuration(3)
		m.RecordSnapshot("upload", "success")
	})
}
