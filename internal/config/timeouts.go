// Package config provides centralized timeout constants for the application.
//
// Gemini structured responses for admission details are large (rounds plus
// tutor lists) and routinely take 10-30s, so request budgets are sized for
// one full retry chain across providers rather than for a single call.
package config

import "time"

// HTTP server timeouts
const (
	// HTTPRead is the HTTP server read timeout. Request bodies are tiny JSON.
	HTTPRead = 10 * time.Second

	// HTTPWrite is the HTTP server write timeout.
	// Must outlast ChatStreamTimeout since the SSE response is one long write.
	HTTPWrite = ChatStreamTimeout + 5*time.Second

	// HTTPIdle is the HTTP server idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second
)

// LLM timeouts
const (
	// UniversityListTimeout bounds a university list lookup including retries.
	UniversityListTimeout = 45 * time.Second

	// UniversityDetailsTimeout bounds an admission details lookup including
	// retries and provider fallback.
	UniversityDetailsTimeout = 90 * time.Second

	// ChatStreamTimeout bounds a single streamed chat answer.
	ChatStreamTimeout = 2 * time.Minute

	// LLMRetryInitial is the initial backoff before retrying a transient error.
	LLMRetryInitial = 1 * time.Second

	// LLMRetryMax caps a single backoff sleep.
	LLMRetryMax = 8 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	DatabaseConnMaxLifetime = time.Hour
)

// Background job intervals
const (
	// MetricsUpdateInterval is how often cache size metrics are updated.
	MetricsUpdateInterval = 5 * time.Minute

	// RateLimiterCleanupInterval is how often inactive client limiters are cleaned.
	RateLimiterCleanupInterval = 5 * time.Minute

	// WarmupItem bounds generation for one warmed faculty.
	WarmupItem = 60 * time.Second

	// SnapshotTransfer bounds a snapshot upload or download.
	SnapshotTransfer = 5 * time.Minute

	// WarmupRun bounds a whole startup warmup pass.
	WarmupRun = 30 * time.Minute

	// DataCleanup bounds one expired-data cleanup pass.
	DataCleanup = 10 * time.Minute
)

// ReadinessCheck bounds the database probe behind /readyz.
const ReadinessCheck = 3 * time.Second

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	GracefulShutdown = 30 * time.Second
)
