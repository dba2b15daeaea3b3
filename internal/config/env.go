// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "TCAS_PORT"
	EnvLogLevel        = "TCAS_LOG_LEVEL"
	EnvShutdownTimeout = "TCAS_SHUTDOWN_TIMEOUT"
	EnvServerName      = "TCAS_SERVER_NAME"
	EnvTimezone        = "TCAS_TIMEZONE"

	// Data
	EnvDataDir    = "TCAS_DATA_DIR"
	EnvCacheTTL   = "TCAS_CACHE_TTL"
	EnvSessionTTL = "TCAS_SESSION_TTL"

	// Rate Limits
	EnvGlobalRateRPS = "TCAS_GLOBAL_RATE_RPS"
	EnvLLMRateBurst  = "TCAS_LLM_RATE_BURST"
	EnvLLMRateRefill = "TCAS_LLM_RATE_REFILL"
	EnvLLMDailyLimit = "TCAS_LLM_DAILY_LIMIT"

	// Background Tasks
	EnvWarmupEnabled       = "TCAS_WARMUP_ENABLED"
	EnvWarmupConcurrency   = "TCAS_WARMUP_CONCURRENCY"
	EnvDataCleanupHour     = "TCAS_DATA_CLEANUP_HOUR"
	EnvSnapshotUploadEvery = "TCAS_R2_SNAPSHOT_INTERVAL"

	// LLM
	EnvLLMProviders   = "TCAS_LLM_PROVIDERS"
	EnvGeminiAPIKey   = "TCAS_GEMINI_API_KEY"
	EnvGroqAPIKey     = "TCAS_GROQ_API_KEY"
	EnvCerebrasAPIKey = "TCAS_CEREBRAS_API_KEY"
	EnvGeminiModels   = "TCAS_GEMINI_MODELS"
	EnvGroqModels     = "TCAS_GROQ_MODELS"
	EnvCerebrasModels = "TCAS_CEREBRAS_MODELS"

	// R2 Snapshot Feature
	EnvR2Enabled         = "TCAS_R2_ENABLED"
	EnvR2AccountID       = "TCAS_R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "TCAS_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "TCAS_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "TCAS_R2_BUCKET_NAME"
	EnvR2SnapshotKey     = "TCAS_R2_SNAPSHOT_KEY"

	// Sentry Feature
	EnvSentryEnabled          = "TCAS_SENTRY_ENABLED"
	EnvSentryDSN              = "TCAS_SENTRY_DSN"
	EnvSentryEnvironment      = "TCAS_SENTRY_ENVIRONMENT"
	EnvSentryRelease          = "TCAS_SENTRY_RELEASE"
	EnvSentrySampleRate       = "TCAS_SENTRY_SAMPLE_RATE"
	EnvSentryTracesSampleRate = "TCAS_SENTRY_TRACES_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackEnabled  = "TCAS_BETTERSTACK_ENABLED"
	EnvBetterStackToken    = "TCAS_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "TCAS_BETTERSTACK_ENDPOINT"

	// Metrics Auth Feature
	EnvMetricsAuthEnabled = "TCAS_METRICS_AUTH_ENABLED"
	EnvMetricsUsername    = "TCAS_METRICS_USERNAME"
	EnvMetricsPassword    = "TCAS_METRICS_PASSWORD"
)
