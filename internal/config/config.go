// Package config provides application configuration management.
// It loads settings from environment variables (optionally seeded from a
// .env file) and provides defaults for the server, LLM providers, storage,
// and observability integrations.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported LLM provider names.
const (
	ProviderGemini   = "gemini"
	ProviderGroq     = "groq"
	ProviderCerebras = "cerebras"
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	ServerName      string // Reported to Sentry and logs (default: hostname)
	Timezone        string // IANA zone for daily jobs (default: Asia/Bangkok)

	// Data Configuration
	DataDir    string        // Directory for the SQLite database
	CacheTTL   time.Duration // Lifetime of cached AI responses (default: 7 days)
	SessionTTL time.Duration // Idle lifetime of UI sessions (default: 24h)

	LLM         LLMConfig
	RateLimit   RateLimitConfig
	Warmup      WarmupConfig
	R2          R2Config
	Sentry      SentryConfig
	BetterStack BetterStackConfig
	Metrics     MetricsConfig

	DataCleanupHour int // Hour of day (local Timezone) for expired data cleanup
}

// LLMConfig holds provider credentials and model chains.
type LLMConfig struct {
	Providers      []string // Provider order for fallback (default: gemini, groq, cerebras)
	GeminiAPIKey   string
	GroqAPIKey     string
	CerebrasAPIKey string
	GeminiModels   []string
	GroqModels     []string
	CerebrasModels []string
}

// RateLimitConfig holds per-client and global rate limits.
type RateLimitConfig struct {
	GlobalRPS    float64 // Global LLM requests per second (default: 20)
	ClientBurst  float64 // Burst tokens per client IP (default: 10)
	ClientRefill float64 // Tokens refilled per second per client (default: 0.2)
	ClientDaily  int     // Rolling 24h cap per client, 0 disables (default: 200)
}

// WarmupConfig controls background pre-generation of popular searches.
type WarmupConfig struct {
	Enabled     bool
	Concurrency int
}

// R2Config holds Cloudflare R2 snapshot settings.
type R2Config struct {
	Enabled         bool
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	SnapshotKey     string
	UploadInterval  time.Duration
}

// SentryConfig holds Sentry error tracking settings.
type SentryConfig struct {
	Enabled          bool
	DSN              string
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
}

// BetterStackConfig holds Better Stack log shipping settings.
type BetterStackConfig struct {
	Enabled  bool
	Token    string
	Endpoint string
}

// MetricsConfig holds /metrics Basic Auth settings.
type MetricsConfig struct {
	AuthEnabled bool
	Username    string
	Password    string
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),
		ServerName:      getEnv(EnvServerName, defaultServerName()),
		Timezone:        getEnv(EnvTimezone, "Asia/Bangkok"),

		DataDir:    getEnv(EnvDataDir, getDefaultDataDir()),
		CacheTTL:   getDurationEnv(EnvCacheTTL, 168*time.Hour),
		SessionTTL: getDurationEnv(EnvSessionTTL, 24*time.Hour),

		LLM: LLMConfig{
			Providers:      getStringSliceEnv(EnvLLMProviders, []string{ProviderGemini, ProviderGroq, ProviderCerebras}),
			GeminiAPIKey:   getEnv(EnvGeminiAPIKey, ""),
			GroqAPIKey:     getEnv(EnvGroqAPIKey, ""),
			CerebrasAPIKey: getEnv(EnvCerebrasAPIKey, ""),
			GeminiModels:   getStringSliceEnv(EnvGeminiModels, nil),
			GroqModels:     getStringSliceEnv(EnvGroqModels, nil),
			CerebrasModels: getStringSliceEnv(EnvCerebrasModels, nil),
		},

		RateLimit: RateLimitConfig{
			GlobalRPS:    getFloatEnv(EnvGlobalRateRPS, 20),
			ClientBurst:  getFloatEnv(EnvLLMRateBurst, 10),
			ClientRefill: getFloatEnv(EnvLLMRateRefill, 0.2),
			ClientDaily:  getIntEnv(EnvLLMDailyLimit, 200),
		},

		Warmup: WarmupConfig{
			Enabled:     getBoolEnv(EnvWarmupEnabled, false),
			Concurrency: getIntEnv(EnvWarmupConcurrency, 2),
		},

		R2: R2Config{
			Enabled:         getBoolEnv(EnvR2Enabled, false),
			AccountID:       getEnv(EnvR2AccountID, ""),
			AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
			SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
			BucketName:      getEnv(EnvR2BucketName, ""),
			SnapshotKey:     getEnv(EnvR2SnapshotKey, "snapshots/tcas-cache.db.zst"),
			UploadInterval:  getDurationEnv(EnvSnapshotUploadEvery, 6*time.Hour),
		},

		Sentry: SentryConfig{
			Enabled:          getBoolEnv(EnvSentryEnabled, false),
			DSN:              getEnv(EnvSentryDSN, ""),
			Environment:      getEnv(EnvSentryEnvironment, "production"),
			Release:          getEnv(EnvSentryRelease, ""),
			SampleRate:       getFloatEnv(EnvSentrySampleRate, 1.0),
			TracesSampleRate: getFloatEnv(EnvSentryTracesSampleRate, 0),
		},

		BetterStack: BetterStackConfig{
			Enabled:  getBoolEnv(EnvBetterStackEnabled, false),
			Token:    getEnv(EnvBetterStackToken, ""),
			Endpoint: getEnv(EnvBetterStackEndpoint, ""),
		},

		Metrics: MetricsConfig{
			AuthEnabled: getBoolEnv(EnvMetricsAuthEnabled, false),
			Username:    getEnv(EnvMetricsUsername, "prometheus"),
			Password:    getEnv(EnvMetricsPassword, ""),
		},

		DataCleanupHour: getIntEnv(EnvDataCleanupHour, 4),
	}

	for i, p := range cfg.LLM.Providers {
		cfg.LLM.Providers[i] = strings.ToLower(p)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New(EnvPort+" is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New(EnvDataDir+" is required"))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvCacheTTL, c.CacheTTL))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvSessionTTL, c.SessionTTL))
	}
	if c.DataCleanupHour < 0 || c.DataCleanupHour > 23 {
		errs = append(errs, fmt.Errorf("%s must be within 0-23, got %d", EnvDataCleanupHour, c.DataCleanupHour))
	}

	if !c.HasLLMProvider() {
		errs = append(errs, fmt.Errorf("at least one of %s, %s, %s is required",
			EnvGeminiAPIKey, EnvGroqAPIKey, EnvCerebrasAPIKey))
	}
	for _, p := range c.LLM.Providers {
		if !slices.Contains([]string{ProviderGemini, ProviderGroq, ProviderCerebras}, p) {
			errs = append(errs, fmt.Errorf("%s: unknown provider %q", EnvLLMProviders, p))
		}
	}

	if c.RateLimit.ClientBurst <= 0 || c.RateLimit.ClientRefill <= 0 {
		errs = append(errs, errors.New("LLM rate limit burst and refill must be positive"))
	}
	if c.Warmup.Enabled && c.Warmup.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvWarmupConcurrency, c.Warmup.Concurrency))
	}

	if c.R2.Enabled {
		if c.R2.AccountID == "" || c.R2.AccessKeyID == "" || c.R2.SecretAccessKey == "" || c.R2.BucketName == "" {
			errs = append(errs, errors.New("R2 snapshots require account ID, access key, secret key, and bucket name"))
		}
		if c.R2.UploadInterval <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvSnapshotUploadEvery, c.R2.UploadInterval))
		}
	}
	if c.Sentry.Enabled && c.Sentry.DSN == "" {
		errs = append(errs, errors.New(EnvSentryDSN+" is required when Sentry is enabled"))
	}
	if c.BetterStack.Enabled && c.BetterStack.Token == "" {
		errs = append(errs, errors.New(EnvBetterStackToken+" is required when Better Stack is enabled"))
	}
	if c.Metrics.AuthEnabled && c.Metrics.Password == "" {
		errs = append(errs, errors.New(EnvMetricsPassword+" is required when metrics auth is enabled"))
	}

	return errors.Join(errs...)
}

// HasLLMProvider returns true if at least one LLM provider is configured.
func (c *Config) HasLLMProvider() bool {
	return c.LLM.GeminiAPIKey != "" || c.LLM.GroqAPIKey != "" || c.LLM.CerebrasAPIKey != ""
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "tcas.db")
}

// Location resolves the configured timezone, falling back to UTC+7.
func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	return time.FixedZone("ICT", 7*60*60)
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getStringSliceEnv splits a comma-separated variable, dropping blanks.
func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

func defaultServerName() string {
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "tcas-genius"
}
