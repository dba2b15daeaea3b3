package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:            "10000",
		DataDir:         "/data",
		CacheTTL:        168 * time.Hour,
		SessionTTL:      24 * time.Hour,
		DataCleanupHour: 4,
		LLM: LLMConfig{
			Providers:    []string{ProviderGemini},
			GeminiAPIKey: "key",
		},
		RateLimit: RateLimitConfig{GlobalRPS: 20, ClientBurst: 10, ClientRefill: 0.2},
	}
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvGeminiAPIKey, "gemini-key")
	t.Setenv(EnvLLMProviders, "Gemini, groq")
	t.Setenv(EnvGroqModels, "llama-3.3-70b-versatile,openai/gpt-oss-120b")
	t.Setenv(EnvCacheTTL, "48h")
	t.Setenv(EnvR2Enabled, "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "10000", cfg.Port)
	assert.Equal(t, 48*time.Hour, cfg.CacheTTL)
	assert.Equal(t, []string{"gemini", "groq"}, cfg.LLM.Providers)
	assert.Equal(t, []string{"llama-3.3-70b-versatile", "openai/gpt-oss-120b"}, cfg.LLM.GroqModels)
	assert.Equal(t, "prometheus", cfg.Metrics.Username)
	assert.True(t, cfg.HasLLMProvider())
}

func TestLoad_RequiresProvider(t *testing.T) {
	t.Setenv(EnvGeminiAPIKey, "")
	t.Setenv(EnvGroqAPIKey, "")
	t.Setenv(EnvCerebrasAPIKey, "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvGeminiAPIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{
			name:        "missing port",
			mutate:      func(c *Config) { c.Port = "" },
			errContains: EnvPort,
		},
		{
			name:        "unknown provider",
			mutate:      func(c *Config) { c.LLM.Providers = []string{"openai"} },
			errContains: `unknown provider "openai"`,
		},
		{
			name:        "cleanup hour out of range",
			mutate:      func(c *Config) { c.DataCleanupHour = 24 },
			errContains: EnvDataCleanupHour,
		},
		{
			name:        "r2 without credentials",
			mutate:      func(c *Config) { c.R2.Enabled = true; c.R2.UploadInterval = time.Hour },
			errContains: "R2 snapshots require",
		},
		{
			name:        "sentry without dsn",
			mutate:      func(c *Config) { c.Sentry.Enabled = true },
			errContains: EnvSentryDSN,
		},
		{
			name:        "metrics auth without password",
			mutate:      func(c *Config) { c.Metrics.AuthEnabled = true },
			errContains: EnvMetricsPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestValidate_JoinsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = ""
	cfg.CacheTTL = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvPort)
	assert.Contains(t, err.Error(), EnvCacheTTL)
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "Not/AZone"}
	_, offset := time.Now().In(cfg.Location()).Zone()
	assert.Equal(t, 7*60*60, offset)
}

func TestSQLitePath(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/tcas"}
	assert.Equal(t, "/var/lib/tcas/tcas.db", cfg.SQLitePath())
}
