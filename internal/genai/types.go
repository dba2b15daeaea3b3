// Package genai provides access to large language models for the admission
// advisor: structured JSON generation and streamed chat text.
//
// Architecture:
//   - Gemini: google.golang.org/genai (response schema, streaming)
//   - Groq/Cerebras: github.com/openai/openai-go/v3 (OpenAI-compatible API)
//
// Fallback Strategy (3-layer):
//  1. Model Retry: same model retried with full-jitter exponential backoff
//  2. Model Chain: next model in the same provider's model list
//  3. Provider Chain: next provider in the configured provider order
package genai

import (
	"context"
	"time"

	"google.golang.org/genai"
)

// Provider represents an LLM provider.
type Provider string

const (
	// ProviderGemini represents Google's Gemini API (non-OpenAI-compatible).
	ProviderGemini Provider = "gemini"
	// ProviderGroq represents Groq's API (OpenAI-compatible, fast inference).
	ProviderGroq Provider = "groq"
	// ProviderCerebras represents Cerebras's API (OpenAI-compatible, ultra-fast inference).
	ProviderCerebras Provider = "cerebras"
)

// ProviderEndpoint defines the base URL for OpenAI-compatible providers.
// Gemini is not included as it uses a different SDK.
var ProviderEndpoint = map[Provider]string{
	ProviderGroq:     "https://api.groq.com/openai/v1/",
	ProviderCerebras: "https://api.cerebras.ai/v1/",
}

// IsOpenAICompatible returns true if the provider uses OpenAI-compatible API.
func (p Provider) IsOpenAICompatible() bool {
	_, ok := ProviderEndpoint[p]
	return ok
}

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// Operation names used for metrics and logs.
const (
	OperationUniversities = "universities"
	OperationDetails      = "details"
	OperationChat         = "chat"
)

// JSONRequest asks a model for a JSON document matching Schema.
type JSONRequest struct {
	// Operation labels the call for metrics (e.g. OperationDetails).
	Operation string
	// Prompt is the full user prompt.
	Prompt string
	// Schema constrains the response. Gemini enforces it natively; OpenAI-compatible
	// providers receive it inside the prompt.
	Schema *genai.Schema
}

// Generator is a single model (or a chain of models) that can answer prompts.
type Generator interface {
	// GenerateJSON returns the raw JSON text produced for req.
	GenerateJSON(ctx context.Context, req JSONRequest) (string, error)
	// StreamText streams a free-text answer, calling onChunk for every
	// non-empty piece in order. An error from onChunk aborts the stream.
	StreamText(ctx context.Context, prompt string, onChunk func(string) error) error
	// Provider returns the provider type for metrics.
	Provider() Provider
	// Model returns the model name.
	Model() string
	// Close releases any resources held by the generator.
	Close() error
}

// RetryConfig defines retry behavior for LLM API calls.
// Uses AWS-recommended Full Jitter exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per model (including initial).
	MaxAttempts int

	// InitialDelay is the base delay before first retry.
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries.
	MaxDelay time.Duration
}

// ProviderConfig holds configuration for a single LLM provider.
type ProviderConfig struct {
	// APIKey is the API key for the provider.
	APIKey string

	// Models is the ordered model chain. First model is primary, rest are
	// fallbacks tried in order.
	Models []string
}

// LLMConfig holds configuration for all LLM providers.
type LLMConfig struct {
	// Providers is the ordered list of providers to try.
	Providers []Provider

	Gemini   ProviderConfig
	Groq     ProviderConfig
	Cerebras ProviderConfig

	RetryConfig RetryConfig
}

// Default model configurations.
// First element is primary model, subsequent elements are fallbacks.
var (
	// DefaultGeminiModels handles schema-constrained output natively.
	DefaultGeminiModels = []string{"gemini-3-flash-preview", "gemini-2.5-flash"}

	// DefaultGroqModels is the Groq chain. gpt-oss follows JSON instructions reliably.
	DefaultGroqModels = []string{"openai/gpt-oss-120b", "llama-3.3-70b-versatile"}

	// DefaultCerebrasModels is the Cerebras chain.
	DefaultCerebrasModels = []string{"gpt-oss-120b", "llama-3.3-70b"}

	// DefaultProviders is the default provider order for fallback.
	DefaultProviders = []Provider{ProviderGemini, ProviderGroq, ProviderCerebras}
)

// Retry configuration defaults
const (
	DefaultMaxRetryAttempts  = 2
	DefaultInitialRetryDelay = time.Second
	DefaultMaxRetryDelay     = 8 * time.Second
)

// Sampling temperatures.
const (
	jsonTemperature = 0.2
	chatTemperature = 0.7
)

// HasAnyProvider returns true if at least one provider is configured.
func (c *LLMConfig) HasAnyProvider() bool {
	return c.Gemini.APIKey != "" || c.Groq.APIKey != "" || c.Cerebras.APIKey != ""
}

// GetProviderConfig returns the configuration for a specific provider.
func (c *LLMConfig) GetProviderConfig(p Provider) *ProviderConfig {
	switch p {
	case ProviderGemini:
		return &c.Gemini
	case ProviderGroq:
		return &c.Groq
	case ProviderCerebras:
		return &c.Cerebras
	default:
		return nil
	}
}

// ConfiguredProviders returns the providers with API keys, in configured order.
// Duplicates are ignored.
func (c *LLMConfig) ConfiguredProviders() []Provider {
	providers := c.Providers
	if len(providers) == 0 {
		providers = DefaultProviders
	}
	seen := make(map[Provider]bool, len(providers))
	result := make([]Provider, 0, len(providers))
	for _, p := range providers {
		pc := c.GetProviderConfig(p)
		if pc == nil || pc.APIKey == "" || seen[p] {
			continue
		}
		seen[p] = true
		result = append(result, p)
	}
	return result
}

// modelsFor returns the configured model chain or the provider default.
func modelsFor(p Provider, pc *ProviderConfig) []string {
	if len(pc.Models) > 0 {
		return pc.Models
	}
	switch p {
	case ProviderGemini:
		return DefaultGeminiModels
	case ProviderGroq:
		return DefaultGroqModels
	case ProviderCerebras:
		return DefaultCerebrasModels
	default:
		return nil
	}
}
