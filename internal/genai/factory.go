package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tcas-genius/tcas-genius-go/internal/metrics"
)

// CreateGenerator builds the model chain from cfg: every configured provider
// in order, and within each provider every model in its chain.
func CreateGenerator(ctx context.Context, cfg LLMConfig, m *metrics.Metrics) (*FallbackGenerator, error) {
	if !cfg.HasAnyProvider() {
		return nil, errors.New("no LLM provider configured")
	}

	var chain []Generator
	for _, p := range cfg.ConfiguredProviders() {
		pc := cfg.GetProviderConfig(p)
		for _, model := range modelsFor(p, pc) {
			g, err := newGenerator(ctx, p, pc.APIKey, model)
			if err != nil {
				for _, built := range chain {
					_ = built.Close()
				}
				return nil, fmt.Errorf("create %s generator: %w", p, err)
			}
			chain = append(chain, g)
		}
	}
	if len(chain) == 0 {
		return nil, ErrNoGenerators
	}

	retry := cfg.RetryConfig
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = DefaultMaxRetryAttempts
	}
	if retry.InitialDelay <= 0 {
		retry.InitialDelay = DefaultInitialRetryDelay
	}
	if retry.MaxDelay <= 0 {
		retry.MaxDelay = DefaultMaxRetryDelay
	}

	slog.Info("LLM model chain ready",
		"primary_provider", chain[0].Provider(),
		"primary_model", chain[0].Model(),
		"models", len(chain))

	return NewFallbackGenerator(chain, retry, m), nil
}

func newGenerator(ctx context.Context, p Provider, apiKey, model string) (Generator, error) {
	if p == ProviderGemini {
		return newGeminiGenerator(ctx, apiKey, model)
	}
	return newOpenAIGenerator(p, apiKey, model)
}
