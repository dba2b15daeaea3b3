package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tcas-genius/tcas-genius-go/internal/metrics"
)

// ErrNoGenerators is returned by an empty FallbackGenerator.
var ErrNoGenerators = errors.New("no LLM generators configured")

// FallbackGenerator tries an ordered chain of generators. Each generator is
// retried with backoff on transient errors; exhausting retries or hitting a
// quota moves on to the next generator, while permanent errors fail at once.
type FallbackGenerator struct {
	chain       []Generator
	retryConfig RetryConfig
	metrics     *metrics.Metrics
}

// NewFallbackGenerator creates a chain over generators. m may be nil.
func NewFallbackGenerator(chain []Generator, cfg RetryConfig, m *metrics.Metrics) *FallbackGenerator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &FallbackGenerator{
		chain:       chain,
		retryConfig: cfg,
		metrics:     m,
	}
}

// GenerateJSON returns the first successful JSON response along the chain.
func (f *FallbackGenerator) GenerateJSON(ctx context.Context, req JSONRequest) (string, error) {
	var out string
	err := f.run(ctx, req.Operation, func(g Generator) (bool, error) {
		text, err := g.GenerateJSON(ctx, req)
		if err == nil {
			out = text
		}
		return false, err
	})
	return out, err
}

// StreamText streams from the first generator that produces output.
// Once a chunk has reached onChunk, later failures are returned as-is:
// switching models mid-answer would splice two different replies.
func (f *FallbackGenerator) StreamText(ctx context.Context, prompt string, onChunk func(string) error) error {
	return f.run(ctx, OperationChat, func(g Generator) (bool, error) {
		delivered := false
		err := g.StreamText(ctx, prompt, func(chunk string) error {
			delivered = true
			return onChunk(chunk)
		})
		return delivered, err
	})
}

// run drives the retry and fallback policy. call reports whether output has
// already been delivered, which makes any error final.
func (f *FallbackGenerator) run(ctx context.Context, operation string, call func(Generator) (bool, error)) error {
	if f == nil || len(f.chain) == 0 {
		return ErrNoGenerators
	}

	start := time.Now()
	var lastErr error
	for i, g := range f.chain {
		if i > 0 {
			prev := f.chain[i-1]
			slog.InfoContext(ctx, "falling back to next model",
				"operation", operation,
				"from", fmt.Sprintf("%s/%s", prev.Provider(), prev.Model()),
				"to", fmt.Sprintf("%s/%s", g.Provider(), g.Model()))
			f.metrics.RecordLLMFallback(prev.Provider().String(), g.Provider().String(), operation)
		}

		err := f.callWithRetry(ctx, g, operation, call)
		if err == nil {
			if i > 0 {
				slog.InfoContext(ctx, "fallback succeeded",
					"operation", operation,
					"provider", g.Provider(),
					"model", g.Model(),
					"total_duration", time.Since(start))
			}
			return nil
		}
		lastErr = err

		var final *finalError
		if errors.As(err, &final) {
			return final.err
		}
		if ClassifyError(err) == ActionFail {
			return err
		}
	}

	slog.ErrorContext(ctx, "all models failed",
		"operation", operation,
		"models", len(f.chain),
		"error", lastErr)
	return fmt.Errorf("all providers failed: %w", lastErr)
}

// finalError marks an error that must not trigger retry or fallback.
type finalError struct{ err error }

func (e *finalError) Error() string { return e.err.Error() }
func (e *finalError) Unwrap() error { return e.err }

// callWithRetry attempts one generator up to MaxAttempts times.
func (f *FallbackGenerator) callWithRetry(ctx context.Context, g Generator, operation string, call func(Generator) (bool, error)) error {
	provider := g.Provider().String()
	var lastErr error

	for attempt := range f.retryConfig.MaxAttempts {
		if ctx.Err() != nil {
			return &finalError{err: ctx.Err()}
		}

		start := time.Now()
		delivered, err := call(g)
		if err == nil {
			f.metrics.RecordLLM(provider, operation, "success", time.Since(start).Seconds())
			return nil
		}
		f.metrics.RecordLLM(provider, operation, classifyErrorType(err), 0)
		if delivered {
			return &finalError{err: err}
		}

		lastErr = err
		if ClassifyError(err) != ActionRetry {
			return err
		}
		if attempt == f.retryConfig.MaxAttempts-1 {
			break
		}

		backoff := nextDelay(attempt+1, f.retryConfig, err)
		if !HasSufficientBudget(ctx, backoff) {
			return fmt.Errorf("timeout during retry: %w", lastErr)
		}

		slog.DebugContext(ctx, "retrying model call",
			"provider", provider,
			"model", g.Model(),
			"operation", operation,
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err)
		f.metrics.RecordLLMRetry(provider, operation)

		if err := Sleep(ctx, backoff); err != nil {
			return &finalError{err: err}
		}
	}

	return lastErr
}

// Provider returns the primary provider type.
func (f *FallbackGenerator) Provider() Provider {
	if f == nil || len(f.chain) == 0 {
		return ""
	}
	return f.chain[0].Provider()
}

// Model returns the primary model name.
func (f *FallbackGenerator) Model() string {
	if f == nil || len(f.chain) == 0 {
		return ""
	}
	return f.chain[0].Model()
}

// Len returns the number of models in the chain.
func (f *FallbackGenerator) Len() int {
	if f == nil {
		return 0
	}
	return len(f.chain)
}

// Close closes every generator in the chain.
func (f *FallbackGenerator) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, g := range f.chain {
		if err := g.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
