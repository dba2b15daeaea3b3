package genai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiGenerator talks to one Gemini model through the official SDK.
// It implements the Generator interface.
type geminiGenerator struct {
	client *genai.Client
	model  string
}

// newGeminiGenerator creates a Gemini generator for model.
func newGeminiGenerator(ctx context.Context, apiKey, model string) (*geminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return newGeminiGeneratorWithClient(client, model), nil
}

func newGeminiGeneratorWithClient(client *genai.Client, model string) *geminiGenerator {
	return &geminiGenerator{client: client, model: model}
}

// GenerateJSON asks Gemini for a schema-constrained JSON response.
func (g *geminiGenerator) GenerateJSON(ctx context.Context, req JSONRequest) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](jsonTemperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema,
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	duration := time.Since(start)
	if err != nil {
		slog.WarnContext(ctx, "gemini generate content failed",
			"model", g.model,
			"operation", req.Operation,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", fmt.Errorf("generate content failed: %w", err)
	}

	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		return "", fmt.Errorf("gemini %s: %w", g.model, ErrEmptyResponse)
	}

	if resp.UsageMetadata != nil {
		slog.DebugContext(ctx, "gemini generation completed",
			"model", g.model,
			"operation", req.Operation,
			"input_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount,
			"duration_ms", duration.Milliseconds())
	}
	return text, nil
}

// StreamText streams a chat answer chunk by chunk.
func (g *geminiGenerator) StreamText(ctx context.Context, prompt string, onChunk func(string) error) error {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](chatTemperature),
	}

	delivered := false
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, genai.Text(prompt), config) {
		if err != nil {
			return fmt.Errorf("gemini stream failed: %w", err)
		}
		text := responseText(resp)
		if text == "" {
			continue
		}
		delivered = true
		if err := onChunk(text); err != nil {
			return err
		}
	}
	if !delivered {
		return fmt.Errorf("gemini %s stream: %w", g.model, ErrEmptyResponse)
	}
	return nil
}

// responseText concatenates the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

// Provider returns the provider type for this generator.
func (g *geminiGenerator) Provider() Provider {
	return ProviderGemini
}

// Model returns the model name.
func (g *geminiGenerator) Model() string {
	return g.model
}

// Close releases resources.
// genai.Client does not require explicit cleanup in current SDK version.
func (g *geminiGenerator) Close() error {
	return nil
}
