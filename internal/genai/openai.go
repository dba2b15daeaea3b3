package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"google.golang.org/genai"
)

// openaiGenerator talks to one model on an OpenAI-compatible provider
// (Groq, Cerebras) via a custom BaseURL. It implements the Generator interface.
type openaiGenerator struct {
	client   openai.Client
	model    string
	provider Provider
}

// newOpenAIGenerator creates a generator for provider and model.
func newOpenAIGenerator(provider Provider, apiKey, model string, opts ...option.RequestOption) (*openaiGenerator, error) {
	baseURL, ok := ProviderEndpoint[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported OpenAI-compatible provider: %s", provider)
	}

	client := openai.NewClient(append([]option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0), // retries are handled by FallbackGenerator
	}, opts...)...)

	return &openaiGenerator{
		client:   client,
		model:    model,
		provider: provider,
	}, nil
}

// GenerateJSON requests JSON-object mode with the schema described in the prompt.
func (o *openaiGenerator) GenerateJSON(ctx context.Context, req JSONRequest) (string, error) {
	prompt, err := promptWithSchema(req.Prompt, req.Schema)
	if err != nil {
		return "", err
	}

	params := openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(jsonTemperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)
	if err != nil {
		slog.WarnContext(ctx, "chat completion failed",
			"provider", o.provider,
			"model", o.model,
			"operation", req.Operation,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", o.wrapError(fmt.Errorf("chat completion failed: %w", err))
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%s %s: %w", o.provider, o.model, ErrEmptyResponse)
	}

	if resp.Usage.TotalTokens > 0 {
		slog.DebugContext(ctx, "chat completion completed",
			"provider", o.provider,
			"model", o.model,
			"operation", req.Operation,
			"input_tokens", resp.Usage.PromptTokens,
			"output_tokens", resp.Usage.CompletionTokens,
			"duration_ms", duration.Milliseconds())
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// StreamText streams a chat answer using server-sent completion chunks.
func (o *openaiGenerator) StreamText(ctx context.Context, prompt string, onChunk func(string) error) error {
	params := openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(chatTemperature),
	}

	stream := o.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	delivered := false
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		delivered = true
		if err := onChunk(chunk.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return o.wrapError(fmt.Errorf("chat stream failed: %w", err))
	}
	if !delivered {
		return fmt.Errorf("%s %s stream: %w", o.provider, o.model, ErrEmptyResponse)
	}
	return nil
}

// wrapError attaches the HTTP status and Retry-After hint of API errors.
func (o *openaiGenerator) wrapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	var retryAfter time.Duration
	if apiErr.Response != nil {
		retryAfter = ParseRetryAfter(apiErr.Response.Header)
	}
	return WrapError(err, o.provider, apiErr.StatusCode, retryAfter)
}

// Provider returns the provider type for this generator.
func (o *openaiGenerator) Provider() Provider {
	return o.provider
}

// Model returns the model name.
func (o *openaiGenerator) Model() string {
	return o.model
}

// Close releases resources. The openai-go client doesn't require cleanup.
func (o *openaiGenerator) Close() error {
	return nil
}

// promptWithSchema appends a JSON Schema rendering of schema to prompt.
func promptWithSchema(prompt string, schema *genai.Schema) (string, error) {
	if schema == nil {
		return prompt + "\n\nRespond with a single JSON object only.", nil
	}
	raw, err := json.Marshal(jsonSchema(schema))
	if err != nil {
		return "", fmt.Errorf("encode schema: %w", err)
	}
	return prompt + "\n\nRespond with a single JSON object only. It must match this JSON Schema:\n" + string(raw), nil
}

// jsonSchema converts a Gemini schema into a plain JSON Schema document.
func jsonSchema(s *genai.Schema) map[string]any {
	out := map[string]any{}
	if s.Type != "" {
		out["type"] = strings.ToLower(string(s.Type))
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = jsonSchema(prop)
		}
		out["properties"] = props
	}
	if s.Items != nil {
		out["items"] = jsonSchema(s.Items)
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}
