package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"mission-backend/internal/llm"
	"mission-backend/internal/shared/telemetry"
)

const (
	defaultModel       = "gpt-4-turbo-preview"
	defaultTemperature = 0.7
	defaultMaxTokens   = 2000
	defaultTimeout     = 120 * time.Second
)

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	api         *goopenai.Client
	model       string
	temperature float32
	maxTokens   int
}

// Option customizes a Client.
type Option func(*goopenai.ClientConfig, *Client)

// WithBaseURL points the client at a compatible endpoint.
func WithBaseURL(url string) Option {
	return func(cfg *goopenai.ClientConfig, _ *Client) {
		cfg.BaseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient overrides the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(cfg *goopenai.ClientConfig, _ *Client) {
		cfg.HTTPClient = hc
	}
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float32) Option {
	return func(_ *goopenai.ClientConfig, c *Client) {
		c.temperature = t
	}
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, model string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required: %w", llm.ErrNotConfigured)
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	cfg := goopenai.DefaultConfig(apiKey)
	cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	c := &Client{
		model:       model,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(&cfg, c)
	}
	c.api = goopenai.NewClientWithConfig(cfg)
	return c, nil
}

// Advise requests an advisory JSON document for the mission statement.
func (c *Client) Advise(ctx context.Context, input llm.AdviseInput) (json.RawMessage, error) {
	prompt := llm.PromptFor(ctx, input)
	llm.CapturePromptHash(ctx, prompt)

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if json.Valid(raw) {
		return raw, nil
	}

	// One repair round for output that is not JSON at all.
	raw, err = c.complete(ctx, llm.BuildFixPrompt(input, string(raw), ""))
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("invalid JSON from OpenAI")
	}
	return raw, nil
}

func (c *Client) complete(ctx context.Context, prompt llm.Prompt) (json.RawMessage, error) {
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt.User},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("openai request timeout: %w", err)
		}
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("openai error: http status %d: %w", apiErr.HTTPStatusCode, err)
		}
		return nil, fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai response missing choices")
	}
	content := llm.StripCodeFences(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("openai response empty content")
	}
	logUsage(c.model, llm.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	})
	return json.RawMessage(content), nil
}

func logUsage(model string, usage llm.Usage) {
	telemetry.Info("llm.response", map[string]any{
		"provider":          "openai",
		"model":             model,
		"prompt_tokens":     usage.PromptTokens,
		"completion_tokens": usage.CompletionTokens,
		"total_tokens":      usage.TotalTokens,
	})
}

var _ llm.Client = (*Client)(nil)
