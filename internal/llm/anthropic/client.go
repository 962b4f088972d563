package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"mission-backend/internal/llm"
	"mission-backend/internal/shared/telemetry"
)

const (
	// APIEndpoint is the Anthropic Messages endpoint.
	APIEndpoint = "https://api.anthropic.com/v1/messages"
	// APIVersion is the Anthropic API version header value.
	APIVersion = "2023-06-01"
	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-sonnet-4-20250514"

	maxTokens   = 2000
	temperature = 0.7
)

// Client implements llm.Client against the Anthropic Messages API.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a new Anthropic client.
func NewClient(apiKey, model string) (client *Client, err error) {
	if strings.TrimSpace(apiKey) == "" {
		err = errors.Wrap(llm.ErrNotConfigured, "ANTHROPIC_API_KEY is required")
		return client, err
	}
	if strings.TrimSpace(model) == "" || strings.HasPrefix(model, "gpt-") {
		model = DefaultModel
	}
	client = &Client{
		apiKey:   apiKey,
		model:    model,
		endpoint: APIEndpoint,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	return client, err
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Advise requests an advisory JSON document for the mission statement.
func (c *Client) Advise(ctx context.Context, input llm.AdviseInput) (raw json.RawMessage, err error) {
	prompt := llm.PromptFor(ctx, input)
	llm.CapturePromptHash(ctx, prompt)

	var text string
	text, err = c.sendRequest(ctx, prompt)
	if err != nil {
		err = errors.Wrap(err, "anthropic advisory request failed")
		return raw, err
	}

	cleaned := llm.StripCodeFences(text)
	if !json.Valid([]byte(cleaned)) {
		err = errors.Errorf("invalid JSON from Anthropic: %.200s", cleaned)
		return raw, err
	}
	raw = json.RawMessage(cleaned)
	return raw, err
}

func (c *Client) sendRequest(ctx context.Context, prompt llm.Prompt) (responseText string, err error) {
	var reqBody []byte
	reqBody, err = json.Marshal(messagesRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		System:      prompt.System,
		Messages:    []message{{Role: "user", Content: prompt.User}},
	})
	if err != nil {
		err = errors.Wrap(err, "failed to marshal request")
		return responseText, err
	}

	var httpReq *http.Request
	httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return responseText, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", APIVersion)

	var resp *http.Response
	resp, err = c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Wrap(err, "anthropic request timeout")
			return responseText, err
		}
		err = errors.Wrap(err, "HTTP request failed")
		return responseText, err
	}
	defer resp.Body.Close()

	var respBody []byte
	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return responseText, err
	}

	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("anthropic http status %d: %.300s", resp.StatusCode, string(respBody))
		return responseText, err
	}

	var parsed messagesResponse
	err = json.Unmarshal(respBody, &parsed)
	if err != nil {
		err = errors.Wrap(err, "failed to parse Anthropic response")
		return responseText, err
	}

	for _, block := range parsed.Content {
		if block.Type == "text" || block.Type == "" {
			responseText += block.Text
		}
	}
	if strings.TrimSpace(responseText) == "" {
		err = errors.New("no content in Anthropic response")
		return responseText, err
	}

	telemetry.Info("llm.response", map[string]any{
		"provider":          "anthropic",
		"model":             c.model,
		"prompt_tokens":     parsed.Usage.InputTokens,
		"completion_tokens": parsed.Usage.OutputTokens,
		"total_tokens":      parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
	})
	return responseText, err
}

var _ llm.Client = (*Client)(nil)
