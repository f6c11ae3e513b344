// Package llm adapts the ports.CompletionClient contract to concrete
// providers: an OpenAI-compatible chat-completions endpoint, a retrying
// wrapper for transient transport failures, an LRU response cache, and a
// scripted mock for tests and offline demos.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"attune/internal/errors"
	"attune/internal/logging"
	"attune/internal/ports"
)

// Config holds provider settings for the HTTP client.
type Config struct {
	Model      string
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	Headers    map[string]string
	MaxRetries int
}

// HTTPClient talks to an OpenAI-compatible /chat/completions endpoint.
type HTTPClient struct {
	model      string
	apiKey     string
	baseURL    string
	headers    map[string]string
	httpClient *http.Client
	logger     logging.Logger
}

// NewHTTPClient constructs a chat-completions client.
func NewHTTPClient(config Config, logger logging.Logger) *HTTPClient {
	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &HTTPClient{
		model:      config.Model,
		apiKey:     config.APIKey,
		baseURL:    baseURL,
		headers:    config.Headers,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.OrNop(logger),
	}
}

// Model returns the model name used by this client.
func (c *HTTPClient) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete implements ports.CompletionClient. Transport failures, timeouts,
// and retryable statuses surface as ModelUnavailable so callers can resubmit
// the same turn.
func (c *HTTPClient) Complete(ctx context.Context, req ports.CompletionRequest) (*ports.CompletionResponse, error) {
	payload := chatRequest{
		Model:       c.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages:    make([]chatMessage, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		payload.Messages = append(payload.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	c.logger.Debug("=== LLM Request ===")
	c.logger.Debug("URL: POST %s/chat/completions", c.baseURL)
	c.logger.Debug("Model: %s, messages: %d", c.model, len(payload.Messages))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.ModelUnavailable(err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ModelUnavailable(err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, errors.ModelUnavailable(fmt.Errorf("status %d: %s", resp.StatusCode, truncateBody(raw)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("completion request rejected: status %d: %s", resp.StatusCode, truncateBody(raw))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.ModelUnavailable(fmt.Errorf("decode response: %w", err))
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("completion error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.ModelUnavailable(fmt.Errorf("response contains no choices"))
	}

	choice := parsed.Choices[0]
	result := &ports.CompletionResponse{
		Content:    choice.Message.Content,
		StopReason: choice.FinishReason,
		Usage: ports.TokenUsage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
	}
	c.logger.Debug("=== LLM Response ===")
	c.logger.Debug("Stop: %s, content: %d chars, usage: %d tokens",
		result.StopReason, len(result.Content), result.Usage.TotalTokens)
	return result, nil
}

func truncateBody(raw []byte) string {
	const limit = 512
	if len(raw) <= limit {
		return string(raw)
	}
	return string(raw[:limit]) + "..."
}
