package llm

import (
	"context"

	"attune/internal/errors"
	"attune/internal/logging"
	"attune/internal/ports"
)

// RetryClient wraps a CompletionClient with exponential-backoff retries for
// transient failures. Permanent rejections pass through untouched.
type RetryClient struct {
	inner  ports.CompletionClient
	config errors.RetryConfig
	logger logging.Logger
}

// NewRetryClient wraps inner with retry behavior.
func NewRetryClient(inner ports.CompletionClient, config errors.RetryConfig, logger logging.Logger) *RetryClient {
	return &RetryClient{inner: inner, config: config, logger: logging.OrNop(logger)}
}

// Model returns the wrapped client's model identifier.
func (c *RetryClient) Model() string { return c.inner.Model() }

// Complete implements ports.CompletionClient.
func (c *RetryClient) Complete(ctx context.Context, req ports.CompletionRequest) (*ports.CompletionResponse, error) {
	return errors.RetryWithResult(ctx, c.config, c.logger, func(ctx context.Context) (*ports.CompletionResponse, error) {
		return c.inner.Complete(ctx, req)
	})
}
