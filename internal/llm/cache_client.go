package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"attune/internal/logging"
	"attune/internal/ports"
)

// CacheClient memoizes identical completion requests in an expiring LRU.
// Interview turns rarely repeat, but synthesis re-runs over unchanged
// transcripts hit the same prompts; caching those avoids re-billing them.
// Cached hits report zero usage since no cost was incurred.
type CacheClient struct {
	inner  ports.CompletionClient
	cache  *expirable.LRU[string, ports.CompletionResponse]
	logger logging.Logger
}

// NewCacheClient wraps inner with an LRU of the given size and TTL.
func NewCacheClient(inner ports.CompletionClient, size int, ttl time.Duration, logger logging.Logger) *CacheClient {
	if size <= 0 {
		size = 128
	}
	return &CacheClient{
		inner:  inner,
		cache:  expirable.NewLRU[string, ports.CompletionResponse](size, nil, ttl),
		logger: logging.OrNop(logger),
	}
}

// Model returns the wrapped client's model identifier.
func (c *CacheClient) Model() string { return c.inner.Model() }

// Complete implements ports.CompletionClient.
func (c *CacheClient) Complete(ctx context.Context, req ports.CompletionRequest) (*ports.CompletionResponse, error) {
	key := c.key(req)
	if cached, ok := c.cache.Get(key); ok {
		c.logger.Debug("completion cache hit for key %s", key[:12])
		hit := cached
		hit.Usage = ports.TokenUsage{}
		return &hit, nil
	}

	resp, err := c.inner.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, *resp)
	return resp, nil
}

func (c *CacheClient) key(req ports.CompletionRequest) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%.2f|%d", c.inner.Model(), req.Temperature, req.MaxTokens)
	for _, m := range req.Messages {
		fmt.Fprintf(h, "|%s:%s", m.Role, m.Content)
	}
	return hex.EncodeToString(h.Sum(nil))
}
