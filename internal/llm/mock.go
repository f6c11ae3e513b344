package llm

import (
	"context"
	"fmt"
	"sync"

	"attune/internal/ports"
)

// MockClient implements ports.CompletionClient for tests and offline demos.
// Replies come from a fixed script or a reply function; every request is
// recorded for inspection.
type MockClient struct {
	mu       sync.Mutex
	model    string
	replies  []string
	index    int
	replyFn  func(req ports.CompletionRequest) (string, error)
	requests []ports.CompletionRequest

	// Err, when set, fails every call. Used to exercise ModelUnavailable paths.
	Err error
}

// NewMockClient returns a mock that cycles through replies. With no replies
// it echoes a canned acknowledgment.
func NewMockClient(replies ...string) *MockClient {
	return &MockClient{model: "mock-model", replies: replies}
}

// NewMockClientFunc returns a mock driven by fn.
func NewMockClientFunc(fn func(req ports.CompletionRequest) (string, error)) *MockClient {
	return &MockClient{model: "mock-model", replyFn: fn}
}

// Model implements ports.CompletionClient.
func (m *MockClient) Model() string { return m.model }

// Complete implements ports.CompletionClient.
func (m *MockClient) Complete(_ context.Context, req ports.CompletionRequest) (*ports.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.Err != nil {
		return nil, m.Err
	}

	var content string
	switch {
	case m.replyFn != nil:
		reply, err := m.replyFn(req)
		if err != nil {
			return nil, err
		}
		content = reply
	case len(m.replies) > 0:
		content = m.replies[m.index%len(m.replies)]
		m.index++
	default:
		content = fmt.Sprintf("Understood. (mock reply %d)", len(m.requests))
	}

	promptTokens := 0
	for _, msg := range req.Messages {
		promptTokens += len(msg.Content) / 4
	}
	return &ports.CompletionResponse{
		Content:    content,
		StopReason: "stop",
		Usage: ports.TokenUsage{
			PromptTokens:     promptTokens,
			CompletionTokens: len(content) / 4,
			TotalTokens:      promptTokens + len(content)/4,
		},
	}, nil
}

// Requests returns a copy of every request received so far.
func (m *MockClient) Requests() []ports.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ports.CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns how many completions were attempted.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
