// Package ports declares the interfaces the engine consumes from external
// collaborators: the text-completion service, the usage-allowance oracle, and
// the usage ledger. The engine depends only on these contracts; concrete
// adapters live in internal/llm, internal/usage, and internal/session.
package ports

import "context"

// Message roles on the completion wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a completion request conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TokenUsage tracks token consumption of one model invocation.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another usage sample.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// CompletionRequest carries all parameters of a blocking completion call.
type CompletionRequest struct {
	Messages    []Message      `json:"messages"`
	Temperature float64        `json:"temperature,omitempty"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	Content    string     `json:"content"`
	StopReason string     `json:"stop_reason"`
	Usage      TokenUsage `json:"usage"`
}

// CompletionClient represents any text-completion provider. Calls are
// blocking; a timed-out call is a transient failure, never a terminal
// session state.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Model returns the model identifier.
	Model() string
}
