package conversation

import (
	"context"
	"fmt"

	"attune/internal/errors"
	"attune/internal/logging"
	"attune/internal/ports"
	"attune/internal/token"
)

// DefaultPromptBudget caps the token size of an assembled prompt. Oldest
// history is dropped first; the system prompt, the phase instruction, and the
// incoming utterance always survive.
const DefaultPromptBudget = 6000

// Processor drives one conversation flow. It is stateless between calls:
// everything it needs arrives as arguments, everything it changed leaves as
// the returned state. Persistence belongs to the caller.
type Processor struct {
	flow         FlowSpec
	client       ports.CompletionClient
	gate         ports.UsageGate
	logger       logging.Logger
	temperature  float64
	maxTokens    int
	promptBudget int
}

// ProcessorOption customizes a Processor.
type ProcessorOption func(*Processor)

// WithSampling sets temperature and max completion tokens.
func WithSampling(temperature float64, maxTokens int) ProcessorOption {
	return func(p *Processor) {
		p.temperature = temperature
		p.maxTokens = maxTokens
	}
}

// WithPromptBudget overrides the prompt token budget.
func WithPromptBudget(budget int) ProcessorOption {
	return func(p *Processor) {
		if budget > 0 {
			p.promptBudget = budget
		}
	}
}

// NewProcessor constructs a turn processor over a flow.
func NewProcessor(flow FlowSpec, client ports.CompletionClient, gate ports.UsageGate, logger logging.Logger, opts ...ProcessorOption) *Processor {
	p := &Processor{
		flow:         flow,
		client:       client,
		gate:         gate,
		logger:       logging.OrNop(logger),
		temperature:  0.7,
		maxTokens:    400,
		promptBudget: DefaultPromptBudget,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Flow returns the flow this processor drives.
func (p *Processor) Flow() FlowSpec { return p.flow }

// ProcessTurn advances a session by exactly one logical turn.
//
// A nil state means session start: the opening utterance is produced without
// consuming incoming (which must be nil), and a fresh state is returned with
// TurnIndex 0. Otherwise incoming is recorded as the next response, the
// counters advance by one, the transition table decides the phase, and the
// model produces the reply for that phase.
//
// On any failure the caller's state is returned exactly as passed in: the
// allowance gate runs before any model call, and the new state is built on a
// clone, so a failed turn can always be resubmitted.
func (p *Processor) ProcessTurn(ctx context.Context, incoming *Utterance, state *ConversationState, history []Utterance, pctx ParticipantContext) (string, *ConversationState, *ports.TokenUsage, error) {
	if err := p.gate.Check(ctx, pctx.TenantID); err != nil {
		return "", state, nil, err
	}

	if state == nil {
		if incoming != nil {
			return "", state, nil, fmt.Errorf("%s: session start does not consume an utterance", p.flow.Name)
		}
		return p.openSession(ctx, pctx)
	}
	if state.Complete {
		return "", state, nil, errors.ErrAlreadyComplete
	}
	if incoming == nil {
		return "", state, nil, fmt.Errorf("%s: mid-session turn requires an utterance", p.flow.Name)
	}

	next := state.Clone()
	next.TurnIndex++
	next.Responses = append(next.Responses, incoming.Content)
	next.Phase = p.flow.Advance(next)
	if next.Phase == p.flow.Terminal {
		next.Complete = true
	}

	instruction := p.flow.Instruction(next.Phase, next, pctx)
	messages := p.assemble(pctx, history, incoming, instruction)

	resp, err := p.client.Complete(ctx, ports.CompletionRequest{
		Messages:    messages,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		Metadata:    map[string]any{"flow": p.flow.Name, "phase": string(next.Phase), "session_id": pctx.SessionID},
	})
	if err != nil {
		p.logger.Warn("[%s] turn %d model call failed: %v", p.flow.Name, next.TurnIndex, err)
		return "", state, nil, errors.ModelUnavailable(err)
	}

	p.logger.Debug("[%s] session %s turn %d -> phase %s (%d tokens)",
		p.flow.Name, pctx.SessionID, next.TurnIndex, next.Phase, resp.Usage.TotalTokens)
	usage := resp.Usage
	return resp.Content, &next, &usage, nil
}

func (p *Processor) openSession(ctx context.Context, pctx ParticipantContext) (string, *ConversationState, *ports.TokenUsage, error) {
	fresh := ConversationState{
		Phase:         p.flow.Initial,
		TurnIndex:     0,
		Responses:     []string{},
		ScriptVersion: p.flow.Version,
	}

	messages := []ports.Message{
		{Role: ports.RoleSystem, Content: p.flow.SystemPrompt(pctx)},
		{Role: ports.RoleSystem, Content: p.flow.OpeningInstruction(pctx)},
	}
	resp, err := p.client.Complete(ctx, ports.CompletionRequest{
		Messages:    messages,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		Metadata:    map[string]any{"flow": p.flow.Name, "phase": string(fresh.Phase), "session_id": pctx.SessionID},
	})
	if err != nil {
		p.logger.Warn("[%s] session %s opening model call failed: %v", p.flow.Name, pctx.SessionID, err)
		return "", nil, nil, errors.ModelUnavailable(err)
	}

	usage := resp.Usage
	return resp.Content, &fresh, &usage, nil
}

// assemble builds the completion request messages: system prompt, as much
// history as the budget allows (oldest dropped first), the incoming
// utterance, and the phase instruction last.
func (p *Processor) assemble(pctx ParticipantContext, history []Utterance, incoming *Utterance, instruction string) []ports.Message {
	system := ports.Message{Role: ports.RoleSystem, Content: p.flow.SystemPrompt(pctx)}
	tail := []ports.Message{
		{Role: ports.RoleUser, Content: incoming.Content},
		{Role: ports.RoleSystem, Content: instruction},
	}

	budget := p.promptBudget - token.Count(system.Content)
	for _, m := range tail {
		budget -= token.Count(m.Content)
	}

	var kept []ports.Message
	for i := len(history) - 1; i >= 0; i-- {
		cost := token.Count(history[i].Content)
		if budget-cost < 0 {
			p.logger.Debug("[%s] prompt budget reached, dropping %d oldest history entries", p.flow.Name, i+1)
			break
		}
		budget -= cost
		kept = append(kept, ports.Message{Role: history[i].Role, Content: history[i].Content})
	}

	messages := make([]ports.Message, 0, len(kept)+3)
	messages = append(messages, system)
	for i := len(kept) - 1; i >= 0; i-- {
		messages = append(messages, kept[i])
	}
	messages = append(messages, tail...)
	return messages
}
