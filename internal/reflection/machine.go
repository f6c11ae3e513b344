// Package reflection drives the bounded post-results dialogue. It reuses the
// conversation turn processor over the reflection flow and, on the turn that
// completes the dialogue, synchronously triggers enhancement so completion
// and enrichment are atomic from the caller's perspective. Enhancement
// failure never rolls back completion: the reflection stays valid and the
// failure surfaces as a warning.
package reflection

import (
	"context"

	"attune/internal/conversation"
	"attune/internal/enhancement"
	"attune/internal/errors"
	"attune/internal/logging"
	"attune/internal/ports"
	"attune/internal/scoring"
)

// Outcome is the result of one reflection turn. Enhanced is non-nil only on
// the completing turn, and only when enhancement succeeded; Warnings carries
// degraded sub-operations.
type Outcome struct {
	Reply    string
	State    *conversation.ConversationState
	Usage    *ports.TokenUsage
	Enhanced *enhancement.EnhancedResult
	Warnings []string
}

// Machine drives reflection sessions.
type Machine struct {
	processor *conversation.Processor
	enhancer  *enhancement.Synthesizer
	logger    logging.Logger
}

// NewMachine constructs a reflection machine. The processor must be built
// over ReflectionFlow.
func NewMachine(processor *conversation.Processor, enhancer *enhancement.Synthesizer, logger logging.Logger) *Machine {
	return &Machine{processor: processor, enhancer: enhancer, logger: logging.OrNop(logger)}
}

// StartOrContinue advances a reflection session by one turn.
//
// Preconditions: profile must already exist (ResultsNotReady otherwise), and
// a completed reflection cannot be advanced again (AlreadyComplete). A nil
// state with nil incoming starts the dialogue. TurnIndex on the returned
// state is the exchange count: it only grows, and Complete transitions
// false→true exactly once.
func (m *Machine) StartOrContinue(ctx context.Context, incoming *conversation.Utterance, state *conversation.ConversationState, history []conversation.Utterance, profile *scoring.Profile, pctx conversation.ParticipantContext) (*Outcome, error) {
	if profile == nil {
		return nil, errors.ErrResultsNotReady
	}
	if state != nil && state.Complete {
		return nil, errors.ErrAlreadyComplete
	}

	if pctx.ProfileSummary == "" {
		pctx.ProfileSummary = profile.Summary()
	}

	reply, newState, usage, err := m.processor.ProcessTurn(ctx, incoming, state, history, pctx)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Reply: reply, State: newState, Usage: usage}
	justCompleted := newState != nil && newState.Complete && (state == nil || !state.Complete)
	if !justCompleted {
		return outcome, nil
	}

	// Completion and enhancement are atomic for the caller; the reflection
	// history passed to the enhancer includes the turn that just happened.
	full := make([]conversation.Utterance, 0, len(history)+2)
	full = append(full, history...)
	if incoming != nil {
		full = append(full, *incoming)
	}
	full = append(full, conversation.Assistant(reply))

	enhanced, enhErr := m.enhancer.Synthesize(ctx, profile, full, pctx)
	if enhErr != nil {
		m.logger.Warn("reflection %s completed but enhancement failed: %v", pctx.SessionID, enhErr)
		outcome.Warnings = append(outcome.Warnings, enhErr.Error())
		return outcome, nil
	}
	if usage != nil && enhanced != nil {
		combined := *usage
		combined.Add(enhanced.Usage)
		outcome.Usage = &combined
	}
	outcome.Enhanced = enhanced
	return outcome, nil
}
