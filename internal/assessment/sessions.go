package assessment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"attune/internal/conversation"
	"attune/internal/errors"
	"attune/internal/session"
)

// TurnResult is one store-backed turn: the reply plus what the session
// became. Profile is set on the turn that completed the interview; Warnings
// carries degraded sub-operations (enhancement failure on a completing
// reflection turn).
type TurnResult struct {
	SessionID string
	Reply     string
	State     conversation.ConversationState
	Warnings  []string
}

// OpenInterview starts a store-backed interview session and persists the
// greeting turn. Requires a store.
func (s *Service) OpenInterview(ctx context.Context, pctx conversation.ParticipantContext) (*TurnResult, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no session store configured")
	}
	if pctx.SessionID == "" {
		pctx.SessionID = uuid.NewString()
	}

	greeting, state, err := s.StartSession(ctx, pctx)
	if err != nil {
		return nil, err
	}

	record := session.Record{
		ID:              pctx.SessionID,
		Kind:            session.KindInterview,
		TenantID:        pctx.TenantID,
		ParticipantName: pctx.ParticipantName,
		ParticipantRole: pctx.ParticipantRole,
		State:           state,
		History:         []conversation.Utterance{conversation.Assistant(greeting)},
	}
	if err := s.store.Put(ctx, record); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return &TurnResult{SessionID: pctx.SessionID, Reply: greeting, State: *state}, nil
}

// AdvanceInterview advances a store-backed interview by one turn. On the
// completing turn it scores the transcript and persists the profile; a
// scoring failure there is surfaced as a warning, not a lost turn.
func (s *Service) AdvanceInterview(ctx context.Context, sessionID, message string) (*TurnResult, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no session store configured")
	}
	record, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if record.State != nil && record.State.Complete {
		return nil, errors.ErrAlreadyComplete
	}

	pctx := conversation.ParticipantContext{
		TenantID:        record.TenantID,
		SessionID:       record.ID,
		ParticipantName: record.ParticipantName,
		ParticipantRole: record.ParticipantRole,
	}
	incoming := conversation.User(message)
	reply, newState, _, err := s.AdvanceSession(ctx, &incoming, record.State, record.History, pctx)
	if err != nil {
		return nil, err
	}

	result := &TurnResult{SessionID: sessionID, Reply: reply, State: *newState}
	record.State = newState
	record.History = append(record.History, incoming, conversation.Assistant(reply))
	if newState.Complete && record.Profile == nil {
		profile, scoreErr := s.scorer.ScoreInterview(record.History)
		if scoreErr != nil {
			s.logger.Warn("session %s completed but scoring failed: %v", sessionID, scoreErr)
			result.Warnings = append(result.Warnings, scoreErr.Error())
		} else {
			record.Profile = profile
		}
	}
	if err := s.store.Put(ctx, record); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return result, nil
}

// AdvanceReflection opens or advances a store-backed reflection session for
// a completed interview. The reflection rides on the same record: state and
// history live beside the interview's under the reflection keys.
func (s *Service) AdvanceReflection(ctx context.Context, interviewID, message string) (*TurnResult, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no session store configured")
	}
	interview, err := s.store.Get(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	reflectionID := interviewID + "/reflection"
	record, err := s.store.Get(ctx, reflectionID)
	if err != nil && err != session.ErrNotFound {
		return nil, err
	}
	if err == session.ErrNotFound {
		record = session.Record{
			ID:              reflectionID,
			Kind:            session.KindReflection,
			TenantID:        interview.TenantID,
			ParticipantName: interview.ParticipantName,
			ParticipantRole: interview.ParticipantRole,
		}
	}

	pctx := conversation.ParticipantContext{
		TenantID:        record.TenantID,
		SessionID:       reflectionID,
		ParticipantName: record.ParticipantName,
		ParticipantRole: record.ParticipantRole,
	}
	var incoming *conversation.Utterance
	if record.State != nil {
		u := conversation.User(message)
		incoming = &u
	}

	outcome, err := s.StartOrContinueReflection(ctx, incoming, record.State, record.History, interview.Profile, pctx)
	if err != nil {
		return nil, err
	}

	record.State = outcome.State
	if incoming != nil {
		record.History = append(record.History, *incoming)
	}
	record.History = append(record.History, conversation.Assistant(outcome.Reply))
	if outcome.Enhanced != nil {
		record.Enhanced = outcome.Enhanced
	}
	if err := s.store.Put(ctx, record); err != nil {
		return nil, fmt.Errorf("persist reflection: %w", err)
	}
	return &TurnResult{
		SessionID: reflectionID,
		Reply:     outcome.Reply,
		State:     *outcome.State,
		Warnings:  outcome.Warnings,
	}, nil
}
