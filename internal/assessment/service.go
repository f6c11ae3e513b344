// Package assessment is the engine facade: it wires the turn processors,
// scoring engine, reflection machine, enhancement synthesizer, and
// organizational synthesis behind one dependency-injected service. All
// collaborators are constructed once at process start and reused per call.
package assessment

import (
	"context"
	"fmt"

	"attune/internal/catalog"
	"attune/internal/conversation"
	"attune/internal/enhancement"
	"attune/internal/logging"
	"attune/internal/ports"
	"attune/internal/reflection"
	"attune/internal/scoring"
	"attune/internal/session"
	"attune/internal/synthesis"
	"attune/internal/usage"
)

// Options tune the service's engines.
type Options struct {
	Temperature          float64
	MaxTokens            int
	PromptBudget         int
	SynthesisConcurrency int
}

func (o Options) withDefaults() Options {
	if o.Temperature == 0 {
		o.Temperature = 0.7
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = 400
	}
	if o.PromptBudget == 0 {
		o.PromptBudget = conversation.DefaultPromptBudget
	}
	if o.SynthesisConcurrency == 0 {
		o.SynthesisConcurrency = 4
	}
	return o
}

// Service exposes the engine's external interface.
type Service struct {
	interview   *conversation.Processor
	reflector   *reflection.Machine
	scorer      *scoring.Engine
	enhancer    *enhancement.Synthesizer
	synthesizer *synthesis.Engine
	guard       *usage.Guard
	store       session.Store
	model       string
	logger      logging.Logger
}

// NewService wires the engine. store may be nil when the caller owns
// persistence entirely.
func NewService(client ports.CompletionClient, guard *usage.Guard, cat *catalog.Catalog, script *catalog.Script, taxonomy *catalog.Taxonomy, store session.Store, logger logging.Logger, opts Options) *Service {
	opts = opts.withDefaults()
	logger = logging.OrNop(logger)

	interviewProc := conversation.NewProcessor(conversation.InterviewFlow(script), client, guard, logger,
		conversation.WithSampling(opts.Temperature, opts.MaxTokens),
		conversation.WithPromptBudget(opts.PromptBudget))
	reflectionProc := conversation.NewProcessor(conversation.ReflectionFlow(), client, guard, logger,
		conversation.WithSampling(opts.Temperature, opts.MaxTokens),
		conversation.WithPromptBudget(opts.PromptBudget))
	enhancer := enhancement.NewSynthesizer(client, guard, logger)

	return &Service{
		interview:   interviewProc,
		reflector:   reflection.NewMachine(reflectionProc, enhancer, logger),
		scorer:      scoring.NewEngine(cat, script, logger),
		enhancer:    enhancer,
		synthesizer: synthesis.NewEngine(client, guard, taxonomy, logger, synthesis.WithConcurrency(opts.SynthesisConcurrency)),
		guard:       guard,
		store:       store,
		model:       client.Model(),
		logger:      logger,
	}
}

// StartSession opens an interview: greeting plus freshly initialized state.
func (s *Service) StartSession(ctx context.Context, pctx conversation.ParticipantContext) (string, *conversation.ConversationState, error) {
	greeting, state, u, err := s.interview.ProcessTurn(ctx, nil, nil, nil, pctx)
	if err != nil {
		return "", nil, err
	}
	s.recordUsage(ctx, pctx, "interview_turn", u)
	return greeting, state, nil
}

// AdvanceSession advances an interview by one turn. State and history are
// never mutated on failure.
func (s *Service) AdvanceSession(ctx context.Context, incoming *conversation.Utterance, state *conversation.ConversationState, history []conversation.Utterance, pctx conversation.ParticipantContext) (string, *conversation.ConversationState, *ports.TokenUsage, error) {
	reply, newState, u, err := s.interview.ProcessTurn(ctx, incoming, state, history, pctx)
	if err != nil {
		return "", state, nil, err
	}
	s.recordUsage(ctx, pctx, "interview_turn", u)
	return reply, newState, u, nil
}

// CompleteInterview scores a finished interview history into a profile.
func (s *Service) CompleteInterview(history []conversation.Utterance) (*scoring.Profile, error) {
	return s.scorer.ScoreInterview(history)
}

// StartOrContinueReflection advances (or opens) the post-results dialogue.
func (s *Service) StartOrContinueReflection(ctx context.Context, incoming *conversation.Utterance, state *conversation.ConversationState, history []conversation.Utterance, profile *scoring.Profile, pctx conversation.ParticipantContext) (*reflection.Outcome, error) {
	outcome, err := s.reflector.StartOrContinue(ctx, incoming, state, history, profile, pctx)
	if err != nil {
		return nil, err
	}
	s.recordUsage(ctx, pctx, "reflection_turn", outcome.Usage)
	return outcome, nil
}

// SynthesizeParticipant runs enhancement directly, outside a reflection turn.
func (s *Service) SynthesizeParticipant(ctx context.Context, profile *scoring.Profile, reflectionHistory []conversation.Utterance, pctx conversation.ParticipantContext) (*enhancement.EnhancedResult, error) {
	result, err := s.enhancer.Synthesize(ctx, profile, reflectionHistory, pctx)
	if err != nil {
		return nil, err
	}
	u := result.Usage
	s.recordUsage(ctx, pctx, "enhancement", &u)
	return result, nil
}

// SynthesizeOrganization aggregates transcripts into a readiness assessment.
func (s *Service) SynthesizeOrganization(ctx context.Context, tenantID string, transcripts []synthesis.StakeholderTranscript) (*synthesis.ReadinessAssessment, error) {
	assessment, err := s.synthesizer.Synthesize(ctx, tenantID, transcripts)
	if err != nil {
		return nil, err
	}
	s.recordUsage(ctx, conversation.ParticipantContext{TenantID: tenantID}, "synthesis", &assessment.Usage)
	return assessment, nil
}

// SynthesizeFromRefs fetches transcripts through a source capability and
// synthesizes them. A failed fetch excludes that transcript with a warning
// rather than failing the run, matching per-transcript isolation.
func (s *Service) SynthesizeFromRefs(ctx context.Context, tenantID string, source synthesis.TranscriptSource, refs []string) (*synthesis.ReadinessAssessment, error) {
	var fetchWarnings []string
	transcripts := make([]synthesis.StakeholderTranscript, 0, len(refs))
	for _, ref := range refs {
		t, err := source.FetchTranscript(ctx, ref)
		if err != nil {
			s.logger.Warn("transcript %s not fetched: %v", ref, err)
			fetchWarnings = append(fetchWarnings, fmt.Sprintf("transcript %s not fetched: %v", ref, err))
			continue
		}
		transcripts = append(transcripts, t)
	}
	assessment, err := s.SynthesizeOrganization(ctx, tenantID, transcripts)
	if err != nil {
		return nil, err
	}
	assessment.Warnings = append(fetchWarnings, assessment.Warnings...)
	return assessment, nil
}

func (s *Service) recordUsage(ctx context.Context, pctx conversation.ParticipantContext, reason string, u *ports.TokenUsage) {
	if u == nil {
		return
	}
	s.guard.Record(ctx, pctx.TenantID, pctx.SessionID, s.model, reason, *u)
}
