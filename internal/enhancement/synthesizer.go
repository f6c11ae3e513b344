// Package enhancement merges an interview profile with the reflection
// dialogue into a refined narrative result. Enhancement is purely additive:
// it never alters the archetypes or numeric scores it was given, so the
// original profile stays inspectable unchanged after enrichment.
package enhancement

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"attune/internal/conversation"
	"attune/internal/errors"
	"attune/internal/logging"
	"attune/internal/ports"
	"attune/internal/scoring"
)

// EnhancedResult is the refined outcome of one participant's reflection.
// Created at most once per session, never mutated afterward.
type EnhancedResult struct {
	ID              string            `json:"id"`
	ParticipantName string            `json:"participant_name"`
	Profile         scoring.Profile   `json:"profile"`
	Narrative       string            `json:"narrative"`
	Highlights      []string          `json:"highlights,omitempty"`
	Usage           ports.TokenUsage  `json:"usage"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Synthesizer produces EnhancedResults through the completion service.
type Synthesizer struct {
	client ports.CompletionClient
	gate   ports.UsageGate
	logger logging.Logger
	now    func() time.Time
}

// NewSynthesizer constructs an enhancement synthesizer.
func NewSynthesizer(client ports.CompletionClient, gate ports.UsageGate, logger logging.Logger) *Synthesizer {
	return &Synthesizer{
		client: client,
		gate:   gate,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// WithNow injects a deterministic clock for tests.
func (s *Synthesizer) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Synthesize integrates the profile with themes the participant surfaced
// during reflection. Quota denials surface verbatim (checked before any
// cost); everything else fails as EnhancementFailed, which callers treat as
// degraded success.
func (s *Synthesizer) Synthesize(ctx context.Context, profile *scoring.Profile, reflectionHistory []conversation.Utterance, pctx conversation.ParticipantContext) (*EnhancedResult, error) {
	if profile == nil {
		return nil, errors.EnhancementFailed(fmt.Errorf("no profile to enhance"))
	}
	if err := s.gate.Check(ctx, pctx.TenantID); err != nil {
		return nil, err
	}

	resp, err := s.client.Complete(ctx, ports.CompletionRequest{
		Messages: []ports.Message{
			{Role: ports.RoleSystem, Content: enhancementSystemPrompt},
			{Role: ports.RoleUser, Content: s.buildPrompt(profile, reflectionHistory, pctx.ParticipantName)},
		},
		Temperature: 0.6,
		MaxTokens:   700,
		Metadata:    map[string]any{"flow": "enhancement", "session_id": pctx.SessionID},
	})
	if err != nil {
		s.logger.Warn("enhancement for %s failed: %v", pctx.ParticipantName, err)
		return nil, errors.EnhancementFailed(err)
	}
	narrative := strings.TrimSpace(resp.Content)
	if narrative == "" {
		return nil, errors.EnhancementFailed(fmt.Errorf("model returned an empty narrative"))
	}

	return &EnhancedResult{
		ID:              uuid.NewString(),
		ParticipantName: pctx.ParticipantName,
		Profile:         *profile,
		Narrative:       narrative,
		Highlights:      highlights(reflectionHistory, 3),
		Usage:           resp.Usage,
		CreatedAt:       s.now(),
	}, nil
}

const enhancementSystemPrompt = "You write short, grounded assessment narratives. " +
	"Integrate the participant's own reflection words with their archetype result. " +
	"Never change the archetypes or scores you are given. Three paragraphs at most."

func (s *Synthesizer) buildPrompt(profile *scoring.Profile, history []conversation.Utterance, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Participant: %s\n", name)
	fmt.Fprintf(&b, "Result: %s\n", profile.Summary())
	b.WriteString("\nReflection dialogue (participant's own words):\n")
	for _, quote := range conversation.UserContents(history) {
		fmt.Fprintf(&b, "- %s\n", quote)
	}
	b.WriteString("\nWrite a narrative that names where the participant recognized the result, " +
		"quotes at least one of their own phrases, and ends with one concrete practice suggestion.")
	return b.String()
}

// highlights returns up to n of the most substantive participant utterances,
// in dialogue order.
func highlights(history []conversation.Utterance, n int) []string {
	quotes := conversation.UserContents(history)
	if len(quotes) <= n {
		return quotes
	}
	type ranked struct {
		index  int
		length int
	}
	order := make([]ranked, len(quotes))
	for i, q := range quotes {
		order[i] = ranked{index: i, length: len(strings.TrimSpace(q))}
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].length > order[j].length })
	keep := order[:n]
	sort.Slice(keep, func(i, j int) bool { return keep[i].index < keep[j].index })
	out := make([]string, 0, n)
	for _, r := range keep {
		out = append(out, quotes[r.index])
	}
	return out
}
