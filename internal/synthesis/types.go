// Package synthesis aggregates completed interview transcripts into an
// organization-level readiness assessment: role-weighted dimension scores
// under a fixed pillar taxonomy, cross-corroborated themes, and
// priority-ordered recommendations.
package synthesis

import (
	"context"
	"time"

	"attune/internal/conversation"
	"attune/internal/ports"
)

// Transcript status values.
const (
	StatusCompleted  = "completed"
	StatusIncomplete = "incomplete"
)

// StakeholderTranscript is one participant's completed interview, tagged with
// their role. Only completed transcripts with non-empty history are eligible
// for synthesis.
type StakeholderTranscript struct {
	SessionID       string                   `json:"session_id"`
	ParticipantName string                   `json:"participant_name,omitempty"`
	Role            string                   `json:"role"`
	Status          string                   `json:"status"`
	History         []conversation.Utterance `json:"history"`
}

// Eligible reports whether the transcript may enter synthesis.
func (t StakeholderTranscript) Eligible() bool {
	return t.Status == StatusCompleted && len(t.History) > 0
}

// TranscriptSource fetches a transcript by session reference. Session kinds
// (interview variants, imports) each provide their own implementation; the
// synthesis core depends only on this capability.
type TranscriptSource interface {
	FetchTranscript(ctx context.Context, ref string) (StakeholderTranscript, error)
}

// DimensionalScore is one scored dimension of the report.
type DimensionalScore struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// PillarScore aggregates a pillar's dimensions.
type PillarScore struct {
	Name       string             `json:"name"`
	Score      float64            `json:"score"`
	Dimensions []DimensionalScore `json:"dimensions"`
}

// ReadinessAssessment is the organization-level synthesis output. Created
// fresh on every run and immutable once returned; re-running synthesis
// produces a new assessment. Scores are on a 0-100 scale.
type ReadinessAssessment struct {
	ID                  string           `json:"id"`
	OverallScore        float64          `json:"overall_score"`
	Pillars             []PillarScore    `json:"pillars"`
	KeyThemes           []string         `json:"key_themes"`
	Recommendations     []string         `json:"recommendations"`
	TranscriptsConsumed int              `json:"transcripts_consumed"`
	Warnings            []string         `json:"warnings,omitempty"`
	Usage               ports.TokenUsage `json:"usage"`
	CreatedAt           time.Time        `json:"created_at"`
}
