// Package session defines the persistence contract the engine expects from
// its storage collaborator, plus an in-memory reference implementation and
// transcript sources for synthesis. Real deployments supply their own Store;
// the engine never persists anything itself.
package session

import (
	"context"
	"errors"
	"time"

	"attune/internal/conversation"
	"attune/internal/enhancement"
	"attune/internal/scoring"
)

// ErrNotFound is returned when a session reference cannot be resolved.
var ErrNotFound = errors.New("session not found")

// Session kinds route transcript fetching to the right source variant.
const (
	KindInterview  = "interview"
	KindReflection = "reflection"
)

// Record is the stored view of one session. The store must guarantee
// at-most-one in-flight turn per session (single-writer discipline); the
// engine treats concurrent-turn collision as a collaborator bug, not a case
// it resolves.
type Record struct {
	ID              string                          `json:"id"`
	Kind            string                          `json:"kind"`
	TenantID        string                          `json:"tenant_id"`
	ParticipantName string                          `json:"participant_name"`
	ParticipantRole string                          `json:"participant_role"`
	State           *conversation.ConversationState `json:"state,omitempty"`
	History         []conversation.Utterance        `json:"history"`
	Profile         *scoring.Profile                `json:"profile,omitempty"`
	Enhanced        *enhancement.EnhancedResult     `json:"enhanced,omitempty"`
	CreatedAt       time.Time                       `json:"created_at"`
	UpdatedAt       time.Time                       `json:"updated_at"`
}

// Status reports the record's transcript status for synthesis eligibility.
func (r Record) Status() string {
	if r.State != nil && r.State.Complete {
		return "completed"
	}
	return "incomplete"
}

// Store reads and writes session records.
type Store interface {
	Get(ctx context.Context, id string) (Record, error)
	Put(ctx context.Context, record Record) error
	List(ctx context.Context) ([]Record, error)
}
