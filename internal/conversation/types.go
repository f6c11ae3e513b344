// Package conversation implements the turn processor shared by the interview
// and reflection engines. One incoming utterance advances exactly one logical
// turn; phase transitions are a deterministic function of counters declared in
// a flow's transition table, never of utterance content.
package conversation

import (
	"time"

	"attune/internal/ports"
)

// Phase identifies a stage of a conversation flow.
type Phase string

// Interview flow phases.
const (
	PhaseOpening  Phase = "opening"
	PhaseQuestion Phase = "question"
	PhaseClosing  Phase = "closing"
	PhaseComplete Phase = "complete"
)

// Reflection flow phases. Opening and closing are shared with the interview
// flow by name only; each flow declares its own transition table.
const (
	PhaseConversation Phase = "conversation"
	PhaseCompleted    Phase = "completed"
)

// Utterance is one immutable entry of a session's ordered history.
// Timestamp stays nil until the persistence collaborator stamps it.
type Utterance struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// User builds a user utterance.
func User(content string) Utterance {
	return Utterance{Role: ports.RoleUser, Content: content}
}

// Assistant builds an assistant utterance.
func Assistant(content string) Utterance {
	return Utterance{Role: ports.RoleAssistant, Content: content}
}

// UserContents returns the content of user utterances in history order.
func UserContents(history []Utterance) []string {
	var out []string
	for _, u := range history {
		if u.Role == ports.RoleUser {
			out = append(out, u.Content)
		}
	}
	return out
}

// ConversationState is the explicit, persisted state of one session. It is
// mutated only by the turn processor and owned by exactly one session. For
// the reflection flow TurnIndex is the exchange count.
type ConversationState struct {
	Phase         Phase    `json:"phase"`
	TurnIndex     int      `json:"turn_index"`
	Responses     []string `json:"responses"`
	Complete      bool     `json:"is_complete"`
	ScriptVersion string   `json:"script_version,omitempty"`
}

// Clone returns a deep copy so a failed turn can never leak partial mutation.
func (s ConversationState) Clone() ConversationState {
	out := s
	out.Responses = make([]string, len(s.Responses))
	copy(out.Responses, s.Responses)
	return out
}

// ParticipantContext identifies the participant and tenant for one session.
// ProfileSummary is only set for reflection sessions, where prompts reference
// the already-computed interview result.
type ParticipantContext struct {
	TenantID        string `json:"tenant_id"`
	SessionID       string `json:"session_id"`
	ParticipantName string `json:"participant_name"`
	ParticipantRole string `json:"participant_role"`
	Organization    string `json:"organization,omitempty"`
	ProfileSummary  string `json:"profile_summary,omitempty"`
}
