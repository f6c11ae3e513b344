package conversation

import (
	"fmt"
	"strings"

	"attune/internal/catalog"
)

// TransitionRule declares when a phase is exhausted and what follows it.
// Conditions read counters only, so replaying the same utterance sequence
// always reproduces the same phase walk.
type TransitionRule struct {
	Next Phase
	When func(s ConversationState) bool
}

// FlowSpec is a complete conversation script: the transition table plus the
// phase-specific prompt instructions. Adding a phase means adding a table row
// and an instruction, call sites stay untouched.
type FlowSpec struct {
	Name     string
	Version  string
	Initial  Phase
	Terminal Phase
	Rules    map[Phase]TransitionRule

	// SystemPrompt frames the whole conversation for the model.
	SystemPrompt func(pctx ParticipantContext) string
	// OpeningInstruction produces the greeting guidance for session start.
	OpeningInstruction func(pctx ParticipantContext) string
	// Instruction produces the guidance for the phase the state just entered.
	Instruction func(phase Phase, s ConversationState, pctx ParticipantContext) string
}

// Advance walks the transition table from the state's phase, cascading while
// rules fire. Bounded by the table size, so a miswired table cannot loop.
func (f FlowSpec) Advance(s ConversationState) Phase {
	phase := s.Phase
	for i := 0; i < len(f.Rules)+1; i++ {
		rule, ok := f.Rules[phase]
		if !ok || !rule.When(s) {
			break
		}
		phase = rule.Next
	}
	return phase
}

// InterviewFlow builds the structured-interview flow over a question script.
// The greeting asks question 1; user answer k is the answer to question k.
// After the scripted questions comes one closing exchange, then completion.
func InterviewFlow(script *catalog.Script) FlowSpec {
	questionCount := len(script.Questions)
	return FlowSpec{
		Name:     "interview",
		Version:  script.Version,
		Initial:  PhaseOpening,
		Terminal: PhaseComplete,
		Rules: map[Phase]TransitionRule{
			PhaseOpening: {
				Next: PhaseQuestion,
				When: func(s ConversationState) bool { return s.TurnIndex >= 1 },
			},
			PhaseQuestion: {
				Next: PhaseClosing,
				When: func(s ConversationState) bool { return s.TurnIndex >= questionCount },
			},
			PhaseClosing: {
				Next: PhaseComplete,
				When: func(s ConversationState) bool { return s.TurnIndex >= questionCount+1 },
			},
		},
		SystemPrompt: interviewSystemPrompt,
		OpeningInstruction: func(pctx ParticipantContext) string {
			return fmt.Sprintf(
				"Open the interview: welcome %s warmly in two or three sentences, explain that you will ask %d short questions about how they lead and work, then ask this first question verbatim:\n%s",
				displayName(pctx), questionCount, script.Questions[0].Text)
		},
		Instruction: func(phase Phase, s ConversationState, pctx ParticipantContext) string {
			switch phase {
			case PhaseQuestion:
				q := script.Questions[s.TurnIndex]
				instr := fmt.Sprintf(
					"Acknowledge the answer in one sentence without evaluating it, then ask this question verbatim:\n%s", q.Text)
				if q.Probe != "" {
					instr += fmt.Sprintf("\nIf the answer stays abstract, follow with: %s", q.Probe)
				}
				return instr
			case PhaseClosing:
				return "All scripted questions are answered. Thank the participant, reflect one pattern you noticed in their own words, and invite any final thought before the results are prepared."
			case PhaseComplete:
				return "Close the interview: thank the participant by name, tell them their results are being prepared, and say goodbye. Do not ask anything further."
			default:
				return ""
			}
		},
	}
}

// ReflectionFlow builds the bounded post-results dialogue: an opening
// exchange about the computed profile, one deepening exchange, then closing.
func ReflectionFlow() FlowSpec {
	return FlowSpec{
		Name:     "reflection",
		Version:  "v1",
		Initial:  PhaseOpening,
		Terminal: PhaseCompleted,
		Rules: map[Phase]TransitionRule{
			PhaseOpening: {
				Next: PhaseConversation,
				When: func(s ConversationState) bool { return s.TurnIndex >= 1 },
			},
			PhaseConversation: {
				Next: PhaseClosing,
				When: func(s ConversationState) bool { return s.TurnIndex >= 2 },
			},
			PhaseClosing: {
				Next: PhaseCompleted,
				When: func(s ConversationState) bool { return s.TurnIndex >= 3 },
			},
		},
		SystemPrompt: reflectionSystemPrompt,
		OpeningInstruction: func(pctx ParticipantContext) string {
			return fmt.Sprintf(
				"Open the reflection: share the participant's result in plain language and ask where they recognize it.\nResult summary:\n%s",
				pctx.ProfileSummary)
		},
		Instruction: func(phase Phase, s ConversationState, pctx ParticipantContext) string {
			switch phase {
			case PhaseConversation:
				return "Pick the most concrete thing the participant just said and ask one question that deepens it. Stay with their words, do not introduce new framework language."
			case PhaseClosing:
				return "Begin closing: reflect back the most useful insight from this dialogue in the participant's own words and invite one final thought."
			case PhaseCompleted:
				return "Close the reflection: thank the participant and affirm one specific thing they can carry forward. Do not ask anything further."
			default:
				return ""
			}
		},
	}
}

func interviewSystemPrompt(pctx ParticipantContext) string {
	var b strings.Builder
	b.WriteString("You are a warm, rigorous leadership interviewer conducting a structured behavioral assessment. ")
	b.WriteString("Ask the scripted questions exactly as given. Never diagnose, score, or label the participant during the interview. ")
	b.WriteString("Keep every reply under 120 words.")
	if pctx.ParticipantName != "" {
		fmt.Fprintf(&b, "\nParticipant: %s", pctx.ParticipantName)
	}
	if pctx.ParticipantRole != "" {
		fmt.Fprintf(&b, " (%s)", pctx.ParticipantRole)
	}
	if pctx.Organization != "" {
		fmt.Fprintf(&b, "\nOrganization: %s", pctx.Organization)
	}
	return b.String()
}

func reflectionSystemPrompt(pctx ParticipantContext) string {
	var b strings.Builder
	b.WriteString("You are guiding a short reflective dialogue about an assessment result the participant has already received. ")
	b.WriteString("Your job is to help them locate the result in their lived experience, not to defend or revise the result. ")
	b.WriteString("Keep every reply under 100 words.")
	if pctx.ParticipantName != "" {
		fmt.Fprintf(&b, "\nParticipant: %s", pctx.ParticipantName)
	}
	return b.String()
}

func displayName(pctx ParticipantContext) string {
	if pctx.ParticipantName != "" {
		return pctx.ParticipantName
	}
	return "the participant"
}
