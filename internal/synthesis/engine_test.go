package synthesis

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"attune/internal/catalog"
	"attune/internal/conversation"
	apperrors "attune/internal/errors"
	"attune/internal/llm"
	"attune/internal/ports"
)

type allowGate struct{}

func (allowGate) Check(context.Context, string) error { return nil }

type denyGate struct{}

func (denyGate) Check(_ context.Context, tenantID string) error {
	return &apperrors.UsageLimitExceededError{TenantID: tenantID, Limit: 10, Used: 10}
}

func transcript(id, role, status string, turns int) StakeholderTranscript {
	var history []conversation.Utterance
	for i := 0; i < turns; i++ {
		history = append(history,
			conversation.Assistant(fmt.Sprintf("question %d", i+1)),
			conversation.User(fmt.Sprintf("answer %d from %s", i+1, id)),
		)
	}
	return StakeholderTranscript{SessionID: id, Role: role, Status: status, History: history}
}

// extractionClient returns a scripted extraction reply per session id.
func extractionClient(replies map[string]string) *llm.MockClient {
	return llm.NewMockClientFunc(func(req ports.CompletionRequest) (string, error) {
		id, _ := req.Metadata["session_id"].(string)
		reply, ok := replies[id]
		if !ok {
			return "", fmt.Errorf("unexpected session %q", id)
		}
		return reply, nil
	})
}

func newTestEngine(client ports.CompletionClient, gate ports.UsageGate) *Engine {
	return NewEngine(client, gate, catalog.DefaultTaxonomy(), nil, WithConcurrency(2))
}

func TestSynthesizeMixedTranscripts(t *testing.T) {
	t.Parallel()
	transcripts := []StakeholderTranscript{
		transcript("s-exec", catalog.RoleExecutive, StatusCompleted, 3),
		transcript("s-ic", catalog.RoleContributor, StatusCompleted, 3),
		transcript("s-bad", catalog.RolePeopleLead, StatusCompleted, 3),
		transcript("s-dropped", catalog.RoleOperations, StatusIncomplete, 2),
		transcript("s-empty", catalog.RoleContributor, StatusCompleted, 0),
	}
	client := extractionClient(map[string]string{
		"s-exec": `{"dimension_scores": {"vision_clarity": 80, "psychological_safety": 60}, "themes": ["Slow decisions", "Too many priorities"]}`,
		"s-ic":   `{"dimension_scores": {"vision_clarity": 40, "psychological_safety": 90}, "themes": ["slow decisions.", "Unclear ownership"]}`,
		"s-bad":  `{"dimension_scores": {}, "themes": []}`,
	})
	e := newTestEngine(client, allowGate{})

	report, err := e.Synthesize(context.Background(), "acme", transcripts)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	// Two well-formed transcripts survive; the malformed one and the two
	// ineligible ones each leave a warning.
	if report.TranscriptsConsumed != 2 {
		t.Fatalf("consumed %d transcripts, want 2", report.TranscriptsConsumed)
	}
	assertWarning(t, report.Warnings, "s-bad")
	assertWarning(t, report.Warnings, "s-dropped")
	assertWarning(t, report.Warnings, "s-empty")

	// vision_clarity: executive weighs 2, contributor 1 -> (2*80 + 40) / 3.
	vc := findDimension(t, report.Pillars, "vision_clarity")
	if !approx(vc.Score, 200.0/3) {
		t.Fatalf("vision_clarity = %v, want %v", vc.Score, 200.0/3)
	}
	// psychological_safety: contributor weighs 2, executive 1 -> (60 + 2*90) / 3.
	ps := findDimension(t, report.Pillars, "psychological_safety")
	if !approx(ps.Score, 80) {
		t.Fatalf("psychological_safety = %v, want 80", ps.Score)
	}

	// Pillars without any signal are excluded from the overall mean.
	want := (200.0/3 + 80) / 2
	if !approx(report.OverallScore, want) {
		t.Fatalf("overall = %v, want %v", report.OverallScore, want)
	}

	// Only the theme voiced by two independent transcripts survives.
	if len(report.KeyThemes) != 1 || report.KeyThemes[0] != "Slow decisions" {
		t.Fatalf("key themes = %v, want [Slow decisions]", report.KeyThemes)
	}

	// Recommendations rank the weakest scored dimension first.
	if len(report.Recommendations) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(report.Recommendations))
	}
	if !strings.Contains(report.Recommendations[0], "Vision Clarity") {
		t.Fatalf("first recommendation = %q, want Vision Clarity first", report.Recommendations[0])
	}

	if report.ID == "" || report.CreatedAt.IsZero() {
		t.Fatal("report identity missing")
	}
	if report.Usage.TotalTokens == 0 {
		t.Fatal("report carries no usage")
	}
}

func TestSynthesizeRequiresEligibleTranscripts(t *testing.T) {
	t.Parallel()
	e := newTestEngine(llm.NewMockClient(), allowGate{})
	transcripts := []StakeholderTranscript{
		transcript("s1", catalog.RoleExecutive, StatusIncomplete, 2),
		transcript("s2", catalog.RoleContributor, StatusCompleted, 0),
	}
	_, err := e.Synthesize(context.Background(), "acme", transcripts)
	if err != apperrors.ErrInsufficientData {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestSynthesizeEmptyInput(t *testing.T) {
	t.Parallel()
	e := newTestEngine(llm.NewMockClient(), allowGate{})
	_, err := e.Synthesize(context.Background(), "acme", nil)
	if err != apperrors.ErrInsufficientData {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestSynthesizeQuotaDenialAbortsBeforeCost(t *testing.T) {
	t.Parallel()
	mock := llm.NewMockClient()
	e := newTestEngine(mock, denyGate{})
	transcripts := []StakeholderTranscript{
		transcript("s1", catalog.RoleExecutive, StatusCompleted, 2),
	}
	_, err := e.Synthesize(context.Background(), "acme", transcripts)
	if !apperrors.IsUsageLimitExceeded(err) {
		t.Fatalf("err = %v, want usage limit exceeded", err)
	}
	if mock.CallCount() != 0 {
		t.Fatal("model called despite quota denial")
	}
}

func TestSynthesizeAllTransportFailuresPropagate(t *testing.T) {
	t.Parallel()
	mock := llm.NewMockClient()
	mock.Err = apperrors.ModelUnavailable(fmt.Errorf("provider outage"))
	e := newTestEngine(mock, allowGate{})
	transcripts := []StakeholderTranscript{
		transcript("s1", catalog.RoleExecutive, StatusCompleted, 2),
		transcript("s2", catalog.RoleContributor, StatusCompleted, 2),
	}
	_, err := e.Synthesize(context.Background(), "acme", transcripts)
	if !apperrors.IsModelUnavailable(err) {
		t.Fatalf("err = %v, want model unavailable so the caller retries", err)
	}
}

func TestSynthesizePartialTransportFailureIsIsolated(t *testing.T) {
	t.Parallel()
	client := llm.NewMockClientFunc(func(req ports.CompletionRequest) (string, error) {
		if req.Metadata["session_id"] == "s-down" {
			return "", apperrors.ModelUnavailable(fmt.Errorf("timeout"))
		}
		return `{"dimension_scores": {"adaptability": 55}, "themes": ["Change fatigue", "Change fatigue"]}`, nil
	})
	e := newTestEngine(client, allowGate{})
	transcripts := []StakeholderTranscript{
		transcript("s-ok", catalog.RoleExecutive, StatusCompleted, 2),
		transcript("s-down", catalog.RoleContributor, StatusCompleted, 2),
	}
	report, err := e.Synthesize(context.Background(), "acme", transcripts)
	if err != nil {
		t.Fatalf("one failed transcript sank the run: %v", err)
	}
	if report.TranscriptsConsumed != 1 {
		t.Fatalf("consumed %d, want 1", report.TranscriptsConsumed)
	}
	assertWarning(t, report.Warnings, "s-down")
}

func TestSynthesizeUnknownRoleGetsBaselineWeight(t *testing.T) {
	t.Parallel()
	client := extractionClient(map[string]string{
		"s1": `{"dimension_scores": {"conflict_health": 50}, "themes": []}`,
	})
	e := newTestEngine(client, allowGate{})
	transcripts := []StakeholderTranscript{
		transcript("s1", "wizard", StatusCompleted, 2),
	}
	report, err := e.Synthesize(context.Background(), "acme", transcripts)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if report.TranscriptsConsumed != 1 {
		t.Fatal("unknown role excluded the transcript")
	}
	assertWarning(t, report.Warnings, "unknown role")
}

func TestCorroboratedThemesOrdering(t *testing.T) {
	t.Parallel()
	signals := []*signal{
		{Themes: []string{"Slow decisions", "Trust gaps", "Solo theme"}},
		{Themes: []string{"trust gaps", "slow decisions."}},
		{Themes: []string{"Trust gaps!"}},
	}
	got := corroboratedThemes(signals, 8)
	// Trust gaps has three sources, slow decisions two, the solo theme none.
	if len(got) != 2 || got[0] != "Trust gaps" || got[1] != "Slow decisions" {
		t.Fatalf("themes = %v", got)
	}
}

func TestCorroboratedThemesIgnoreRepeatsWithinOneTranscript(t *testing.T) {
	t.Parallel()
	signals := []*signal{
		{Themes: []string{"Echoed theme", "echoed theme", "Echoed Theme"}},
	}
	if got := corroboratedThemes(signals, 8); len(got) != 0 {
		t.Fatalf("single-source theme corroborated: %v", got)
	}
}

func assertWarning(t *testing.T, warnings []string, fragment string) {
	t.Helper()
	for _, w := range warnings {
		if strings.Contains(w, fragment) {
			return
		}
	}
	t.Fatalf("no warning mentions %q in %v", fragment, warnings)
}

func findDimension(t *testing.T, pillars []PillarScore, name string) DimensionalScore {
	t.Helper()
	for _, p := range pillars {
		for _, d := range p.Dimensions {
			if d.Name == name {
				return d
			}
		}
	}
	t.Fatalf("dimension %s not in report", name)
	return DimensionalScore{}
}

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}
