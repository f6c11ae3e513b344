package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"attune/internal/ports"
	"attune/internal/token"
)

// transcriptBudget caps how much of one transcript enters the extraction prompt.
const transcriptBudget = 3000

// signal is the model-extracted evidence of one transcript: dimension scores
// on a 0-100 scale plus candidate themes in the participant's words.
type signal struct {
	Scores map[string]float64 `json:"dimension_scores"`
	Themes []string           `json:"themes"`
}

// extractSignal asks the model to read one transcript against the taxonomy.
// Model output is parsed as JSON, repaired first when malformed; unknown
// dimension keys are dropped and scores clamped to [0,100].
func (e *Engine) extractSignal(ctx context.Context, t StakeholderTranscript) (*signal, ports.TokenUsage, error) {
	content := renderTranscript(t)
	if strings.TrimSpace(content) == "" {
		return nil, ports.TokenUsage{}, fmt.Errorf("transcript %s has no parseable content", t.SessionID)
	}

	resp, err := e.client.Complete(ctx, ports.CompletionRequest{
		Messages: []ports.Message{
			{Role: ports.RoleSystem, Content: extractionSystemPrompt},
			{Role: ports.RoleUser, Content: e.buildExtractionPrompt(t, content)},
		},
		Temperature: 0.2,
		MaxTokens:   800,
		Metadata:    map[string]any{"flow": "synthesis", "session_id": t.SessionID},
	})
	if err != nil {
		return nil, ports.TokenUsage{}, err
	}

	parsed, err := e.parseSignal(resp.Content)
	if err != nil {
		return nil, resp.Usage, fmt.Errorf("transcript %s: %w", t.SessionID, err)
	}
	return parsed, resp.Usage, nil
}

const extractionSystemPrompt = "You read interview transcripts and extract organizational readiness evidence. " +
	"Respond with a single JSON object and nothing else."

func (e *Engine) buildExtractionPrompt(t StakeholderTranscript, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Participant role: %s\n\nTranscript:\n%s\n\n", t.Role, content)
	b.WriteString("Score each dimension 0-100 based only on evidence in this transcript. " +
		"Omit a dimension when the transcript says nothing about it.\nDimensions:\n")
	for _, p := range e.taxonomy.Pillars {
		for _, d := range p.Dimensions {
			fmt.Fprintf(&b, "- %s: %s\n", d.Name, d.Description)
		}
	}
	b.WriteString("\nAlso list up to 5 short themes in the participant's own words.\n")
	b.WriteString(`Reply exactly as: {"dimension_scores": {"<name>": <0-100>, ...}, "themes": ["...", ...]}`)
	return b.String()
}

// parseSignal decodes the model's JSON, attempting a repair pass on failure.
func (e *Engine) parseSignal(raw string) (*signal, error) {
	cleaned := stripFences(raw)

	var parsed signal
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(cleaned)
		if repairErr != nil {
			return nil, fmt.Errorf("unparseable extraction output: %w", err)
		}
		e.logger.Debug("extraction output repaired before parsing")
		if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
			return nil, fmt.Errorf("unparseable extraction output after repair: %w", err)
		}
	}

	known := make(map[string]struct{})
	for _, name := range e.taxonomy.DimensionNames() {
		known[name] = struct{}{}
	}
	scores := make(map[string]float64, len(parsed.Scores))
	for name, score := range parsed.Scores {
		if _, ok := known[name]; !ok {
			e.logger.Debug("dropping unknown dimension %q from extraction", name)
			continue
		}
		scores[name] = clamp(score, 0, 100)
	}
	parsed.Scores = scores

	themes := parsed.Themes[:0]
	for _, theme := range parsed.Themes {
		if t := strings.TrimSpace(theme); t != "" {
			themes = append(themes, t)
		}
	}
	parsed.Themes = themes

	if len(parsed.Scores) == 0 && len(parsed.Themes) == 0 {
		return nil, fmt.Errorf("extraction output carried no usable signal")
	}
	return &parsed, nil
}

func renderTranscript(t StakeholderTranscript) string {
	var b strings.Builder
	for _, u := range t.History {
		content := strings.TrimSpace(u.Content)
		if content == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", u.Role, content)
	}
	return token.Truncate(b.String(), transcriptBudget)
}

func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	return strings.TrimSpace(trimmed)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
