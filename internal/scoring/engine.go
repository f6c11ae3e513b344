package scoring

import (
	"fmt"
	"strconv"
	"strings"

	"attune/internal/catalog"
	"attune/internal/conversation"
	"attune/internal/errors"
	"attune/internal/logging"
)

// Engine accumulates a script's per-question score contributions over a
// completed interview history.
type Engine struct {
	catalog *catalog.Catalog
	script  *catalog.Script
	logger  logging.Logger
}

// NewEngine constructs a scoring engine over a catalog and question script.
func NewEngine(c *catalog.Catalog, s *catalog.Script, logger logging.Logger) *Engine {
	return &Engine{catalog: c, script: s, logger: logging.OrNop(logger)}
}

// ScoreInterview maps each user utterance to its originating question by
// position and accumulates the question's weighted contributions. Scores are
// accumulated, not averaged: profiles are comparable only because every
// completed interview answers the same fixed question count.
//
// A history with fewer answers than the script expects fails with
// IncompleteInterview rather than producing partial scores.
func (e *Engine) ScoreInterview(history []conversation.Utterance) (*Profile, error) {
	answers := conversation.UserContents(history)
	expected := len(e.script.Questions)
	if len(answers) < expected {
		return nil, &errors.IncompleteInterviewError{Expected: expected, Got: len(answers)}
	}

	defaults := zeroVector(e.catalog)
	authentics := zeroVector(e.catalog)

	for i, q := range e.script.Questions {
		factor := answerFactor(q, answers[i])
		if factor == 0 {
			e.logger.Debug("question %s: blank answer, no contribution", q.ID)
			continue
		}
		for _, contrib := range q.Contributions {
			switch contrib.Context {
			case catalog.ContextDefault:
				defaults[contrib.Archetype] += contrib.Weight * factor
			case catalog.ContextAuthentic:
				authentics[contrib.Archetype] += contrib.Weight * factor
			}
		}
	}

	profile := &Profile{
		DefaultScores:      defaults,
		AuthenticScores:    authentics,
		DefaultArchetype:   e.argmax(defaults),
		AuthenticArchetype: e.argmax(authentics),
		ScriptVersion:      e.script.Version,
	}
	profile.Aligned = profile.DefaultArchetype == profile.AuthenticArchetype
	if !profile.Aligned {
		profile.FrictionScores = friction(e.catalog, defaults, authentics)
		profile.TensionNarrative = e.tensionNarrative(profile)
	}
	return profile, nil
}

// answerFactor scales a question's contributions by the answer. Scale
// questions read a leading 1-5 rating; open questions contribute at full
// weight when answered at all. Blank answers contribute nothing.
func answerFactor(q catalog.Question, answer string) float64 {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return 0
	}
	if !q.Scale {
		return 1
	}
	for _, field := range strings.FieldsFunc(trimmed, func(r rune) bool {
		return r < '0' || r > '9'
	}) {
		if n, err := strconv.Atoi(field); err == nil && n >= 1 && n <= 5 {
			return float64(n) / 5
		}
	}
	// No parseable rating: treat as a middling response.
	return 0.6
}

// argmax returns the highest-scoring archetype, ties broken by catalog
// declaration order (first declared wins).
func (e *Engine) argmax(scores map[string]float64) string {
	best := ""
	bestScore := 0.0
	for _, a := range e.catalog.Archetypes {
		if best == "" || scores[a.Name] > bestScore {
			best = a.Name
			bestScore = scores[a.Name]
		}
	}
	return best
}

func zeroVector(c *catalog.Catalog) map[string]float64 {
	v := make(map[string]float64, len(c.Archetypes))
	for _, a := range c.Archetypes {
		v[a.Name] = 0
	}
	return v
}

func friction(c *catalog.Catalog, defaults, authentics map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(c.Archetypes))
	for _, a := range c.Archetypes {
		out[a.Name] = defaults[a.Name] - authentics[a.Name]
	}
	return out
}

func (e *Engine) tensionNarrative(p *Profile) string {
	archetype, ok := e.catalog.ByName(p.DefaultArchetype)
	if !ok || len(archetype.OveruseSignals) == 0 {
		return fmt.Sprintf("Under pressure the %s takes over from the %s.", p.DefaultArchetype, p.AuthenticArchetype)
	}
	signals := strings.Join(archetype.OveruseSignals, "; ")
	return fmt.Sprintf(
		"Under pressure the %s takes over from the %s. Watch for the %s's overuse signals: %s.",
		p.DefaultArchetype, p.AuthenticArchetype, p.DefaultArchetype, signals)
}
