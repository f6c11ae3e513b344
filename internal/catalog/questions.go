package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Contribution is one statically declared score contribution of a question:
// answering the question adds Weight to Archetype's score under Context.
type Contribution struct {
	Archetype string       `yaml:"archetype"`
	Context   ScoreContext `yaml:"context"`
	Weight    float64      `yaml:"weight"`
}

// Question is one scripted interview question. Scale questions accept a
// leading 1-5 rating that modulates their contributions.
type Question struct {
	ID            string         `yaml:"id"`
	Text          string         `yaml:"text"`
	Probe         string         `yaml:"probe,omitempty"`
	Scale         bool           `yaml:"scale,omitempty"`
	Contributions []Contribution `yaml:"contributions"`
}

// Script is the fixed-length interview question script. Version is recorded
// on every profile computed from it: the positional answer-to-question
// mapping is only valid against the exact script that asked the questions,
// so a profile pins the version it was scored with.
type Script struct {
	Version   string     `yaml:"version"`
	Questions []Question `yaml:"questions"`
}

// Validate checks the script against the archetype catalog.
func (s *Script) Validate(c *Catalog) error {
	if s.Version == "" {
		return fmt.Errorf("script has no version")
	}
	if len(s.Questions) == 0 {
		return fmt.Errorf("script declares no questions")
	}
	for i, q := range s.Questions {
		if q.Text == "" {
			return fmt.Errorf("question %d has no text", i+1)
		}
		for _, contrib := range q.Contributions {
			if _, ok := c.ByName(contrib.Archetype); !ok {
				return fmt.Errorf("question %s contributes to unknown archetype %q", q.ID, contrib.Archetype)
			}
			if contrib.Context != ContextDefault && contrib.Context != ContextAuthentic {
				return fmt.Errorf("question %s has invalid context %q", q.ID, contrib.Context)
			}
			if contrib.Weight <= 0 {
				return fmt.Errorf("question %s has non-positive weight", q.ID)
			}
		}
	}
	return nil
}

// LoadScript reads a question script from a YAML file.
func LoadScript(path string, c *Catalog) (*Script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var s Script
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(c); err != nil {
		return nil, err
	}
	return &s, nil
}

// DefaultScript returns the compiled-in v1 interview script. Questions
// alternate between the under-pressure and when-grounded lenses; two scale
// questions let participants self-rate intensity.
func DefaultScript() *Script {
	return &Script{
		Version: "v1",
		Questions: []Question{
			{
				ID:    "q1-pressure-reflex",
				Text:  "Think of the last time a deadline or crisis compressed everything. What did you do first?",
				Probe: "What did people around you see you doing?",
				Contributions: []Contribution{
					{Archetype: "Catalyst", Context: ContextDefault, Weight: 3},
					{Archetype: "Guardian", Context: ContextDefault, Weight: 1},
				},
			},
			{
				ID:    "q2-grounded-energy",
				Text:  "When work is going well and you feel most like yourself, what kind of contribution are you making?",
				Probe: "What would your closest colleague say you bring?",
				Contributions: []Contribution{
					{Archetype: "Visionary", Context: ContextAuthentic, Weight: 3},
					{Archetype: "Harmonizer", Context: ContextAuthentic, Weight: 1},
				},
			},
			{
				ID:    "q3-conflict-default",
				Text:  "When a disagreement on your team gets heated, what role do you find yourself playing?",
				Contributions: []Contribution{
					{Archetype: "Harmonizer", Context: ContextDefault, Weight: 3},
					{Archetype: "Strategist", Context: ContextDefault, Weight: 1},
				},
			},
			{
				ID:    "q4-grounded-decisions",
				Text:  "Describe a decision you're proud of. How did you arrive at it?",
				Contributions: []Contribution{
					{Archetype: "Strategist", Context: ContextAuthentic, Weight: 3},
					{Archetype: "Anchor", Context: ContextAuthentic, Weight: 1},
				},
			},
			{
				ID:    "q5-control-scale",
				Text:  "On a scale of 1 to 5, when things go sideways, how strongly do you feel the pull to take control yourself?",
				Scale: true,
				Contributions: []Contribution{
					{Archetype: "Catalyst", Context: ContextDefault, Weight: 2},
					{Archetype: "Anchor", Context: ContextDefault, Weight: 2},
				},
			},
			{
				ID:    "q6-protect-default",
				Text:  "Under sustained pressure, what do you find yourself protecting: the plan, the people, or the standard?",
				Contributions: []Contribution{
					{Archetype: "Guardian", Context: ContextDefault, Weight: 3},
					{Archetype: "Harmonizer", Context: ContextDefault, Weight: 1},
				},
			},
			{
				ID:    "q7-grounded-future",
				Text:  "Given a quarter with no fires to fight, what would you spend it building?",
				Contributions: []Contribution{
					{Archetype: "Visionary", Context: ContextAuthentic, Weight: 2},
					{Archetype: "Strategist", Context: ContextAuthentic, Weight: 2},
				},
			},
			{
				ID:    "q8-steadiness-scale",
				Text:  "On a scale of 1 to 5, how much of your value at work comes from being the steady, consistent presence others rely on?",
				Scale: true,
				Contributions: []Contribution{
					{Archetype: "Anchor", Context: ContextAuthentic, Weight: 2},
					{Archetype: "Guardian", Context: ContextAuthentic, Weight: 2},
				},
			},
		},
	}
}
