// Package catalog holds the read-only, process-wide configuration of the
// assessment engine: the archetype catalog, the versioned interview question
// script, and the pillar/dimension taxonomy used by organizational synthesis.
// All three are loaded once at process start (compiled-in defaults or YAML)
// and never mutated at runtime. Declaration order is significant: it breaks
// arg-max ties and orders report output.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ScoreContext distinguishes the two scoring lenses of an interview.
type ScoreContext string

const (
	// ContextDefault scores behavior under pressure.
	ContextDefault ScoreContext = "default"
	// ContextAuthentic scores behavior when grounded.
	ContextAuthentic ScoreContext = "authentic"
)

// Archetype is one named behavioral classification.
type Archetype struct {
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Strengths      []string `yaml:"strengths"`
	OveruseSignals []string `yaml:"overuse_signals"`
}

// Catalog is the fixed, ordered archetype catalog.
type Catalog struct {
	Archetypes []Archetype `yaml:"archetypes"`
}

// Names returns archetype names in declaration order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Archetypes))
	for i, a := range c.Archetypes {
		names[i] = a.Name
	}
	return names
}

// ByName returns the archetype with the given name.
func (c *Catalog) ByName(name string) (Archetype, bool) {
	for _, a := range c.Archetypes {
		if a.Name == name {
			return a, true
		}
	}
	return Archetype{}, false
}

// Validate checks structural invariants of the catalog.
func (c *Catalog) Validate() error {
	if len(c.Archetypes) == 0 {
		return fmt.Errorf("catalog declares no archetypes")
	}
	seen := make(map[string]struct{}, len(c.Archetypes))
	for _, a := range c.Archetypes {
		if a.Name == "" {
			return fmt.Errorf("catalog contains an unnamed archetype")
		}
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("duplicate archetype %q", a.Name)
		}
		seen[a.Name] = struct{}{}
	}
	return nil
}

// LoadCatalog reads an archetype catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// DefaultCatalog returns the compiled-in archetype catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{Archetypes: []Archetype{
		{
			Name:        "Catalyst",
			Description: "Drives momentum through energy, urgency, and visible action.",
			Strengths:   []string{"rallies people quickly", "breaks inertia", "comfortable with ambiguity"},
			OveruseSignals: []string{
				"starts more than the team can finish",
				"escalates urgency until everything feels critical",
				"leaves others without room to contribute",
			},
		},
		{
			Name:        "Guardian",
			Description: "Protects stability, standards, and the people doing the work.",
			Strengths:   []string{"anticipates risk", "holds quality lines", "steady under load"},
			OveruseSignals: []string{
				"blocks change to avoid any risk",
				"carries problems alone instead of delegating",
				"defaults to no before understanding the ask",
			},
		},
		{
			Name:        "Strategist",
			Description: "Leads through analysis, framing, and long-horizon positioning.",
			Strengths:   []string{"sees second-order effects", "clarifies trade-offs", "patient with complexity"},
			OveruseSignals: []string{
				"analysis postpones decisions past their window",
				"detaches from the emotional state of the room",
				"over-engineers plans for unlikely futures",
			},
		},
		{
			Name:        "Harmonizer",
			Description: "Builds cohesion, trust, and shared ownership across people.",
			Strengths:   []string{"reads the room", "repairs strained relationships", "keeps everyone on the bus"},
			OveruseSignals: []string{
				"smooths over conflict that needed surfacing",
				"delays hard calls to preserve comfort",
				"absorbs tension until it leaks out sideways",
			},
		},
		{
			Name:        "Visionary",
			Description: "Orients people toward a compelling picture of what could be.",
			Strengths:   []string{"inspires commitment", "connects work to purpose", "spots opportunity early"},
			OveruseSignals: []string{
				"changes direction before the last direction landed",
				"underweights operational reality",
				"loses people who need concrete next steps",
			},
		},
		{
			Name:        "Anchor",
			Description: "Grounds the team in presence, consistency, and follow-through.",
			Strengths:   []string{"dependable in a crisis", "finishes what is started", "models calm"},
			OveruseSignals: []string{
				"holds the current course after it stopped working",
				"understates problems to keep things calm",
				"resists experiments that would disturb routine",
			},
		},
	}}
}
