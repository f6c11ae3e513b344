package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Participant roles form a closed catalog. Synthesis weights a transcript's
// contribution to each dimension by the participant's role.
const (
	RoleExecutive   = "executive"
	RolePeopleLead  = "people_lead"
	RoleContributor = "contributor"
	RoleOperations  = "operations"
)

// KnownRole reports whether role belongs to the participant-role catalog.
func KnownRole(role string) bool {
	switch role {
	case RoleExecutive, RolePeopleLead, RoleContributor, RoleOperations:
		return true
	}
	return false
}

// Dimension is one measurable facet of a pillar. Name is the stable key used
// in model-extracted signals; RoleWeights declares which participant roles
// are authoritative for it (absent roles weigh 1).
type Dimension struct {
	Name        string             `yaml:"name"`
	Label       string             `yaml:"label"`
	Description string             `yaml:"description"`
	Weight      float64            `yaml:"weight"`
	RoleWeights map[string]float64 `yaml:"role_weights,omitempty"`
}

// RoleWeight returns the weight of a participant role for this dimension.
func (d Dimension) RoleWeight(role string) float64 {
	if w, ok := d.RoleWeights[role]; ok {
		return w
	}
	return 1
}

// Pillar groups dimensions. Pillar and dimension declaration order breaks
// recommendation-priority ties and orders report output.
type Pillar struct {
	Name       string      `yaml:"name"`
	Weight     float64     `yaml:"weight"`
	Dimensions []Dimension `yaml:"dimensions"`
}

// Taxonomy is the fixed pillar → dimension structure of the readiness report.
type Taxonomy struct {
	Pillars []Pillar `yaml:"pillars"`
}

// DimensionNames returns every dimension key in declaration order.
func (t *Taxonomy) DimensionNames() []string {
	var names []string
	for _, p := range t.Pillars {
		for _, d := range p.Dimensions {
			names = append(names, d.Name)
		}
	}
	return names
}

// Validate checks structural invariants of the taxonomy.
func (t *Taxonomy) Validate() error {
	if len(t.Pillars) == 0 {
		return fmt.Errorf("taxonomy declares no pillars")
	}
	seen := make(map[string]struct{})
	for _, p := range t.Pillars {
		if p.Name == "" {
			return fmt.Errorf("taxonomy contains an unnamed pillar")
		}
		if p.Weight <= 0 {
			return fmt.Errorf("pillar %q has non-positive weight", p.Name)
		}
		if len(p.Dimensions) == 0 {
			return fmt.Errorf("pillar %q declares no dimensions", p.Name)
		}
		for _, d := range p.Dimensions {
			if d.Name == "" {
				return fmt.Errorf("pillar %q contains an unnamed dimension", p.Name)
			}
			if _, dup := seen[d.Name]; dup {
				return fmt.Errorf("duplicate dimension %q", d.Name)
			}
			seen[d.Name] = struct{}{}
			if d.Weight <= 0 {
				return fmt.Errorf("dimension %q has non-positive weight", d.Name)
			}
			for role := range d.RoleWeights {
				if !KnownRole(role) {
					return fmt.Errorf("dimension %q weights unknown role %q", d.Name, role)
				}
			}
		}
	}
	return nil
}

// LoadTaxonomy reads a pillar/dimension taxonomy from a YAML file.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	var t Taxonomy
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// DefaultTaxonomy returns the compiled-in readiness taxonomy. Scores are on a
// 0-100 scale. Role weights encode who is authoritative for each dimension:
// executives for direction, contributors for culture, operations for delivery.
func DefaultTaxonomy() *Taxonomy {
	return &Taxonomy{Pillars: []Pillar{
		{
			Name:   "Leadership Alignment",
			Weight: 1,
			Dimensions: []Dimension{
				{
					Name:        "vision_clarity",
					Label:       "Vision Clarity",
					Description: "How clearly the organization's direction is understood at every level.",
					Weight:      1,
					RoleWeights: map[string]float64{RoleExecutive: 2, RolePeopleLead: 1.5},
				},
				{
					Name:        "decision_velocity",
					Label:       "Decision Velocity",
					Description: "How quickly decisions are made and communicated once the need is visible.",
					Weight:      1,
					RoleWeights: map[string]float64{RoleExecutive: 2},
				},
				{
					Name:        "accountability",
					Label:       "Accountability",
					Description: "Whether ownership of outcomes is explicit and honored.",
					Weight:      1,
					RoleWeights: map[string]float64{RolePeopleLead: 1.5},
				},
			},
		},
		{
			Name:   "Culture & Trust",
			Weight: 1,
			Dimensions: []Dimension{
				{
					Name:        "psychological_safety",
					Label:       "Psychological Safety",
					Description: "Whether people raise problems and dissent without fear.",
					Weight:      1,
					RoleWeights: map[string]float64{RoleContributor: 2},
				},
				{
					Name:        "feedback_flow",
					Label:       "Feedback Flow",
					Description: "Whether feedback travels in both directions and changes behavior.",
					Weight:      1,
					RoleWeights: map[string]float64{RoleContributor: 1.5, RolePeopleLead: 1.5},
				},
				{
					Name:        "conflict_health",
					Label:       "Conflict Health",
					Description: "Whether disagreement is surfaced and resolved rather than buried.",
					Weight:      1,
				},
			},
		},
		{
			Name:   "Execution Capability",
			Weight: 1,
			Dimensions: []Dimension{
				{
					Name:        "prioritization",
					Label:       "Prioritization",
					Description: "Whether the organization starts less than it can finish.",
					Weight:      1,
					RoleWeights: map[string]float64{RoleOperations: 2, RoleExecutive: 1.5},
				},
				{
					Name:        "delivery_discipline",
					Label:       "Delivery Discipline",
					Description: "Whether committed work lands when and how it was promised.",
					Weight:      1,
					RoleWeights: map[string]float64{RoleOperations: 2},
				},
				{
					Name:        "resourcing",
					Label:       "Resourcing",
					Description: "Whether teams have the people and budget their commitments assume.",
					Weight:      1,
					RoleWeights: map[string]float64{RoleOperations: 1.5, RolePeopleLead: 1.5},
				},
			},
		},
		{
			Name:   "Change Resilience",
			Weight: 1,
			Dimensions: []Dimension{
				{
					Name:        "adaptability",
					Label:       "Adaptability",
					Description: "How readily plans and roles flex when circumstances change.",
					Weight:      1,
				},
				{
					Name:        "learning_loops",
					Label:       "Learning Loops",
					Description: "Whether the organization converts mistakes into changed practice.",
					Weight:      1,
					RoleWeights: map[string]float64{RolePeopleLead: 1.5},
				},
				{
					Name:        "recovery_capacity",
					Label:       "Recovery Capacity",
					Description: "How much change the organization can absorb before fatigue sets in.",
					Weight:      1,
					RoleWeights: map[string]float64{RoleContributor: 1.5},
				},
			},
		},
	}}
}
