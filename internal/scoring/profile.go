// Package scoring converts a completed interview history into a two-context
// archetype profile. Scoring is a pure function of the utterance history and
// the versioned question script: the same history always yields an identical
// profile.
package scoring

import (
	"fmt"
	"strings"
)

// Profile is the two-context classification of one participant.
//
// Both score vectors cover the full archetype catalog. Friction scores and
// the tension narrative are only populated when the two arg-maxes differ.
type Profile struct {
	DefaultScores   map[string]float64 `json:"default_scores"`
	AuthenticScores map[string]float64 `json:"authentic_scores"`

	DefaultArchetype   string `json:"default_archetype"`
	AuthenticArchetype string `json:"authentic_archetype"`
	Aligned            bool   `json:"is_aligned"`

	FrictionScores   map[string]float64 `json:"friction_scores,omitempty"`
	TensionNarrative string             `json:"tension_narrative,omitempty"`

	ScriptVersion string `json:"script_version"`
}

// Summary renders the profile for reflection prompts and reports.
func (p *Profile) Summary() string {
	var b strings.Builder
	if p.Aligned {
		fmt.Fprintf(&b, "Under pressure and when grounded, this participant leads as a %s: the two lenses agree.", p.DefaultArchetype)
	} else {
		fmt.Fprintf(&b, "Under pressure this participant defaults to the %s; when grounded they lead as a %s.", p.DefaultArchetype, p.AuthenticArchetype)
		if p.TensionNarrative != "" {
			b.WriteString(" ")
			b.WriteString(p.TensionNarrative)
		}
	}
	return b.String()
}
