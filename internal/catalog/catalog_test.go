package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalogValidates(t *testing.T) {
	t.Parallel()
	c := DefaultCatalog()
	if err := c.Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
	if len(c.Names()) != 6 {
		t.Fatalf("expected 6 archetypes, got %d", len(c.Names()))
	}
	if _, ok := c.ByName("Catalyst"); !ok {
		t.Fatal("Catalyst missing from catalog")
	}
	if _, ok := c.ByName("Nonexistent"); ok {
		t.Fatal("lookup of unknown archetype succeeded")
	}
}

func TestCatalogValidateRejectsDuplicates(t *testing.T) {
	t.Parallel()
	c := &Catalog{Archetypes: []Archetype{{Name: "A"}, {Name: "A"}}}
	if err := c.Validate(); err == nil {
		t.Fatal("expected duplicate archetype error")
	}
}

func TestDefaultScriptValidates(t *testing.T) {
	t.Parallel()
	s := DefaultScript()
	if err := s.Validate(DefaultCatalog()); err != nil {
		t.Fatalf("default script invalid: %v", err)
	}
	if s.Version == "" {
		t.Fatal("script has no version")
	}
}

func TestScriptValidateRejectsUnknownArchetype(t *testing.T) {
	t.Parallel()
	s := &Script{
		Version: "test",
		Questions: []Question{{
			ID:   "q1",
			Text: "A question",
			Contributions: []Contribution{
				{Archetype: "Phantom", Context: ContextDefault, Weight: 1},
			},
		}},
	}
	if err := s.Validate(DefaultCatalog()); err == nil {
		t.Fatal("expected unknown-archetype error")
	}
}

func TestScriptValidateRejectsBadContext(t *testing.T) {
	t.Parallel()
	s := &Script{
		Version: "test",
		Questions: []Question{{
			ID:   "q1",
			Text: "A question",
			Contributions: []Contribution{
				{Archetype: "Catalyst", Context: "sideways", Weight: 1},
			},
		}},
	}
	if err := s.Validate(DefaultCatalog()); err == nil {
		t.Fatal("expected invalid-context error")
	}
}

func TestDefaultTaxonomyValidates(t *testing.T) {
	t.Parallel()
	tax := DefaultTaxonomy()
	if err := tax.Validate(); err != nil {
		t.Fatalf("default taxonomy invalid: %v", err)
	}
	if len(tax.Pillars) != 4 {
		t.Fatalf("expected 4 pillars, got %d", len(tax.Pillars))
	}
	if len(tax.DimensionNames()) != 12 {
		t.Fatalf("expected 12 dimensions, got %d", len(tax.DimensionNames()))
	}
}

func TestTaxonomyValidateRejectsUnknownRole(t *testing.T) {
	t.Parallel()
	tax := &Taxonomy{Pillars: []Pillar{{
		Name:   "P",
		Weight: 1,
		Dimensions: []Dimension{{
			Name:        "d",
			Weight:      1,
			RoleWeights: map[string]float64{"intern": 2},
		}},
	}}}
	if err := tax.Validate(); err == nil {
		t.Fatal("expected unknown-role error")
	}
}

func TestRoleWeightDefaultsToOne(t *testing.T) {
	t.Parallel()
	d := Dimension{Name: "d", RoleWeights: map[string]float64{RoleExecutive: 2}}
	if got := d.RoleWeight(RoleExecutive); got != 2 {
		t.Fatalf("executive weight = %v, want 2", got)
	}
	if got := d.RoleWeight(RoleContributor); got != 1 {
		t.Fatalf("unlisted role weight = %v, want 1", got)
	}
}

func TestKnownRole(t *testing.T) {
	t.Parallel()
	for _, role := range []string{RoleExecutive, RolePeopleLead, RoleContributor, RoleOperations} {
		if !KnownRole(role) {
			t.Fatalf("role %q should be known", role)
		}
	}
	if KnownRole("ceo") {
		t.Fatal("unexpected role accepted")
	}
}

func TestLoadCatalogFromYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `archetypes:
  - name: Builder
    description: Ships things.
    strengths: [finishes work]
    overuse_signals: [skips review]
  - name: Dreamer
    description: Imagines things.
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if len(c.Archetypes) != 2 {
		t.Fatalf("expected 2 archetypes, got %d", len(c.Archetypes))
	}
	a, ok := c.ByName("Builder")
	if !ok || len(a.OveruseSignals) != 1 {
		t.Fatalf("Builder not loaded correctly: %+v", a)
	}
}

func TestLoadScriptRejectsInvalidFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "script.yaml")
	// Valid YAML, but the contribution references an archetype the catalog
	// does not declare.
	content := `version: v9
questions:
  - id: q1
    text: A question
    contributions:
      - archetype: Ghost
        context: default
        weight: 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScript(path, DefaultCatalog()); err == nil {
		t.Fatal("expected validation failure")
	}
}
