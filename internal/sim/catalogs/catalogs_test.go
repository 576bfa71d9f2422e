package catalogs

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find repo root from %s", dir)
		}
		dir = parent
	}
}

func TestLoad_ShippedCatalog(t *testing.T) {
	root := findRepoRoot(t)
	cats, err := Load(filepath.Join(root, "configs"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	b := cats.Buildings
	if len(b.ByID) == 0 {
		t.Fatalf("empty catalog")
	}
	if b.DefsDigest == "" {
		t.Fatalf("missing digest")
	}
	if !sort.StringsAreSorted(b.Palette) {
		t.Fatalf("palette not sorted")
	}
	if len(b.Palette) != len(b.ByID) {
		t.Fatalf("palette %d entries, index %d", len(b.Palette), len(b.ByID))
	}

	cottage, ok := b.ByID["cottage"]
	if !ok {
		t.Fatalf("cottage missing")
	}
	if cottage.Category != "housing" {
		t.Fatalf("cottage category = %q", cottage.Category)
	}
	if !cottage.IsDefault {
		t.Fatalf("cottage must be the default housing option")
	}
	if cottage.Resources.HousingProvided <= 0 {
		t.Fatalf("cottage provides no housing")
	}
	for _, id := range b.ByCategory["housing"] {
		if _, ok := b.ByID[id]; !ok {
			t.Fatalf("category index references unknown id %q", id)
		}
	}
}

func TestLoadValidated_ShippedCatalog(t *testing.T) {
	root := findRepoRoot(t)
	_, err := LoadValidated(filepath.Join(root, "configs"), filepath.Join(root, "schemas", "buildings.schema.json"))
	if err != nil {
		t.Fatalf("validated load: %v", err)
	}
}

func TestLoad_DuplicateID(t *testing.T) {
	dir := t.TempDir()
	raw := `{
	  "a": [{"id": "x", "name": "X", "economics": {"buildCost": 1, "constructionDays": 1}, "resources": {}}],
	  "b": [{"id": "x", "name": "X2", "economics": {"buildCost": 1, "constructionDays": 1}, "resources": {}}]
	}`
	if err := os.WriteFile(filepath.Join(dir, "buildings.json"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("duplicate id must fail")
	}
}

func TestCivicScore(t *testing.T) {
	p := LivabilityProfile{
		Affordability: LivabilityEffect{Impact: 8, Attenuation: 4},
		Noise:         LivabilityEffect{Impact: -2, Attenuation: 2},
	}
	// 8/sqrt(4) - 2/sqrt(2), rounded to one decimal.
	want := math.Round((8.0/2-2.0/math.Sqrt(2))*10) / 10
	if got := civicScore(p); got != want {
		t.Fatalf("civic score = %v, want %v", got, want)
	}

	// Zero attenuation counts as 1 instead of dividing by zero.
	p = LivabilityProfile{Culture: LivabilityEffect{Impact: 5}}
	if got := civicScore(p); got != 5 {
		t.Fatalf("civic score with zero attenuation = %v, want 5", got)
	}

	if got := civicScore(LivabilityProfile{}); got != 0 {
		t.Fatalf("empty profile = %v, want 0", got)
	}
}

func TestResourceProfile_ProvidedRequired(t *testing.T) {
	p := ResourceProfile{
		JobsProvided:   3,
		EnergyRequired: 7,
	}
	if p.Provided(ResourceJobs) != 3 {
		t.Fatalf("jobs provided")
	}
	if p.Required(ResourceEnergy) != 7 {
		t.Fatalf("energy required")
	}
	for _, r := range Resources {
		if r == ResourceJobs {
			continue
		}
		if p.Provided(r) != 0 {
			t.Fatalf("%s provided = %v, want 0", r, p.Provided(r))
		}
	}
}

func TestMaxAttenuation(t *testing.T) {
	p := LivabilityProfile{
		Environment: LivabilityEffect{Impact: -20, Attenuation: 8},
		Noise:       LivabilityEffect{Impact: -10, Attenuation: 5},
		Culture:     LivabilityEffect{Impact: 0, Attenuation: 40},
	}
	// Zero-impact effects do not count.
	if got := p.MaxAttenuation(); got != 8 {
		t.Fatalf("max attenuation = %v, want 8", got)
	}
}
