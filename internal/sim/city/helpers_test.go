package city

import (
	"os"
	"path/filepath"
	"testing"

	"parcelcity/internal/sim/catalogs"
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

// testCatalogs builds a small fixed catalog so tests do not depend on the
// shipped configs. Buildings cover the cases the engines care about:
// pure supply, pure demand, housing, and positive/negative livability.
func testCatalogs() *catalogs.Catalogs {
	byID := map[string]catalogs.BuildingDef{
		"homes": {
			ID:       "homes",
			Name:     "Homes",
			Category: "housing",
			Economics: catalogs.Economics{
				BuildCost:        200,
				ConstructionDays: 2,
				MaxRevenue:       20,
				MaintenanceCost:  4,
				DecayRate:        0.01,
			},
			Resources: catalogs.ResourceProfile{
				HousingProvided: 10,
				EnergyRequired:  5,
			},
			Livability: catalogs.LivabilityProfile{
				Affordability: catalogs.LivabilityEffect{Impact: 8, Attenuation: 4},
			},
		},
		"plant": {
			ID:       "plant",
			Name:     "Power Plant",
			Category: "energy",
			Economics: catalogs.Economics{
				BuildCost:       1000,
				MaxRevenue:      100,
				MaintenanceCost: 20,
				DecayRate:       0.02,
			},
			Resources: catalogs.ResourceProfile{
				EnergyProvided: 100,
			},
			Livability: catalogs.LivabilityProfile{
				Environment: catalogs.LivabilityEffect{Impact: -20, Attenuation: 8},
				Noise:       catalogs.LivabilityEffect{Impact: -10, Attenuation: 5},
			},
		},
		"office": {
			ID:       "office",
			Name:     "Office",
			Category: "commercial",
			Economics: catalogs.Economics{
				BuildCost:       500,
				MaxRevenue:      60,
				MaintenanceCost: 10,
			},
			Resources: catalogs.ResourceProfile{
				JobsProvided:   30,
				EnergyRequired: 50,
			},
		},
		"dump": {
			ID:       "dump",
			Name:     "Landfill",
			Category: "civic",
			Livability: catalogs.LivabilityProfile{
				Environment: catalogs.LivabilityEffect{Impact: -20, Attenuation: 8},
				Noise:       catalogs.LivabilityEffect{Impact: -10, Attenuation: 5},
			},
		},
		"park": {
			ID:       "park",
			Name:     "Park",
			Category: "civic",
			Livability: catalogs.LivabilityProfile{
				Environment: catalogs.LivabilityEffect{Impact: 10, Attenuation: 5},
				Culture:     catalogs.LivabilityEffect{Impact: 4, Attenuation: 2},
			},
		},
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	return &catalogs.Catalogs{
		Buildings: catalogs.BuildingCatalog{
			Palette:    ids,
			ByID:       byID,
			DefsDigest: "test",
		},
	}
}

func testConfig() CityConfig {
	cfg := CityConfig{ID: "C_TEST", GridSize: 12, Seed: 42}
	cfg.applyDefaults()
	return cfg
}

func newTestCity(t *testing.T) *City {
	t.Helper()
	c, err := New(testConfig(), testCatalogs())
	if err != nil {
		t.Fatalf("new city: %v", err)
	}
	return c
}

// placeInService drops a completed building straight onto the grid,
// bypassing construction, and marks the neighborhood dirty the way the
// mutation path would.
func placeInService(t *testing.T, c *City, row, col int, id string) {
	t.Helper()
	cell := c.grid.CellAt(row, col)
	if cell == nil {
		t.Fatalf("cell (%d,%d) out of bounds", row, col)
	}
	def, ok := c.cats.Buildings.ByID[id]
	if !ok {
		t.Fatalf("no building %q in test catalog", id)
	}
	cell.BuildingID = id
	cell.ConstructionDaysLeft = 0
	c.dirty.MarkDirty(row, col, c.dirtyRadiusFor(def))
}
