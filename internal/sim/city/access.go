package city

import (
	"math"

	"parcelcity/internal/sim/catalogs"
)

// AccessibilityEngine derives per-cell livability scores and reachable
// population from the buildings around a cell. All of its outputs are
// finite and non-negative-safe: incomplete road networks and missing
// catalog entries degrade scores instead of erroring.
type AccessibilityEngine struct {
	grid *Grid
	cats *catalogs.Catalogs
	dist *DistanceModel
	cfg  AccessParams
}

func NewAccessibilityEngine(grid *Grid, cats *catalogs.Catalogs, dist *DistanceModel, cfg AccessParams) *AccessibilityEngine {
	return &AccessibilityEngine{grid: grid, cats: cats, dist: dist, cfg: cfg}
}

// LocalScores sums distance-attenuated CARENS contributions from complete
// buildings within the scan radius. A building's influence fades linearly
// with euclidean distance over its declared attenuation but never below
// the floor, so nothing inside the scan radius drops to exactly zero.
// Out-of-bounds targets score zero in every domain.
func (e *AccessibilityEngine) LocalScores(row, col int) map[catalogs.Domain]float64 {
	scores := make(map[catalogs.Domain]float64, len(catalogs.Domains))
	for _, d := range catalogs.Domains {
		scores[d] = 0
	}
	if !e.grid.InBounds(row, col) {
		return scores
	}
	r := e.cfg.CARENSRadius
	for dr := -r; dr <= r; dr++ {
		for dc := -r; dc <= r; dc++ {
			cell := e.grid.CellAt(row+dr, col+dc)
			if cell == nil || !cell.InService() {
				continue
			}
			def, ok := e.cats.Buildings.ByID[cell.BuildingID]
			if !ok {
				continue
			}
			d := math.Sqrt(float64(dr*dr + dc*dc))
			for _, domain := range catalogs.Domains {
				eff := def.Livability.Effect(domain)
				if eff.Impact == 0 || eff.Attenuation <= 0 {
					continue
				}
				mult := 1 - d/eff.Attenuation
				if mult < e.cfg.AttenuationFloor {
					mult = e.cfg.AttenuationFloor
				}
				scores[domain] += eff.Impact * mult
			}
		}
	}
	return scores
}

// AccessiblePopulation weighs every in-service residential building's
// capacity by how reachable it is from the target cell: full weight within
// walking range, exponential decay out to the horizon, zero beyond it.
func (e *AccessibilityEngine) AccessiblePopulation(row, col int) float64 {
	if !e.grid.InBounds(row, col) {
		return 0
	}
	total := 0.0
	e.grid.ForEachCell(func(cell *Cell) {
		if !cell.InService() {
			return
		}
		def, ok := e.cats.Buildings.ByID[cell.BuildingID]
		if !ok || def.Resources.HousingProvided <= 0 {
			return
		}
		d := e.dist.EffectiveDistance(row, col, cell.Row, cell.Col)
		w := e.reachWeight(d)
		if w <= 0 {
			return
		}
		total += def.Resources.HousingProvided * w
	})
	return total
}

func (e *AccessibilityEngine) reachWeight(d float64) float64 {
	walking := float64(e.dist.cfg.WalkingRange)
	switch {
	case d <= walking:
		return 1.0
	case d <= e.cfg.PopulationHorizon:
		return math.Exp(-e.cfg.PopulationDecay * (d - walking))
	}
	return 0
}
