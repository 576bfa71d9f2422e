package city

import (
	"math"

	"parcelcity/internal/sim/catalogs"
)

type SupplyDemand struct {
	Supply float64 `json:"supply"`
	Demand float64 `json:"demand"`
}

// Totals is the city-wide supply/demand aggregate. Every lookup key from
// catalogs.Resources is always present.
type Totals map[catalogs.Resource]SupplyDemand

// Aggregator computes city-wide JEEFHH totals and the elasticity-based
// price multipliers derived from them. Totals are recomputed wholesale each
// cycle; a full pass over the grid is cheap next to per-cell accessibility.
type Aggregator struct {
	grid *Grid
	cats *catalogs.Catalogs
	cfg  EconomyParams
}

func NewAggregator(grid *Grid, cats *catalogs.Catalogs, cfg EconomyParams) *Aggregator {
	return &Aggregator{grid: grid, cats: cats, cfg: cfg}
}

// RecomputeCityTotals sums provided/required units over every complete
// building. Cells under construction, empty cells, and building ids missing
// from the catalog all contribute zero.
func (a *Aggregator) RecomputeCityTotals() Totals {
	t := Totals{}
	for _, r := range catalogs.Resources {
		t[r] = SupplyDemand{}
	}
	a.grid.ForEachCell(func(c *Cell) {
		if !c.InService() {
			return
		}
		def, ok := a.cats.Buildings.ByID[c.BuildingID]
		if !ok {
			return
		}
		for _, r := range catalogs.Resources {
			sd := t[r]
			sd.Supply += def.Resources.Provided(r)
			sd.Demand += def.Resources.Required(r)
			t[r] = sd
		}
	})
	return t
}

// Multiplier maps a resource's supply/demand ratio onto a price multiplier:
// 1.0 when balanced, falling toward the configured floor in shortage and
// rising toward the ceiling in surplus. Zero demand with positive supply is
// maximal surplus; zero supply with positive demand is maximal shortage;
// an empty market is neutral.
func (a *Aggregator) Multiplier(t Totals, r catalogs.Resource) float64 {
	curve := a.cfg.curve(r)
	sd := t[r]
	switch {
	case sd.Demand <= 0 && sd.Supply <= 0:
		return 1.0
	case sd.Demand <= 0:
		return curve.MaxMultiplier
	case sd.Supply <= 0:
		return curve.MinMultiplier
	}
	m := math.Pow(sd.Supply/sd.Demand, curve.Elasticity)
	if m < curve.MinMultiplier {
		return curve.MinMultiplier
	}
	if m > curve.MaxMultiplier {
		return curve.MaxMultiplier
	}
	return m
}

func (a *Aggregator) Multipliers(t Totals) map[catalogs.Resource]float64 {
	out := make(map[catalogs.Resource]float64, len(catalogs.Resources))
	for _, r := range catalogs.Resources {
		out[r] = a.Multiplier(t, r)
	}
	return out
}
