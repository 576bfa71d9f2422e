package city

import (
	"math"

	"parcelcity/internal/sim/catalogs"
)

// LandValueEngine derives each parcel's calculated value from accessibility
// and city-wide supply/demand, recomputing lazily for dirty cells only.
// It also owns the one place paidPrice and calculatedValue are compared:
// the auction-eligibility rule.
type LandValueEngine struct {
	grid   *Grid
	graph  *TransportGraph
	agg    *Aggregator
	access *AccessibilityEngine
	dirty  *DirtyTracker
	cfg    ValueParams

	// Last transport generation folded into the caches. When the graph
	// moves past it, every cached value is suspect.
	graphGen uint64

	// Read-path caches keyed by cell. Entries for dirty cells are refreshed
	// during recompute; the periodic sweep clears both wholesale to bound
	// growth from keys that never get invalidated.
	scoreCache map[Coord]map[catalogs.Domain]float64
	popCache   map[Coord]float64

	totals      Totals
	multipliers map[catalogs.Resource]float64
}

func NewLandValueEngine(grid *Grid, graph *TransportGraph, agg *Aggregator, access *AccessibilityEngine, dirty *DirtyTracker, cfg ValueParams) *LandValueEngine {
	return &LandValueEngine{
		grid:       grid,
		graph:      graph,
		agg:        agg,
		access:     access,
		dirty:      dirty,
		cfg:        cfg,
		scoreCache: map[Coord]map[catalogs.Domain]float64{},
		popCache:   map[Coord]float64{},
	}
}

// RecomputeIfDirty recomputes calculated values for every dirty cell and
// clears the set. It returns the number of cells recomputed; a second call
// with no intervening mutation does zero work.
func (e *LandValueEngine) RecomputeIfDirty() int {
	e.syncTransportGeneration()
	if e.dirty.Len() == 0 {
		return 0
	}
	e.totals = e.agg.RecomputeCityTotals()
	e.multipliers = e.agg.Multipliers(e.totals)

	keys := e.dirty.keys()
	for _, k := range keys {
		scores := e.access.LocalScores(k.Row, k.Col)
		pop := e.access.AccessiblePopulation(k.Row, k.Col)
		e.scoreCache[k] = scores
		e.popCache[k] = pop

		cell := e.grid.CellAt(k.Row, k.Col)
		if cell == nil {
			continue
		}
		cell.Value.CalculatedValue = e.calculate(scores, pop)
	}
	e.dirty.clear()
	return len(keys)
}

// syncTransportGeneration re-marks the whole grid when the transport
// network changed since the last recompute. One road segment can
// reconnect distant cells, so edge-local invalidation is not enough.
func (e *LandValueEngine) syncTransportGeneration() {
	gen := e.graph.Generation()
	if gen == e.graphGen {
		return
	}
	e.graphGen = gen
	e.dirty.markAll()
}

// calculate is the deterministic valuation formula: the base value lifted
// by the parcel's net CARENS score, scaled by average demand pressure, plus
// the accessibility-weighted population. Never negative.
func (e *LandValueEngine) calculate(scores map[catalogs.Domain]float64, pop float64) float64 {
	carens := 0.0
	for _, d := range catalogs.Domains {
		carens += scores[d]
	}
	// A parcel surrounded by nuisance can lose at most 80% of base value.
	lift := 1 + carens/100
	if lift < 0.2 {
		lift = 0.2
	}
	pressure := 0.0
	for _, r := range catalogs.Resources {
		pressure += e.multipliers[r]
	}
	pressure /= float64(len(catalogs.Resources))

	v := e.cfg.BaseValue*lift*pressure + pop
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// CalculatedValue serves a parcel's current value, transparently flushing
// dirty state first. Out of bounds reads are 0.
func (e *LandValueEngine) CalculatedValue(row, col int) float64 {
	e.RecomputeIfDirty()
	cell := e.grid.CellAt(row, col)
	if cell == nil {
		return 0
	}
	return cell.Value.CalculatedValue
}

// LocalScores is the cached read path for CARENS snapshots.
func (e *LandValueEngine) LocalScores(row, col int) map[catalogs.Domain]float64 {
	e.RecomputeIfDirty()
	k := Coord{row, col}
	if s, ok := e.scoreCache[k]; ok {
		return s
	}
	s := e.access.LocalScores(row, col)
	e.scoreCache[k] = s
	return s
}

// AccessiblePopulation is the cached read path for JEEFHH reach snapshots.
func (e *LandValueEngine) AccessiblePopulation(row, col int) float64 {
	e.RecomputeIfDirty()
	k := Coord{row, col}
	if p, ok := e.popCache[k]; ok {
		return p
	}
	p := e.access.AccessiblePopulation(row, col)
	e.popCache[k] = p
	return p
}

// Totals returns the last aggregate snapshot, computing one if no recompute
// has run yet.
func (e *LandValueEngine) Totals() (Totals, map[catalogs.Resource]float64) {
	e.RecomputeIfDirty()
	if e.totals == nil {
		e.totals = e.agg.RecomputeCityTotals()
		e.multipliers = e.agg.Multipliers(e.totals)
	}
	return e.totals, e.multipliers
}

// AuctionEligible reports whether the parcel's valuation has drifted past
// its threshold relative to the last paid price. Unowned parcels are never
// eligible.
func (e *LandValueEngine) AuctionEligible(cell *Cell) bool {
	if cell == nil || cell.Owner == "" {
		return false
	}
	threshold := cell.Value.AuctionThreshold
	if threshold <= 0 {
		threshold = e.cfg.AuctionThreshold
	}
	base := cell.Value.PaidPrice
	if base < 1 {
		base = 1
	}
	drift := math.Abs(cell.Value.CalculatedValue-cell.Value.PaidPrice) / base
	return drift > threshold
}

// SweepCaches unconditionally drops the read-path caches. Invalidation is
// handled by dirty marking at every mutation entry point; the sweep only
// bounds memory growth.
func (e *LandValueEngine) SweepCaches() {
	e.scoreCache = map[Coord]map[catalogs.Domain]float64{}
	e.popCache = map[Coord]float64{}
}
