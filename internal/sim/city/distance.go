package city

import "math"

// DistanceModel is the single definition of "how far" in simulation terms.
// Every accessibility and reach calculation goes through EffectiveDistance;
// nothing else measures the grid.
type DistanceModel struct {
	grid  *Grid
	graph *TransportGraph
	cfg   TransportParams
}

func NewDistanceModel(grid *Grid, graph *TransportGraph, cfg TransportParams) *DistanceModel {
	return &DistanceModel{grid: grid, graph: graph, cfg: cfg}
}

func chebyshev(a, b Coord) int {
	dr := a.Row - b.Row
	if dr < 0 {
		dr = -dr
	}
	dc := a.Col - b.Col
	if dc < 0 {
		dc = -dc
	}
	if dr > dc {
		return dr
	}
	return dc
}

func manhattan(a, b Coord) int {
	dr := a.Row - b.Row
	if dr < 0 {
		dr = -dr
	}
	dc := a.Col - b.Col
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// EffectiveDistance returns, in priority order: 0 for the same cell; the
// Chebyshev distance for immediate neighbors (walking needs no
// infrastructure); a halved Manhattan distance when a road path connects
// the two cells; a transit-assisted distance when both ends sit within the
// capture radius of connected transit nodes; otherwise the unreachable
// sentinel. The sentinel is finite so downstream decay math stays defined.
func (m *DistanceModel) EffectiveDistance(rowA, colA, rowB, colB int) float64 {
	if !m.grid.InBounds(rowA, colA) || !m.grid.InBounds(rowB, colB) {
		return m.cfg.Unreachable
	}
	a := Coord{rowA, colA}
	b := Coord{rowB, colB}
	if a == b {
		return 0
	}

	if d := chebyshev(a, b); d <= m.cfg.WalkingRange {
		return float64(d)
	}

	if info := m.graph.Connected(rowA, colA, rowB, colB); info.Connected {
		d := math.Floor(float64(manhattan(a, b)) * m.cfg.RoadFactor)
		if d < 1 {
			d = 1
		}
		return d
	}

	if d, ok := m.transitDistance(a, b); ok {
		return d
	}

	return m.cfg.Unreachable
}

// transitDistance finds the cheapest walk-on / ride / walk-off combination
// over all pairs of transit nodes on the same network. Both endpoints must
// lie within the capture radius of their node.
func (m *DistanceModel) transitDistance(a, b Coord) (float64, bool) {
	nodes := m.graph.transitNodes()
	best := math.Inf(1)
	for _, na := range nodes {
		walkOn := chebyshev(a, na.At)
		if walkOn > m.cfg.TransitCaptureRadius {
			continue
		}
		for _, nb := range nodes {
			if na == nb || na.Network != nb.Network {
				continue
			}
			walkOff := chebyshev(nb.At, b)
			if walkOff > m.cfg.TransitCaptureRadius {
				continue
			}
			ride := float64(manhattan(na.At, nb.At)) * m.cfg.TransitFactor
			total := float64(walkOn) + ride + float64(walkOff)
			if total < best {
				best = total
			}
		}
	}
	if math.IsInf(best, 1) {
		return 0, false
	}
	return best, true
}
