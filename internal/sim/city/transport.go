package city

// ConnectionInfo answers a connectivity query. Bottleneck is the minimum
// roadway tier along the found path, RoadNone when disconnected.
type ConnectionInfo struct {
	Connected  bool
	Bottleneck RoadTier
}

type roadEdge struct {
	To   Coord
	Tier RoadTier
}

type transitNode struct {
	At      Coord
	Network string // StopBus or StopSubway
}

// TransportGraph is a derived cache over the grid's edge lattice. It is
// rebuilt lazily: every infrastructure mutation bumps the generation
// counter, and the next query rebuilds against the current grid. Nothing
// outside this type mutates the adjacency or transit node lists.
type TransportGraph struct {
	grid *Grid
	cfg  TransportParams

	gen      uint64
	builtGen uint64
	built    bool

	adjacency map[Coord][]roadEdge
	transit   []transitNode
}

func NewTransportGraph(grid *Grid, cfg TransportParams) *TransportGraph {
	return &TransportGraph{grid: grid, cfg: cfg}
}

// Invalidate must be called after any roadway or transit mutation.
func (t *TransportGraph) Invalidate() { t.gen++ }

// Generation reports the current mutation generation. Caches built on top
// of the graph record it and rebuild when it moves.
func (t *TransportGraph) Generation() uint64 { return t.gen }

func (t *TransportGraph) ensureBuilt() {
	if t.built && t.builtGen == t.gen {
		return
	}
	t.rebuild()
	t.builtGen = t.gen
	t.built = true
}

// rebuild scans every edge parcel once and emits adjacency edges between
// in-bounds cells, tagged with the segment's tier. Transit nodes are the
// cells an edge with a bus stop or subway entrance touches.
func (t *TransportGraph) rebuild() {
	t.adjacency = map[Coord][]roadEdge{}
	t.transit = t.transit[:0]

	seenTransit := map[transitNode]bool{}
	t.grid.ForEachEdge(func(e *EdgeParcel) {
		cells := e.Cells()
		if e.HasRoad() {
			for i, a := range cells {
				if !t.grid.InBounds(a.Row, a.Col) {
					continue
				}
				for j, b := range cells {
					if i == j || !t.grid.InBounds(b.Row, b.Col) {
						continue
					}
					t.adjacency[a] = append(t.adjacency[a], roadEdge{To: b, Tier: e.Infra.Roadway})
				}
			}
		}
		if e.Infra.BusStop != nil {
			t.addTransitNodes(cells, StopBus, seenTransit)
		}
		if e.Infra.SubwayEntrance != nil {
			t.addTransitNodes(cells, StopSubway, seenTransit)
		}
	})
}

func (t *TransportGraph) addTransitNodes(cells []Coord, network string, seen map[transitNode]bool) {
	for _, c := range cells {
		if !t.grid.InBounds(c.Row, c.Col) {
			continue
		}
		n := transitNode{At: c, Network: network}
		if seen[n] {
			continue
		}
		seen[n] = true
		t.transit = append(t.transit, n)
	}
}

// Connected reports whether a continuous road joins the two cells, and the
// weakest tier on the path found. Same-cell queries are trivially connected
// at the highest tier. The search is breadth-first and capped at MaxHops;
// anything beyond the cap reports disconnected.
func (t *TransportGraph) Connected(rowA, colA, rowB, colB int) ConnectionInfo {
	if !t.grid.InBounds(rowA, colA) || !t.grid.InBounds(rowB, colB) {
		return ConnectionInfo{}
	}
	if rowA == rowB && colA == colB {
		return ConnectionInfo{Connected: true, Bottleneck: RoadHighway}
	}
	t.ensureBuilt()

	from := Coord{rowA, colA}
	to := Coord{rowB, colB}

	type visit struct {
		at         Coord
		hops       int
		bottleneck RoadTier
	}
	visited := map[Coord]bool{from: true}
	queue := []visit{{at: from, bottleneck: RoadHighway}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.hops >= t.cfg.MaxHops {
			continue
		}
		for _, edge := range t.adjacency[cur.at] {
			if visited[edge.To] {
				continue
			}
			b := cur.bottleneck
			if edge.Tier < b {
				b = edge.Tier
			}
			if edge.To == to {
				return ConnectionInfo{Connected: true, Bottleneck: b}
			}
			visited[edge.To] = true
			queue = append(queue, visit{at: edge.To, hops: cur.hops + 1, bottleneck: b})
		}
	}
	return ConnectionInfo{}
}

// transitNodes returns the current transit node list, rebuilding if stale.
func (t *TransportGraph) transitNodes() []transitNode {
	t.ensureBuilt()
	return t.transit
}
