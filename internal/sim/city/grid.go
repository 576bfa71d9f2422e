package city

// Coord addresses one parcel cell.
type Coord struct {
	Row int
	Col int
}

// LandValue is a parcel's valuation record. CalculatedValue is owned by the
// land-value recompute path; nothing else writes it after initialization.
type LandValue struct {
	PaidPrice        float64
	CalculatedValue  float64
	LastAuctionDay   int
	AuctionThreshold float64
}

type Cell struct {
	Row int
	Col int

	BuildingID string
	Owner      string
	Decay      float64 // 0 = pristine, 1 = fully decayed

	// Days remaining until the building is complete; 0 means in service.
	ConstructionDaysLeft int
	BuiltDay             int

	Value LandValue
}

func (c *Cell) HasBuilding() bool       { return c.BuildingID != "" }
func (c *Cell) UnderConstruction() bool { return c.BuildingID != "" && c.ConstructionDaysLeft > 0 }
func (c *Cell) InService() bool         { return c.BuildingID != "" && c.ConstructionDaysLeft == 0 }

// Grid owns the NxN parcel cells and the road-bearing edge lattice between
// them. It is pure storage: all derived state (connectivity, totals, land
// value) lives in the components layered on top.
// Accessed only from the city loop goroutine.
type Grid struct {
	n     int
	cells []Cell

	// Horizontal edge (r,c) joins cells (r,c)-(r,c+1): N x (N-1) slots.
	// Vertical edge (r,c) joins cells (r,c)-(r+1,c): (N-1) x N slots.
	// Intersection (r,c) sits between the four cells with corner (r,c):
	// (N-1) x (N-1) slots.
	horizontal    []EdgeParcel
	vertical      []EdgeParcel
	intersections []EdgeParcel
}

func NewGrid(n int, auctionThreshold float64) *Grid {
	if n < 2 {
		n = 2
	}
	g := &Grid{
		n:             n,
		cells:         make([]Cell, n*n),
		horizontal:    make([]EdgeParcel, n*(n-1)),
		vertical:      make([]EdgeParcel, (n-1)*n),
		intersections: make([]EdgeParcel, (n-1)*(n-1)),
	}
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			cell := &g.cells[r*n+c]
			cell.Row = r
			cell.Col = c
			cell.Value.AuctionThreshold = auctionThreshold
		}
	}
	for r := 0; r < n; r++ {
		for c := 0; c < n-1; c++ {
			e := &g.horizontal[r*(n-1)+c]
			e.Kind = EdgeHorizontal
			e.Row, e.Col = r, c
		}
	}
	for r := 0; r < n-1; r++ {
		for c := 0; c < n; c++ {
			e := &g.vertical[r*n+c]
			e.Kind = EdgeVertical
			e.Row, e.Col = r, c
		}
	}
	for r := 0; r < n-1; r++ {
		for c := 0; c < n-1; c++ {
			e := &g.intersections[r*(n-1)+c]
			e.Kind = EdgeIntersection
			e.Row, e.Col = r, c
		}
	}
	return g
}

func (g *Grid) Size() int { return g.n }

func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.n && col >= 0 && col < g.n
}

// CellAt returns nil for out-of-bounds coordinates; callers treat nil as
// "empty parcel" rather than an error.
func (g *Grid) CellAt(row, col int) *Cell {
	if !g.InBounds(row, col) {
		return nil
	}
	return &g.cells[row*g.n+col]
}

func (g *Grid) HorizontalEdge(row, col int) *EdgeParcel {
	if row < 0 || row >= g.n || col < 0 || col >= g.n-1 {
		return nil
	}
	return &g.horizontal[row*(g.n-1)+col]
}

func (g *Grid) VerticalEdge(row, col int) *EdgeParcel {
	if row < 0 || row >= g.n-1 || col < 0 || col >= g.n {
		return nil
	}
	return &g.vertical[row*g.n+col]
}

func (g *Grid) IntersectionAt(row, col int) *EdgeParcel {
	if row < 0 || row >= g.n-1 || col < 0 || col >= g.n-1 {
		return nil
	}
	return &g.intersections[row*(g.n-1)+col]
}

func (g *Grid) EdgeAt(kind EdgeKind, row, col int) *EdgeParcel {
	switch kind {
	case EdgeHorizontal:
		return g.HorizontalEdge(row, col)
	case EdgeVertical:
		return g.VerticalEdge(row, col)
	case EdgeIntersection:
		return g.IntersectionAt(row, col)
	}
	return nil
}

// ForEachCell visits every cell in row-major order.
func (g *Grid) ForEachCell(fn func(*Cell)) {
	for i := range g.cells {
		fn(&g.cells[i])
	}
}

// ForEachEdge visits every edge parcel: horizontals, verticals, then
// intersections, each in row-major order.
func (g *Grid) ForEachEdge(fn func(*EdgeParcel)) {
	for i := range g.horizontal {
		fn(&g.horizontal[i])
	}
	for i := range g.vertical {
		fn(&g.vertical[i])
	}
	for i := range g.intersections {
		fn(&g.intersections[i])
	}
}
