package city

// DirtyTracker is the set of cells whose derived state (accessibility, land
// value) is stale. Mutations mark a square neighborhood, not just the
// mutated cell: a building changes the livability field of everything
// within its attenuation radius, so invalidation must cover neighbors.
// The set is drained in full by the next recompute; it is never partially
// cleared.
type DirtyTracker struct {
	grid  *Grid
	dirty map[Coord]struct{}
}

func NewDirtyTracker(grid *Grid) *DirtyTracker {
	return &DirtyTracker{grid: grid, dirty: map[Coord]struct{}{}}
}

// MarkDirty flags the (2*radius+1)^2 neighborhood around the cell, clamped
// to the grid. Out-of-bounds centers still mark whatever part of the
// neighborhood overlaps the grid.
func (t *DirtyTracker) MarkDirty(row, col, radius int) {
	if radius < 0 {
		radius = 0
	}
	for r := row - radius; r <= row+radius; r++ {
		for c := col - radius; c <= col+radius; c++ {
			if t.grid.InBounds(r, c) {
				t.dirty[Coord{r, c}] = struct{}{}
			}
		}
	}
}

// markAll flags every cell. Used when a change shifts derived state
// city-wide, as a road or transit mutation does to effective distances.
func (t *DirtyTracker) markAll() {
	n := t.grid.Size()
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			t.dirty[Coord{r, c}] = struct{}{}
		}
	}
}

func (t *DirtyTracker) IsDirty(row, col int) bool {
	_, ok := t.dirty[Coord{row, col}]
	return ok
}

func (t *DirtyTracker) Len() int { return len(t.dirty) }

// keys returns the dirty set without clearing it.
func (t *DirtyTracker) keys() []Coord {
	out := make([]Coord, 0, len(t.dirty))
	for k := range t.dirty {
		out = append(out, k)
	}
	return out
}

// clear empties the set. Called only after a recompute cycle completed.
func (t *DirtyTracker) clear() {
	for k := range t.dirty {
		delete(t.dirty, k)
	}
}
