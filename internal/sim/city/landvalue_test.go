package city

import (
	"math"
	"testing"

	"parcelcity/internal/protocol"
)

func TestRecomputeIfDirty_DrainsOnce(t *testing.T) {
	c := newTestCity(t)

	placeInService(t, c, 5, 5, "park")
	n := c.value.RecomputeIfDirty()
	if n == 0 {
		t.Fatalf("recompute after mutation did no work")
	}
	// A second pass with no intervening mutation is free.
	if n := c.value.RecomputeIfDirty(); n != 0 {
		t.Fatalf("clean recompute did %d cells, want 0", n)
	}
}

func TestCalculatedValue_ReflectsNeighborhood(t *testing.T) {
	c := newTestCity(t)

	placeInService(t, c, 5, 5, "park")
	withPark := c.CalculatedValue(5, 6)
	if withPark <= 0 {
		t.Fatalf("value near park = %v, want positive", withPark)
	}

	// Dropping a nuisance next door must lower the neighbor's value on the
	// very next read; the mutation marked the neighborhood dirty.
	placeInService(t, c, 5, 7, "dump")
	withDump := c.CalculatedValue(5, 6)
	if withDump >= withPark {
		t.Fatalf("value with landfill %v, want below %v", withDump, withPark)
	}
}

func TestCalculatedValue_InvalidatesNeighbors(t *testing.T) {
	c := newTestCity(t)

	// Settle a baseline for a cell that is inside the future dirty radius.
	placeInService(t, c, 4, 4, "park")
	before := c.CalculatedValue(6, 6)

	// The landfill's reach (attenuation 8) must dirty (6,6) even though the
	// mutation is three cells away.
	placeInService(t, c, 3, 3, "dump")
	if !c.dirty.IsDirty(6, 6) {
		t.Fatalf("neighbor (6,6) not marked dirty by mutation at (3,3)")
	}
	after := c.CalculatedValue(6, 6)
	if after == before {
		t.Fatalf("neighbor value unchanged (%v) after nuisance placement", after)
	}
}

func TestRoadBuild_InvalidatesDistantValues(t *testing.T) {
	c := newTestCity(t)
	placeInService(t, c, 0, 0, "homes")

	// A road stub that stops short of the homes: the far corner stays
	// unreachable and its cached value settles.
	for col := 4; col <= 10; col++ {
		if code, msg := c.buildRoad("p1", &protocol.EdgeRef{Kind: "horizontal", Row: 0, Col: col}, "local"); code != "" {
			t.Fatalf("road col %d: %s %s", col, code, msg)
		}
	}
	if pop := c.AccessiblePopulation(0, 11); pop != 0 {
		t.Fatalf("disconnected population = %v, want 0", pop)
	}
	before := c.CalculatedValue(0, 11)

	// Connecting segments change reachability for the far corner, which
	// sits well outside any per-edge dirty neighborhood.
	for col := 0; col <= 3; col++ {
		if code, msg := c.buildRoad("p1", &protocol.EdgeRef{Kind: "horizontal", Row: 0, Col: col}, "local"); code != "" {
			t.Fatalf("road col %d: %s %s", col, code, msg)
		}
	}
	// Road distance (0,0)->(0,11) is floor(11/2) = 5, weighted exp(-0.3*4).
	want := 10 * math.Exp(-0.3*4)
	if pop := c.AccessiblePopulation(0, 11); math.Abs(pop-want) > 1e-9 {
		t.Fatalf("connected population = %v, want %v", pop, want)
	}
	if after := c.CalculatedValue(0, 11); after <= before {
		t.Fatalf("far value = %v, want above %v once the road connects", after, before)
	}
}

func TestCalculatedValue_NeverNegative(t *testing.T) {
	c := newTestCity(t)

	// Surround a cell with nuisances.
	for _, p := range [][2]int{{4, 4}, {4, 5}, {4, 6}, {5, 4}, {5, 6}, {6, 4}, {6, 5}, {6, 6}} {
		placeInService(t, c, p[0], p[1], "plant")
	}
	if v := c.CalculatedValue(5, 5); v < 0 {
		t.Fatalf("value = %v, want >= 0", v)
	}
}

func TestAuctionEligible(t *testing.T) {
	c := newTestCity(t)
	cell := c.grid.CellAt(2, 2)

	// Unowned parcels never go to auction, whatever the drift.
	cell.Value.PaidPrice = 100
	cell.Value.CalculatedValue = 500
	if c.value.AuctionEligible(cell) {
		t.Fatalf("unowned parcel must not be eligible")
	}

	cell.Owner = "p1"
	cell.Value.CalculatedValue = 140
	if !c.value.AuctionEligible(cell) {
		t.Fatalf("40%% drift must be eligible")
	}

	cell.Value.CalculatedValue = 120
	if c.value.AuctionEligible(cell) {
		t.Fatalf("20%% drift must not be eligible")
	}

	// Undervaluation triggers too; the rule is absolute drift.
	cell.Value.CalculatedValue = 60
	if !c.value.AuctionEligible(cell) {
		t.Fatalf("-40%% drift must be eligible")
	}

	// Zero paid price normalizes against 1 instead of dividing by zero.
	cell.Value.PaidPrice = 0
	cell.Value.CalculatedValue = 0.5
	if !c.value.AuctionEligible(cell) {
		t.Fatalf("free parcel with drift 0.5 must be eligible")
	}
}

func TestSweepCaches_KeepsAnswersStable(t *testing.T) {
	c := newTestCity(t)

	placeInService(t, c, 5, 5, "homes")
	before := c.value.AccessiblePopulation(5, 6)

	c.value.SweepCaches()
	after := c.value.AccessiblePopulation(5, 6)
	if before != after {
		t.Fatalf("sweep changed the answer: %v vs %v", before, after)
	}
}
