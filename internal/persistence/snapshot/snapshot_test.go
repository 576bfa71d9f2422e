package snapshot

import (
	"path/filepath"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "c1.snap.zst")

	snap := CityV1{
		Header:     Header{Version: 1, CityID: "city_1", Tick: 350, Day: 7},
		Seed:       1337,
		GridSize:   12,
		TickRateHz: 5,
		DayTicks:   50,
		Cells: []CellV1{
			{Row: 5, Col: 5, BuildingID: "cottage", Owner: "p1", Decay: 0.05, PaidPrice: 250, CalculatedValue: 310.5},
			{Row: 0, Col: 11, ConstructionDaysLeft: 3, BuildingID: "clinic"},
		},
		Edges: []EdgeV1{
			{Kind: "horizontal", Row: 5, Col: 5, Roadway: "arterial", TotalInvestment: 150},
			{Kind: "vertical", Row: 2, Col: 2, BusStop: &StopV1{Type: "bus", BuiltBy: "p1", Cost: 75}},
			{Kind: "intersection", Row: 3, Col: 3, Roadway: "local"},
		},
		Treasury: map[string]float64{"p1": 1234.5},
	}

	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Header != snap.Header {
		t.Fatalf("header = %+v, want %+v", got.Header, snap.Header)
	}
	if got.Seed != 1337 || got.GridSize != 12 {
		t.Fatalf("params = seed %d grid %d", got.Seed, got.GridSize)
	}
	if len(got.Cells) != 2 || got.Cells[0] != snap.Cells[0] {
		t.Fatalf("cells = %+v", got.Cells)
	}
	if len(got.Edges) != 3 {
		t.Fatalf("edges = %d", len(got.Edges))
	}
	if got.Edges[1].BusStop == nil || got.Edges[1].BusStop.Cost != 75 {
		t.Fatalf("bus stop = %+v", got.Edges[1].BusStop)
	}
	if got.Treasury["p1"] != 1234.5 {
		t.Fatalf("treasury = %v", got.Treasury)
	}
}

func TestReadSnapshot_Missing(t *testing.T) {
	if _, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope.snap.zst")); err == nil {
		t.Fatalf("missing file must fail")
	}
}
