package city

import (
	"testing"

	"parcelcity/internal/persistence/snapshot"
	"parcelcity/internal/protocol"
)

func TestSnapshotRoundTrip(t *testing.T) {
	c := newTestCity(t)

	if code, msg := c.placeBuilding("p1", 5, 5, "homes"); code != "" {
		t.Fatalf("place: %s %s", code, msg)
	}
	if code, msg := c.buildRoad("p1", &protocol.EdgeRef{Kind: "horizontal", Row: 5, Col: 5}, "arterial"); code != "" {
		t.Fatalf("road: %s %s", code, msg)
	}
	if code, msg := c.addStop("p1", &protocol.EdgeRef{Kind: "vertical", Row: 2, Col: 2}, StopBus); code != "" {
		t.Fatalf("stop: %s %s", code, msg)
	}
	if code, msg := c.buyParcel("p1", 5, 5, 250); code != "" {
		t.Fatalf("buy: %s %s", code, msg)
	}
	c.treasury["p1"] = 1234.5
	c.advanceDay()

	snap := c.ExportSnapshot()
	restored, err := NewFromSnapshot(testConfig(), testCatalogs(), snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	if restored.Day() != c.Day() || restored.Tick() != c.Tick() {
		t.Fatalf("clock mismatch: day %d/%d tick %d/%d", restored.Day(), c.Day(), restored.Tick(), c.Tick())
	}
	if restored.StateDigest() != c.StateDigest() {
		t.Fatalf("state digest mismatch after round trip")
	}
	if got := restored.Treasury("p1"); got != 1234.5 {
		t.Fatalf("treasury = %v, want 1234.5", got)
	}

	cell := restored.grid.CellAt(5, 5)
	if cell.BuildingID != "homes" || cell.Owner != "p1" || cell.Value.PaidPrice != 250 {
		t.Fatalf("restored cell = %+v", cell)
	}
	edge := restored.grid.HorizontalEdge(5, 5)
	if edge.Infra.Roadway != RoadArterial {
		t.Fatalf("restored roadway = %v", edge.Infra.Roadway)
	}
	if restored.grid.VerticalEdge(2, 2).Infra.BusStop == nil {
		t.Fatalf("restored bus stop missing")
	}

	// The restored city answers queries without needing any priming: the
	// restore marks everything dirty.
	if v := restored.CalculatedValue(5, 5); v <= 0 {
		t.Fatalf("restored value = %v, want positive", v)
	}
}

func TestNewFromSnapshot_RejectsBadData(t *testing.T) {
	c := newTestCity(t)
	snap := c.ExportSnapshot()

	bad := snap
	bad.Header.Version = 99
	if _, err := NewFromSnapshot(testConfig(), testCatalogs(), bad); err == nil {
		t.Fatalf("wrong version must fail")
	}

	bad = snap
	bad.Header.Version = snapshotVersion
	bad.Cells = []snapshot.CellV1{{Row: 500, Col: 500, BuildingID: "homes"}}
	if _, err := NewFromSnapshot(testConfig(), testCatalogs(), bad); err == nil {
		t.Fatalf("out-of-bounds cell must fail")
	}

	bad = snap
	bad.Cells = nil
	bad.Edges = []snapshot.EdgeV1{{Kind: "diagonal", Row: 0, Col: 0}}
	if _, err := NewFromSnapshot(testConfig(), testCatalogs(), bad); err == nil {
		t.Fatalf("unknown edge kind must fail")
	}
}
