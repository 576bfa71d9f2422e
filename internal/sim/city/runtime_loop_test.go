package city

import (
	"encoding/json"
	"testing"

	"parcelcity/internal/protocol"
)

func TestStepOnce_TickAndDayBoundary(t *testing.T) {
	cfg := testConfig()
	cfg.DayTicks = 3
	c, err := New(cfg, testCatalogs())
	if err != nil {
		t.Fatalf("new city: %v", err)
	}

	tick, digest := c.StepOnce(nil)
	if tick != 1 || digest == "" {
		t.Fatalf("tick = %d digest = %q", tick, digest)
	}
	if c.Day() != 0 {
		t.Fatalf("day advanced early")
	}

	c.StepOnce(nil)
	c.StepOnce(nil)
	if c.Day() != 1 {
		t.Fatalf("day = %d after %d ticks, want 1", c.Day(), cfg.DayTicks)
	}
}

func TestStepOnce_AppliesActionsAndAcks(t *testing.T) {
	c := newTestCity(t)
	out := make(chan []byte, 32)
	c.clients["S1"] = out

	act := protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		ActID:           "A1",
		Kind:            protocol.ActPlaceBuilding,
		Row:             4,
		Col:             4,
		BuildingID:      "homes",
	}
	c.StepOnce([]ActionEnvelope{{SessionID: "S1", Owner: "p1", Act: act}})

	if !c.grid.CellAt(4, 4).HasBuilding() {
		t.Fatalf("action not applied")
	}

	select {
	case b := <-out:
		var ack protocol.AckMsg
		if err := json.Unmarshal(b, &ack); err != nil {
			t.Fatalf("decode ack: %v", err)
		}
		if !ack.Accepted || ack.AckFor != "A1" {
			t.Fatalf("ack = %+v", ack)
		}
	default:
		t.Fatalf("no ack delivered")
	}
}

func TestStepOnce_RejectionCodes(t *testing.T) {
	c := newTestCity(t)
	out := make(chan []byte, 32)
	c.clients["S1"] = out

	cases := []struct {
		name string
		act  protocol.ActMsg
		code string
	}{
		{"out of bounds", protocol.ActMsg{ActID: "A1", Kind: protocol.ActPlaceBuilding, Row: 99, Col: 99, BuildingID: "homes"}, protocol.ErrOutOfBounds},
		{"unknown def", protocol.ActMsg{ActID: "A2", Kind: protocol.ActPlaceBuilding, Row: 1, Col: 1, BuildingID: "castle"}, protocol.ErrUnknownDef},
		{"no edge", protocol.ActMsg{ActID: "A3", Kind: protocol.ActBuildRoad, RoadTier: "local"}, protocol.ErrNoEdge},
		{"bad kind", protocol.ActMsg{ActID: "A4", Kind: "TELEPORT"}, protocol.ErrBadRequest},
	}
	for _, tc := range cases {
		ack := c.applyAct(ActionEnvelope{SessionID: "S1", Owner: "p1", Act: tc.act})
		if ack.Accepted {
			t.Fatalf("%s: accepted", tc.name)
		}
		if ack.Code != tc.code {
			t.Fatalf("%s: code = %s, want %s", tc.name, ack.Code, tc.code)
		}
		if !protocol.IsKnownCode(ack.Code) {
			t.Fatalf("%s: unknown code %s", tc.name, ack.Code)
		}
	}

	// Occupied check needs a building in place first.
	if code, _ := c.placeBuilding("p1", 2, 2, "homes"); code != "" {
		t.Fatalf("seed place failed: %s", code)
	}
	if code, _ := c.placeBuilding("p1", 2, 2, "park"); code != protocol.ErrOccupied {
		t.Fatalf("double place code = %s, want %s", code, protocol.ErrOccupied)
	}
}

func TestHandleQuery_ReadsAreFresh(t *testing.T) {
	c := newTestCity(t)

	placeInService(t, c, 5, 5, "homes")
	res := c.handleQuery(protocol.QueryMsg{
		Type:            protocol.TypeQuery,
		ProtocolVersion: protocol.Version,
		QueryID:         "Q1",
		Kind:            protocol.QueryLandValue,
		Row:             5,
		Col:             5,
	})
	if res.QueryID != "Q1" || res.Kind != protocol.QueryLandValue {
		t.Fatalf("result header = %+v", res)
	}
	if res.LandValue == nil || *res.LandValue <= 0 {
		t.Fatalf("land value not recomputed before answering")
	}

	res = c.handleQuery(protocol.QueryMsg{QueryID: "Q2", Kind: protocol.QueryTotals})
	if res.Totals["HOUSING"].Supply != 10 {
		t.Fatalf("totals = %+v", res.Totals)
	}
	if res.Multipliers["HOUSING"] == 0 {
		t.Fatalf("multipliers missing")
	}

	res = c.handleQuery(protocol.QueryMsg{QueryID: "Q3", Kind: protocol.QueryParcel, Row: 5, Col: 5})
	if res.Parcel == nil || res.Parcel.BuildingID != "homes" {
		t.Fatalf("parcel = %+v", res.Parcel)
	}

	res = c.handleQuery(protocol.QueryMsg{QueryID: "Q4", Kind: protocol.QueryConnected, Row: 0, Col: 0, ToRow: 0, ToCol: 0})
	if res.Connected == nil || !*res.Connected || res.Bottleneck != "highway" {
		t.Fatalf("connected result = %+v", res)
	}
}

func TestSendLatest_DropsOldestWhenFull(t *testing.T) {
	ch := make(chan []byte, 1)
	sendLatest(ch, []byte("one"))
	sendLatest(ch, []byte("two"))

	got := <-ch
	if string(got) != "two" {
		t.Fatalf("got %q, want the newest message", got)
	}
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra message %q", extra)
	default:
	}
}
