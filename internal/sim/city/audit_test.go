package city

import (
	"testing"

	"parcelcity/internal/protocol"
)

type captureAuditSink struct {
	entries []AuditEntry
}

func (s *captureAuditSink) WriteAudit(e AuditEntry) error {
	s.entries = append(s.entries, e)
	return nil
}

func TestAudit_AcceptedMutationsOnly(t *testing.T) {
	c := newTestCity(t)
	sink := &captureAuditSink{}
	c.SetSinks(Sinks{Audit: sink})

	if code, _ := c.placeBuilding("p1", 3, 3, "homes"); code != "" {
		t.Fatalf("place failed: %s", code)
	}
	if code, _ := c.placeBuilding("p1", 3, 3, "park"); code != protocol.ErrOccupied {
		t.Fatalf("expected occupied rejection")
	}
	if code, _ := c.buildRoad("p1", &protocol.EdgeRef{Kind: "horizontal", Row: 3, Col: 3}, "local"); code != "" {
		t.Fatalf("road failed: %s", code)
	}

	if len(sink.entries) != 2 {
		t.Fatalf("audit entries = %d, want 2 (rejections are not audited)", len(sink.entries))
	}
	if sink.entries[0].Action != "PLACE_BUILDING" || sink.entries[0].Actor != "p1" {
		t.Fatalf("first entry = %+v", sink.entries[0])
	}
	if sink.entries[1].Action != "BUILD_ROAD" {
		t.Fatalf("second entry = %+v", sink.entries[1])
	}
	// Sequence numbers are strictly increasing.
	if sink.entries[1].Seq <= sink.entries[0].Seq {
		t.Fatalf("seq not increasing: %d then %d", sink.entries[0].Seq, sink.entries[1].Seq)
	}
}
