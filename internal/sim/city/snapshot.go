package city

import (
	"fmt"

	"parcelcity/internal/persistence/snapshot"
	"parcelcity/internal/sim/catalogs"
)

const snapshotVersion = 1

// ExportSnapshot captures the current authoritative state. Must be called
// from the city loop goroutine (or before the loop starts).
func (c *City) ExportSnapshot() snapshot.CityV1 {
	snap := snapshot.CityV1{
		Header: snapshot.Header{
			Version: snapshotVersion,
			CityID:  c.cfg.ID,
			Tick:    c.tick.Load(),
			Day:     c.day,
		},
		Seed:              c.cfg.Seed,
		GridSize:          c.cfg.GridSize,
		TickRateHz:        c.cfg.TickRateHz,
		DayTicks:          c.cfg.DayTicks,
		SweepEveryTicks:   c.cfg.SweepEveryTicks,
		SnapshotEveryDays: c.cfg.SnapshotEveryDays,
	}

	c.grid.ForEachCell(func(cell *Cell) {
		if !cell.HasBuilding() && cell.Owner == "" && cell.Value.PaidPrice == 0 && cell.Value.CalculatedValue == 0 {
			return
		}
		snap.Cells = append(snap.Cells, snapshot.CellV1{
			Row:                  cell.Row,
			Col:                  cell.Col,
			BuildingID:           cell.BuildingID,
			Owner:                cell.Owner,
			Decay:                cell.Decay,
			ConstructionDaysLeft: cell.ConstructionDaysLeft,
			BuiltDay:             cell.BuiltDay,
			PaidPrice:            cell.Value.PaidPrice,
			CalculatedValue:      cell.Value.CalculatedValue,
			LastAuctionDay:       cell.Value.LastAuctionDay,
			AuctionThreshold:     cell.Value.AuctionThreshold,
		})
	})

	c.grid.ForEachEdge(func(e *EdgeParcel) {
		if !e.HasRoad() && !e.HasTransit() && !e.Infra.Sidewalks && !e.Infra.Bikelanes && e.Infra.TotalInvestment == 0 {
			return
		}
		ev := snapshot.EdgeV1{
			Kind:            e.Kind.String(),
			Row:             e.Row,
			Col:             e.Col,
			Roadway:         e.Infra.Roadway.String(),
			Sidewalks:       e.Infra.Sidewalks,
			Bikelanes:       e.Infra.Bikelanes,
			TotalInvestment: e.Infra.TotalInvestment,
		}
		if s := e.Infra.BusStop; s != nil {
			ev.BusStop = &snapshot.StopV1{Type: s.Type, Direction: s.Direction, BuiltBy: s.BuiltBy, Cost: s.Cost}
		}
		if s := e.Infra.SubwayEntrance; s != nil {
			ev.SubwayEntrance = &snapshot.StopV1{Type: s.Type, Direction: s.Direction, BuiltBy: s.BuiltBy, Cost: s.Cost}
		}
		snap.Edges = append(snap.Edges, ev)
	})

	if len(c.treasury) > 0 {
		snap.Treasury = make(map[string]float64, len(c.treasury))
		for k, v := range c.treasury {
			snap.Treasury[k] = v
		}
	}
	return snap
}

// NewFromSnapshot rebuilds a city from a snapshot. The snapshot's grid and
// cadence parameters win over the supplied config; everything derived is
// marked dirty so the first read recomputes against the restored grid.
func NewFromSnapshot(cfg CityConfig, cats *catalogs.Catalogs, snap snapshot.CityV1) (*City, error) {
	if snap.Header.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	if snap.Header.CityID != "" {
		cfg.ID = snap.Header.CityID
	}
	if snap.GridSize > 0 {
		cfg.GridSize = snap.GridSize
	}
	if snap.TickRateHz > 0 {
		cfg.TickRateHz = snap.TickRateHz
	}
	if snap.DayTicks > 0 {
		cfg.DayTicks = snap.DayTicks
	}
	if snap.SweepEveryTicks > 0 {
		cfg.SweepEveryTicks = snap.SweepEveryTicks
	}
	if snap.SnapshotEveryDays > 0 {
		cfg.SnapshotEveryDays = snap.SnapshotEveryDays
	}
	cfg.Seed = snap.Seed

	c, err := New(cfg, cats)
	if err != nil {
		return nil, err
	}
	c.tick.Store(snap.Header.Tick)
	c.day = snap.Header.Day

	for _, cv := range snap.Cells {
		cell := c.grid.CellAt(cv.Row, cv.Col)
		if cell == nil {
			return nil, fmt.Errorf("snapshot cell (%d,%d) out of bounds for grid %d", cv.Row, cv.Col, cfg.GridSize)
		}
		cell.BuildingID = cv.BuildingID
		cell.Owner = cv.Owner
		cell.Decay = cv.Decay
		cell.ConstructionDaysLeft = cv.ConstructionDaysLeft
		cell.BuiltDay = cv.BuiltDay
		cell.Value.PaidPrice = cv.PaidPrice
		cell.Value.CalculatedValue = cv.CalculatedValue
		cell.Value.LastAuctionDay = cv.LastAuctionDay
		if cv.AuctionThreshold > 0 {
			cell.Value.AuctionThreshold = cv.AuctionThreshold
		}
	}

	for _, ev := range snap.Edges {
		kind, ok := ParseEdgeKind(ev.Kind)
		if !ok {
			return nil, fmt.Errorf("snapshot edge kind %q", ev.Kind)
		}
		e := c.grid.EdgeAt(kind, ev.Row, ev.Col)
		if e == nil {
			return nil, fmt.Errorf("snapshot edge %s (%d,%d) out of bounds", ev.Kind, ev.Row, ev.Col)
		}
		if ev.Roadway != "" {
			tier, ok := ParseRoadTier(ev.Roadway)
			if !ok {
				return nil, fmt.Errorf("snapshot roadway %q", ev.Roadway)
			}
			e.Infra.Roadway = tier
		}
		e.Infra.Sidewalks = ev.Sidewalks
		e.Infra.Bikelanes = ev.Bikelanes
		e.Infra.TotalInvestment = ev.TotalInvestment
		if s := ev.BusStop; s != nil {
			e.Infra.BusStop = &TransitStop{Type: s.Type, Direction: s.Direction, BuiltBy: s.BuiltBy, Cost: s.Cost}
		}
		if s := ev.SubwayEntrance; s != nil {
			e.Infra.SubwayEntrance = &TransitStop{Type: s.Type, Direction: s.Direction, BuiltBy: s.BuiltBy, Cost: s.Cost}
		}
	}

	for k, v := range snap.Treasury {
		c.treasury[k] = v
	}

	c.graph.Invalidate()
	n := c.grid.Size()
	c.dirty.MarkDirty(n/2, n/2, n)
	return c, nil
}
