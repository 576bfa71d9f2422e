package city

import (
	"parcelcity/internal/protocol"
	"parcelcity/internal/sim/catalogs"
)

// DayLogEntry is the per-day record handed to the persistence sinks.
type DayLogEntry struct {
	Day         int                                 `json:"day"`
	Tick        uint64                              `json:"tick"`
	StateDigest string                              `json:"state_digest"`
	Totals      map[catalogs.Resource]SupplyDemand  `json:"totals"`
	Multipliers map[catalogs.Resource]float64       `json:"multipliers"`
	Cashflow    []protocol.CashflowLine             `json:"cashflow,omitempty"`
	Auctions    []protocol.AuctionEntry             `json:"auctions,omitempty"`
	Recomputed  int                                 `json:"recomputed_cells"`
}

// advanceDay runs the once-per-simulated-day economy pass: construction
// progress, revenue and maintenance, decay aging, and the auction scan.
// Runs to completion within the tick that crosses the day boundary.
func (c *City) advanceDay() DayLogEntry {
	c.day++

	// Construction progress first: buildings completing today join the
	// supply/demand sums for the rest of the pass.
	c.grid.ForEachCell(func(cell *Cell) {
		if !cell.UnderConstruction() {
			return
		}
		cell.ConstructionDaysLeft--
		if cell.ConstructionDaysLeft == 0 {
			radius := c.cfg.Value.MinDirtyRadius
			if def, ok := c.cats.Buildings.ByID[cell.BuildingID]; ok {
				radius = c.dirtyRadiusFor(def)
			}
			c.dirty.MarkDirty(cell.Row, cell.Col, radius)
		}
	})

	recomputed := c.value.RecomputeIfDirty()
	totals, multipliers := c.value.Totals()

	var cashflow []protocol.CashflowLine
	c.grid.ForEachCell(func(cell *Cell) {
		if !cell.InService() {
			return
		}
		def, ok := c.cats.Buildings.ByID[cell.BuildingID]
		if !ok {
			return
		}
		if cell.Decay < 1 {
			cell.Decay += def.Economics.DecayRate
			if cell.Decay > 1 {
				cell.Decay = 1
			}
		}
		if def.Economics.MaxRevenue <= 0 && def.Economics.MaintenanceCost <= 0 {
			return
		}
		eff := c.efficiency(def, totals) * (1 - cell.Decay)
		if eff < 0 {
			eff = 0
		}
		line := protocol.CashflowLine{
			Owner:           cell.Owner,
			BuildingID:      cell.BuildingID,
			Row:             cell.Row,
			Col:             cell.Col,
			Revenue:         def.Economics.MaxRevenue * eff,
			Maintenance:     def.Economics.MaintenanceCost,
			PaidPrice:       cell.Value.PaidPrice,
			CalculatedValue: cell.Value.CalculatedValue,
		}
		line.Net = line.Revenue - line.Maintenance
		cashflow = append(cashflow, line)
		if cell.Owner != "" {
			c.treasury[cell.Owner] += line.Net
		}
	})

	c.scanAuctions()

	entry := DayLogEntry{
		Day:         c.day,
		Tick:        c.tick.Load(),
		StateDigest: c.StateDigest(),
		Totals:      map[catalogs.Resource]SupplyDemand(totals),
		Multipliers: multipliers,
		Cashflow:    cashflow,
		Auctions:    c.AuctionQueue(),
		Recomputed:  recomputed,
	}
	if c.sinks.Day != nil {
		_ = c.sinks.Day.WriteDay(entry)
	}
	return entry
}

// efficiency is the fraction of a building's declared needs the city can
// satisfy, averaged over required resources; a building that needs nothing
// runs at full efficiency.
func (c *City) efficiency(def catalogs.BuildingDef, totals Totals) float64 {
	sum, n := 0.0, 0
	for _, r := range catalogs.Resources {
		need := def.Resources.Required(r)
		if need <= 0 {
			continue
		}
		n++
		sd := totals[r]
		if sd.Demand <= 0 {
			sum += 1
			continue
		}
		ratio := sd.Supply / sd.Demand
		if ratio > 1 {
			ratio = 1
		}
		sum += ratio
	}
	if n == 0 {
		return 1
	}
	return sum / float64(n)
}

// scanAuctions rebuilds today's auction-eligible queue.
func (c *City) scanAuctions() {
	c.auctions = c.auctions[:0]
	c.grid.ForEachCell(func(cell *Cell) {
		if !c.value.AuctionEligible(cell) {
			return
		}
		c.auctions = append(c.auctions, protocol.AuctionEntry{
			Row:             cell.Row,
			Col:             cell.Col,
			Day:             c.day,
			Owner:           cell.Owner,
			PaidPrice:       cell.Value.PaidPrice,
			CalculatedValue: cell.Value.CalculatedValue,
		})
	})
}
