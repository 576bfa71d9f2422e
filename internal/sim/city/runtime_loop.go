package city

import (
	"context"
	"encoding/json"
	"time"

	"parcelcity/internal/protocol"
	"parcelcity/internal/sim/catalogs"
)

func (c *City) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(c.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pending []ActionEnvelope
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stop:
			return nil
		case req := <-c.join:
			c.clients[req.SessionID] = req.Out
		case id := <-c.leave:
			delete(c.clients, id)
		case req := <-c.queries:
			req.Resp <- c.handleQuery(req.Query)
		case env := <-c.inbox:
			pending = append(pending, env)
		case <-ticker.C:
			c.stepInternal(pending)
			pending = pending[:0]
		}
	}
}

func (c *City) Stop() { close(c.stop) }

// StepOnce advances the city by a single tick with the same ordering
// semantics as the live loop. Intended for deterministic tests and replay.
func (c *City) StepOnce(actions []ActionEnvelope) (tick uint64, digest string) {
	c.stepInternal(actions)
	return c.tick.Load(), c.StateDigest()
}

func (c *City) stepInternal(actions []ActionEnvelope) {
	for _, env := range actions {
		ack := c.applyAct(env)
		if out, ok := c.clients[env.SessionID]; ok {
			if b, err := json.Marshal(ack); err == nil {
				sendLatest(out, b)
			}
		}
	}

	tick := c.tick.Add(1)

	if c.cfg.DayTicks > 0 && tick%uint64(c.cfg.DayTicks) == 0 {
		entry := c.advanceDay()
		c.broadcastDay(entry)
		if c.sinks.Snapshot != nil && c.cfg.SnapshotEveryDays > 0 && c.day%c.cfg.SnapshotEveryDays == 0 {
			_ = c.sinks.Snapshot.WriteCitySnapshot(c)
		}
	}

	if c.cfg.SweepEveryTicks > 0 && tick%uint64(c.cfg.SweepEveryTicks) == 0 {
		c.value.SweepCaches()
	}
}

func (c *City) broadcastDay(entry DayLogEntry) {
	msg := protocol.DayMsg{
		Type:            protocol.TypeDay,
		ProtocolVersion: protocol.Version,
		Day:             entry.Day,
		ServerTick:      entry.Tick,
		Totals:          totalsWire(Totals(entry.Totals)),
		Multipliers:     multipliersWire(entry.Multipliers),
		Cashflow:        entry.Cashflow,
		AuctionQueue:    entry.Auctions,
		StateDigest:     entry.StateDigest,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	for _, out := range c.clients {
		sendLatest(out, b)
	}
}

func (c *City) handleQuery(q protocol.QueryMsg) protocol.ResultMsg {
	res := protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		QueryID:         q.QueryID,
		Kind:            q.Kind,
		ServerTick:      c.tick.Load(),
	}
	switch q.Kind {
	case protocol.QueryTotals:
		totals, multipliers := c.RecomputeCityTotals()
		res.Totals = totalsWire(totals)
		res.Multipliers = multipliersWire(multipliers)
	case protocol.QueryLocalScores:
		scores := c.LocalScores(q.Row, q.Col)
		res.Scores = make(map[string]float64, len(scores))
		for d, v := range scores {
			res.Scores[string(d)] = v
		}
	case protocol.QueryPopulation:
		pop := c.AccessiblePopulation(q.Row, q.Col)
		res.Population = &pop
	case protocol.QueryLandValue:
		v := c.CalculatedValue(q.Row, q.Col)
		res.LandValue = &v
	case protocol.QueryConnected:
		info := c.Connected(q.Row, q.Col, q.ToRow, q.ToCol)
		res.Connected = &info.Connected
		res.Bottleneck = info.Bottleneck.String()
	case protocol.QueryParcel:
		if cell := c.grid.CellAt(q.Row, q.Col); cell != nil {
			c.value.RecomputeIfDirty()
			res.Parcel = &protocol.ParcelInfo{
				Row:                  cell.Row,
				Col:                  cell.Col,
				BuildingID:           cell.BuildingID,
				Owner:                cell.Owner,
				Decay:                cell.Decay,
				UnderConstruction:    cell.UnderConstruction(),
				ConstructionDaysLeft: cell.ConstructionDaysLeft,
				PaidPrice:            cell.Value.PaidPrice,
				CalculatedValue:      cell.Value.CalculatedValue,
				LastAuctionDay:       cell.Value.LastAuctionDay,
			}
		}
	case protocol.QueryAuctionQueue:
		res.AuctionQueue = c.AuctionQueue()
	}
	return res
}

func totalsWire(t Totals) map[string]protocol.SupplyDemand {
	out := make(map[string]protocol.SupplyDemand, len(t))
	for r, sd := range t {
		out[string(r)] = protocol.SupplyDemand{Supply: sd.Supply, Demand: sd.Demand}
	}
	return out
}

func multipliersWire(m map[catalogs.Resource]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for r, v := range m {
		out[string(r)] = v
	}
	return out
}

// sendLatest drops the oldest queued message when a slow client's buffer
// is full, so the loop never blocks on a consumer.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
