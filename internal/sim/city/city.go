package city

import (
	"fmt"
	"math"
	"sync/atomic"

	"parcelcity/internal/protocol"
	"parcelcity/internal/sim/catalogs"
)

// City is the single-threaded authoritative simulation. All state must be
// accessed only from the city loop goroutine; external callers go through
// the request channels.
type City struct {
	cfg  CityConfig
	cats *catalogs.Catalogs

	tick atomic.Uint64
	day  int

	grid   *Grid
	graph  *TransportGraph
	dist   *DistanceModel
	agg    *Aggregator
	access *AccessibilityEngine
	dirty  *DirtyTracker
	value  *LandValueEngine

	treasury map[string]float64
	auctions []protocol.AuctionEntry

	clients map[string]chan []byte

	inbox   chan ActionEnvelope
	queries chan QueryRequest
	join    chan JoinRequest
	leave   chan string
	stop    chan struct{}

	sinks Sinks

	auditSeq uint64
}

// Sinks are the optional persistence hooks fed by the loop. Nil fields are
// skipped; sink errors never stall the simulation.
type Sinks struct {
	Day      DaySink
	Audit    AuditSink
	Snapshot SnapshotSink
}

type DaySink interface {
	WriteDay(DayLogEntry) error
}

type AuditSink interface {
	WriteAudit(AuditEntry) error
}

type SnapshotSink interface {
	WriteCitySnapshot(c *City) error
}

type ActionEnvelope struct {
	SessionID string
	Owner     string
	Act       protocol.ActMsg
}

type JoinRequest struct {
	SessionID string
	Out       chan []byte
}

// QueryRequest is a read against derived state, answered synchronously by
// the loop. Reads flush dirty state before answering.
type QueryRequest struct {
	Query protocol.QueryMsg
	Resp  chan protocol.ResultMsg
}

func New(cfg CityConfig, cats *catalogs.Catalogs) (*City, error) {
	cfg.applyDefaults()
	if cats == nil {
		return nil, fmt.Errorf("nil catalogs")
	}
	c := &City{
		cfg:      cfg,
		cats:     cats,
		grid:     NewGrid(cfg.GridSize, cfg.Value.AuctionThreshold),
		treasury: map[string]float64{},
		clients:  map[string]chan []byte{},
		inbox:    make(chan ActionEnvelope, 256),
		queries:  make(chan QueryRequest, 256),
		join:     make(chan JoinRequest, 16),
		leave:    make(chan string, 16),
		stop:     make(chan struct{}),
	}
	c.graph = NewTransportGraph(c.grid, cfg.Transport)
	c.dist = NewDistanceModel(c.grid, c.graph, cfg.Transport)
	c.agg = NewAggregator(c.grid, cats, cfg.Economy)
	c.access = NewAccessibilityEngine(c.grid, cats, c.dist, cfg.Access)
	c.dirty = NewDirtyTracker(c.grid)
	c.value = NewLandValueEngine(c.grid, c.graph, c.agg, c.access, c.dirty, cfg.Value)
	return c, nil
}

func (c *City) SetSinks(s Sinks) { c.sinks = s }

func (c *City) ID() string                  { return c.cfg.ID }
func (c *City) Config() CityConfig          { return c.cfg }
func (c *City) Tick() uint64                { return c.tick.Load() }
func (c *City) Day() int                    { return c.day }
func (c *City) Inbox() chan ActionEnvelope  { return c.inbox }
func (c *City) Queries() chan QueryRequest  { return c.queries }
func (c *City) Join() chan JoinRequest      { return c.join }
func (c *City) Leave() chan string          { return c.leave }

// dirtyRadiusFor sizes the invalidation neighborhood for a building: at
// least the CARENS scan radius, widened to the building's own declared
// reach when that is larger.
func (c *City) dirtyRadiusFor(def catalogs.BuildingDef) int {
	r := c.cfg.Value.MinDirtyRadius
	if att := int(math.Ceil(def.Livability.MaxAttenuation())); att > r {
		r = att
	}
	return r
}

// applyAct validates and applies one mutation. Every accepted mutation
// marks its dirty neighborhood before the ack is produced, so no later
// read can see post-mutation grid state with pre-mutation derived values.
func (c *City) applyAct(env ActionEnvelope) protocol.AckMsg {
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          env.Act.ActID,
		ServerTick:      c.tick.Load(),
	}
	code, msg := c.applyActInner(env)
	if code != "" {
		ack.Code = code
		ack.Message = msg
		return ack
	}
	ack.Accepted = true
	return ack
}

func (c *City) applyActInner(env ActionEnvelope) (code, msg string) {
	act := env.Act
	switch act.Kind {
	case protocol.ActPlaceBuilding:
		return c.placeBuilding(env.Owner, act.Row, act.Col, act.BuildingID)
	case protocol.ActDemolish:
		return c.demolish(env.Owner, act.Row, act.Col)
	case protocol.ActBuildRoad:
		return c.buildRoad(env.Owner, act.Edge, act.RoadTier)
	case protocol.ActRemoveRoad:
		return c.removeRoad(env.Owner, act.Edge)
	case protocol.ActAddStop:
		return c.addStop(env.Owner, act.Edge, act.StopType)
	case protocol.ActRemoveStop:
		return c.removeStop(env.Owner, act.Edge, act.StopType)
	case protocol.ActBuyParcel:
		return c.buyParcel(env.Owner, act.Row, act.Col, act.Price)
	}
	return protocol.ErrBadRequest, fmt.Sprintf("unknown act kind %q", act.Kind)
}

func (c *City) placeBuilding(owner string, row, col int, buildingID string) (string, string) {
	cell := c.grid.CellAt(row, col)
	if cell == nil {
		return protocol.ErrOutOfBounds, "cell out of bounds"
	}
	if cell.HasBuilding() {
		return protocol.ErrOccupied, "parcel already has a building"
	}
	def, ok := c.cats.Buildings.ByID[buildingID]
	if !ok {
		return protocol.ErrUnknownDef, fmt.Sprintf("no building %q in catalog", buildingID)
	}
	cell.BuildingID = buildingID
	if owner != "" {
		cell.Owner = owner
	}
	cell.Decay = 0
	cell.ConstructionDaysLeft = def.Economics.ConstructionDays
	cell.BuiltDay = c.day
	c.dirty.MarkDirty(row, col, c.dirtyRadiusFor(def))
	c.audit(owner, "PLACE_BUILDING", row, col, buildingID)
	return "", ""
}

func (c *City) demolish(owner string, row, col int) (string, string) {
	cell := c.grid.CellAt(row, col)
	if cell == nil {
		return protocol.ErrOutOfBounds, "cell out of bounds"
	}
	if !cell.HasBuilding() {
		return protocol.ErrNoBuilding, "nothing to demolish"
	}
	radius := c.cfg.Value.MinDirtyRadius
	if def, ok := c.cats.Buildings.ByID[cell.BuildingID]; ok {
		radius = c.dirtyRadiusFor(def)
	}
	removed := cell.BuildingID
	cell.BuildingID = ""
	cell.Decay = 0
	cell.ConstructionDaysLeft = 0
	c.dirty.MarkDirty(row, col, radius)
	c.audit(owner, "DEMOLISH", row, col, removed)
	return "", ""
}

func (c *City) edgeFor(ref *protocol.EdgeRef) (*EdgeParcel, string) {
	if ref == nil {
		return nil, "missing edge reference"
	}
	kind, ok := ParseEdgeKind(ref.Kind)
	if !ok {
		return nil, fmt.Sprintf("unknown edge kind %q", ref.Kind)
	}
	e := c.grid.EdgeAt(kind, ref.Row, ref.Col)
	if e == nil {
		return nil, "edge out of bounds"
	}
	return e, ""
}

func (c *City) buildRoad(owner string, ref *protocol.EdgeRef, tier string) (string, string) {
	e, errMsg := c.edgeFor(ref)
	if e == nil {
		return protocol.ErrNoEdge, errMsg
	}
	t, ok := ParseRoadTier(tier)
	if !ok {
		return protocol.ErrBadRequest, fmt.Sprintf("unknown road tier %q", tier)
	}
	e.Infra.Roadway = t
	e.Infra.TotalInvestment += roadCost(t)
	// The generation bump is the invalidation: one segment can reconnect
	// distant cells, so the value engine re-marks the whole grid on its
	// next recompute rather than a fixed neighborhood.
	c.graph.Invalidate()
	c.audit(owner, "BUILD_ROAD", ref.Row, ref.Col, fmt.Sprintf("%s/%s", ref.Kind, tier))
	return "", ""
}

func (c *City) removeRoad(owner string, ref *protocol.EdgeRef) (string, string) {
	e, errMsg := c.edgeFor(ref)
	if e == nil {
		return protocol.ErrNoEdge, errMsg
	}
	if !e.HasRoad() {
		return protocol.ErrNoEdge, "no roadway on edge"
	}
	e.Infra.Roadway = RoadNone
	c.graph.Invalidate()
	c.audit(owner, "REMOVE_ROAD", ref.Row, ref.Col, ref.Kind)
	return "", ""
}

func (c *City) addStop(owner string, ref *protocol.EdgeRef, stopType string) (string, string) {
	e, errMsg := c.edgeFor(ref)
	if e == nil {
		return protocol.ErrNoEdge, errMsg
	}
	stop := &TransitStop{Type: stopType, BuiltBy: owner, Cost: stopCost(stopType)}
	switch stopType {
	case StopBus:
		e.Infra.BusStop = stop
	case StopSubway:
		e.Infra.SubwayEntrance = stop
	default:
		return protocol.ErrBadRequest, fmt.Sprintf("unknown stop type %q", stopType)
	}
	e.Infra.TotalInvestment += stop.Cost
	c.graph.Invalidate()
	c.audit(owner, "ADD_STOP", ref.Row, ref.Col, stopType)
	return "", ""
}

func (c *City) removeStop(owner string, ref *protocol.EdgeRef, stopType string) (string, string) {
	e, errMsg := c.edgeFor(ref)
	if e == nil {
		return protocol.ErrNoEdge, errMsg
	}
	switch stopType {
	case StopBus:
		if e.Infra.BusStop == nil {
			return protocol.ErrNoEdge, "no bus stop on edge"
		}
		e.Infra.BusStop = nil
	case StopSubway:
		if e.Infra.SubwayEntrance == nil {
			return protocol.ErrNoEdge, "no subway entrance on edge"
		}
		e.Infra.SubwayEntrance = nil
	default:
		return protocol.ErrBadRequest, fmt.Sprintf("unknown stop type %q", stopType)
	}
	c.graph.Invalidate()
	c.audit(owner, "REMOVE_STOP", ref.Row, ref.Col, stopType)
	return "", ""
}

// buyParcel records an ownership transfer at a price. Auction mechanics
// live outside the core; this is the entry point they call back into.
func (c *City) buyParcel(owner string, row, col int, price float64) (string, string) {
	if owner == "" {
		return protocol.ErrBadRequest, "missing owner"
	}
	cell := c.grid.CellAt(row, col)
	if cell == nil {
		return protocol.ErrOutOfBounds, "cell out of bounds"
	}
	if price < 0 {
		return protocol.ErrBadRequest, "negative price"
	}
	cell.Owner = owner
	cell.Value.PaidPrice = price
	cell.Value.LastAuctionDay = c.day
	c.dirty.MarkDirty(row, col, 0)
	c.audit(owner, "BUY_PARCEL", row, col, fmt.Sprintf("%.2f", price))
	return "", ""
}

func roadCost(t RoadTier) float64 {
	switch t {
	case RoadLocal:
		return 50
	case RoadArterial:
		return 150
	case RoadHighway:
		return 400
	}
	return 0
}

func stopCost(stopType string) float64 {
	switch stopType {
	case StopBus:
		return 75
	case StopSubway:
		return 600
	}
	return 0
}

// Connected is the raw connectivity query exposed for tooling.
func (c *City) Connected(rowA, colA, rowB, colB int) ConnectionInfo {
	return c.graph.Connected(rowA, colA, rowB, colB)
}

// EffectiveDistance exposes the distance model for tooling.
func (c *City) EffectiveDistance(rowA, colA, rowB, colB int) float64 {
	return c.dist.EffectiveDistance(rowA, colA, rowB, colB)
}

// CalculatedValue serves a parcel's land value, flushing dirty state.
func (c *City) CalculatedValue(row, col int) float64 {
	return c.value.CalculatedValue(row, col)
}

// LocalScores serves the CARENS snapshot for one cell.
func (c *City) LocalScores(row, col int) map[catalogs.Domain]float64 {
	return c.value.LocalScores(row, col)
}

// AccessiblePopulation serves the reachable-population snapshot.
func (c *City) AccessiblePopulation(row, col int) float64 {
	return c.value.AccessiblePopulation(row, col)
}

// RecomputeCityTotals serves the JEEFHH aggregate snapshot.
func (c *City) RecomputeCityTotals() (Totals, map[catalogs.Resource]float64) {
	return c.value.Totals()
}

func (c *City) Treasury(owner string) float64 { return c.treasury[owner] }

// CatalogDigests describes the loaded building catalog for the handshake.
func (c *City) CatalogDigests() protocol.CatalogDigests {
	return protocol.CatalogDigests{
		BuildingsDigest: c.cats.Buildings.DefsDigest,
		BuildingCount:   len(c.cats.Buildings.ByID),
	}
}

func (c *City) AuctionQueue() []protocol.AuctionEntry {
	out := make([]protocol.AuctionEntry, len(c.auctions))
	copy(out, c.auctions)
	return out
}
