package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	Owner           string `json:"owner,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	CityParams      CityParams     `json:"city_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type CityParams struct {
	CityID     string `json:"city_id"`
	GridSize   int    `json:"grid_size"`
	TickRateHz int    `json:"tick_rate_hz"`
	DayTicks   int    `json:"day_ticks"`
	Seed       int64  `json:"seed"`
}

type CatalogDigests struct {
	BuildingsDigest string `json:"buildings_digest"`
	BuildingCount   int    `json:"building_count"`
}

// Act kinds.
const (
	ActPlaceBuilding = "PLACE_BUILDING"
	ActDemolish      = "DEMOLISH"
	ActBuildRoad     = "BUILD_ROAD"
	ActRemoveRoad    = "REMOVE_ROAD"
	ActAddStop       = "ADD_STOP"
	ActRemoveStop    = "REMOVE_STOP"
	ActBuyParcel     = "BUY_PARCEL"
)

// EdgeRef addresses one edge parcel of the infrastructure lattice.
type EdgeRef struct {
	Kind string `json:"kind"` // horizontal | vertical | intersection
	Row  int    `json:"row"`
	Col  int    `json:"col"`
}

// ACT (client -> server): one grid mutation.
type ActMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ActID           string `json:"act_id"`
	Kind            string `json:"kind"`

	Row int `json:"row,omitempty"`
	Col int `json:"col,omitempty"`

	BuildingID string   `json:"building_id,omitempty"`
	Edge       *EdgeRef `json:"edge,omitempty"`
	RoadTier   string   `json:"road_tier,omitempty"`
	StopType   string   `json:"stop_type,omitempty"` // bus | subway
	Price      float64  `json:"price,omitempty"`
}

// ACK (server -> client)
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ServerTick      uint64 `json:"server_tick,omitempty"`
}

// Query kinds.
const (
	QueryTotals       = "TOTALS"
	QueryLocalScores  = "LOCAL_SCORES"
	QueryPopulation   = "POPULATION"
	QueryLandValue    = "LAND_VALUE"
	QueryConnected    = "CONNECTED"
	QueryParcel       = "PARCEL"
	QueryAuctionQueue = "AUCTION_QUEUE"
)

// QUERY (client -> server): a read against the derived state. Reads are
// served fresh; dirty cells recompute before the answer goes out.
type QueryMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	QueryID         string `json:"query_id"`
	Kind            string `json:"kind"`

	Row   int `json:"row,omitempty"`
	Col   int `json:"col,omitempty"`
	ToRow int `json:"to_row,omitempty"`
	ToCol int `json:"to_col,omitempty"`
}

// RESULT (server -> client)
type ResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	QueryID         string `json:"query_id"`
	Kind            string `json:"kind"`
	ServerTick      uint64 `json:"server_tick"`

	Totals       map[string]SupplyDemand `json:"totals,omitempty"`
	Multipliers  map[string]float64      `json:"multipliers,omitempty"`
	Scores       map[string]float64      `json:"scores,omitempty"`
	Population   *float64                `json:"population,omitempty"`
	LandValue    *float64                `json:"land_value,omitempty"`
	Connected    *bool                   `json:"connected,omitempty"`
	Bottleneck   string                  `json:"bottleneck,omitempty"`
	Parcel       *ParcelInfo             `json:"parcel,omitempty"`
	AuctionQueue []AuctionEntry          `json:"auction_queue,omitempty"`
}

type SupplyDemand struct {
	Supply float64 `json:"supply"`
	Demand float64 `json:"demand"`
}

type ParcelInfo struct {
	Row                  int     `json:"row"`
	Col                  int     `json:"col"`
	BuildingID           string  `json:"building_id,omitempty"`
	Owner                string  `json:"owner,omitempty"`
	Decay                float64 `json:"decay"`
	UnderConstruction    bool    `json:"under_construction"`
	ConstructionDaysLeft int     `json:"construction_days_left,omitempty"`
	PaidPrice            float64 `json:"paid_price"`
	CalculatedValue      float64 `json:"calculated_value"`
	LastAuctionDay       int     `json:"last_auction_day"`
}

type AuctionEntry struct {
	Row             int     `json:"row"`
	Col             int     `json:"col"`
	Day             int     `json:"day"`
	Owner           string  `json:"owner"`
	PaidPrice       float64 `json:"paid_price"`
	CalculatedValue float64 `json:"calculated_value"`
}

// DAY (server -> client): broadcast at each simulated day boundary.
type DayMsg struct {
	Type            string                  `json:"type"`
	ProtocolVersion string                  `json:"protocol_version"`
	Day             int                     `json:"day"`
	ServerTick      uint64                  `json:"server_tick"`
	Totals          map[string]SupplyDemand `json:"totals"`
	Multipliers     map[string]float64      `json:"multipliers"`
	Cashflow        []CashflowLine          `json:"cashflow,omitempty"`
	AuctionQueue    []AuctionEntry          `json:"auction_queue,omitempty"`
	StateDigest     string                  `json:"state_digest"`
}

type CashflowLine struct {
	Owner           string  `json:"owner"`
	BuildingID      string  `json:"building_id"`
	Row             int     `json:"row"`
	Col             int     `json:"col"`
	Revenue         float64 `json:"revenue"`
	Maintenance     float64 `json:"maintenance"`
	Net             float64 `json:"net"`
	PaidPrice       float64 `json:"paid_price"`
	CalculatedValue float64 `json:"calculated_value"`
}
