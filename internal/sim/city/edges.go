package city

// RoadTier ranks roadway classes. Higher tiers never make a path worse:
// a path's effective class is the minimum tier along it.
type RoadTier int

const (
	RoadNone     RoadTier = 0
	RoadLocal    RoadTier = 1
	RoadArterial RoadTier = 2
	RoadHighway  RoadTier = 3
)

func (t RoadTier) String() string {
	switch t {
	case RoadLocal:
		return "local"
	case RoadArterial:
		return "arterial"
	case RoadHighway:
		return "highway"
	}
	return ""
}

func ParseRoadTier(s string) (RoadTier, bool) {
	switch s {
	case "local":
		return RoadLocal, true
	case "arterial":
		return RoadArterial, true
	case "highway":
		return RoadHighway, true
	}
	return RoadNone, false
}

type EdgeKind int

const (
	EdgeHorizontal EdgeKind = iota
	EdgeVertical
	EdgeIntersection
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeHorizontal:
		return "horizontal"
	case EdgeVertical:
		return "vertical"
	case EdgeIntersection:
		return "intersection"
	}
	return ""
}

func ParseEdgeKind(s string) (EdgeKind, bool) {
	switch s {
	case "horizontal":
		return EdgeHorizontal, true
	case "vertical":
		return EdgeVertical, true
	case "intersection":
		return EdgeIntersection, true
	}
	return 0, false
}

const (
	StopBus    = "bus"
	StopSubway = "subway"
)

type TransitStop struct {
	Type      string
	Direction string
	BuiltBy   string
	Cost      float64
}

// Infrastructure is the public works carried by one edge parcel. Edge
// parcels have no owner and no land value.
type Infrastructure struct {
	Roadway   RoadTier
	Sidewalks bool
	Bikelanes bool

	BusStop        *TransitStop
	SubwayEntrance *TransitStop

	TotalInvestment float64
}

type EdgeParcel struct {
	Kind EdgeKind
	Row  int
	Col  int

	Infra Infrastructure
}

func (e *EdgeParcel) HasRoad() bool { return e.Infra.Roadway != RoadNone }

func (e *EdgeParcel) HasTransit() bool {
	return e.Infra.BusStop != nil || e.Infra.SubwayEntrance != nil
}

// Reset clears all infrastructure. Edge parcels are never destroyed.
func (e *EdgeParcel) Reset() {
	e.Infra = Infrastructure{}
}

// Cells returns the parcel cells this edge touches. Horizontal and vertical
// edges join two cells; an intersection touches the four cells around its
// corner point. Coordinates may be out of bounds only for malformed edges;
// the transport graph drops those silently.
func (e *EdgeParcel) Cells() []Coord {
	switch e.Kind {
	case EdgeHorizontal:
		return []Coord{{e.Row, e.Col}, {e.Row, e.Col + 1}}
	case EdgeVertical:
		return []Coord{{e.Row, e.Col}, {e.Row + 1, e.Col}}
	case EdgeIntersection:
		return []Coord{
			{e.Row, e.Col}, {e.Row, e.Col + 1},
			{e.Row + 1, e.Col}, {e.Row + 1, e.Col + 1},
		}
	}
	return nil
}
