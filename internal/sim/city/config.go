package city

import (
	"parcelcity/internal/sim/catalogs"
	"parcelcity/internal/sim/tuning"
)

type CityConfig struct {
	ID         string
	GridSize   int
	TickRateHz int
	DayTicks   int
	Seed       int64

	SweepEveryTicks   int
	SnapshotEveryDays int

	Transport TransportParams
	Economy   EconomyParams
	Access    AccessParams
	Value     ValueParams
}

type TransportParams struct {
	MaxHops              int
	WalkingRange         int
	RoadFactor           float64
	TransitCaptureRadius int
	TransitFactor        float64
	Unreachable          float64
}

type ResourceCurve struct {
	Elasticity    float64
	MinMultiplier float64
	MaxMultiplier float64
}

type EconomyParams struct {
	Elasticity    float64
	MinMultiplier float64
	MaxMultiplier float64
	PerResource   map[catalogs.Resource]ResourceCurve
}

// curve resolves the effective elasticity settings for one resource,
// falling back to the economy-wide values for zero fields.
func (p EconomyParams) curve(r catalogs.Resource) ResourceCurve {
	c := ResourceCurve{
		Elasticity:    p.Elasticity,
		MinMultiplier: p.MinMultiplier,
		MaxMultiplier: p.MaxMultiplier,
	}
	o, ok := p.PerResource[r]
	if !ok {
		return c
	}
	if o.Elasticity > 0 {
		c.Elasticity = o.Elasticity
	}
	if o.MinMultiplier > 0 {
		c.MinMultiplier = o.MinMultiplier
	}
	if o.MaxMultiplier > 0 {
		c.MaxMultiplier = o.MaxMultiplier
	}
	return c
}

type AccessParams struct {
	CARENSRadius      int
	AttenuationFloor  float64
	PopulationDecay   float64
	PopulationHorizon float64
}

type ValueParams struct {
	BaseValue        float64
	AuctionThreshold float64
	MinDirtyRadius   int
}

func (c *CityConfig) applyDefaults() {
	if c.GridSize <= 0 {
		c.GridSize = 12
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 5
	}
	if c.DayTicks <= 0 {
		c.DayTicks = 50
	}
	if c.SweepEveryTicks <= 0 {
		c.SweepEveryTicks = 150
	}
	if c.SnapshotEveryDays <= 0 {
		c.SnapshotEveryDays = 7
	}
	if c.Transport.MaxHops <= 0 {
		c.Transport.MaxHops = 20
	}
	if c.Transport.WalkingRange <= 0 {
		c.Transport.WalkingRange = 1
	}
	if c.Transport.RoadFactor <= 0 {
		c.Transport.RoadFactor = 0.5
	}
	if c.Transport.TransitCaptureRadius <= 0 {
		c.Transport.TransitCaptureRadius = 2
	}
	if c.Transport.TransitFactor <= 0 {
		c.Transport.TransitFactor = 0.1
	}
	if c.Transport.Unreachable <= 0 {
		c.Transport.Unreachable = 999
	}
	if c.Economy.Elasticity <= 0 {
		c.Economy.Elasticity = 1.0
	}
	if c.Economy.MinMultiplier <= 0 {
		c.Economy.MinMultiplier = 0.25
	}
	if c.Economy.MaxMultiplier <= 0 {
		c.Economy.MaxMultiplier = 4.0
	}
	if c.Access.CARENSRadius <= 0 {
		c.Access.CARENSRadius = 3
	}
	if c.Access.AttenuationFloor <= 0 {
		c.Access.AttenuationFloor = 0.1
	}
	if c.Access.PopulationDecay <= 0 {
		c.Access.PopulationDecay = 0.3
	}
	if c.Access.PopulationHorizon <= 0 {
		c.Access.PopulationHorizon = 10
	}
	if c.Value.BaseValue <= 0 {
		c.Value.BaseValue = 100
	}
	if c.Value.AuctionThreshold <= 0 {
		c.Value.AuctionThreshold = 0.3
	}
	if c.Value.MinDirtyRadius <= 0 {
		c.Value.MinDirtyRadius = 3
	}
}

// ConfigFromTuning maps the loaded tuning file onto a CityConfig.
func ConfigFromTuning(id string, seed int64, t tuning.Tuning) CityConfig {
	cfg := CityConfig{
		ID:                id,
		GridSize:          t.GridSize,
		TickRateHz:        t.TickRateHz,
		DayTicks:          t.DayTicks,
		Seed:              seed,
		SweepEveryTicks:   t.SweepEveryTicks,
		SnapshotEveryDays: t.SnapshotEveryDays,
		Transport: TransportParams{
			MaxHops:              t.Transport.BFSMaxHops,
			WalkingRange:         t.Transport.WalkingRange,
			RoadFactor:           t.Transport.RoadDistanceFactor,
			TransitCaptureRadius: t.Transport.TransitCaptureRadius,
			TransitFactor:        t.Transport.TransitDistanceFactor,
			Unreachable:          t.Transport.UnreachableDistance,
		},
		Economy: EconomyParams{
			Elasticity:    t.Economy.Elasticity,
			MinMultiplier: t.Economy.MinMultiplier,
			MaxMultiplier: t.Economy.MaxMultiplier,
		},
		Access: AccessParams{
			CARENSRadius:      t.Access.CARENSRadius,
			AttenuationFloor:  t.Access.AttenuationFloor,
			PopulationDecay:   t.Access.PopulationDecay,
			PopulationHorizon: t.Access.PopulationHorizon,
		},
		Value: ValueParams{
			BaseValue:        t.LandValue.BaseValue,
			AuctionThreshold: t.LandValue.AuctionThreshold,
			MinDirtyRadius:   t.LandValue.MinDirtyRadius,
		},
	}
	if len(t.Economy.PerResource) > 0 {
		cfg.Economy.PerResource = map[catalogs.Resource]ResourceCurve{}
		for name, o := range t.Economy.PerResource {
			cfg.Economy.PerResource[catalogs.Resource(name)] = ResourceCurve{
				Elasticity:    o.Elasticity,
				MinMultiplier: o.MinMultiplier,
				MaxMultiplier: o.MaxMultiplier,
			}
		}
	}
	cfg.applyDefaults()
	return cfg
}
