package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	GridSize          int `yaml:"grid_size"`
	TickRateHz        int `yaml:"tick_rate_hz"`
	DayTicks          int `yaml:"day_ticks"`
	SweepEveryTicks   int `yaml:"sweep_every_ticks"`
	SnapshotEveryDays int `yaml:"snapshot_every_days"`

	Transport Transport `yaml:"transport"`
	Economy   Economy   `yaml:"economy"`
	Access    Access    `yaml:"access"`
	LandValue LandValue `yaml:"land_value"`
}

type Transport struct {
	BFSMaxHops            int     `yaml:"bfs_max_hops"`
	WalkingRange          int     `yaml:"walking_range"`
	RoadDistanceFactor    float64 `yaml:"road_distance_factor"`
	TransitCaptureRadius  int     `yaml:"transit_capture_radius"`
	TransitDistanceFactor float64 `yaml:"transit_distance_factor"`
	UnreachableDistance   float64 `yaml:"unreachable_distance"`
}

type Economy struct {
	Elasticity    float64            `yaml:"elasticity"`
	MinMultiplier float64            `yaml:"min_multiplier"`
	MaxMultiplier float64            `yaml:"max_multiplier"`
	PerResource   map[string]Elastic `yaml:"per_resource"`
}

// Elastic overrides the curve for one resource. Zero fields fall back to
// the economy-wide values.
type Elastic struct {
	Elasticity    float64 `yaml:"elasticity"`
	MinMultiplier float64 `yaml:"min_multiplier"`
	MaxMultiplier float64 `yaml:"max_multiplier"`
}

type Access struct {
	CARENSRadius      int     `yaml:"carens_radius"`
	AttenuationFloor  float64 `yaml:"attenuation_floor"`
	PopulationDecay   float64 `yaml:"population_decay"`
	PopulationHorizon float64 `yaml:"population_horizon"`
}

type LandValue struct {
	BaseValue        float64 `yaml:"base_value"`
	AuctionThreshold float64 `yaml:"auction_threshold"`
	MinDirtyRadius   int     `yaml:"min_dirty_radius"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:   "1.0",
		GridSize:          12,
		TickRateHz:        5,
		DayTicks:          50,
		SweepEveryTicks:   150,
		SnapshotEveryDays: 7,
		Transport: Transport{
			BFSMaxHops:            20,
			WalkingRange:          1,
			RoadDistanceFactor:    0.5,
			TransitCaptureRadius:  2,
			TransitDistanceFactor: 0.1,
			UnreachableDistance:   999,
		},
		Economy: Economy{
			Elasticity:    1.0,
			MinMultiplier: 0.25,
			MaxMultiplier: 4.0,
		},
		Access: Access{
			CARENSRadius:      3,
			AttenuationFloor:  0.1,
			PopulationDecay:   0.3,
			PopulationHorizon: 10,
		},
		LandValue: LandValue{
			BaseValue:        100,
			AuctionThreshold: 0.3,
			MinDirtyRadius:   3,
		},
	}
}
