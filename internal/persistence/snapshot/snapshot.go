package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version int    `json:"version"`
	CityID  string `json:"city_id"`
	Tick    uint64 `json:"tick"`
	Day     int    `json:"day"`
}

// CityV1 captures everything needed to resume a city deterministically:
// configuration, parcel cells, the edge lattice, and per-owner balances.
// Derived state (transport graph, totals, land-value caches) is rebuilt on
// load, not persisted.
type CityV1 struct {
	Header Header `json:"header"`

	Seed       int64 `json:"seed"`
	GridSize   int   `json:"grid_size"`
	TickRateHz int   `json:"tick_rate_hz"`
	DayTicks   int   `json:"day_ticks"`

	SweepEveryTicks   int `json:"sweep_every_ticks,omitempty"`
	SnapshotEveryDays int `json:"snapshot_every_days,omitempty"`

	Cells []CellV1 `json:"cells"`
	Edges []EdgeV1 `json:"edges"`

	Treasury map[string]float64 `json:"treasury,omitempty"`
}

// CellV1 records only non-empty parcels; absent cells load as empty.
type CellV1 struct {
	Row int `json:"row"`
	Col int `json:"col"`

	BuildingID           string  `json:"building_id,omitempty"`
	Owner                string  `json:"owner,omitempty"`
	Decay                float64 `json:"decay,omitempty"`
	ConstructionDaysLeft int     `json:"construction_days_left,omitempty"`
	BuiltDay             int     `json:"built_day,omitempty"`

	PaidPrice        float64 `json:"paid_price,omitempty"`
	CalculatedValue  float64 `json:"calculated_value,omitempty"`
	LastAuctionDay   int     `json:"last_auction_day,omitempty"`
	AuctionThreshold float64 `json:"auction_threshold,omitempty"`
}

// EdgeV1 records only edge parcels carrying infrastructure.
type EdgeV1 struct {
	Kind string `json:"kind"` // horizontal | vertical | intersection
	Row  int    `json:"row"`
	Col  int    `json:"col"`

	Roadway   string `json:"roadway,omitempty"`
	Sidewalks bool   `json:"sidewalks,omitempty"`
	Bikelanes bool   `json:"bikelanes,omitempty"`

	BusStop        *StopV1 `json:"bus_stop,omitempty"`
	SubwayEntrance *StopV1 `json:"subway_entrance,omitempty"`

	TotalInvestment float64 `json:"total_investment,omitempty"`
}

type StopV1 struct {
	Type      string  `json:"type"`
	Direction string  `json:"direction,omitempty"`
	BuiltBy   string  `json:"built_by,omitempty"`
	Cost      float64 `json:"cost,omitempty"`
}

// WriteSnapshot writes a JSON header line followed by the zstd-compressed
// gob body. The header line lets tooling identify a snapshot without
// decoding the body.
func WriteSnapshot(path string, snap CityV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (CityV1, error) {
	var snap CityV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Skip the header line; the gob body repeats it.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
