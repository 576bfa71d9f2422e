package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find repo root from %s", dir)
		}
		dir = parent
	}
}

func TestLoad_ShippedTuning(t *testing.T) {
	root := findRepoRoot(t)
	tune, err := Load(filepath.Join(root, "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if tune.GridSize != 12 {
		t.Fatalf("grid_size = %d", tune.GridSize)
	}
	if tune.Transport.BFSMaxHops != 20 {
		t.Fatalf("bfs_max_hops = %d", tune.Transport.BFSMaxHops)
	}
	if tune.Transport.UnreachableDistance != 999 {
		t.Fatalf("unreachable_distance = %v", tune.Transport.UnreachableDistance)
	}
	if tune.LandValue.AuctionThreshold != 0.3 {
		t.Fatalf("auction_threshold = %v", tune.LandValue.AuctionThreshold)
	}

	// The shipped file carries per-resource overrides.
	housing, ok := tune.Economy.PerResource["HOUSING"]
	if !ok {
		t.Fatalf("missing HOUSING override")
	}
	if housing.Elasticity != 1.4 {
		t.Fatalf("housing elasticity = %v", housing.Elasticity)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !os.IsNotExist(err) {
		t.Fatalf("err = %v, want not-exist", err)
	}
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.GridSize != 12 || d.DayTicks != 50 || d.SweepEveryTicks != 150 {
		t.Fatalf("defaults = %+v", d)
	}
	if d.Economy.MinMultiplier != 0.25 || d.Economy.MaxMultiplier != 4.0 {
		t.Fatalf("economy defaults = %+v", d.Economy)
	}
	if d.Access.CARENSRadius != 3 || d.Access.PopulationHorizon != 10 {
		t.Fatalf("access defaults = %+v", d.Access)
	}
}
