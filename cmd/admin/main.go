package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"parcelcity/internal/persistence/indexdb"
	"parcelcity/internal/persistence/snapshot"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "auctions":
			auctionsCmd(os.Args[2:])
			return
		case "parcels":
			parcelsCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

// listCmd shows what lives under the data directory.
func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	cityID := fs.String("city", "", "city id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "cities")
	if *cityID != "" {
		base = filepath.Join(base, *cityID)
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

// dbCmd summarizes the sqlite read model for one city.
func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	cityID := fs.String("city", "city_1", "city id")
	_ = fs.Parse(args)

	idx := openIndex(*dataDir, *cityID)
	defer idx.Close()

	day, err := idx.LatestDay()
	if err != nil {
		fmt.Fprintln(os.Stderr, "latest day:", err)
		os.Exit(1)
	}
	snapPath, err := idx.LatestSnapshotPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, "latest snapshot:", err)
		os.Exit(1)
	}
	fmt.Printf("city=%s latest_day=%d latest_snapshot=%s\n", *cityID, day, snapPath)
}

// auctionsCmd lists the auction-eligible parcels recorded for a day.
func auctionsCmd(args []string) {
	fs := flag.NewFlagSet("auctions", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	cityID := fs.String("city", "city_1", "city id")
	day := fs.Int("day", 0, "day to list (0 = latest)")
	_ = fs.Parse(args)

	idx := openIndex(*dataDir, *cityID)
	defer idx.Close()

	d := *day
	if d == 0 {
		latest, err := idx.LatestDay()
		if err != nil {
			fmt.Fprintln(os.Stderr, "latest day:", err)
			os.Exit(1)
		}
		d = latest
	}
	rows, err := idx.AuctionsForDay(d)
	if err != nil {
		fmt.Fprintln(os.Stderr, "auctions:", err)
		os.Exit(1)
	}
	fmt.Printf("day=%d eligible=%d\n", d, len(rows))
	for _, r := range rows {
		fmt.Printf("  (%d,%d) owner=%s paid=%.2f calc=%.2f\n", r.Row, r.Col, r.Owner, r.PaidPrice, r.CalculatedValue)
	}
}

// parcelsCmd lists the per-parcel valuations recorded for a day.
func parcelsCmd(args []string) {
	fs := flag.NewFlagSet("parcels", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	cityID := fs.String("city", "city_1", "city id")
	day := fs.Int("day", 0, "day to list (0 = latest)")
	_ = fs.Parse(args)

	idx := openIndex(*dataDir, *cityID)
	defer idx.Close()

	d := *day
	if d == 0 {
		latest, err := idx.LatestDay()
		if err != nil {
			fmt.Fprintln(os.Stderr, "latest day:", err)
			os.Exit(1)
		}
		d = latest
	}
	rows, err := idx.ParcelsForDay(d)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parcels:", err)
		os.Exit(1)
	}
	fmt.Printf("day=%d parcels=%d\n", d, len(rows))
	for _, r := range rows {
		fmt.Printf("  (%d,%d) %s owner=%s paid=%.2f calc=%.2f\n", r.Row, r.Col, r.BuildingID, r.Owner, r.PaidPrice, r.CalculatedValue)
	}
}

// snapshotCmd prints a snapshot's header and payload counts without
// touching the simulation.
func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	path := fs.String("path", "", "path to .snap.zst")
	_ = fs.Parse(args)

	if *path == "" {
		fmt.Fprintln(os.Stderr, "missing -path")
		os.Exit(2)
	}
	snap, err := snapshot.ReadSnapshot(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	fmt.Printf("snapshot v%d city=%s tick=%d day=%d seed=%d grid=%d cells=%d edges=%d owners=%d\n",
		snap.Header.Version, snap.Header.CityID, snap.Header.Tick, snap.Header.Day,
		snap.Seed, snap.GridSize, len(snap.Cells), len(snap.Edges), len(snap.Treasury))
}

func openIndex(dataDir, cityID string) *indexdb.SQLiteIndex {
	idx, err := indexdb.OpenSQLite(filepath.Join(dataDir, "cities", cityID, "index.db"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "open index:", err)
		os.Exit(1)
	}
	return idx
}
