package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"parcelcity/internal/persistence/indexdb"
	persistlog "parcelcity/internal/persistence/log"
	"parcelcity/internal/persistence/snapshot"
	"parcelcity/internal/sim/catalogs"
	"parcelcity/internal/sim/city"
	"parcelcity/internal/sim/tuning"
	"parcelcity/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		cityID     = flag.String("city", "city_1", "city id")
		seed       = flag.Int64("seed", 1337, "seed (used only when starting a fresh city)")
		configDir  = flag.String("configs", "./configs", "config directory")
		schemaDir  = flag.String("schemas", "./schemas", "json schema directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite read-model index")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.LoadValidated(*configDir, filepath.Join(*schemaDir, "buildings.schema.json"))
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	cityDir := filepath.Join(*dataDir, "cities", *cityID)
	_ = os.MkdirAll(cityDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(cityDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index backend: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
	}

	cfg := city.ConfigFromTuning(*cityID, *seed, tune)

	// Fresh city or resumed from snapshot.
	var c *city.City
	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(cityDir)
	}
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.CityID != "" && snap.Header.CityID != *cityID {
			logger.Fatalf("snapshot city id mismatch: flag=%s snap=%s", *cityID, snap.Header.CityID)
		}
		c, err = city.NewFromSnapshot(cfg, cats, snap)
		if err != nil {
			logger.Fatalf("resume from snapshot: %v", err)
		}
		logger.Printf("resumed city %s at tick=%d day=%d from %s", c.ID(), c.Tick(), c.Day(), snapshotToLoad)
	} else {
		c, err = city.New(cfg, cats)
		if err != nil {
			logger.Fatalf("new city: %v", err)
		}
		logger.Printf("fresh city %s grid=%dx%d seed=%d", c.ID(), cfg.GridSize, cfg.GridSize, *seed)
	}

	dayLog := persistlog.NewDayLogger(cityDir)
	defer dayLog.Close()
	auditLog := persistlog.NewAuditLogger(cityDir)
	defer auditLog.Close()

	c.SetSinks(city.Sinks{
		Day:      fanoutDay{dayLog, idx},
		Audit:    fanoutAudit{auditLog, idx},
		Snapshot: snapshotWriter{dir: filepath.Join(cityDir, "snapshots"), idx: idx, logger: logger},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := c.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Fatalf("city loop: %v", err)
		}
	}()

	wsServer := ws.NewServer(c, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", wsServer.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/state", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"city_id": c.ID(),
			"tick":    c.Tick(),
			"day":     c.Day(),
		})
	})

	srv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		logger.Printf("listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Printf("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	c.Stop()
	cancel()
}

// latestSnapshot returns the newest snapshot file under <cityDir>/snapshots,
// or empty when there is none.
func latestSnapshot(cityDir string) string {
	dir := filepath.Join(cityDir, "snapshots")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".snap.zst") {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1])
}

// fanoutDay feeds day entries to the JSONL log and the sqlite index.
type fanoutDay struct {
	log *persistlog.DayLogger
	idx *indexdb.SQLiteIndex
}

func (f fanoutDay) WriteDay(e city.DayLogEntry) error {
	if f.idx != nil {
		_ = f.idx.WriteDay(e)
	}
	return f.log.WriteDay(e)
}

type fanoutAudit struct {
	log *persistlog.AuditLogger
	idx *indexdb.SQLiteIndex
}

func (f fanoutAudit) WriteAudit(e city.AuditEntry) error {
	if f.idx != nil {
		_ = f.idx.WriteAudit(e)
	}
	return f.log.WriteAudit(e)
}

// snapshotWriter persists periodic snapshots and records them in the index.
type snapshotWriter struct {
	dir    string
	idx    *indexdb.SQLiteIndex
	logger *log.Logger
}

func (s snapshotWriter) WriteCitySnapshot(c *city.City) error {
	snap := c.ExportSnapshot()
	path := filepath.Join(s.dir, snapshotName(snap.Header.Tick))
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		s.logger.Printf("write snapshot: %v", err)
		return err
	}
	if s.idx != nil {
		s.idx.RecordSnapshot(path, snap)
	}
	s.logger.Printf("snapshot tick=%d day=%d -> %s", snap.Header.Tick, snap.Header.Day, path)
	return nil
}

func snapshotName(tick uint64) string {
	return time.Now().UTC().Format("20060102T150405Z") + "-" + formatTick(tick) + ".snap.zst"
}

func formatTick(tick uint64) string {
	const width = 12
	s := make([]byte, 0, width)
	for tick > 0 {
		s = append([]byte{byte('0' + tick%10)}, s...)
		tick /= 10
	}
	for len(s) < width {
		s = append([]byte{'0'}, s...)
	}
	return string(s)
}
