package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"parcelcity/internal/persistence/snapshot"
	"parcelcity/internal/sim/catalogs"
	"parcelcity/internal/sim/city"
	"parcelcity/internal/sim/tuning"
)

// SQLiteIndex is a secondary read model: day reports, mutation audits,
// parcel valuations and the auction queue, indexed for tooling and the
// admin surface. It never feeds back into the simulation.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqDay reqKind = iota + 1
	reqAudit
	reqSnapshot
)

type req struct {
	kind reqKind

	day      city.DayLogEntry
	audit    city.AuditEntry
	snapshot snapshotRow
}

type snapshotRow struct {
	Tick  uint64
	Day   int
	Path  string
	Seed  int64
	Cells int
	Edges int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Buffered so bursty audit writes (mass road building) don't stall the sim.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS days (
			day INTEGER PRIMARY KEY,
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			recomputed INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS audits (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			day INTEGER NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			row INTEGER NOT NULL,
			col INTEGER NOT NULL,
			detail TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_actor_tick ON audits(actor, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_pos ON audits(row, col, tick);`,
		`CREATE TABLE IF NOT EXISTS parcels (
			day INTEGER NOT NULL,
			row INTEGER NOT NULL,
			col INTEGER NOT NULL,
			owner TEXT NOT NULL,
			building_id TEXT NOT NULL,
			paid_price REAL NOT NULL,
			calculated_value REAL NOT NULL,
			PRIMARY KEY (day, row, col)
		);`,
		`CREATE TABLE IF NOT EXISTS auctions (
			day INTEGER NOT NULL,
			row INTEGER NOT NULL,
			col INTEGER NOT NULL,
			owner TEXT NOT NULL,
			paid_price REAL NOT NULL,
			calculated_value REAL NOT NULL,
			PRIMARY KEY (day, row, col)
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			day INTEGER NOT NULL,
			path TEXT NOT NULL,
			seed INTEGER NOT NULL,
			cells INTEGER NOT NULL,
			edges INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteDay(entry city.DayLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqDay, day: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
	}
	return nil
}

func (s *SQLiteIndex) WriteAudit(entry city.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.CityV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Tick:  snap.Header.Tick,
		Day:   snap.Header.Day,
		Path:  path,
		Seed:  snap.Seed,
		Cells: len(snap.Cells),
		Edges: len(snap.Edges),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
	}
}

// UpsertCatalogs records the building catalog and effective tuning so the
// index is self-describing.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	upsert, err := s.db.Prepare(`INSERT INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)
		ON CONFLICT(name) DO UPDATE SET digest=excluded.digest, json=excluded.json, updated_at=excluded.updated_at`)
	if err != nil {
		return err
	}
	defer upsert.Close()

	if configDir != "" {
		if raw, err := os.ReadFile(filepath.Join(configDir, "buildings.json")); err == nil {
			if _, err := upsert.Exec("buildings", cats.Buildings.DefsDigest, string(raw), now); err != nil {
				return err
			}
		}
	}
	if tb, err := json.Marshal(tune); err == nil {
		if _, err := upsert.Exec("tuning", "", string(tb), now); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertDay, _ := s.db.Prepare(`INSERT OR REPLACE INTO days(day,tick,digest,recomputed,raw_json) VALUES(?,?,?,?,?)`)
	insertAudit, _ := s.db.Prepare(`INSERT OR REPLACE INTO audits(tick,seq,day,actor,action,row,col,detail,raw_json) VALUES(?,?,?,?,?,?,?,?,?)`)
	insertParcel, _ := s.db.Prepare(`INSERT OR REPLACE INTO parcels(day,row,col,owner,building_id,paid_price,calculated_value) VALUES(?,?,?,?,?,?,?)`)
	insertAuction, _ := s.db.Prepare(`INSERT OR REPLACE INTO auctions(day,row,col,owner,paid_price,calculated_value) VALUES(?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(tick,day,path,seed,cells,edges) VALUES(?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertDay, insertAudit, insertParcel, insertAuction, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
	}

	flushTimer := time.NewTicker(500 * time.Millisecond)
	defer flushTimer.Stop()

	for {
		select {
		case r, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			begin()
			if tx == nil {
				continue
			}
			switch r.kind {
			case reqDay:
				raw, _ := json.Marshal(r.day)
				_, _ = tx.Stmt(insertDay).Exec(r.day.Day, r.day.Tick, r.day.StateDigest, r.day.Recomputed, string(raw))
				for _, a := range r.day.Auctions {
					_, _ = tx.Stmt(insertAuction).Exec(a.Day, a.Row, a.Col, a.Owner, a.PaidPrice, a.CalculatedValue)
				}
				for _, line := range r.day.Cashflow {
					_, _ = tx.Stmt(insertParcel).Exec(r.day.Day, line.Row, line.Col, line.Owner, line.BuildingID, line.PaidPrice, line.CalculatedValue)
				}
				opCount++
			case reqAudit:
				raw, _ := json.Marshal(r.audit)
				_, _ = tx.Stmt(insertAudit).Exec(r.audit.Tick, r.audit.Seq, r.audit.Day, r.audit.Actor, r.audit.Action, r.audit.Row, r.audit.Col, r.audit.Detail, string(raw))
				opCount++
			case reqSnapshot:
				_, _ = tx.Stmt(insertSnapshot).Exec(r.snapshot.Tick, r.snapshot.Day, r.snapshot.Path, r.snapshot.Seed, r.snapshot.Cells, r.snapshot.Edges)
				opCount++
			}
			if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
				commit()
			}
		case <-flushTimer.C:
			if tx != nil && time.Since(lastCommit) >= commitMaxWait {
				commit()
			}
		}
	}
}

// LatestDay returns the highest recorded day, or 0 when none exist.
func (s *SQLiteIndex) LatestDay() (int, error) {
	var day sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(day) FROM days`).Scan(&day); err != nil {
		return 0, err
	}
	if !day.Valid {
		return 0, nil
	}
	return int(day.Int64), nil
}

type AuctionRow struct {
	Day             int
	Row             int
	Col             int
	Owner           string
	PaidPrice       float64
	CalculatedValue float64
}

// AuctionsForDay lists the auction-eligible parcels recorded for one day.
func (s *SQLiteIndex) AuctionsForDay(day int) ([]AuctionRow, error) {
	rows, err := s.db.Query(`SELECT day,row,col,owner,paid_price,calculated_value FROM auctions WHERE day=? ORDER BY row,col`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuctionRow
	for rows.Next() {
		var r AuctionRow
		if err := rows.Scan(&r.Day, &r.Row, &r.Col, &r.Owner, &r.PaidPrice, &r.CalculatedValue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type ParcelRow struct {
	Day             int
	Row             int
	Col             int
	Owner           string
	BuildingID      string
	PaidPrice       float64
	CalculatedValue float64
}

// ParcelsForDay lists the per-parcel valuations recorded for one day.
func (s *SQLiteIndex) ParcelsForDay(day int) ([]ParcelRow, error) {
	rows, err := s.db.Query(`SELECT day,row,col,owner,building_id,paid_price,calculated_value FROM parcels WHERE day=? ORDER BY row,col`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ParcelRow
	for rows.Next() {
		var r ParcelRow
		if err := rows.Scan(&r.Day, &r.Row, &r.Col, &r.Owner, &r.BuildingID, &r.PaidPrice, &r.CalculatedValue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestSnapshotPath returns the most recent snapshot path, empty when none.
func (s *SQLiteIndex) LatestSnapshotPath() (string, error) {
	var path sql.NullString
	err := s.db.QueryRow(`SELECT path FROM snapshots ORDER BY tick DESC LIMIT 1`).Scan(&path)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return path.String, nil
}
