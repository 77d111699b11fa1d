package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"boomtrees.dev/internal/sim/catalogs"
	"boomtrees.dev/internal/sim/tuning"
	"boomtrees.dev/internal/sim/world/audit"
	"boomtrees.dev/internal/sim/world/terrain/features"
)

// SQLiteIndex is a queryable secondary index over the audit trail. Writes
// go through a buffered channel to one writer goroutine and are dropped
// when the queue is full; the JSONL logs stay the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropAudit  atomic.Uint64
	dropReport atomic.Uint64
}

type reqKind int

const (
	reqAudit reqKind = iota + 1
	reqReport
	reqFlush
)

type req struct {
	kind reqKind

	audit  audit.Entry
	report features.Report
	done   chan struct{}
}

type Stats struct {
	QueueDepth      int
	QueueCapacity   int
	DropAuditTotal  uint64
	DropReportTotal uint64
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
		// A long chain reaction writes one audit row per log.
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
		`CREATE TABLE IF NOT EXISTS audits (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			from_block TEXT NOT NULL,
			to_block TEXT NOT NULL,
			reason TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_actor_tick ON audits(actor, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_pos_tick ON audits(x, z, y, tick);`,
		`CREATE TABLE IF NOT EXISTS worldgen (
			biome TEXT PRIMARY KEY,
			replaced TEXT NOT NULL,
			appended TEXT NOT NULL,
			recorded_at TEXT NOT NULL
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

func (s *SQLiteIndex) WriteAudit(entry audit.Entry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
		s.dropAudit.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) WriteReport(r features.Report) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqReport, report: r}:
	default:
		s.dropReport.Add(1)
	}
	return nil
}

// Flush blocks until everything queued before the call is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqFlush, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SQLiteIndex) Stats() Stats {
	st := Stats{
		DropAuditTotal:  s.dropAudit.Load(),
		DropReportTotal: s.dropReport.Load(),
	}
	if s.ch != nil {
		st.QueueDepth = len(s.ch)
		st.QueueCapacity = cap(s.ch)
	}
	return st
}

// Reader shares the index connection for queries.
func (s *SQLiteIndex) Reader() *Reader { return &Reader{db: s.db} }

func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	raw := map[string][]byte{}
	read := func(name, path string) {
		b, err := os.ReadFile(path)
		if err != nil {
			return
		}
		raw[name] = b
	}
	if configDir != "" {
		read("blocks_defs", filepath.Join(configDir, "blocks.json"))
		read("loot_tables", filepath.Join(configDir, "loot_tables.json"))
		read("biomes", filepath.Join(configDir, "biomes.json"))
	}

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if b := raw["blocks_defs"]; len(b) > 0 {
		rows = append(rows, kv{name: "blocks_defs", digest: cats.Blocks.DefsDigest, json: b})
	}
	if b, _ := json.Marshal(cats.Blocks.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "blocks_palette", digest: cats.Blocks.PaletteDigest, json: b})
	}
	if b := raw["loot_tables"]; len(b) > 0 {
		rows = append(rows, kv{name: "loot_tables", digest: cats.Loot.Digest, json: b})
	}
	if b := raw["biomes"]; len(b) > 0 {
		rows = append(rows, kv{name: "biomes", digest: cats.Biomes.Digest, json: b})
	}

	// Tuning: store the values we actually apply (canonical JSON).
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertAudit, _ := s.db.Prepare(`INSERT OR REPLACE INTO audits(tick,seq,actor,action,x,y,z,from_block,to_block,reason,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	insertReport, _ := s.db.Prepare(`INSERT OR REPLACE INTO worldgen(biome,replaced,appended,recorded_at) VALUES(?,?,?,?)`)
	defer func() {
		if insertAudit != nil {
			_ = insertAudit.Close()
		}
		if insertReport != nil {
			_ = insertReport.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		txAudits      uint64
		txReports     uint64
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastAuditTick uint64
		auditSeq      int
	)
	haveTick := false

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
		txAudits, txReports = 0, 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		txAudits, txReports = 0, 0
		lastCommit = time.Now()
	}
	// rollback discards the whole batch; its rows count as dropped.
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		s.dropAudit.Add(txAudits)
		s.dropReport.Add(txReports)
		tx = nil
		opCount = 0
		txAudits, txReports = 0, 0
		haveTick = false
		lastCommit = time.Now()
	}

	// The index shares its single connection with readers, so an idle
	// queue commits right away instead of holding the transaction open.
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0 {
			commit()
		}
	}

	for r := range s.ch {
		if r.kind == reqFlush {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqAudit:
			a := r.audit
			if !haveTick || a.Tick != lastAuditTick {
				lastAuditTick = a.Tick
				haveTick = true
				// Continue after rows an earlier run left for this tick.
				auditSeq = 0
				_ = tx.QueryRow(`SELECT COALESCE(MAX(seq)+1, 0) FROM audits WHERE tick = ?`, int64(a.Tick)).Scan(&auditSeq)
			}
			seq := auditSeq
			auditSeq++
			raw, _ := json.Marshal(a)
			if insertAudit != nil {
				if _, err := tx.Stmt(insertAudit).Exec(
					int64(a.Tick),
					seq,
					a.Actor,
					a.Action,
					a.Pos[0], a.Pos[1], a.Pos[2],
					a.From,
					a.To,
					a.Reason,
					string(raw),
				); err != nil {
					txAudits++
					rollback()
					continue
				}
				opCount++
				txAudits++
			}

		case reqReport:
			rep := r.report
			replaced, _ := json.Marshal(nonNil(rep.Replaced))
			appended, _ := json.Marshal(nonNil(rep.Appended))
			if insertReport != nil {
				if _, err := tx.Stmt(insertReport).Exec(
					rep.Biome,
					string(replaced),
					string(appended),
					time.Now().UTC().Format(time.RFC3339Nano),
				); err != nil {
					txReports++
					rollback()
					continue
				}
				opCount++
				txReports++
			}
		}
		flushIfNeeded()
	}

	commit()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
