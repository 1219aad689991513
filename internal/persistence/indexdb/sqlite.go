// Package indexdb maintains an optional sqlite read-model index of claim
// history, audit entries and snapshot metadata. It never affects sim
// determinism; the JSONL logs remain the source of truth.
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

	"dwarfclan.game/internal/persistence/snapshot"
	"dwarfclan.game/internal/sim/clan"
	"dwarfclan.game/internal/sim/tuning"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqClaim reqKind = iota + 1
	reqAudit
	reqSnapshot
)

type req struct {
	kind reqKind

	claim    clan.ClaimLogEntry
	audit    clan.AuditEntry
	snapshot snapshotRow
}

type snapshotRow struct {
	Tick      uint64
	Path      string
	Seed      int64
	Traits    int
	Positions int
	Cities    int
	Invests   int
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
		// High buffer: claim bursts (large batches) must not stall the sim.
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
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
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
		`CREATE TABLE IF NOT EXISTS claims (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			wallet TEXT NOT NULL,
			asset_id INTEGER NOT NULL,
			city_id INTEGER NOT NULL,
			role TEXT NOT NULL,
			risky INTEGER NOT NULL,
			payout INTEGER NOT NULL,
			forfeited INTEGER NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_claims_wallet_tick ON claims(wallet, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_claims_asset_tick ON claims(asset_id, tick);`,
		`CREATE TABLE IF NOT EXISTS audits (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			actor TEXT NOT NULL,
			op TEXT NOT NULL,
			asset_id INTEGER NOT NULL,
			city_id INTEGER NOT NULL,
			amount INTEGER NOT NULL,
			detail TEXT,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_actor_tick ON audits(actor, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			seed INTEGER NOT NULL,
			traits INTEGER NOT NULL,
			positions INTEGER NOT NULL,
			cities INTEGER NOT NULL,
			invests INTEGER NOT NULL
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

func (s *SQLiteIndex) WriteClaim(entry clan.ClaimLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqClaim, claim: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
	}
	return nil
}

func (s *SQLiteIndex) WriteAudit(entry clan.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.ClanV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Tick:      snap.Header.Tick,
		Path:      path,
		Seed:      snap.Seed,
		Traits:    len(snap.Traits),
		Positions: len(snap.Positions),
		Cities:    len(snap.CityStates),
		Invests:   len(snap.Investments),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
	}
}

// UpsertCatalogs stores the trait tables and the applied tuning so the
// index is queryable without the config directory at hand.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, traderDigest, guardianDigest string, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv

	if configDir != "" {
		if b, err := os.ReadFile(filepath.Join(configDir, "traits.json")); err == nil && len(b) > 0 {
			rows = append(rows,
				kv{name: "trader_traits", digest: traderDigest, json: b},
				kv{name: "guardian_traits", digest: guardianDigest, json: b},
			)
		}
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

	insertClaim, _ := s.db.Prepare(`INSERT OR REPLACE INTO claims(tick,seq,wallet,asset_id,city_id,role,risky,payout,forfeited) VALUES(?,?,?,?,?,?,?,?,?)`)
	insertAudit, _ := s.db.Prepare(`INSERT OR REPLACE INTO audits(tick,seq,actor,op,asset_id,city_id,amount,detail) VALUES(?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(tick,path,seed,traits,positions,cities,invests) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		if insertClaim != nil {
			_ = insertClaim.Close()
		}
		if insertAudit != nil {
			_ = insertAudit.Close()
		}
		if insertSnapshot != nil {
			_ = insertSnapshot.Close()
		}
	}()

	var (
		tx          *sql.Tx
		opCount     int
		lastCommit  = time.Now()
		commitEvery = 2000
		commitWait  = 2 * time.Second

		lastClaimTick uint64
		claimSeq      int
		lastAuditTick uint64
		auditSeq      int
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
		opCount = 0
		lastCommit = time.Now()
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
			case reqClaim:
				if r.claim.Tick != lastClaimTick {
					lastClaimTick = r.claim.Tick
					claimSeq = 0
				}
				claimSeq++
				if insertClaim != nil {
					_, _ = tx.Stmt(insertClaim).Exec(
						r.claim.Tick, claimSeq, r.claim.Wallet, r.claim.AssetID, r.claim.CityID,
						r.claim.Role, boolInt(r.claim.Risky), r.claim.Payout, r.claim.Forfeited,
					)
				}
			case reqAudit:
				if r.audit.Tick != lastAuditTick {
					lastAuditTick = r.audit.Tick
					auditSeq = 0
				}
				auditSeq++
				if insertAudit != nil {
					_, _ = tx.Stmt(insertAudit).Exec(
						r.audit.Tick, auditSeq, r.audit.Actor, r.audit.Op,
						r.audit.AssetID, r.audit.CityID, r.audit.Amount, r.audit.Detail,
					)
				}
			case reqSnapshot:
				if insertSnapshot != nil {
					_, _ = tx.Stmt(insertSnapshot).Exec(
						r.snapshot.Tick, r.snapshot.Path, r.snapshot.Seed,
						r.snapshot.Traits, r.snapshot.Positions, r.snapshot.Cities, r.snapshot.Invests,
					)
				}
			}
			opCount++
			if opCount >= commitEvery {
				commit()
			}
		case <-flushTimer.C:
			if tx != nil && time.Since(lastCommit) >= commitWait {
				commit()
			}
		}
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ClaimTotals sums payouts and forfeits for a wallet; used by the admin
// surface and tests.
func (s *SQLiteIndex) ClaimTotals(wallet string) (payout, forfeited uint64, err error) {
	row := s.db.QueryRow(`SELECT COALESCE(SUM(payout),0), COALESCE(SUM(forfeited),0) FROM claims WHERE wallet = ?`, wallet)
	err = row.Scan(&payout, &forfeited)
	return payout, forfeited, err
}
