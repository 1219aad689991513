package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"dwarfclan.game/internal/persistence/indexdb"
	persistlog "dwarfclan.game/internal/persistence/log"
	"dwarfclan.game/internal/persistence/snapshot"
	"dwarfclan.game/internal/sim/catalogs"
	"dwarfclan.game/internal/sim/clan"
	"dwarfclan.game/internal/sim/ledger"
	"dwarfclan.game/internal/sim/nft"
	"dwarfclan.game/internal/sim/tuning"
	"dwarfclan.game/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		clanID     = flag.String("clan", "clan_1", "clan id")
		seed       = flag.Int64("seed", 1337, "trait draw seed (used only when starting a fresh clan)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable indexing (claims/audit + catalogs + snapshot metadata)")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")

		seededDraws = flag.Bool("seeded_draws", false, "derive the risk draw secret from the seed (deterministic; testing only)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	clanDir := filepath.Join(*dataDir, "clans", *clanID)
	_ = os.MkdirAll(clanDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(clanDir)
	}

	// Load tuning (required for a fresh clan; optional for snapshot resumes).
	tune, tuneErr := tuning.Load(tp)
	if tuneErr != nil {
		if snapshotToLoad == "" {
			logger.Fatalf("load tuning: %v", tuneErr)
		}
		// Resume fallback: the snapshot carries the effective config.
		if os.IsNotExist(tuneErr) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", tuneErr)
		}
	}

	// Optional: read-model index backend (does not affect sim determinism).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(clanDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index backend: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats.Trader.Digest, cats.Guardian.Digest, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
	}

	god := ledger.New()
	assets := nft.New()

	// Risk draws must be unpredictable to clients in production.
	var draws clan.DrawSource
	if *seededDraws {
		draws = clan.NewSeededSource(*seed)
	} else {
		draws, err = clan.NewSecretSource()
		if err != nil {
			logger.Fatalf("draw source: %v", err)
		}
	}

	var c *clan.Clan
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.ClanID != "" && snap.Header.ClanID != *clanID {
			logger.Fatalf("snapshot clan id mismatch: flag=%s snap=%s", *clanID, snap.Header.ClanID)
		}
		cfg := clan.ClanConfig{
			ID:                    *clanID,
			Seed:                  snap.Seed,
			TickRateHz:            snap.TickRateHz,
			Cities:                snap.Cities,
			TraderSlots:           snap.TraderSlots,
			GuardianSlots:         snap.GuardianSlots,
			RoleGuardianPermille:  snap.RoleGuardianPermille,
			TraderRatePerTick:     snap.TraderRatePerTick,
			GuardianRatePerTick:   snap.GuardianRatePerTick,
			MaxAccrualTicks:       snap.MaxAccrualTicks,
			RiskPermillePerWeight: snap.RiskPermillePerWeight,
			RiskMaxPermille:       snap.RiskMaxPermille,
			StrictRiskValidation:  snap.StrictRiskValidation,
			LevelThresholds:       snap.LevelThresholds,
			LevelBonusPermille:    snap.LevelBonusPermille,
			MintPriceGod:          snap.MintPriceGod,
			SnapshotEveryTicks:    snap.SnapshotEveryTicks,
		}
		c = clan.New(cfg, cats, assets, god, draws)
		c.Restore(snap)
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), c.CurrentTick())
	} else {
		c = clan.New(clan.FromTuning(*clanID, *seed, tune), cats, assets, god, draws)
	}

	// The clan controller is the only authority allowed to mint GOD and the
	// only clan wired into the asset registry.
	god.AddController(*clanID)
	if assets.Clan() == "" {
		if err := assets.SetClan(*clanID); err != nil {
			logger.Fatalf("set clan: %v", err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	claimLog := persistlog.NewClaimLogger(clanDir)
	auditLog := persistlog.NewAuditLogger(clanDir)
	defer claimLog.Close()
	defer auditLog.Close()
	c.SetClaimLogger(multiClaimLogger{a: claimLog, b: idx})
	c.SetAuditLogger(multiAuditLogger{a: auditLog, b: idx})

	// Snapshot writer.
	snapCh := make(chan snapshot.ClanV1, 2)
	c.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := filepath.Join(clanDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
			}
		}
	}()

	go func() {
		if err := c.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("clan stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP dwarfclan_tick Current clan tick.\n")
		fmt.Fprintf(rw, "# TYPE dwarfclan_tick gauge\n")
		fmt.Fprintf(rw, "dwarfclan_tick{clan=%q} %d\n", *clanID, c.CurrentTick())
	})

	enableAdminHTTP := envBool("DC_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprofHTTP := envBool("DC_ENABLE_PPROF_HTTP", false)
	if enableAdminHTTP {
		// Local-only admin endpoints (do not affect simulation determinism).
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				ClanID string `json:"clan_id"`
				Tick   uint64 `json:"tick"`
			}{
				ClanID: *clanID,
				Tick:   c.CurrentTick(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
	} else {
		logger.Printf("admin endpoints disabled (DC_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (DC_ENABLE_PPROF_HTTP=false)")
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(c, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func latestSnapshot(clanDir string) string {
	dir := filepath.Join(clanDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".snap.zst")
		tick, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

type multiClaimLogger struct {
	a clan.ClaimLogger
	b *indexdb.SQLiteIndex
}

func (m multiClaimLogger) WriteClaim(entry clan.ClaimLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteClaim(entry)
	}
	if m.b != nil {
		_ = m.b.WriteClaim(entry)
	}
	return nil
}

type multiAuditLogger struct {
	a clan.AuditLogger
	b *indexdb.SQLiteIndex
}

func (m multiAuditLogger) WriteAudit(entry clan.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}
