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
	ClanID  string `json:"clan_id"`
	Tick    uint64 `json:"tick"`
}

// ClanV1 is a full capture of clan economy state plus the effective
// configuration, enough for deterministic resume.
type ClanV1 struct {
	Header Header `json:"header"`

	Seed       int64 `json:"seed"`
	TickRateHz int   `json:"tick_rate_hz"`

	Cities               int `json:"cities"`
	TraderSlots          int `json:"trader_slots"`
	GuardianSlots        int `json:"guardian_slots"`
	RoleGuardianPermille int `json:"role_guardian_permille"`

	TraderRatePerTick   uint64 `json:"trader_rate_per_tick"`
	GuardianRatePerTick uint64 `json:"guardian_rate_per_tick"`
	MaxAccrualTicks     uint64 `json:"max_accrual_ticks"`

	RiskPermillePerWeight int  `json:"risk_permille_per_weight"`
	RiskMaxPermille       int  `json:"risk_max_permille"`
	StrictRiskValidation  bool `json:"strict_risk_validation,omitempty"`

	LevelThresholds    []uint64 `json:"level_thresholds,omitempty"`
	LevelBonusPermille int      `json:"level_bonus_permille,omitempty"`

	MintPriceGod       uint64 `json:"mint_price_god,omitempty"`
	SnapshotEveryTicks int    `json:"snapshot_every_ticks,omitempty"`

	Traits      []TraitSetV1  `json:"traits"`
	Positions   []PositionV1  `json:"positions"`
	CityStates  []CityV1      `json:"city_states"`
	Investments []InvestV1    `json:"investments"`

	Assets AssetsV1 `json:"assets"`
	Ledger LedgerV1 `json:"ledger"`

	Counters CountersV1 `json:"counters"`
}

type TraitSetV1 struct {
	AssetID    uint64  `json:"asset_id"`
	Role       string  `json:"role"`
	Attributes []uint8 `json:"attributes"`
	Tier       uint8   `json:"tier,omitempty"`
}

type PositionV1 struct {
	AssetID          uint64 `json:"asset_id"`
	CityID           int    `json:"city_id"`
	Role             string `json:"role"`
	StakedAtTick     uint64 `json:"staked_at_tick"`
	AccruedUnclaimed uint64 `json:"accrued_unclaimed"`
}

type CityV1 struct {
	CityID         int      `json:"city_id"`
	Traders        []uint64 `json:"traders"`
	Guardians      []uint64 `json:"guardians"`
	GuardianWeight int      `json:"guardian_weight"`
}

type InvestV1 struct {
	AssetID  uint64 `json:"asset_id"`
	Invested uint64 `json:"invested"`
}

type AssetsV1 struct {
	Owners map[uint64]string `json:"owners"`
	Clan   string            `json:"clan"`
	NextID uint64            `json:"next_id"`
}

type LedgerV1 struct {
	Balances    map[string]uint64 `json:"balances"`
	Controllers []string          `json:"controllers"`
	TotalMinted uint64            `json:"total_minted"`
	TotalBurned uint64            `json:"total_burned"`
}

type CountersV1 struct {
	NextClaim uint64 `json:"next_claim"`
}

func WriteSnapshot(path string, snap ClanV1) error {
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

	bw := bufio.NewWriterSize(enc, 64*1024)
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

func ReadSnapshot(path string) (ClanV1, error) {
	var snap ClanV1
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

	br := bufio.NewReaderSize(dec, 64*1024)

	// Header line is informational; gob carries the full struct.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
