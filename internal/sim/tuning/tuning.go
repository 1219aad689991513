package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int `yaml:"tick_rate_hz"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`

	Cities               int `yaml:"cities"`
	TraderSlots          int `yaml:"trader_slots"`
	GuardianSlots        int `yaml:"guardian_slots"`
	RoleGuardianPermille int `yaml:"role_guardian_permille"`

	Emission Emission `yaml:"emission"`
	Risk     Risk     `yaml:"risk"`
	Invest   Invest   `yaml:"invest"`

	MintPriceGod uint64 `yaml:"mint_price_god"`
}

type Emission struct {
	TraderRatePerTick   uint64 `yaml:"trader_rate_per_tick"`
	GuardianRatePerTick uint64 `yaml:"guardian_rate_per_tick"`
	MaxAccrualTicks     uint64 `yaml:"max_accrual_ticks"`
}

type Risk struct {
	PermillePerWeight int  `yaml:"permille_per_weight"`
	MaxPermille       int  `yaml:"max_permille"`
	StrictValidation  bool `yaml:"strict_validation"`
}

type Invest struct {
	LevelThresholds    []uint64 `yaml:"level_thresholds"`
	LevelBonusPermille int      `yaml:"level_bonus_permille"`
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

// Defaults are the documented fallback parameters. The original economy's
// exact curves are not recoverable, so these are operator-tunable.
func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:      "1.0",
		TickRateHz:           5,
		SnapshotEveryTicks:   3000,
		Cities:               6,
		TraderSlots:          200,
		GuardianSlots:        40,
		RoleGuardianPermille: 100, // 10% guardians

		Emission: Emission{
			TraderRatePerTick:   100,
			GuardianRatePerTick: 10,
			MaxAccrualTicks:     864000,
		},
		Risk: Risk{
			PermillePerWeight: 2,
			MaxPermille:       500,
			StrictValidation:  false,
		},
		Invest: Invest{
			LevelThresholds:    []uint64{50000, 200000, 800000, 3200000},
			LevelBonusPermille: 100, // +10% yield per level
		},

		MintPriceGod: 3000,
	}
}
