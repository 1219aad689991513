package clan

import "dwarfclan.game/internal/sim/tuning"

type ClanConfig struct {
	ID         string
	Seed       int64
	TickRateHz int

	Cities               int
	TraderSlots          int
	GuardianSlots        int
	RoleGuardianPermille int

	TraderRatePerTick   uint64
	GuardianRatePerTick uint64
	MaxAccrualTicks     uint64

	RiskPermillePerWeight int
	RiskMaxPermille       int
	StrictRiskValidation  bool

	LevelThresholds    []uint64
	LevelBonusPermille int

	MintPriceGod uint64

	SnapshotEveryTicks int
}

func (c *ClanConfig) applyDefaults() {
	d := tuning.Defaults()
	if c.ID == "" {
		c.ID = "clan_1"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = d.TickRateHz
	}
	if c.Cities <= 0 {
		c.Cities = d.Cities
	}
	if c.TraderSlots <= 0 {
		c.TraderSlots = d.TraderSlots
	}
	if c.GuardianSlots <= 0 {
		c.GuardianSlots = d.GuardianSlots
	}
	if c.RoleGuardianPermille <= 0 {
		c.RoleGuardianPermille = d.RoleGuardianPermille
	}
	if c.TraderRatePerTick == 0 {
		c.TraderRatePerTick = d.Emission.TraderRatePerTick
	}
	if c.GuardianRatePerTick == 0 {
		c.GuardianRatePerTick = d.Emission.GuardianRatePerTick
	}
	if c.MaxAccrualTicks == 0 {
		c.MaxAccrualTicks = d.Emission.MaxAccrualTicks
	}
	if c.RiskPermillePerWeight <= 0 {
		c.RiskPermillePerWeight = d.Risk.PermillePerWeight
	}
	if c.RiskMaxPermille <= 0 {
		c.RiskMaxPermille = d.Risk.MaxPermille
	}
	if c.RiskMaxPermille > 1000 {
		c.RiskMaxPermille = 1000
	}
	if len(c.LevelThresholds) == 0 {
		c.LevelThresholds = d.Invest.LevelThresholds
	}
	if c.LevelBonusPermille <= 0 {
		c.LevelBonusPermille = d.Invest.LevelBonusPermille
	}
	if c.MintPriceGod == 0 {
		c.MintPriceGod = d.MintPriceGod
	}
	if c.SnapshotEveryTicks <= 0 {
		c.SnapshotEveryTicks = d.SnapshotEveryTicks
	}
}

// FromTuning builds a clan config from the tuning file plus deployment
// identity and seed.
func FromTuning(id string, seed int64, t tuning.Tuning) ClanConfig {
	cfg := ClanConfig{
		ID:                    id,
		Seed:                  seed,
		TickRateHz:            t.TickRateHz,
		Cities:                t.Cities,
		TraderSlots:           t.TraderSlots,
		GuardianSlots:         t.GuardianSlots,
		RoleGuardianPermille:  t.RoleGuardianPermille,
		TraderRatePerTick:     t.Emission.TraderRatePerTick,
		GuardianRatePerTick:   t.Emission.GuardianRatePerTick,
		MaxAccrualTicks:       t.Emission.MaxAccrualTicks,
		RiskPermillePerWeight: t.Risk.PermillePerWeight,
		RiskMaxPermille:       t.Risk.MaxPermille,
		StrictRiskValidation:  t.Risk.StrictValidation,
		LevelThresholds:       t.Invest.LevelThresholds,
		LevelBonusPermille:    t.Invest.LevelBonusPermille,
		MintPriceGod:          t.MintPriceGod,
		SnapshotEveryTicks:    t.SnapshotEveryTicks,
	}
	cfg.applyDefaults()
	return cfg
}
