package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	data := `
protocol_version: "1.0"
tick_rate_hz: 10
cities: 4
trader_slots: 50
guardian_slots: 8
role_guardian_permille: 250
emission:
  trader_rate_per_tick: 7
  guardian_rate_per_tick: 3
  max_accrual_ticks: 500
risk:
  permille_per_weight: 5
  max_permille: 400
  strict_validation: true
invest:
  level_thresholds: [10, 20]
  level_bonus_permille: 50
mint_price_god: 99
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.TickRateHz != 10 || got.Cities != 4 || got.RoleGuardianPermille != 250 {
		t.Fatalf("top-level: %+v", got)
	}
	if got.Emission.TraderRatePerTick != 7 || got.Emission.MaxAccrualTicks != 500 {
		t.Fatalf("emission: %+v", got.Emission)
	}
	if !got.Risk.StrictValidation || got.Risk.MaxPermille != 400 {
		t.Fatalf("risk: %+v", got.Risk)
	}
	if len(got.Invest.LevelThresholds) != 2 || got.Invest.LevelThresholds[1] != 20 {
		t.Fatalf("invest: %+v", got.Invest)
	}
	if got.MintPriceGod != 99 {
		t.Fatalf("mint price: %d", got.MintPriceGod)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !os.IsNotExist(err) {
		t.Fatalf("want not-exist, got %v", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("cities: [not an int"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.TickRateHz <= 0 || d.Cities <= 0 || d.TraderSlots <= 0 {
		t.Fatalf("defaults incomplete: %+v", d)
	}
	if d.RoleGuardianPermille <= 0 || d.RoleGuardianPermille > 1000 {
		t.Fatalf("role permille: %d", d.RoleGuardianPermille)
	}
	if d.Risk.MaxPermille > 1000 {
		t.Fatalf("risk clamp misconfigured: %d", d.Risk.MaxPermille)
	}
	if len(d.Invest.LevelThresholds) == 0 {
		t.Fatalf("no level thresholds")
	}
	for i := 1; i < len(d.Invest.LevelThresholds); i++ {
		if d.Invest.LevelThresholds[i] <= d.Invest.LevelThresholds[i-1] {
			t.Fatalf("thresholds not increasing: %v", d.Invest.LevelThresholds)
		}
	}
	if d.MintPriceGod == 0 {
		t.Fatalf("zero mint price")
	}
}
