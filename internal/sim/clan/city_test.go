package clan

import (
	"testing"

	"dwarfclan.game/internal/protocol"
)

func TestAddTokenToCity_StakesByRole(t *testing.T) {
	c, assets, _ := newTestClan(testConfig())
	trader := mintTrader(c, assets, "w1")
	guardian := mintGuardian(c, assets, "w1", 5)

	if err := c.AddTokenToCity("w1", trader, 1, 10); err != nil {
		t.Fatalf("stake trader: %v", err)
	}
	if err := c.AddTokenToCity("w1", guardian, 1, 10); err != nil {
		t.Fatalf("stake guardian: %v", err)
	}

	ct := c.cities[1]
	if len(ct.Traders) != 1 || len(ct.Guardians) != 1 {
		t.Fatalf("city membership: traders=%d guardians=%d", len(ct.Traders), len(ct.Guardians))
	}
	if ct.GuardianWeight != 5 {
		t.Fatalf("guardian weight %d, want 5", ct.GuardianWeight)
	}
	pos := c.positions[trader]
	if pos == nil || pos.CityID != 1 || pos.StakedAtTick != 10 {
		t.Fatalf("trader position: %+v", pos)
	}
}

func TestAddTokenToCity_Rejections(t *testing.T) {
	c, assets, _ := newTestClan(testConfig())
	trader := mintTrader(c, assets, "w1")
	bare, _ := assets.Mint("w1", 1)

	cases := []struct {
		name   string
		wallet string
		asset  uint64
		city   int
		code   string
	}{
		{"not owner", "w2", trader, 1, protocol.ErrNotOwner},
		{"no traits", "w1", bare[0], 1, protocol.ErrBadRequest},
		{"city zero", "w1", trader, 0, protocol.ErrUnknownCity},
		{"city beyond range", "w1", trader, 4, protocol.ErrUnknownCity},
	}
	for _, tc := range cases {
		if got := ErrCode(c.AddTokenToCity(tc.wallet, tc.asset, tc.city, 1)); got != tc.code {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.code)
		}
	}

	if err := c.AddTokenToCity("w1", trader, 1, 1); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if got := ErrCode(c.AddTokenToCity("w1", trader, 2, 1)); got != protocol.ErrAlreadyStaked {
		t.Fatalf("restake: got %q want %q", got, protocol.ErrAlreadyStaked)
	}
}

func TestAddTokenToCity_CapacityPerRole(t *testing.T) {
	cfg := testConfig()
	cfg.TraderSlots = 1
	cfg.GuardianSlots = 1
	c, assets, _ := newTestClan(cfg)

	t1 := mintTrader(c, assets, "w1")
	t2 := mintTrader(c, assets, "w1")
	g1 := mintGuardian(c, assets, "w1", 5)
	g2 := mintGuardian(c, assets, "w1", 5)

	if err := c.AddTokenToCity("w1", t1, 1, 1); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if got := ErrCode(c.AddTokenToCity("w1", t2, 1, 1)); got != protocol.ErrCityFull {
		t.Fatalf("trader overflow: got %q", got)
	}
	// Guardian slots are independent of trader slots.
	if err := c.AddTokenToCity("w1", g1, 1, 1); err != nil {
		t.Fatalf("stake guardian: %v", err)
	}
	if got := ErrCode(c.AddTokenToCity("w1", g2, 1, 1)); got != protocol.ErrCityFull {
		t.Fatalf("guardian overflow: got %q", got)
	}
}

func TestAddMerchantToCity_RoleMismatch(t *testing.T) {
	c, assets, _ := newTestClan(testConfig())
	guardian := mintGuardian(c, assets, "w1", 5)

	if got := ErrCode(c.AddMerchantToCity("w1", guardian, 1, 1)); got != protocol.ErrRoleMismatch {
		t.Fatalf("got %q want %q", got, protocol.ErrRoleMismatch)
	}

	trader := mintTrader(c, assets, "w1")
	if err := c.AddMerchantToCity("w1", trader, 1, 1); err != nil {
		t.Fatalf("merchant stake: %v", err)
	}
}

func TestGetAvailableCity(t *testing.T) {
	cfg := testConfig()
	cfg.TraderSlots = 1
	c, assets, _ := newTestClan(cfg)

	id, err := c.GetAvailableCity()
	if err != nil || id != 1 {
		t.Fatalf("fresh clan: city=%d err=%v", id, err)
	}

	for city := 1; city <= cfg.Cities; city++ {
		tr := mintTrader(c, assets, "w1")
		if err := c.AddTokenToCity("w1", tr, city, 1); err != nil {
			t.Fatalf("fill city %d: %v", city, err)
		}
		if city < cfg.Cities {
			next, err := c.GetAvailableCity()
			if err != nil || next != city+1 {
				t.Fatalf("after filling %d: city=%d err=%v", city, next, err)
			}
		}
	}
	if _, err := c.GetAvailableCity(); ErrCode(err) != protocol.ErrNoCityAvailable {
		t.Fatalf("all full: got %v", err)
	}
}

func TestGetNumMobstersOfCity(t *testing.T) {
	c, assets, _ := newTestClan(testConfig())
	if _, err := c.GetNumMobstersOfCity(9); ErrCode(err) != protocol.ErrUnknownCity {
		t.Fatalf("unknown city: got %v", err)
	}
	// Configured but never touched: zero, no error.
	if n, err := c.GetNumMobstersOfCity(2); err != nil || n != 0 {
		t.Fatalf("untouched city: n=%d err=%v", n, err)
	}
	g := mintGuardian(c, assets, "w1", 5)
	if err := c.AddTokenToCity("w1", g, 2, 1); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if n, _ := c.GetNumMobstersOfCity(2); n != 1 {
		t.Fatalf("n=%d want 1", n)
	}
}

func TestUnstake_RestoresCapacityAndWeight(t *testing.T) {
	c, assets, _ := newTestClan(testConfig())
	g := mintGuardian(c, assets, "w1", 7)
	if err := c.AddTokenToCity("w1", g, 1, 1); err != nil {
		t.Fatalf("stake: %v", err)
	}
	c.unstake(g)
	if c.positions[g] != nil {
		t.Fatalf("position survived unstake")
	}
	ct := c.cities[1]
	if len(ct.Guardians) != 0 || ct.GuardianWeight != 0 {
		t.Fatalf("city after unstake: guardians=%d weight=%d", len(ct.Guardians), ct.GuardianWeight)
	}
}
