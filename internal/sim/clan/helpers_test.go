package clan

import (
	"dwarfclan.game/internal/sim/catalogs"
	"dwarfclan.game/internal/sim/ledger"
	"dwarfclan.game/internal/sim/nft"
)

// testCatalogs builds in-memory trait tables so tests do not depend on the
// shipped config files. Trader slot 0 carries a 3:1 weighted pair for the
// distribution test; every other slot is a single-bucket constant.
func testCatalogs() *catalogs.Catalogs {
	mk := func(buckets ...catalogs.Bucket) catalogs.SlotTable {
		var t catalogs.SlotTable
		var cum uint32
		for _, b := range buckets {
			cum += b.CumWeight
			t.Buckets = append(t.Buckets, catalogs.Bucket{Value: b.Value, CumWeight: cum})
		}
		t.Total = cum
		return t
	}
	single := func(v uint8) catalogs.SlotTable {
		return mk(catalogs.Bucket{Value: v, CumWeight: 1})
	}

	var c catalogs.Catalogs
	c.Trader.Slots = []catalogs.SlotTable{
		mk(catalogs.Bucket{Value: 1, CumWeight: 3}, catalogs.Bucket{Value: 2, CumWeight: 1}),
		single(10), single(11), single(12), single(13), single(14),
	}
	c.Trader.Digest = "test-trader"
	c.Guardian.Slots = []catalogs.SlotTable{
		single(20), single(21), single(22), single(23), single(24),
		mk(catalogs.Bucket{Value: 5, CumWeight: 3}, catalogs.Bucket{Value: 7, CumWeight: 1}),
	}
	c.Guardian.Digest = "test-guardian"
	return &c
}

func testConfig() ClanConfig {
	return ClanConfig{
		ID:                    "clan_t",
		Seed:                  42,
		TickRateHz:            5,
		Cities:                3,
		TraderSlots:           4,
		GuardianSlots:         2,
		RoleGuardianPermille:  100,
		TraderRatePerTick:     100,
		GuardianRatePerTick:   10,
		MaxAccrualTicks:       1000,
		RiskPermillePerWeight: 2,
		RiskMaxPermille:       500,
		LevelThresholds:       []uint64{100, 200},
		LevelBonusPermille:    100,
		MintPriceGod:          50,
		SnapshotEveryTicks:    3000,
	}
}

func newTestClan(cfg ClanConfig) (*Clan, *nft.Registry, *ledger.GOD) {
	assets, god := newTestClanCollaborators()
	god.AddController(cfg.ID)
	c := New(cfg, testCatalogs(), assets, god, nil)
	return c, assets, god
}

func newTestClanCollaborators() (*nft.Registry, *ledger.GOD) {
	return nft.New(), ledger.New()
}

// fixedSource forces every draw to a constant, pinning risky outcomes.
type fixedSource struct{ v uint64 }

func (s fixedSource) Draw(material ...uint64) uint64 { return s.v }

// mintTrader mints one asset for wallet and pins its traits to a Trader.
func mintTrader(c *Clan, assets *nft.Registry, wallet string) uint64 {
	ids, _ := assets.Mint(wallet, 1)
	ts := &TraitSet{Role: RoleTrader}
	ts.Attributes = [catalogs.AttrSlots]uint8{1, 10, 11, 12, 13, 14}
	c.traits[ids[0]] = ts
	return ids[0]
}

// mintGuardian mints one asset for wallet and pins a Guardian trait set with
// the given strength in the final attribute slot.
func mintGuardian(c *Clan, assets *nft.Registry, wallet string, strength uint8) uint64 {
	ids, _ := assets.Mint(wallet, 1)
	ts := &TraitSet{Role: RoleGuardian}
	ts.Attributes = [catalogs.AttrSlots]uint8{20, 21, 22, 23, 24, strength}
	c.traits[ids[0]] = ts
	return ids[0]
}
