package clan

import (
	"sort"

	"dwarfclan.game/internal/persistence/snapshot"
)

// Optional collaborator capabilities for snapshot capture/restore. The
// in-memory registry and ledger implement them; remote collaborators that
// own their own persistence may not.
type assetSnapshotter interface {
	Owners() map[uint64]string
	Clan() string
	TotalMinted() uint64
	Restore(owners map[uint64]string, clan string, nextID uint64)
}

type ledgerSnapshotter interface {
	Balances() map[string]uint64
	Controllers() []string
	Totals() (minted, burned uint64)
	Restore(balances map[string]uint64, controllers []string, minted, burned uint64)
}

const snapshotVersion = 1

// Export captures full clan state plus effective config for deterministic
// resume.
func (c *Clan) Export() snapshot.ClanV1 {
	snap := snapshot.ClanV1{
		Header: snapshot.Header{
			Version: snapshotVersion,
			ClanID:  c.cfg.ID,
			Tick:    c.tick.Load(),
		},
		Seed:                  c.cfg.Seed,
		TickRateHz:            c.cfg.TickRateHz,
		Cities:                c.cfg.Cities,
		TraderSlots:           c.cfg.TraderSlots,
		GuardianSlots:         c.cfg.GuardianSlots,
		RoleGuardianPermille:  c.cfg.RoleGuardianPermille,
		TraderRatePerTick:     c.cfg.TraderRatePerTick,
		GuardianRatePerTick:   c.cfg.GuardianRatePerTick,
		MaxAccrualTicks:       c.cfg.MaxAccrualTicks,
		RiskPermillePerWeight: c.cfg.RiskPermillePerWeight,
		RiskMaxPermille:       c.cfg.RiskMaxPermille,
		StrictRiskValidation:  c.cfg.StrictRiskValidation,
		LevelThresholds:       append([]uint64(nil), c.cfg.LevelThresholds...),
		LevelBonusPermille:    c.cfg.LevelBonusPermille,
		MintPriceGod:          c.cfg.MintPriceGod,
		SnapshotEveryTicks:    c.cfg.SnapshotEveryTicks,
		Counters:              snapshot.CountersV1{NextClaim: c.nextClaimNum.Load()},
	}

	for _, id := range sortedKeys(c.traits) {
		ts := c.traits[id]
		snap.Traits = append(snap.Traits, snapshot.TraitSetV1{
			AssetID:    id,
			Role:       ts.Role.String(),
			Attributes: append([]uint8(nil), ts.Attributes[:]...),
			Tier:       ts.Tier,
		})
	}
	for _, id := range sortedKeys(c.positions) {
		pos := c.positions[id]
		snap.Positions = append(snap.Positions, snapshot.PositionV1{
			AssetID:          id,
			CityID:           pos.CityID,
			Role:             pos.Role.String(),
			StakedAtTick:     pos.StakedAtTick,
			AccruedUnclaimed: pos.AccruedUnclaimed,
		})
	}

	cityIDs := make([]int, 0, len(c.cities))
	for id := range c.cities {
		cityIDs = append(cityIDs, id)
	}
	sort.Ints(cityIDs)
	for _, id := range cityIDs {
		ct := c.cities[id]
		snap.CityStates = append(snap.CityStates, snapshot.CityV1{
			CityID:         id,
			Traders:        sortedSet(ct.Traders),
			Guardians:      sortedSet(ct.Guardians),
			GuardianWeight: ct.GuardianWeight,
		})
	}

	for _, id := range sortedKeys(c.invested) {
		snap.Investments = append(snap.Investments, snapshot.InvestV1{AssetID: id, Invested: c.invested[id]})
	}

	if a, ok := c.assets.(assetSnapshotter); ok {
		snap.Assets = snapshot.AssetsV1{Owners: a.Owners(), Clan: a.Clan(), NextID: a.TotalMinted()}
	}
	if l, ok := c.god.(ledgerSnapshotter); ok {
		minted, burned := l.Totals()
		snap.Ledger = snapshot.LedgerV1{
			Balances:    l.Balances(),
			Controllers: l.Controllers(),
			TotalMinted: minted,
			TotalBurned: burned,
		}
	}
	return snap
}

// Restore replaces clan (and, where supported, collaborator) state from a
// snapshot.
func (c *Clan) Restore(snap snapshot.ClanV1) {
	c.tick.Store(snap.Header.Tick)
	c.nextClaimNum.Store(snap.Counters.NextClaim)

	c.traits = map[uint64]*TraitSet{}
	for _, t := range snap.Traits {
		role, _ := ParseRole(t.Role)
		ts := &TraitSet{Role: role, Tier: t.Tier}
		copy(ts.Attributes[:], t.Attributes)
		c.traits[t.AssetID] = ts
	}

	c.positions = map[uint64]*StakePosition{}
	for _, p := range snap.Positions {
		role, _ := ParseRole(p.Role)
		c.positions[p.AssetID] = &StakePosition{
			AssetID:          p.AssetID,
			CityID:           p.CityID,
			Role:             role,
			StakedAtTick:     p.StakedAtTick,
			AccruedUnclaimed: p.AccruedUnclaimed,
		}
	}

	c.cities = map[int]*City{}
	for _, cs := range snap.CityStates {
		ct := newCity(cs.CityID)
		for _, id := range cs.Traders {
			ct.Traders[id] = struct{}{}
		}
		for _, id := range cs.Guardians {
			ct.Guardians[id] = struct{}{}
		}
		ct.GuardianWeight = cs.GuardianWeight
		c.cities[cs.CityID] = ct
	}

	c.invested = map[uint64]uint64{}
	for _, inv := range snap.Investments {
		c.invested[inv.AssetID] = inv.Invested
	}

	if a, ok := c.assets.(assetSnapshotter); ok && snap.Assets.Owners != nil {
		a.Restore(snap.Assets.Owners, snap.Assets.Clan, snap.Assets.NextID)
	}
	if l, ok := c.god.(ledgerSnapshotter); ok && snap.Ledger.Balances != nil {
		l.Restore(snap.Ledger.Balances, snap.Ledger.Controllers, snap.Ledger.TotalMinted, snap.Ledger.TotalBurned)
	}
}

func sortedKeys[V any](m map[uint64]V) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedSet(m map[uint64]struct{}) []uint64 {
	out := make([]uint64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
