package clan

import (
	"dwarfclan.game/internal/protocol"
	"dwarfclan.game/internal/sim/catalogs"
)

// Force-role values for SelectTraits diagnostics.
const (
	ForceNone     = -1
	ForceTrader   = int(RoleTrader)
	ForceGuardian = int(RoleGuardian)
)

// NoOverride disables the attribute override index.
const NoOverride = -1

// SelectTraits assigns (or returns the cached) trait set for the given
// per-asset seed. The seed doubles as the asset id: the mint flow calls this
// once per minted asset, and diagnostics may poll it repeatedly. Only the
// natural draw is cached; forced or overridden draws are computed views and
// never become an asset's trait set, so a caller cannot pin traits for a
// seed ahead of its mint.
//
// forceRole skips the role draw (diagnostics); overrideIndex forces the
// table entry picked for every attribute slot, clamped to each table's size.
func (c *Clan) SelectTraits(seed uint64, forceRole int, overrideIndex int) (TraitSet, error) {
	if ts, ok := c.traits[seed]; ok {
		return *ts, nil
	}
	ts, err := c.computeTraits(seed, forceRole, overrideIndex)
	if err != nil {
		return TraitSet{}, err
	}
	if forceRole == ForceNone && overrideIndex == NoOverride {
		c.traits[seed] = &ts
	}
	return ts, nil
}

func (c *Clan) computeTraits(seed uint64, forceRole int, overrideIndex int) (TraitSet, error) {
	var role Role
	switch forceRole {
	case ForceNone:
		roll := c.draws.Draw(saltRole, uint64(c.cfg.Seed), seed) % 1000
		if roll < uint64(c.cfg.RoleGuardianPermille) {
			role = RoleGuardian
		} else {
			role = RoleTrader
		}
	case ForceTrader:
		role = RoleTrader
	case ForceGuardian:
		role = RoleGuardian
	default:
		return TraitSet{}, opErr(protocol.ErrInvalidRoleOverride, "force_role is not a defined role")
	}

	tables := c.roleTables(role)
	ts := TraitSet{Role: role}
	for i, tbl := range tables.Slots {
		if tbl.Total == 0 {
			return TraitSet{}, opErr(protocol.ErrTableExhausted, "attribute table has zero cumulative weight")
		}
		if overrideIndex != NoOverride {
			idx := overrideIndex
			if idx >= len(tbl.Buckets) {
				idx = len(tbl.Buckets) - 1
			}
			if idx < 0 {
				idx = 0
			}
			ts.Attributes[i] = tbl.Buckets[idx].Value
			continue
		}
		roll := c.draws.Draw(saltAttr, uint64(c.cfg.Seed), seed, uint64(i))
		ts.Attributes[i] = tbl.Pick(roll)
	}
	return ts, nil
}

// GetTokenTraits is the read accessor into the cached trait sets.
func (c *Clan) GetTokenTraits(assetID uint64) (TraitSet, bool) {
	ts, ok := c.traits[assetID]
	if !ok {
		return TraitSet{}, false
	}
	return *ts, true
}

func (c *Clan) roleTables(r Role) catalogs.RoleTraits {
	if r == RoleGuardian {
		return c.cats.Guardian
	}
	return c.cats.Trader
}
