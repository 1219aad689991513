package clan

import (
	"fmt"

	"dwarfclan.game/internal/protocol"
)

func (c *Clan) city(id int) *City {
	ct := c.cities[id]
	if ct == nil {
		ct = newCity(id)
		c.cities[id] = ct
	}
	return ct
}

func (c *Clan) knownCity(id int) bool {
	return id >= 1 && id <= c.cfg.Cities
}

// AddTokenToCity stakes an owned, unstaked asset into the slot set matching
// its role. An asset is in at most one city at a time.
func (c *Clan) AddTokenToCity(wallet string, assetID uint64, cityID int, nowTick uint64) error {
	owner, ok := c.assets.OwnerOf(assetID)
	if !ok || owner != wallet {
		return opErr(protocol.ErrNotOwner, fmt.Sprintf("asset %d not held by caller", assetID))
	}
	ts, ok := c.traits[assetID]
	if !ok {
		return opErr(protocol.ErrBadRequest, "asset has no trait set")
	}
	if _, staked := c.positions[assetID]; staked {
		return opErr(protocol.ErrAlreadyStaked, fmt.Sprintf("asset %d already staked", assetID))
	}
	if !c.knownCity(cityID) {
		return opErr(protocol.ErrUnknownCity, fmt.Sprintf("city %d not configured", cityID))
	}

	ct := c.city(cityID)
	switch ts.Role {
	case RoleGuardian:
		if len(ct.Guardians) >= c.cfg.GuardianSlots {
			return opErr(protocol.ErrCityFull, fmt.Sprintf("city %d guardian slots full", cityID))
		}
		ct.Guardians[assetID] = struct{}{}
		ct.GuardianWeight += ts.Strength()
	default:
		if len(ct.Traders) >= c.cfg.TraderSlots {
			return opErr(protocol.ErrCityFull, fmt.Sprintf("city %d trader slots full", cityID))
		}
		ct.Traders[assetID] = struct{}{}
	}

	c.positions[assetID] = &StakePosition{
		AssetID:      assetID,
		CityID:       cityID,
		Role:         ts.Role,
		StakedAtTick: nowTick,
	}

	c.audit(AuditEntry{Tick: nowTick, Actor: wallet, Op: "ADD_TO_CITY", AssetID: assetID, CityID: cityID})
	return nil
}

// AddMerchantToCity is the Trader-only staking entry point.
func (c *Clan) AddMerchantToCity(wallet string, assetID uint64, cityID int, nowTick uint64) error {
	ts, ok := c.traits[assetID]
	if !ok {
		return opErr(protocol.ErrBadRequest, "asset has no trait set")
	}
	if ts.Role != RoleTrader {
		return opErr(protocol.ErrRoleMismatch, fmt.Sprintf("asset %d is not a merchant", assetID))
	}
	return c.AddTokenToCity(wallet, assetID, cityID, nowTick)
}

// GetAvailableCity returns the lowest-numbered configured city with free
// Trader capacity.
func (c *Clan) GetAvailableCity() (int, error) {
	return c.availableCityFor(RoleTrader)
}

// availableCityFor returns the lowest-numbered configured city with a free
// slot for the given role.
func (c *Clan) availableCityFor(role Role) (int, error) {
	for id := 1; id <= c.cfg.Cities; id++ {
		ct := c.cities[id]
		if ct == nil {
			return id, nil
		}
		if role == RoleGuardian {
			if len(ct.Guardians) < c.cfg.GuardianSlots {
				return id, nil
			}
		} else if len(ct.Traders) < c.cfg.TraderSlots {
			return id, nil
		}
	}
	return 0, opErr(protocol.ErrNoCityAvailable, fmt.Sprintf("all cities at %s capacity", role))
}

// GetNumMobstersOfCity reports how many guardians are staked in a city.
func (c *Clan) GetNumMobstersOfCity(cityID int) (int, error) {
	if !c.knownCity(cityID) {
		return 0, opErr(protocol.ErrUnknownCity, fmt.Sprintf("city %d not configured", cityID))
	}
	ct := c.cities[cityID]
	if ct == nil {
		return 0, nil
	}
	return len(ct.Guardians), nil
}

// unstake removes an asset from its city, leaving the city registered but
// possibly empty. Used by withdrawal.
func (c *Clan) unstake(assetID uint64) {
	pos := c.positions[assetID]
	if pos == nil {
		return
	}
	if ct := c.cities[pos.CityID]; ct != nil {
		if pos.Role == RoleGuardian {
			if _, ok := ct.Guardians[assetID]; ok {
				delete(ct.Guardians, assetID)
				if ts := c.traits[assetID]; ts != nil {
					ct.GuardianWeight -= ts.Strength()
				}
			}
		} else {
			delete(ct.Traders, assetID)
		}
	}
	delete(c.positions, assetID)
}
