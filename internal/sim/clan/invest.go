package clan

import (
	"errors"
	"fmt"

	"dwarfclan.game/internal/protocol"
	"dwarfclan.game/internal/sim/ledger"
)

// InvestGods burns GOD from the caller and credits the asset's cumulative
// investment. Crossing configured thresholds raises the trait set's tier in
// place (attributes unchanged); the tier only ever increases.
func (c *Clan) InvestGods(wallet string, assetID uint64, amount uint64, nowTick uint64) error {
	if amount == 0 {
		return opErr(protocol.ErrBadRequest, "amount must be positive")
	}
	owner, ok := c.assets.OwnerOf(assetID)
	if !ok || owner != wallet {
		return opErr(protocol.ErrNotOwner, fmt.Sprintf("asset %d not held by caller", assetID))
	}
	ts := c.traits[assetID]
	if ts == nil {
		return opErr(protocol.ErrBadRequest, "asset has no trait set")
	}

	if err := c.god.Burn(wallet, amount); err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return opErr(protocol.ErrNoBalance, "invest amount exceeds balance")
		}
		return opErr(protocol.ErrInternal, err.Error())
	}

	c.invested[assetID] += amount
	if lvl := c.levelFor(c.invested[assetID]); lvl > ts.Tier {
		ts.Tier = lvl
	}

	c.audit(AuditEntry{Tick: nowTick, Actor: wallet, Op: "INVEST", AssetID: assetID, Amount: amount})
	return nil
}

// InvestedAmount reports an asset's cumulative investment.
func (c *Clan) InvestedAmount(assetID uint64) uint64 {
	return c.invested[assetID]
}

// MintAssets mints fresh assets for the caller and assigns each a trait
// set. Trait selection runs first against the ids the registry will
// allocate; a failed draw or a failed payment leaves no state behind.
func (c *Clan) MintAssets(wallet string, quantity int, useAltCurrency bool, nowTick uint64) ([]uint64, error) {
	if quantity <= 0 {
		return nil, opErr(protocol.ErrBadRequest, "quantity must be positive")
	}

	// Registry ids are sequential and never reused, so the draw seeds for
	// this batch are known before the mint is committed.
	nextID := c.assets.TotalMinted()
	for i := 0; i < quantity; i++ {
		if _, err := c.SelectTraits(nextID+uint64(i)+1, ForceNone, NoOverride); err != nil {
			return nil, err
		}
	}

	if useAltCurrency {
		price := c.cfg.MintPriceGod * uint64(quantity)
		if err := c.god.Burn(wallet, price); err != nil {
			if errors.Is(err, ledger.ErrInsufficientBalance) {
				return nil, opErr(protocol.ErrNoBalance, "mint price exceeds balance")
			}
			return nil, opErr(protocol.ErrInternal, err.Error())
		}
	}

	ids, err := c.assets.Mint(wallet, quantity)
	if err != nil {
		return nil, opErr(protocol.ErrInternal, err.Error())
	}

	c.audit(AuditEntry{Tick: nowTick, Actor: wallet, Op: "MINT", Amount: uint64(quantity)})
	return ids, nil
}
