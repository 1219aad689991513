package clan

import (
	"fmt"

	"dwarfclan.game/internal/protocol"
)

// ClaimManyFromClan claims pending yield for a batch of staked assets.
// The batch is atomic: every element is validated before any state is
// touched, and one invalid asset rejects the whole batch. Each claimed
// position has StakedAtTick reset to nowTick and AccruedUnclaimed zeroed
// regardless of the risk outcome; claiming never unstakes.
func (c *Clan) ClaimManyFromClan(wallet string, assetIDs []uint64, risky bool, nowTick uint64) ([]ClaimOutcome, error) {
	if len(assetIDs) == 0 {
		return nil, opErr(protocol.ErrBadRequest, "empty asset list")
	}
	if !c.god.IsController(c.cfg.ID) {
		return nil, opErr(protocol.ErrNoPermission, "clan is not a currency controller")
	}

	// Validation pass: nothing below may mutate state.
	seen := make(map[uint64]struct{}, len(assetIDs))
	for _, id := range assetIDs {
		if _, dup := seen[id]; dup {
			// A duplicate would accrue twice inside one transaction.
			return nil, opErr(protocol.ErrConflict, fmt.Sprintf("asset %d repeated in batch", id))
		}
		seen[id] = struct{}{}

		owner, ok := c.assets.OwnerOf(id)
		if !ok || owner != wallet {
			return nil, opErr(protocol.ErrNotOwner, fmt.Sprintf("asset %d not held by caller", id))
		}
		pos := c.positions[id]
		if pos == nil {
			return nil, opErr(protocol.ErrNotStaked, fmt.Sprintf("asset %d not staked", id))
		}
		ts := c.traits[id]
		if ts == nil {
			return nil, opErr(protocol.ErrBadRequest, fmt.Sprintf("asset %d has no trait set", id))
		}
		if risky && ts.Role == RoleGuardian && c.cfg.StrictRiskValidation {
			return nil, opErr(protocol.ErrRiskNotApplicable, fmt.Sprintf("asset %d is a guardian", id))
		}
	}

	// Apply pass: no failure conditions remain.
	outcomes := make([]ClaimOutcome, 0, len(assetIDs))
	for _, id := range assetIDs {
		pos := c.positions[id]
		ts := c.traits[id]

		pending := c.PendingYield(id, nowTick)
		payout, forfeited, err := c.resolveClaim(id, pending, risky, nowTick)
		if err != nil {
			// Unreachable after validation; surface as an internal rejection.
			return nil, opErr(protocol.ErrInternal, err.Error())
		}

		pos.StakedAtTick = nowTick
		pos.AccruedUnclaimed = 0

		if forfeited > 0 {
			c.distributeForfeit(pos.CityID, forfeited)
		}
		if payout > 0 {
			if err := c.god.Mint(c.cfg.ID, wallet, payout); err != nil {
				return nil, opErr(protocol.ErrInternal, fmt.Sprintf("mint payout: %v", err))
			}
		}

		out := ClaimOutcome{AssetID: id, Payout: payout, Forfeited: forfeited, Risky: risky}
		outcomes = append(outcomes, out)

		if c.claimLogger != nil {
			_ = c.claimLogger.WriteClaim(ClaimLogEntry{
				Tick:      nowTick,
				Wallet:    wallet,
				AssetID:   id,
				CityID:    pos.CityID,
				Role:      ts.Role.String(),
				Risky:     risky,
				Payout:    payout,
				Forfeited: forfeited,
			})
		}
		c.audit(AuditEntry{Tick: nowTick, Actor: wallet, Op: "CLAIM", AssetID: id, CityID: pos.CityID, Amount: payout})
	}
	return outcomes, nil
}
