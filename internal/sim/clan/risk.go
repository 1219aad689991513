package clan

import (
	"sort"

	"dwarfclan.game/internal/protocol"
)

// forfeitPermille is the probability (in permille) that a risky Trader
// claim in the given city is fully forfeited: linear in the city's guardian
// weight, clamped at the configured maximum. Zero guardian weight means
// zero risk.
func (c *Clan) forfeitPermille(cityID int) int {
	ct := c.cities[cityID]
	if ct == nil || ct.GuardianWeight <= 0 {
		return 0
	}
	p := ct.GuardianWeight * c.cfg.RiskPermillePerWeight
	if p > c.cfg.RiskMaxPermille {
		p = c.cfg.RiskMaxPermille
	}
	return p
}

// resolveClaim decides a claim's outcome. The safe path always pays in
// full. The risky path is a binary bet for Traders only: full payout or
// full forfeiture, nothing in between. The draw mixes the process secret,
// the tick and a per-claim nonce, so the outcome is not manipulable by
// resubmitting within the same evaluation.
func (c *Clan) resolveClaim(assetID uint64, pending uint64, risky bool, nowTick uint64) (payout, forfeited uint64, err error) {
	ts := c.traits[assetID]
	pos := c.positions[assetID]
	if ts == nil || pos == nil {
		return 0, 0, opErr(protocol.ErrNotStaked, "asset not staked")
	}

	if !risky {
		return pending, 0, nil
	}

	if ts.Role == RoleGuardian {
		if c.cfg.StrictRiskValidation {
			return 0, 0, opErr(protocol.ErrRiskNotApplicable, "guardians cannot make risky claims")
		}
		// Risk mechanic applies only to traders; fall back to the safe path.
		return pending, 0, nil
	}

	permille := c.forfeitPermille(pos.CityID)
	if permille <= 0 {
		return pending, 0, nil
	}

	nonce := c.nextClaimNum.Add(1)
	roll := c.draws.Draw(saltRisk, assetID, nowTick, nonce) % 1000
	if roll < uint64(permille) {
		return 0, pending, nil
	}
	return pending, 0, nil
}

// distributeForfeit spreads a forfeited amount across the city's staked
// guardians pro-rata by attribute strength, crediting their
// AccruedUnclaimed. Integer rounding dust goes to the lowest asset id.
// Amounts are conserved: the shares always sum to amount.
func (c *Clan) distributeForfeit(cityID int, amount uint64) {
	if amount == 0 {
		return
	}
	ct := c.cities[cityID]
	if ct == nil || len(ct.Guardians) == 0 || ct.GuardianWeight <= 0 {
		return
	}

	ids := make([]uint64, 0, len(ct.Guardians))
	for id := range ct.Guardians {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	total := uint64(ct.GuardianWeight)
	var distributed uint64
	for _, id := range ids {
		ts := c.traits[id]
		pos := c.positions[id]
		if ts == nil || pos == nil {
			continue
		}
		share := amount * uint64(ts.Strength()) / total
		pos.AccruedUnclaimed += share
		distributed += share
	}
	if dust := amount - distributed; dust > 0 {
		if pos := c.positions[ids[0]]; pos != nil {
			pos.AccruedUnclaimed += dust
		}
	}
}
