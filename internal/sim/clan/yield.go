package clan

// PendingYield computes the currency owed to a staked asset at nowTick:
// linear per-role emission since StakedAtTick, scaled by the investment
// level multiplier, capped at MaxAccrualTicks, plus any yield carried over
// from risk redistribution. Zero for unstaked assets and when
// nowTick <= StakedAtTick.
func (c *Clan) PendingYield(assetID uint64, nowTick uint64) uint64 {
	pos := c.positions[assetID]
	if pos == nil {
		return 0
	}
	ts := c.traits[assetID]
	if ts == nil {
		return 0
	}

	var elapsed uint64
	if nowTick > pos.StakedAtTick {
		elapsed = nowTick - pos.StakedAtTick
	}
	if elapsed > c.cfg.MaxAccrualTicks {
		// Bound unclaimed liability for assets left staked indefinitely.
		elapsed = c.cfg.MaxAccrualTicks
	}

	rate := c.cfg.TraderRatePerTick
	if ts.Role == RoleGuardian {
		rate = c.cfg.GuardianRatePerTick
	}

	base := rate * elapsed
	multPermille := 1000 + int(ts.Tier)*c.cfg.LevelBonusPermille
	return pos.AccruedUnclaimed + scalePermille(base, multPermille)
}

// levelFor derives the investment level from cumulative invested amount:
// the number of configured thresholds crossed. Monotonically non-decreasing
// in the invested amount.
func (c *Clan) levelFor(invested uint64) uint8 {
	var lvl uint8
	for _, th := range c.cfg.LevelThresholds {
		if invested < th {
			break
		}
		lvl++
	}
	return lvl
}
