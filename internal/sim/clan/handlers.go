package clan

import (
	"dwarfclan.game/internal/protocol"
)

type cmdHandler func(*Clan, protocol.CmdMsg, uint64)

var cmdDispatch = map[string]cmdHandler{
	protocol.OpMint:          handleCmdMint,
	protocol.OpAddToCity:     handleCmdAddToCity,
	protocol.OpAddMerchant:   handleCmdAddMerchant,
	protocol.OpClaimMany:     handleCmdClaimMany,
	protocol.OpInvest:        handleCmdInvest,
	protocol.OpGetTraits:     handleCmdGetTraits,
	protocol.OpGetCity:       handleCmdGetCity,
	protocol.OpAvailableCity: handleCmdAvailableCity,
	protocol.OpSelectTraits:  handleCmdSelectTraits,
	protocol.OpBalance:       handleCmdBalance,
}

func (c *Clan) applyCmd(env CmdEnvelope, nowTick uint64) {
	cmd := env.Cmd
	if cmd.Wallet == "" {
		return
	}
	h := cmdDispatch[cmd.Op]
	if h == nil {
		c.emit(cmd.Wallet, actionResult(nowTick, cmd.ID, false, protocol.ErrBadRequest, "unknown op"))
		return
	}
	h(c, cmd, nowTick)
}

func (c *Clan) emitErr(cmd protocol.CmdMsg, nowTick uint64, err error) {
	code := ErrCode(err)
	msg := ""
	if oe, ok := err.(*OpError); ok {
		msg = oe.Message
	} else if err != nil {
		code = protocol.ErrInternal
		msg = err.Error()
	}
	c.emit(cmd.Wallet, actionResult(nowTick, cmd.ID, false, code, msg))
}

func handleCmdMint(c *Clan, cmd protocol.CmdMsg, nowTick uint64) {
	ids, err := c.MintAssets(cmd.Wallet, cmd.Quantity, cmd.UseAltCurrency, nowTick)
	if err != nil {
		c.emitErr(cmd, nowTick, err)
		return
	}
	ev := actionResult(nowTick, cmd.ID, true, "", "")
	ev["asset_ids"] = ids
	c.emit(cmd.Wallet, ev)
}

func handleCmdAddToCity(c *Clan, cmd protocol.CmdMsg, nowTick uint64) {
	cityID := cmd.CityID
	if cityID == 0 {
		// Auto-pick follows the asset's role so guardians are not routed
		// into a city whose guardian slots are already full.
		role := RoleTrader
		if ts, ok := c.traits[cmd.AssetID]; ok {
			role = ts.Role
		}
		var err error
		cityID, err = c.availableCityFor(role)
		if err != nil {
			c.emitErr(cmd, nowTick, err)
			return
		}
	}
	if err := c.AddTokenToCity(cmd.Wallet, cmd.AssetID, cityID, nowTick); err != nil {
		c.emitErr(cmd, nowTick, err)
		return
	}
	ev := actionResult(nowTick, cmd.ID, true, "", "")
	ev["city_id"] = cityID
	c.emit(cmd.Wallet, ev)
}

func handleCmdAddMerchant(c *Clan, cmd protocol.CmdMsg, nowTick uint64) {
	cityID := cmd.CityID
	if cityID == 0 {
		var err error
		cityID, err = c.GetAvailableCity()
		if err != nil {
			c.emitErr(cmd, nowTick, err)
			return
		}
	}
	if err := c.AddMerchantToCity(cmd.Wallet, cmd.AssetID, cityID, nowTick); err != nil {
		c.emitErr(cmd, nowTick, err)
		return
	}
	ev := actionResult(nowTick, cmd.ID, true, "", "")
	ev["city_id"] = cityID
	c.emit(cmd.Wallet, ev)
}

func handleCmdClaimMany(c *Clan, cmd protocol.CmdMsg, nowTick uint64) {
	outcomes, err := c.ClaimManyFromClan(cmd.Wallet, cmd.AssetIDs, cmd.Risky, nowTick)
	if err != nil {
		c.emitErr(cmd, nowTick, err)
		return
	}
	var total uint64
	for _, o := range outcomes {
		total += o.Payout
	}
	ev := actionResult(nowTick, cmd.ID, true, "", "")
	ev["outcomes"] = outcomes
	ev["total_payout"] = total
	c.emit(cmd.Wallet, ev)
}

func handleCmdInvest(c *Clan, cmd protocol.CmdMsg, nowTick uint64) {
	if err := c.InvestGods(cmd.Wallet, cmd.AssetID, cmd.Amount, nowTick); err != nil {
		c.emitErr(cmd, nowTick, err)
		return
	}
	ts, _ := c.GetTokenTraits(cmd.AssetID)
	ev := actionResult(nowTick, cmd.ID, true, "", "")
	ev["invested"] = c.InvestedAmount(cmd.AssetID)
	ev["tier"] = ts.Tier
	c.emit(cmd.Wallet, ev)
}

func handleCmdGetTraits(c *Clan, cmd protocol.CmdMsg, nowTick uint64) {
	ts, ok := c.GetTokenTraits(cmd.AssetID)
	if !ok {
		c.emit(cmd.Wallet, actionResult(nowTick, cmd.ID, false, protocol.ErrBadRequest, "asset has no trait set"))
		return
	}
	ev := actionResult(nowTick, cmd.ID, true, "", "")
	ev["asset_id"] = cmd.AssetID
	ev["role"] = ts.Role.String()
	ev["attributes"] = ts.Attributes[:]
	ev["tier"] = ts.Tier
	c.emit(cmd.Wallet, ev)
}

func handleCmdGetCity(c *Clan, cmd protocol.CmdMsg, nowTick uint64) {
	mobsters, err := c.GetNumMobstersOfCity(cmd.CityID)
	if err != nil {
		c.emitErr(cmd, nowTick, err)
		return
	}
	ev := actionResult(nowTick, cmd.ID, true, "", "")
	ev["city_id"] = cmd.CityID
	ev["num_mobsters"] = mobsters
	if ct := c.cities[cmd.CityID]; ct != nil {
		ev["num_merchants"] = len(ct.Traders)
		ev["guardian_weight"] = ct.GuardianWeight
	} else {
		ev["num_merchants"] = 0
		ev["guardian_weight"] = 0
	}
	c.emit(cmd.Wallet, ev)
}

func handleCmdAvailableCity(c *Clan, cmd protocol.CmdMsg, nowTick uint64) {
	cityID, err := c.GetAvailableCity()
	if err != nil {
		c.emitErr(cmd, nowTick, err)
		return
	}
	ev := actionResult(nowTick, cmd.ID, true, "", "")
	ev["city_id"] = cityID
	c.emit(cmd.Wallet, ev)
}

func handleCmdSelectTraits(c *Clan, cmd protocol.CmdMsg, nowTick uint64) {
	force := ForceNone
	if cmd.ForceRole != "" {
		r, ok := ParseRole(cmd.ForceRole)
		if !ok {
			c.emit(cmd.Wallet, actionResult(nowTick, cmd.ID, false, protocol.ErrInvalidRoleOverride, "force_role is not a defined role"))
			return
		}
		force = int(r)
	}
	override := NoOverride
	if cmd.HasOverride {
		override = cmd.OverrideIndex
	}
	ts, err := c.SelectTraits(cmd.Seed, force, override)
	if err != nil {
		c.emitErr(cmd, nowTick, err)
		return
	}
	ev := actionResult(nowTick, cmd.ID, true, "", "")
	ev["seed"] = cmd.Seed
	ev["role"] = ts.Role.String()
	ev["attributes"] = ts.Attributes[:]
	c.emit(cmd.Wallet, ev)
}

func handleCmdBalance(c *Clan, cmd protocol.CmdMsg, nowTick uint64) {
	ev := actionResult(nowTick, cmd.ID, true, "", "")
	ev["balance"] = c.god.BalanceOf(cmd.Wallet)
	c.emit(cmd.Wallet, ev)
}
