package clan

import (
	"testing"

	"dwarfclan.game/internal/protocol"
)

func TestClaimMany_PayoutAndReset(t *testing.T) {
	c, assets, god := newTestClan(testConfig())
	tr := mintTrader(c, assets, "w1")
	if err := c.AddTokenToCity("w1", tr, 1, 0); err != nil {
		t.Fatalf("stake: %v", err)
	}

	outcomes, err := c.ClaimManyFromClan("w1", []uint64{tr}, false, 10)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Payout != 1000 || outcomes[0].Forfeited != 0 {
		t.Fatalf("outcomes: %+v", outcomes)
	}
	if got := god.BalanceOf("w1"); got != 1000 {
		t.Fatalf("balance: got %d want 1000", got)
	}
	// Claiming resets accrual but never unstakes.
	if c.positions[tr] == nil {
		t.Fatalf("claim unstaked the asset")
	}
	if got := c.PendingYield(tr, 10); got != 0 {
		t.Fatalf("pending after claim: got %d want 0", got)
	}
	if got := c.PendingYield(tr, 15); got != 500 {
		t.Fatalf("accrual restarts from claim tick: got %d want 500", got)
	}
}

func TestClaimMany_BatchAtomicity(t *testing.T) {
	c, assets, god := newTestClan(testConfig())
	tr := mintTrader(c, assets, "w1")
	unstaked := mintTrader(c, assets, "w1")
	if err := c.AddTokenToCity("w1", tr, 1, 0); err != nil {
		t.Fatalf("stake: %v", err)
	}

	_, err := c.ClaimManyFromClan("w1", []uint64{tr, unstaked}, false, 10)
	if ErrCode(err) != protocol.ErrNotStaked {
		t.Fatalf("got %v want %s", err, protocol.ErrNotStaked)
	}
	// The valid element must be untouched by the failed batch.
	if got := god.BalanceOf("w1"); got != 0 {
		t.Fatalf("balance minted despite rejection: %d", got)
	}
	if got := c.positions[tr].StakedAtTick; got != 0 {
		t.Fatalf("position reset despite rejection: staked_at=%d", got)
	}
	if got := c.PendingYield(tr, 10); got != 1000 {
		t.Fatalf("pending lost: got %d want 1000", got)
	}
}

func TestClaimMany_Rejections(t *testing.T) {
	c, assets, _ := newTestClan(testConfig())
	tr := mintTrader(c, assets, "w1")
	if err := c.AddTokenToCity("w1", tr, 1, 0); err != nil {
		t.Fatalf("stake: %v", err)
	}

	if _, err := c.ClaimManyFromClan("w1", nil, false, 10); ErrCode(err) != protocol.ErrBadRequest {
		t.Fatalf("empty batch: got %v", err)
	}
	if _, err := c.ClaimManyFromClan("w1", []uint64{tr, tr}, false, 10); ErrCode(err) != protocol.ErrConflict {
		t.Fatalf("duplicate: got %v", err)
	}
	if _, err := c.ClaimManyFromClan("w2", []uint64{tr}, false, 10); ErrCode(err) != protocol.ErrNotOwner {
		t.Fatalf("foreign wallet: got %v", err)
	}

	c.cfg.StrictRiskValidation = true
	g := mintGuardian(c, assets, "w1", 5)
	if err := c.AddTokenToCity("w1", g, 1, 0); err != nil {
		t.Fatalf("stake guardian: %v", err)
	}
	if _, err := c.ClaimManyFromClan("w1", []uint64{g}, true, 10); ErrCode(err) != protocol.ErrRiskNotApplicable {
		t.Fatalf("strict risky guardian: got %v", err)
	}
}

func TestClaimMany_RequiresControllerGrant(t *testing.T) {
	cfg := testConfig()
	assets, god := newTestClanCollaborators()
	c := New(cfg, testCatalogs(), assets, god, nil) // no AddController
	tr := mintTrader(c, assets, "w1")
	if err := c.AddTokenToCity("w1", tr, 1, 0); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if _, err := c.ClaimManyFromClan("w1", []uint64{tr}, false, 10); ErrCode(err) != protocol.ErrNoPermission {
		t.Fatalf("got %v want %s", err, protocol.ErrNoPermission)
	}
}

func TestClaimMany_ForfeitFlowsToGuardians(t *testing.T) {
	c, assets, god := newTestClan(testConfig())
	c.draws = fixedSource{v: 0} // roll 0: every risky trader claim forfeits
	tr := mintTrader(c, assets, "w1")
	g1 := mintGuardian(c, assets, "w2", 5)
	g2 := mintGuardian(c, assets, "w2", 7)
	for _, s := range []struct {
		wallet string
		id     uint64
	}{{"w1", tr}, {"w2", g1}, {"w2", g2}} {
		if err := c.AddTokenToCity(s.wallet, s.id, 1, 0); err != nil {
			t.Fatalf("stake %d: %v", s.id, err)
		}
	}

	outcomes, err := c.ClaimManyFromClan("w1", []uint64{tr}, true, 10)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if outcomes[0].Payout != 0 || outcomes[0].Forfeited != 1000 {
		t.Fatalf("outcome: %+v", outcomes[0])
	}
	// Forfeits move claim rights, not minted currency.
	if god.TotalSupply() != 0 {
		t.Fatalf("forfeit minted currency: supply=%d", god.TotalSupply())
	}
	sum := c.positions[g1].AccruedUnclaimed + c.positions[g2].AccruedUnclaimed
	if sum != 1000 {
		t.Fatalf("guardians credited %d, want 1000", sum)
	}

	// The guardians realize the forfeit on their own safe claim.
	c.draws = fixedSource{v: 999}
	outs, err := c.ClaimManyFromClan("w2", []uint64{g1, g2}, false, 10)
	if err != nil {
		t.Fatalf("guardian claim: %v", err)
	}
	var paid uint64
	for _, o := range outs {
		paid += o.Payout
	}
	// 1000 redistributed + 2 guardians * 10 ticks * rate 10.
	if paid != 1200 {
		t.Fatalf("guardian payout %d, want 1200", paid)
	}
	if god.BalanceOf("w2") != 1200 {
		t.Fatalf("w2 balance %d, want 1200", god.BalanceOf("w2"))
	}
}

func TestCurrencyConservation(t *testing.T) {
	c, assets, god := newTestClan(testConfig())
	c.draws = fixedSource{v: 500}
	tr := mintTrader(c, assets, "w1")
	g := mintGuardian(c, assets, "w1", 5)
	for _, id := range []uint64{tr, g} {
		if err := c.AddTokenToCity("w1", id, 1, 0); err != nil {
			t.Fatalf("stake: %v", err)
		}
	}

	if _, err := c.ClaimManyFromClan("w1", []uint64{tr, g}, false, 100); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := c.InvestGods("w1", tr, 150, 101); err != nil {
		t.Fatalf("invest: %v", err)
	}
	if _, err := c.MintAssets("w1", 1, true, 102); err != nil {
		t.Fatalf("mint: %v", err)
	}

	var circulating uint64
	for _, bal := range god.Balances() {
		circulating += bal
	}
	if circulating != god.TotalSupply() {
		t.Fatalf("conservation broken: circulating=%d supply=%d", circulating, god.TotalSupply())
	}
}
