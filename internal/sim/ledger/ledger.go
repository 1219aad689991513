// Package ledger implements the GOD fungible-currency ledger: balances,
// mint/burn/transfer, and the controller allowlist gating who may mint.
package ledger

import (
	"errors"
	"sort"
)

var (
	ErrUnauthorized        = errors.New("caller is not a controller")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBadAmount           = errors.New("amount must be positive")
)

// GOD is an in-memory currency ledger. It is not safe for concurrent use;
// all access happens inside the clan loop's critical section.
type GOD struct {
	balances    map[string]uint64
	controllers map[string]struct{}

	totalMinted uint64
	totalBurned uint64
}

func New() *GOD {
	return &GOD{
		balances:    map[string]uint64{},
		controllers: map[string]struct{}{},
	}
}

func (g *GOD) AddController(addr string) {
	g.controllers[addr] = struct{}{}
}

func (g *GOD) RemoveController(addr string) {
	delete(g.controllers, addr)
}

func (g *GOD) IsController(addr string) bool {
	_, ok := g.controllers[addr]
	return ok
}

// Mint credits newly created currency to an account. Only allowlisted
// controllers may mint.
func (g *GOD) Mint(caller, to string, amount uint64) error {
	if !g.IsController(caller) {
		return ErrUnauthorized
	}
	if amount == 0 {
		return ErrBadAmount
	}
	g.balances[to] += amount
	g.totalMinted += amount
	return nil
}

// Burn destroys currency held by an account.
func (g *GOD) Burn(from string, amount uint64) error {
	if amount == 0 {
		return ErrBadAmount
	}
	if g.balances[from] < amount {
		return ErrInsufficientBalance
	}
	g.balances[from] -= amount
	g.totalBurned += amount
	return nil
}

func (g *GOD) Transfer(from, to string, amount uint64) error {
	if amount == 0 {
		return ErrBadAmount
	}
	if g.balances[from] < amount {
		return ErrInsufficientBalance
	}
	g.balances[from] -= amount
	g.balances[to] += amount
	return nil
}

func (g *GOD) BalanceOf(owner string) uint64 {
	return g.balances[owner]
}

// TotalSupply is everything minted minus everything burned. The conservation
// law tests check that circulating balances always sum to this.
func (g *GOD) TotalSupply() uint64 {
	return g.totalMinted - g.totalBurned
}

// Balances returns a copy of all non-zero balances.
func (g *GOD) Balances() map[string]uint64 {
	out := make(map[string]uint64, len(g.balances))
	for k, v := range g.balances {
		if v > 0 {
			out[k] = v
		}
	}
	return out
}

// Controllers returns the allowlist in stable order.
func (g *GOD) Controllers() []string {
	out := make([]string, 0, len(g.controllers))
	for c := range g.controllers {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Restore replaces ledger state from a snapshot.
func (g *GOD) Restore(balances map[string]uint64, controllers []string, minted, burned uint64) {
	g.balances = map[string]uint64{}
	for k, v := range balances {
		g.balances[k] = v
	}
	g.controllers = map[string]struct{}{}
	for _, c := range controllers {
		g.controllers[c] = struct{}{}
	}
	g.totalMinted = minted
	g.totalBurned = burned
}

func (g *GOD) Totals() (minted, burned uint64) {
	return g.totalMinted, g.totalBurned
}
