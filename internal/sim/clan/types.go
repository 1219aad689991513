package clan

import (
	"fmt"

	"dwarfclan.game/internal/sim/catalogs"
)

// Role is the explicit tagged variant for role-dependent behavior. All
// role branching lives in city.go and risk.go.
type Role uint8

const (
	RoleTrader Role = iota
	RoleGuardian
)

func (r Role) String() string {
	switch r {
	case RoleTrader:
		return "TRADER"
	case RoleGuardian:
		return "GUARDIAN"
	default:
		return fmt.Sprintf("ROLE_%d", uint8(r))
	}
}

// ParseRole maps the wire form back to a Role. ok is false for anything
// that is not one of the two defined roles.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "TRADER":
		return RoleTrader, true
	case "GUARDIAN":
		return RoleGuardian, true
	default:
		return RoleTrader, false
	}
}

// TraitSet is assigned once at mint time and immutable thereafter, except
// for Tier which investment raises in place.
type TraitSet struct {
	Role       Role
	Attributes [catalogs.AttrSlots]uint8
	Tier       uint8
}

// Strength is a guardian's contribution to its city's deterrence weight,
// decoded from the final attribute slot. Traders have no strength.
func (t TraitSet) Strength() int {
	if t.Role != RoleGuardian {
		return 0
	}
	return int(t.Attributes[catalogs.AttrSlots-1])
}

// City is a bounded staking location partitioned into role slots. Created
// lazily, never destroyed.
type City struct {
	ID             int
	Traders        map[uint64]struct{}
	Guardians      map[uint64]struct{}
	GuardianWeight int
}

func newCity(id int) *City {
	return &City{
		ID:        id,
		Traders:   map[uint64]struct{}{},
		Guardians: map[uint64]struct{}{},
	}
}

// StakePosition tracks one staked asset. AccruedUnclaimed holds yield
// carried over from risk redistribution, on top of the linear accrual
// since StakedAtTick.
type StakePosition struct {
	AssetID          uint64
	CityID           int
	Role             Role
	StakedAtTick     uint64
	AccruedUnclaimed uint64
}

// ClaimOutcome reports one asset's resolved claim.
type ClaimOutcome struct {
	AssetID   uint64 `json:"asset_id"`
	Payout    uint64 `json:"payout"`
	Forfeited uint64 `json:"forfeited"`
	Risky     bool   `json:"risky"`
}

// OpError is a rejected transaction: a protocol error code plus detail.
// Every failure is a rejection surfaced before any state mutation.
type OpError struct {
	Code    string
	Message string
}

func (e *OpError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

func opErr(code, message string) *OpError {
	return &OpError{Code: code, Message: message}
}

// ErrCode extracts the protocol code from an operation error.
func ErrCode(err error) string {
	if err == nil {
		return ""
	}
	if oe, ok := err.(*OpError); ok {
		return oe.Code
	}
	return ""
}

// ClaimLogEntry is one resolved claim, written to the claim log and the
// read-model index.
type ClaimLogEntry struct {
	Tick      uint64 `json:"tick"`
	Wallet    string `json:"wallet"`
	AssetID   uint64 `json:"asset_id"`
	CityID    int    `json:"city_id"`
	Role      string `json:"role"`
	Risky     bool   `json:"risky"`
	Payout    uint64 `json:"payout"`
	Forfeited uint64 `json:"forfeited"`
}

// AuditEntry records a state-mutating operation.
type AuditEntry struct {
	Tick    uint64 `json:"tick"`
	Actor   string `json:"actor"`
	Op      string `json:"op"`
	AssetID uint64 `json:"asset_id,omitempty"`
	CityID  int    `json:"city_id,omitempty"`
	Amount  uint64 `json:"amount,omitempty"`
	Detail  string `json:"detail,omitempty"`
}
