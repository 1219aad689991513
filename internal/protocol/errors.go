package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Ownership/authorization.
	ErrNotOwner     = "E_NOT_OWNER"
	ErrNoPermission = "E_NO_PERMISSION"

	// Staking ledger.
	ErrAlreadyStaked   = "E_ALREADY_STAKED"
	ErrNotStaked       = "E_NOT_STAKED"
	ErrCityFull        = "E_CITY_FULL"
	ErrUnknownCity     = "E_UNKNOWN_CITY"
	ErrNoCityAvailable = "E_NO_CITY_AVAILABLE"
	ErrRoleMismatch    = "E_ROLE_MISMATCH"

	// Claims/risk.
	ErrRiskNotApplicable = "E_RISK_NOT_APPLICABLE"

	// Trait generation.
	ErrInvalidRoleOverride = "E_INVALID_ROLE_OVERRIDE"
	ErrTableExhausted      = "E_TABLE_EXHAUSTED"

	// Currency.
	ErrNoBalance = "E_NO_BALANCE"

	// Generic.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrConflict   = "E_CONFLICT"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:     {},
	ErrNotOwner:            {},
	ErrNoPermission:        {},
	ErrAlreadyStaked:       {},
	ErrNotStaked:           {},
	ErrCityFull:            {},
	ErrUnknownCity:         {},
	ErrNoCityAvailable:     {},
	ErrRoleMismatch:        {},
	ErrRiskNotApplicable:   {},
	ErrInvalidRoleOverride: {},
	ErrTableExhausted:      {},
	ErrNoBalance:           {},
	ErrBadRequest:          {},
	ErrConflict:            {},
	ErrInternal:            {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
