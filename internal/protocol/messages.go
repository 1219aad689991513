package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Wallet          string `json:"wallet"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	Wallet          string         `json:"wallet"`
	ClanParams      ClanParams     `json:"clan_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type ClanParams struct {
	ClanID          string `json:"clan_id"`
	TickRateHz      int    `json:"tick_rate_hz"`
	Cities          int    `json:"cities"`
	TraderSlots     int    `json:"trader_slots"`
	GuardianSlots   int    `json:"guardian_slots"`
	MaxAccrualTicks uint64 `json:"max_accrual_ticks"`
}

type CatalogDigests struct {
	TraderTraitsDigest   string `json:"trader_traits_digest"`
	GuardianTraitsDigest string `json:"guardian_traits_digest"`
	TuningDigest         string `json:"tuning_digest,omitempty"`
}

// CATALOG (server -> client): one trait table catalog per message.
type CatalogMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Name            string `json:"name"` // "trader_traits" | "guardian_traits"
	Digest          string `json:"digest"`
	Data            any    `json:"data"`
}

// CMD (client -> server): one clan operation.
type CmdMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"` // client-chosen ref, echoed in the result event
	Op              string `json:"op"`
	Wallet          string `json:"wallet"`

	// MINT
	Quantity       int  `json:"quantity,omitempty"`
	UseAltCurrency bool `json:"use_alt_currency,omitempty"`

	// ADD_TO_CITY / ADD_MERCHANT_TO_CITY / GET_TRAITS / INVEST
	AssetID uint64 `json:"asset_id,omitempty"`
	CityID  int    `json:"city_id,omitempty"`

	// CLAIM_MANY
	AssetIDs []uint64 `json:"asset_ids,omitempty"`
	Risky    bool     `json:"risky,omitempty"`

	// INVEST
	Amount uint64 `json:"amount,omitempty"`

	// SELECT_TRAITS diagnostics.
	Seed          uint64 `json:"seed,omitempty"`
	ForceRole     string `json:"force_role,omitempty"`
	OverrideIndex int    `json:"override_index,omitempty"`
	HasOverride   bool   `json:"has_override,omitempty"`
}

// Event is a loosely-typed server -> client event payload.
type Event map[string]any
