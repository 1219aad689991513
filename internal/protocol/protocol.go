package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeCatalog = "CATALOG"
	TypeCmd     = "CMD"
	TypeEvent   = "EVENT"
)

// Command operations carried by CMD messages.
const (
	OpMint            = "MINT"
	OpAddToCity       = "ADD_TO_CITY"
	OpAddMerchant     = "ADD_MERCHANT_TO_CITY"
	OpClaimMany       = "CLAIM_MANY"
	OpInvest          = "INVEST"
	OpGetTraits       = "GET_TRAITS"
	OpGetCity         = "GET_CITY"
	OpAvailableCity   = "AVAILABLE_CITY"
	OpSelectTraits    = "SELECT_TRAITS"
	OpBalance         = "BALANCE"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
