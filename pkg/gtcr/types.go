package gtcr

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Status is the registration state of an item.
type Status uint8

const (
	StatusAbsent Status = iota
	StatusRegistered
	StatusRegistrationRequested
	StatusClearingRequested
)

func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusRegistered:
		return "registered"
	case StatusRegistrationRequested:
		return "registration_requested"
	case StatusClearingRequested:
		return "clearing_requested"
	}
	return "unknown"
}

// HasPendingRequest reports whether a registration or clearing request is open.
func (s Status) HasPendingRequest() bool {
	return s > StatusRegistered
}

// Party is a side of a request as ruled by the arbitrator.
type Party uint8

const (
	PartyNone Party = iota
	PartyRequester
	PartyChallenger
)

// DisputeStatus mirrors the arbitrator's dispute lifecycle.
type DisputeStatus uint8

const (
	DisputeWaiting DisputeStatus = iota
	DisputeAppealable
	DisputeSolved
)

// ZeroID is the identifier of the sentinel entries used to pad fixed-size
// query windows.
var ZeroID common.Hash

// RawItem is an item record exactly as returned by the view contract.
// Data is still encoded; see Item for the decoded form.
type RawItem struct {
	ID                  common.Hash    `json:"id"`
	Data                []byte         `json:"data"`
	Status              Status         `json:"status"`
	Disputed            bool           `json:"disputed"` // the latest request was ever disputed
	Resolved            bool           `json:"resolved"`
	DisputeID           *big.Int       `json:"dispute_id"`
	AppealCost          *big.Int       `json:"appeal_cost"`
	Appealed            bool           `json:"appealed"`
	AppealStart         *big.Int       `json:"appeal_start"`
	AppealEnd           *big.Int       `json:"appeal_end"`
	Ruling              Party          `json:"ruling"`
	Requester           common.Address `json:"requester"`
	Challenger          common.Address `json:"challenger"`
	Arbitrator          common.Address `json:"arbitrator"`
	ArbitratorExtraData []byte         `json:"arbitrator_extra_data"`
	CurrentRuling       Party          `json:"current_ruling"`
	HasPaid             [3]bool        `json:"has_paid"`
	FeeRewards          *big.Int       `json:"fee_rewards"`
	SubmissionTime      *big.Int       `json:"submission_time"`
	AmountPaid          [3]*big.Int    `json:"amount_paid"`
	DisputeStatus       DisputeStatus  `json:"dispute_status"`
	NumberOfRequests    *big.Int       `json:"number_of_requests"`
}

// IsSentinel reports whether r is a padding entry rather than a real item.
func (r *RawItem) IsSentinel() bool {
	return r.ID == ZeroID
}

// Item is a registry item with its data decoded against the registration
// column schema.
type Item struct {
	RawItem

	// DecodedData holds one value per registration column, in column order.
	DecodedData []any `json:"decoded_data"`

	// ChallengeRemainingTime is the number of seconds left to challenge the
	// pending request. It is 0 when there is no pending request and negative
	// once the challenge period has elapsed.
	ChallengeRemainingTime int64 `json:"challenge_remaining_time"`
}

// ChallengeExpired reports whether a pending request can no longer be challenged.
func (i *Item) ChallengeExpired() bool {
	return i.Status.HasPendingRequest() && i.ChallengeRemainingTime <= 0
}

// Cursor is a position in the registry's item index returned by the view
// contract's page finder.
type Cursor struct {
	Index   uint64 `json:"index"`
	HasMore bool   `json:"has_more"`
	Found   bool   `json:"found"`
}

// PageTarget is the page-finding request sent to the view contract.
type PageTarget struct {
	Page            uint64
	ItemsPerPage    uint64
	ItemsPerRequest uint64
	CursorSeed      uint64
}

// Window is a request for a fixed-size window of items starting at a cursor.
type Window struct {
	CursorIndex uint64
	Count       uint64
	Filter      Filter
	OldestFirst bool
	Account     common.Address
	Limit       uint64
}

// Page is one page of decoded items.
type Page struct {
	Items   []Item `json:"items"`
	HasMore bool   `json:"has_more"`
	Cursor  Cursor `json:"cursor"`
}

// RawLog is an undecoded contract log.
type RawLog struct {
	Address     common.Address
	Topics      []common.Hash
	Data        []byte
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
}

// LogQuery scopes a log lookup to one contract event over an inclusive block range.
type LogQuery struct {
	Address   common.Address
	Event     string
	FromBlock uint64
	ToBlock   uint64
}

// DecodedEvent is a contract log decoded against the contract ABI.
type DecodedEvent struct {
	Name        string         `json:"name"`
	Address     common.Address `json:"address"`
	BlockNumber uint64         `json:"block_number"`
	LogIndex    uint           `json:"log_index"`
	TxHash      common.Hash    `json:"tx_hash"`
	Args        map[string]any `json:"args"`
}

// Network identifies the chain a client is connected to.
type Network struct {
	ChainID *big.Int `json:"chain_id"`
	Name    string   `json:"name"`
}
