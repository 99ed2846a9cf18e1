package gtcr

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jmerrifield20/tcrview/pkg/metaevidence"
)

// LedgerClient is the read-only view of the chain used to sweep logs.
type LedgerClient interface {
	// BlockNumber returns the current chain height.
	BlockNumber(ctx context.Context) (uint64, error)

	// LatestBlockTime returns the unix timestamp of the latest block.
	LatestBlockTime(ctx context.Context) (uint64, error)

	// ChainID returns the chain identifier.
	ChainID(ctx context.Context) (*big.Int, error)

	// QueryLogs returns the logs of one event emitted by one contract in an
	// inclusive block range, in chain order.
	QueryLogs(ctx context.Context, q LogQuery) ([]RawLog, error)

	// DecodeLog decodes a log returned by QueryLogs.
	DecodeLog(log RawLog) (DecodedEvent, error)
}

// Registry exposes the read-only calls of the registry contract.
type Registry interface {
	Address() common.Address
	ItemCount(ctx context.Context) (uint64, error)
	ChallengePeriodDuration(ctx context.Context) (uint64, error)
	Arbitrator(ctx context.Context) (common.Address, error)
	ArbitratorExtraData(ctx context.Context) ([]byte, error)
	SubmissionBaseDeposit(ctx context.Context) (*big.Int, error)
	RemovalBaseDeposit(ctx context.Context) (*big.Int, error)
	SubmissionChallengeBaseDeposit(ctx context.Context) (*big.Int, error)
	RemovalChallengeBaseDeposit(ctx context.Context) (*big.Int, error)
}

// RegistryView exposes the batched read helpers of the view contract.
type RegistryView interface {
	GetItem(ctx context.Context, registry common.Address, id common.Hash) (RawItem, error)

	// FindIndexForPage scans at most target.ItemsPerRequest items starting
	// at target.CursorSeed and reports the index where the requested page
	// starts, if found.
	FindIndexForPage(ctx context.Context, registry common.Address, target PageTarget, filter Filter, oldestFirst bool, account common.Address) (Cursor, error)

	// QueryItems returns a window of exactly w.Count records, padded with
	// sentinel entries, and whether more items follow.
	QueryItems(ctx context.Context, registry common.Address, w Window) ([]RawItem, bool, error)
}

// Arbitrator quotes the cost of raising a dispute.
type Arbitrator interface {
	ArbitrationCost(ctx context.Context, extraData []byte) (*big.Int, error)
}

// ArbitratorDialer binds the arbitrator contract at addr.
type ArbitratorDialer func(addr common.Address) (Arbitrator, error)

// DocumentFetcher retrieves a meta-evidence document by URI.
type DocumentFetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// SchemaCodec decodes an item payload against a column schema.
type SchemaCodec interface {
	Decode(columns []metaevidence.Column, raw []byte) ([]any, error)
}

// Observer receives timing information about remote round trips.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveLogQuery(event string, blocks uint64, events int, err error, seconds float64)
	ObserveItemQuery(op string, items int, cursorRequests int, err error, seconds float64)
}
