// Package ethereum binds the registry interfaces of package gtcr to an EVM
// JSON-RPC endpoint using go-ethereum.
package ethereum

import (
	"context"
	"fmt"
	"math/big"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/jmerrifield20/tcrview/pkg/gtcr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Backend is the subset of ethclient.Client used by this package.
type Backend interface {
	bind.ContractCaller
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	ChainID(ctx context.Context) (*big.Int, error)
	FilterLogs(ctx context.Context, q geth.FilterQuery) ([]types.Log, error)
}

// Conn is a rate-limited connection to an EVM node. Every RPC issued through
// the ledger or a contract binding obtained from it shares one limiter.
type Conn struct {
	backend Backend
	limiter *rate.Limiter // nil = unlimited
	events  *EventCodec
	logger  *zap.Logger
	closer  func()
}

// Option is a functional option for configuring a Conn.
type Option func(*Conn)

// WithRateLimit caps outbound RPCs at rps requests per second with the given
// burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Conn) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Conn) { c.logger = logger }
}

// WithEventCodec replaces the codec used to resolve and decode events.
func WithEventCodec(ec *EventCodec) Option {
	return func(c *Conn) { c.events = ec }
}

// NewConn wraps an existing backend.
func NewConn(backend Backend, opts ...Option) *Conn {
	c := &Conn{
		backend: backend,
		events:  DefaultEventCodec(),
		logger:  zap.NewNop(),
		closer:  func() {},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Dial connects to the JSON-RPC endpoint at rawURL.
func Dial(ctx context.Context, rawURL string, opts ...Option) (*Conn, error) {
	client, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}
	c := NewConn(client, opts...)
	c.closer = client.Close
	return c, nil
}

// Close releases the underlying RPC connection.
func (c *Conn) Close() { c.closer() }

func (c *Conn) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// CodeAt implements bind.ContractCaller.
func (c *Conn) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.backend.CodeAt(ctx, contract, blockNumber)
}

// CallContract implements bind.ContractCaller.
func (c *Conn) CallContract(ctx context.Context, call geth.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.backend.CallContract(ctx, call, blockNumber)
}

// BlockNumber implements gtcr.LedgerClient.
func (c *Conn) BlockNumber(ctx context.Context) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	return c.backend.BlockNumber(ctx)
}

// LatestBlockTime implements gtcr.LedgerClient.
func (c *Conn) LatestBlockTime(ctx context.Context) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	h, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, err
	}
	return h.Time, nil
}

// ChainID implements gtcr.LedgerClient.
func (c *Conn) ChainID(ctx context.Context) (*big.Int, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.backend.ChainID(ctx)
}

// QueryLogs implements gtcr.LedgerClient. Logs removed by a reorg are dropped.
func (c *Conn) QueryLogs(ctx context.Context, q gtcr.LogQuery) ([]gtcr.RawLog, error) {
	topic, err := c.events.Topic(q.Event)
	if err != nil {
		return nil, err
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	logs, err := c.backend.FilterLogs(ctx, geth.FilterQuery{
		FromBlock: new(big.Int).SetUint64(q.FromBlock),
		ToBlock:   new(big.Int).SetUint64(q.ToBlock),
		Addresses: []common.Address{q.Address},
		Topics:    [][]common.Hash{{topic}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]gtcr.RawLog, 0, len(logs))
	for _, l := range logs {
		if l.Removed {
			continue
		}
		out = append(out, gtcr.RawLog{
			Address:     l.Address,
			Topics:      l.Topics,
			Data:        l.Data,
			BlockNumber: l.BlockNumber,
			TxHash:      l.TxHash,
			LogIndex:    l.Index,
		})
	}
	return out, nil
}

// DecodeLog implements gtcr.LedgerClient.
func (c *Conn) DecodeLog(l gtcr.RawLog) (gtcr.DecodedEvent, error) {
	return c.events.Decode(l)
}

// contract is a read-only contract binding issuing calls through a Conn.
type contract struct {
	address common.Address
	bound   *bind.BoundContract
}

func (c *Conn) bind(address common.Address, parsed abi.ABI) *contract {
	return &contract{
		address: address,
		bound:   bind.NewBoundContract(address, parsed, c, nil, nil),
	}
}

// call invokes a view method and returns its unpacked outputs.
func (k *contract) call(ctx context.Context, method string, params ...any) ([]any, error) {
	var out []any
	if err := k.bound.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	return out, nil
}

func (k *contract) callBig(ctx context.Context, method string) (*big.Int, error) {
	out, err := k.call(ctx, method)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("call %s: unexpected output %T", method, out[0])
	}
	return v, nil
}

func (k *contract) callUint64(ctx context.Context, method string) (uint64, error) {
	v, err := k.callBig(ctx, method)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("call %s: %s overflows uint64", method, v)
	}
	return v.Uint64(), nil
}
