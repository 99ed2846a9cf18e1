package gtcr

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/jmerrifield20/tcrview/pkg/codec"
	"github.com/jmerrifield20/tcrview/pkg/sweep"
	"go.uber.org/zap"
)

// defaultMaxConcurrentRequests bounds in-flight log queries per sweep.
const defaultMaxConcurrentRequests = 8

// settings holds the configuration shared by Client and Factory.
type settings struct {
	logger           *zap.Logger
	deploymentBlock  uint64
	blocksPerRequest uint64
	maxConcurrent    int
	codec            SchemaCodec
	dialArbitrator   ArbitratorDialer
	schemaTTL        time.Duration
	observer         Observer
}

func defaultSettings() settings {
	return settings{
		logger:           zap.NewNop(),
		blocksPerRequest: sweep.BlocksPerRequest(sweep.DefaultBlockTime),
		maxConcurrent:    defaultMaxConcurrentRequests,
		codec:            codec.RLP{},
	}
}

// Option is a functional option for configuring a Client or Factory.
type Option func(*settings) error

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		s.logger = logger
		return nil
	}
}

// WithDeploymentBlock sets the block log sweeps start from. Setting it to
// the contract's deployment block avoids scanning empty history.
func WithDeploymentBlock(block uint64) Option {
	return func(s *settings) error {
		s.deploymentBlock = block
		return nil
	}
}

// WithBlockTime derives the sweep window from the chain's block time so that
// each log request covers four months of blocks.
func WithBlockTime(d time.Duration) Option {
	return func(s *settings) error {
		if d < 0 {
			return fmt.Errorf("block time must be positive, got %s", d)
		}
		s.blocksPerRequest = sweep.BlocksPerRequest(d)
		return nil
	}
}

// WithBlocksPerRequest sets the sweep window directly, overriding WithBlockTime.
func WithBlocksPerRequest(n uint64) Option {
	return func(s *settings) error {
		if n == 0 {
			return errors.New("blocks per request must be positive")
		}
		s.blocksPerRequest = n
		return nil
	}
}

// WithMaxConcurrentRequests bounds the number of log queries in flight
// during one sweep.
func WithMaxConcurrentRequests(n int) Option {
	return func(s *settings) error {
		if n <= 0 {
			return fmt.Errorf("max concurrent requests must be positive, got %d", n)
		}
		s.maxConcurrent = n
		return nil
	}
}

// WithCodec replaces the schema codec used to decode item data.
func WithCodec(c SchemaCodec) Option {
	return func(s *settings) error {
		s.codec = c
		return nil
	}
}

// WithArbitratorDialer enables the deposit calculations.
func WithArbitratorDialer(d ArbitratorDialer) Option {
	return func(s *settings) error {
		s.dialArbitrator = d
		return nil
	}
}

// WithSchemaTTL caches the resolved meta evidence for ttl. The default (0)
// re-resolves the meta evidence on every call.
func WithSchemaTTL(ttl time.Duration) Option {
	return func(s *settings) error {
		s.schemaTTL = ttl
		return nil
	}
}

// WithObserver reports remote call timings to o.
func WithObserver(o Observer) Option {
	return func(s *settings) error {
		s.observer = o
		return nil
	}
}

func applyOptions(opts []Option) (settings, error) {
	s := defaultSettings()
	for _, o := range opts {
		if err := o(&s); err != nil {
			return settings{}, err
		}
	}
	return s, nil
}

// Client is a read-only view of one curated registry.
// It is safe for concurrent use.
type Client struct {
	ledger   LedgerClient
	registry Registry
	view     RegistryView
	fetcher  DocumentFetcher

	cfg     settings
	sweeper *eventSweeper
	schemas *schemaCache // nil = caching disabled

	network atomic.Pointer[Network]
}

// New creates a Client for registry. view is the view contract used for
// batched item reads and fetcher resolves meta-evidence URIs.
func New(ledger LedgerClient, registry Registry, view RegistryView, fetcher DocumentFetcher, opts ...Option) (*Client, error) {
	if ledger == nil || registry == nil || view == nil || fetcher == nil {
		return nil, errors.New("ledger, registry, view and fetcher are required")
	}
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	c := &Client{
		ledger:   ledger,
		registry: registry,
		view:     view,
		fetcher:  fetcher,
		cfg:      cfg,
		sweeper:  newEventSweeper(ledger, cfg),
	}
	if cfg.schemaTTL > 0 {
		c.schemas = newSchemaCache(cfg.schemaTTL)
	}
	return c, nil
}

// MustNew is like New but panics on error. Useful in tests and program init.
func MustNew(ledger LedgerClient, registry Registry, view RegistryView, fetcher DocumentFetcher, opts ...Option) *Client {
	c, err := New(ledger, registry, view, fetcher, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Registry returns the registry contract the client reads from.
func (c *Client) Registry() Registry { return c.registry }

// Network returns the chain the client is connected to. The result is cached
// for the lifetime of the client.
func (c *Client) Network(ctx context.Context) (*Network, error) {
	if n := c.network.Load(); n != nil {
		return n, nil
	}
	id, err := c.ledger.ChainID(ctx)
	if err != nil {
		return nil, providerErr("get chain id", err)
	}
	n := &Network{ChainID: id, Name: NetworkName(id)}
	// A concurrent caller may have stored an identical value first.
	c.network.CompareAndSwap(nil, n)
	return c.network.Load(), nil
}

var networkNames = map[uint64]string{
	1:        "mainnet",
	5:        "goerli",
	10:       "optimism",
	42:       "kovan",
	56:       "bsc",
	100:      "xdai",
	137:      "matic",
	1337:     "unknown",
	42161:    "arbitrum",
	11155111: "sepolia",
}

// NetworkName returns the conventional name of a chain ID, or "unknown".
func NetworkName(chainID *big.Int) string {
	if chainID == nil || !chainID.IsUint64() {
		return "unknown"
	}
	if name, ok := networkNames[chainID.Uint64()]; ok {
		return name
	}
	return "unknown"
}
