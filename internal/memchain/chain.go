// Package memchain is an in-memory stand-in for a chain hosting a curated
// registry. It implements the gtcr client interfaces for tests.
package memchain

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jmerrifield20/tcrview/internal/ethereum"
	"github.com/jmerrifield20/tcrview/pkg/gtcr"
)

// Chain is an in-memory, thread-safe log store. It implements
// gtcr.LedgerClient.
type Chain struct {
	mu        sync.RWMutex
	codec     *ethereum.EventCodec
	chainID   *big.Int
	height    uint64
	blockTime uint64
	logs      []gtcr.RawLog

	logQueries int
	failLogs   func(gtcr.LogQuery) error
}

// NewChain creates an empty chain with the given chain ID.
func NewChain(chainID int64) *Chain {
	return &Chain{
		codec:   ethereum.DefaultEventCodec(),
		chainID: big.NewInt(chainID),
	}
}

// Emit records event name emitted by address at block. args follow the
// event's declaration order. The chain height is raised to block if needed.
func (c *Chain) Emit(address common.Address, block uint64, name string, args ...any) (gtcr.RawLog, error) {
	topics, data, err := c.codec.Encode(name, args...)
	if err != nil {
		return gtcr.RawLog{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var index uint
	for _, l := range c.logs {
		if l.BlockNumber == block {
			index++
		}
	}
	l := gtcr.RawLog{
		Address:     address,
		Topics:      topics,
		Data:        data,
		BlockNumber: block,
		TxHash:      common.BigToHash(big.NewInt(int64(len(c.logs) + 1))),
		LogIndex:    index,
	}
	c.logs = append(c.logs, l)
	sort.SliceStable(c.logs, func(i, j int) bool {
		return c.logs[i].BlockNumber < c.logs[j].BlockNumber
	})
	if block > c.height {
		c.height = block
	}
	return l, nil
}

// SetHeight sets the current block number.
func (c *Chain) SetHeight(h uint64) {
	c.mu.Lock()
	c.height = h
	c.mu.Unlock()
}

// SetBlockTime sets the timestamp of the latest block.
func (c *Chain) SetBlockTime(t uint64) {
	c.mu.Lock()
	c.blockTime = t
	c.mu.Unlock()
}

// LogQueries returns how many QueryLogs calls were served.
func (c *Chain) LogQueries() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logQueries
}

// FailLogQueries makes QueryLogs return the error fn reports for a query.
// A nil fn clears the failure.
func (c *Chain) FailLogQueries(fn func(gtcr.LogQuery) error) {
	c.mu.Lock()
	c.failLogs = fn
	c.mu.Unlock()
}

// BlockNumber implements gtcr.LedgerClient.
func (c *Chain) BlockNumber(_ context.Context) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height, nil
}

// LatestBlockTime implements gtcr.LedgerClient.
func (c *Chain) LatestBlockTime(_ context.Context) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blockTime, nil
}

// ChainID implements gtcr.LedgerClient.
func (c *Chain) ChainID(_ context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.chainID), nil
}

// QueryLogs implements gtcr.LedgerClient.
func (c *Chain) QueryLogs(ctx context.Context, q gtcr.LogQuery) ([]gtcr.RawLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	topic, err := c.codec.Topic(q.Event)
	if err != nil {
		return nil, err
	}
	if q.FromBlock > q.ToBlock {
		return nil, fmt.Errorf("invalid block range [%d, %d]", q.FromBlock, q.ToBlock)
	}

	c.mu.Lock()
	c.logQueries++
	fail := c.failLogs
	c.mu.Unlock()
	if fail != nil {
		if err := fail(q); err != nil {
			return nil, err
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []gtcr.RawLog
	for _, l := range c.logs {
		if l.Address != q.Address || l.Topics[0] != topic {
			continue
		}
		if l.BlockNumber < q.FromBlock || l.BlockNumber > q.ToBlock {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// DecodeLog implements gtcr.LedgerClient.
func (c *Chain) DecodeLog(l gtcr.RawLog) (gtcr.DecodedEvent, error) {
	return c.codec.Decode(l)
}
