package gtcr

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jmerrifield20/tcrview/pkg/sweep"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// eventSweeper fetches a contract's event history in block windows.
type eventSweeper struct {
	ledger           LedgerClient
	fromBlock        uint64
	blocksPerRequest uint64
	maxConcurrent    int
	observer         Observer
	logger           *zap.Logger
}

func newEventSweeper(ledger LedgerClient, cfg settings) *eventSweeper {
	return &eventSweeper{
		ledger:           ledger,
		fromBlock:        cfg.deploymentBlock,
		blocksPerRequest: cfg.blocksPerRequest,
		maxConcurrent:    cfg.maxConcurrent,
		observer:         cfg.observer,
		logger:           cfg.logger,
	}
}

// events returns every eventName log emitted by address from the deployment
// block up to the current height, decoded and in chain order.
//
// One log query is issued per interval. Queries run concurrently; each
// writes its own slot so the merged result is ordered by interval, not by
// completion.
func (s *eventSweeper) events(ctx context.Context, address common.Address, eventName string) ([]DecodedEvent, error) {
	height, err := s.ledger.BlockNumber(ctx)
	if err != nil {
		return nil, providerErr("get block number", err)
	}

	intervals := sweep.Intervals(s.fromBlock, height, s.blocksPerRequest)
	if len(intervals) == 0 {
		s.logger.Warn("chain height below deployment block",
			zap.Uint64("height", height),
			zap.Uint64("deployment_block", s.fromBlock),
		)
		return nil, nil
	}

	slots := make([][]RawLog, len(intervals))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for i, iv := range intervals {
		i, iv := i, iv
		g.Go(func() error {
			start := time.Now()
			logs, err := s.ledger.QueryLogs(gctx, LogQuery{
				Address:   address,
				Event:     eventName,
				FromBlock: iv.FromBlock,
				ToBlock:   iv.ToBlock,
			})
			if s.observer != nil {
				s.observer.ObserveLogQuery(eventName, iv.Width(), len(logs), err, time.Since(start).Seconds())
			}
			if err != nil {
				return &ProviderError{
					Op:       fmt.Sprintf("query %s logs", eventName),
					Interval: &iv,
					Err:      err,
				}
			}
			s.logger.Debug("log window fetched",
				zap.String("event", eventName),
				zap.Uint64("from", iv.FromBlock),
				zap.Uint64("to", iv.ToBlock),
				zap.Int("logs", len(logs)),
			)
			slots[i] = logs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var n int
	for _, logs := range slots {
		n += len(logs)
	}
	events := make([]DecodedEvent, 0, n)
	for _, logs := range slots {
		for _, l := range logs {
			ev, err := s.ledger.DecodeLog(l)
			if err != nil {
				return nil, fmt.Errorf("decode %s log at block %d: %w", eventName, l.BlockNumber, err)
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

// Events returns every eventName event emitted by the registry, in chain order.
func (c *Client) Events(ctx context.Context, eventName string) ([]DecodedEvent, error) {
	return c.sweeper.events(ctx, c.registry.Address(), eventName)
}
