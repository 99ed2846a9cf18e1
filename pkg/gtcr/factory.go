package gtcr

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// NewGTCREvent is the factory event emitted for every registry it deploys.
const NewGTCREvent = "NewGTCR"

// Factory lists the registries deployed by a registry factory contract.
type Factory struct {
	address common.Address
	sweeper *eventSweeper
}

// NewFactory creates a Factory reading the factory contract at address.
func NewFactory(ledger LedgerClient, address common.Address, opts ...Option) (*Factory, error) {
	if ledger == nil {
		return nil, errors.New("ledger is required")
	}
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Factory{address: address, sweeper: newEventSweeper(ledger, cfg)}, nil
}

// Address returns the factory contract address.
func (f *Factory) Address() common.Address { return f.address }

// Addresses returns the addresses of every registry deployed by the factory,
// in deployment order.
func (f *Factory) Addresses(ctx context.Context) ([]common.Address, error) {
	events, err := f.sweeper.events(ctx, f.address, NewGTCREvent)
	if err != nil {
		return nil, err
	}
	addrs := make([]common.Address, 0, len(events))
	for _, ev := range events {
		a, ok := ev.Args["_address"].(common.Address)
		if !ok {
			return nil, fmt.Errorf("%s event at block %d has no _address argument", NewGTCREvent, ev.BlockNumber)
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}
