package memchain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jmerrifield20/tcrview/pkg/gtcr"
)

// Deposits holds the base deposits of a registry.
type Deposits struct {
	Submission          *big.Int
	Removal             *big.Int
	SubmissionChallenge *big.Int
	RemovalChallenge    *big.Int
}

// Registry is an in-memory registry contract. It implements gtcr.Registry.
// Items are indexed in insertion order.
type Registry struct {
	address common.Address

	mu                  sync.RWMutex
	items               []gtcr.RawItem
	challengePeriod     uint64
	arbitrator          common.Address
	arbitratorExtraData []byte
	deposits            Deposits
	failCalls           error
}

// NewRegistry creates an empty registry at address.
func NewRegistry(address common.Address) *Registry {
	zero := big.NewInt(0)
	return &Registry{
		address:  address,
		deposits: Deposits{Submission: zero, Removal: zero, SubmissionChallenge: zero, RemovalChallenge: zero},
	}
}

// AddItem appends item to the item list and returns its index.
func (r *Registry) AddItem(item gtcr.RawItem) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
	return uint64(len(r.items) - 1)
}

// SetChallengePeriod sets the challenge period in seconds.
func (r *Registry) SetChallengePeriod(seconds uint64) {
	r.mu.Lock()
	r.challengePeriod = seconds
	r.mu.Unlock()
}

// SetArbitrator sets the arbitrator address and extra data.
func (r *Registry) SetArbitrator(addr common.Address, extraData []byte) {
	r.mu.Lock()
	r.arbitrator = addr
	r.arbitratorExtraData = extraData
	r.mu.Unlock()
}

// SetDeposits sets the base deposits.
func (r *Registry) SetDeposits(d Deposits) {
	r.mu.Lock()
	r.deposits = d
	r.mu.Unlock()
}

// FailCalls makes every call on the registry and on views over it return
// err. A nil err clears the failure.
func (r *Registry) FailCalls(err error) {
	r.mu.Lock()
	r.failCalls = err
	r.mu.Unlock()
}

func (r *Registry) Address() common.Address { return r.address }

func (r *Registry) ItemCount(_ context.Context) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failCalls != nil {
		return 0, r.failCalls
	}
	return uint64(len(r.items)), nil
}

func (r *Registry) ChallengePeriodDuration(_ context.Context) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failCalls != nil {
		return 0, r.failCalls
	}
	return r.challengePeriod, nil
}

func (r *Registry) Arbitrator(_ context.Context) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failCalls != nil {
		return common.Address{}, r.failCalls
	}
	return r.arbitrator, nil
}

func (r *Registry) ArbitratorExtraData(_ context.Context) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failCalls != nil {
		return nil, r.failCalls
	}
	return r.arbitratorExtraData, nil
}

func (r *Registry) SubmissionBaseDeposit(_ context.Context) (*big.Int, error) {
	return r.deposit(func(d Deposits) *big.Int { return d.Submission })
}

func (r *Registry) RemovalBaseDeposit(_ context.Context) (*big.Int, error) {
	return r.deposit(func(d Deposits) *big.Int { return d.Removal })
}

func (r *Registry) SubmissionChallengeBaseDeposit(_ context.Context) (*big.Int, error) {
	return r.deposit(func(d Deposits) *big.Int { return d.SubmissionChallenge })
}

func (r *Registry) RemovalChallengeBaseDeposit(_ context.Context) (*big.Int, error) {
	return r.deposit(func(d Deposits) *big.Int { return d.RemovalChallenge })
}

func (r *Registry) deposit(pick func(Deposits) *big.Int) (*big.Int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failCalls != nil {
		return nil, r.failCalls
	}
	return new(big.Int).Set(pick(r.deposits)), nil
}

// snapshot returns a copy of the item list.
func (r *Registry) snapshot() ([]gtcr.RawItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failCalls != nil {
		return nil, r.failCalls
	}
	return append([]gtcr.RawItem(nil), r.items...), nil
}

// Arbitrator is an in-memory arbitrator quoting a fixed cost.
// It implements gtcr.Arbitrator.
type Arbitrator struct {
	Cost *big.Int
}

// ArbitrationCost implements gtcr.Arbitrator.
func (a *Arbitrator) ArbitrationCost(_ context.Context, _ []byte) (*big.Int, error) {
	return new(big.Int).Set(a.Cost), nil
}

// Dialer returns a gtcr.ArbitratorDialer resolving the given arbitrators.
func Dialer(arbitrators map[common.Address]*Arbitrator) gtcr.ArbitratorDialer {
	return func(addr common.Address) (gtcr.Arbitrator, error) {
		a, ok := arbitrators[addr]
		if !ok {
			return nil, fmt.Errorf("no arbitrator at %s", addr.Hex())
		}
		return a, nil
	}
}
