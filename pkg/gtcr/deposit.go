package gtcr

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// ErrNoArbitratorDialer is returned by the deposit calculations when the
// client was created without WithArbitratorDialer.
var ErrNoArbitratorDialer = errors.New("no arbitrator dialer configured")

// SubmissionDeposit returns the total amount in wei required to submit an item.
func (c *Client) SubmissionDeposit(ctx context.Context) (*big.Int, error) {
	return c.deposit(ctx, "submission base deposit", c.registry.SubmissionBaseDeposit)
}

// SubmissionChallengeDeposit returns the total amount in wei required to
// challenge a submission.
func (c *Client) SubmissionChallengeDeposit(ctx context.Context) (*big.Int, error) {
	return c.deposit(ctx, "submission challenge base deposit", c.registry.SubmissionChallengeBaseDeposit)
}

// RemovalDeposit returns the total amount in wei required to request the
// removal of an item.
func (c *Client) RemovalDeposit(ctx context.Context) (*big.Int, error) {
	return c.deposit(ctx, "removal base deposit", c.registry.RemovalBaseDeposit)
}

// RemovalChallengeDeposit returns the total amount in wei required to
// challenge a removal request.
func (c *Client) RemovalChallengeDeposit(ctx context.Context) (*big.Int, error) {
	return c.deposit(ctx, "removal challenge base deposit", c.registry.RemovalChallengeBaseDeposit)
}

// Deposits groups every deposit amount of the registry.
type Deposits struct {
	Submission          *big.Int `json:"submission"`
	SubmissionChallenge *big.Int `json:"submission_challenge"`
	Removal             *big.Int `json:"removal"`
	RemovalChallenge    *big.Int `json:"removal_challenge"`
}

// AllDeposits computes every deposit amount concurrently.
func (c *Client) AllDeposits(ctx context.Context) (*Deposits, error) {
	var d Deposits
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { d.Submission, err = c.SubmissionDeposit(gctx); return })
	g.Go(func() (err error) { d.SubmissionChallenge, err = c.SubmissionChallengeDeposit(gctx); return })
	g.Go(func() (err error) { d.Removal, err = c.RemovalDeposit(gctx); return })
	g.Go(func() (err error) { d.RemovalChallenge, err = c.RemovalChallengeDeposit(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

// deposit returns base + the arbitration cost quoted by the registry's
// arbitrator for its extra data.
func (c *Client) deposit(ctx context.Context, name string, base func(context.Context) (*big.Int, error)) (*big.Int, error) {
	if c.cfg.dialArbitrator == nil {
		return nil, ErrNoArbitratorDialer
	}

	var (
		arbitratorAddr common.Address
		extraData      []byte
		baseDeposit    *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := c.registry.Arbitrator(gctx)
		arbitratorAddr = a
		return providerErr("get arbitrator", err)
	})
	g.Go(func() error {
		d, err := c.registry.ArbitratorExtraData(gctx)
		extraData = d
		return providerErr("get arbitrator extra data", err)
	})
	g.Go(func() error {
		b, err := base(gctx)
		baseDeposit = b
		return providerErr("get "+name, err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	arbitrator, err := c.cfg.dialArbitrator(arbitratorAddr)
	if err != nil {
		return nil, fmt.Errorf("bind arbitrator %s: %w", arbitratorAddr.Hex(), err)
	}
	cost, err := arbitrator.ArbitrationCost(ctx, extraData)
	if err != nil {
		return nil, providerErr("get arbitration cost", err)
	}
	return new(big.Int).Add(baseDeposit, cost), nil
}
