package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jmerrifield20/tcrview/pkg/gtcr"
)

// Registry binds the registry contract. It implements gtcr.Registry.
type Registry struct {
	c *contract
}

// Registry returns a binding for the registry contract at address.
func (c *Conn) Registry(address common.Address) *Registry {
	return &Registry{c: c.bind(address, RegistryABI)}
}

func (r *Registry) Address() common.Address { return r.c.address }

func (r *Registry) ItemCount(ctx context.Context) (uint64, error) {
	return r.c.callUint64(ctx, "itemCount")
}

func (r *Registry) ChallengePeriodDuration(ctx context.Context) (uint64, error) {
	return r.c.callUint64(ctx, "challengePeriodDuration")
}

func (r *Registry) Arbitrator(ctx context.Context) (common.Address, error) {
	out, err := r.c.call(ctx, "arbitrator")
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("call arbitrator: unexpected output %T", out[0])
	}
	return addr, nil
}

func (r *Registry) ArbitratorExtraData(ctx context.Context) ([]byte, error) {
	out, err := r.c.call(ctx, "arbitratorExtraData")
	if err != nil {
		return nil, err
	}
	data, ok := out[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("call arbitratorExtraData: unexpected output %T", out[0])
	}
	return data, nil
}

func (r *Registry) SubmissionBaseDeposit(ctx context.Context) (*big.Int, error) {
	return r.c.callBig(ctx, "submissionBaseDeposit")
}

func (r *Registry) RemovalBaseDeposit(ctx context.Context) (*big.Int, error) {
	return r.c.callBig(ctx, "removalBaseDeposit")
}

func (r *Registry) SubmissionChallengeBaseDeposit(ctx context.Context) (*big.Int, error) {
	return r.c.callBig(ctx, "submissionChallengeBaseDeposit")
}

func (r *Registry) RemovalChallengeBaseDeposit(ctx context.Context) (*big.Int, error) {
	return r.c.callBig(ctx, "removalChallengeBaseDeposit")
}

// queryResult mirrors the view contract's QueryResult tuple. Field names
// must match the camel-cased ABI component names.
type queryResult struct {
	ID                  [32]byte
	Data                []byte
	Status              uint8
	Disputed            bool
	Resolved            bool
	DisputeID           *big.Int
	AppealCost          *big.Int
	Appealed            bool
	AppealStart         *big.Int
	AppealEnd           *big.Int
	Ruling              uint8
	Requester           common.Address
	Challenger          common.Address
	Arbitrator          common.Address
	ArbitratorExtraData []byte
	CurrentRuling       uint8
	HasPaid             [3]bool
	FeeRewards          *big.Int
	SubmissionTime      *big.Int
	AmountPaid          [3]*big.Int
	DisputeStatus       uint8
	NumberOfRequests    *big.Int
}

func (q *queryResult) toRaw() gtcr.RawItem {
	return gtcr.RawItem{
		ID:                  q.ID,
		Data:                q.Data,
		Status:              gtcr.Status(q.Status),
		Disputed:            q.Disputed,
		Resolved:            q.Resolved,
		DisputeID:           q.DisputeID,
		AppealCost:          q.AppealCost,
		Appealed:            q.Appealed,
		AppealStart:         q.AppealStart,
		AppealEnd:           q.AppealEnd,
		Ruling:              gtcr.Party(q.Ruling),
		Requester:           q.Requester,
		Challenger:          q.Challenger,
		Arbitrator:          q.Arbitrator,
		ArbitratorExtraData: q.ArbitratorExtraData,
		CurrentRuling:       gtcr.Party(q.CurrentRuling),
		HasPaid:             q.HasPaid,
		FeeRewards:          q.FeeRewards,
		SubmissionTime:      q.SubmissionTime,
		AmountPaid:          q.AmountPaid,
		DisputeStatus:       gtcr.DisputeStatus(q.DisputeStatus),
		NumberOfRequests:    q.NumberOfRequests,
	}
}

// View binds the registry view contract. It implements gtcr.RegistryView.
type View struct {
	c *contract
}

// View returns a binding for the view contract at address.
func (c *Conn) View(address common.Address) *View {
	return &View{c: c.bind(address, ViewABI)}
}

// GetItem implements gtcr.RegistryView.
func (v *View) GetItem(ctx context.Context, registry common.Address, id common.Hash) (gtcr.RawItem, error) {
	out, err := v.c.call(ctx, "getItem", registry, [32]byte(id))
	if err != nil {
		return gtcr.RawItem{}, err
	}
	res := *abi.ConvertType(out[0], new(queryResult)).(*queryResult)
	return res.toRaw(), nil
}

// FindIndexForPage implements gtcr.RegistryView.
func (v *View) FindIndexForPage(ctx context.Context, registry common.Address, t gtcr.PageTarget, filter gtcr.Filter, oldestFirst bool, account common.Address) (gtcr.Cursor, error) {
	targets := [4]*big.Int{
		new(big.Int).SetUint64(t.Page),
		new(big.Int).SetUint64(t.ItemsPerPage),
		new(big.Int).SetUint64(t.ItemsPerRequest),
		new(big.Int).SetUint64(t.CursorSeed),
	}
	var flags [9]bool
	copy(flags[:], filter[:])
	flags[8] = oldestFirst

	out, err := v.c.call(ctx, "findIndexForPage", registry, targets, flags, account)
	if err != nil {
		return gtcr.Cursor{}, err
	}
	index, ok1 := out[0].(*big.Int)
	hasMore, ok2 := out[1].(bool)
	found, ok3 := out[2].(bool)
	if !ok1 || !ok2 || !ok3 {
		return gtcr.Cursor{}, fmt.Errorf("call findIndexForPage: unexpected outputs %T %T %T", out[0], out[1], out[2])
	}
	if !index.IsUint64() {
		return gtcr.Cursor{}, fmt.Errorf("call findIndexForPage: index %s overflows uint64", index)
	}
	return gtcr.Cursor{Index: index.Uint64(), HasMore: hasMore, Found: found}, nil
}

// QueryItems implements gtcr.RegistryView.
func (v *View) QueryItems(ctx context.Context, registry common.Address, w gtcr.Window) ([]gtcr.RawItem, bool, error) {
	out, err := v.c.call(ctx, "queryItems",
		registry,
		new(big.Int).SetUint64(w.CursorIndex),
		new(big.Int).SetUint64(w.Count),
		[8]bool(w.Filter),
		w.OldestFirst,
		w.Account,
		new(big.Int).SetUint64(w.Limit),
	)
	if err != nil {
		return nil, false, err
	}
	results := *abi.ConvertType(out[0], new([]queryResult)).(*[]queryResult)
	hasMore, _ := out[1].(bool)

	items := make([]gtcr.RawItem, len(results))
	for i := range results {
		items[i] = results[i].toRaw()
	}
	return items, hasMore, nil
}

// Arbitrator binds an arbitrator contract. It implements gtcr.Arbitrator.
type Arbitrator struct {
	c *contract
}

// Arbitrator returns a binding for the arbitrator contract at address.
func (c *Conn) Arbitrator(address common.Address) *Arbitrator {
	return &Arbitrator{c: c.bind(address, ArbitratorABI)}
}

// ArbitratorDialer returns a gtcr.ArbitratorDialer backed by this connection.
func (c *Conn) ArbitratorDialer() gtcr.ArbitratorDialer {
	return func(addr common.Address) (gtcr.Arbitrator, error) {
		return c.Arbitrator(addr), nil
	}
}

// ArbitrationCost implements gtcr.Arbitrator.
func (a *Arbitrator) ArbitrationCost(ctx context.Context, extraData []byte) (*big.Int, error) {
	out, err := a.c.call(ctx, "arbitrationCost", extraData)
	if err != nil {
		return nil, err
	}
	cost, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("call arbitrationCost: unexpected output %T", out[0])
	}
	return cost, nil
}
