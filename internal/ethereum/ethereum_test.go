package ethereum

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/jmerrifield20/tcrview/pkg/gtcr"
)

var ctx = context.Background()

var (
	registryAddr = common.HexToAddress("0x1000000000000000000000000000000000000001")
	viewAddr     = common.HexToAddress("0x2000000000000000000000000000000000000002")
	arbAddr      = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

// fakeBackend answers contract calls from per-method handlers returning
// unpacked output values.
type fakeBackend struct {
	abis     []abi.ABI
	handlers map[string]func(args []any) []any
	calls    map[string]int
	logs     []types.Log
	filters  []geth.FilterQuery
	height   uint64
	header   *types.Header
	callErr  error
}

func newFakeBackend(abis ...abi.ABI) *fakeBackend {
	return &fakeBackend{
		abis:     abis,
		handlers: make(map[string]func([]any) []any),
		calls:    make(map[string]int),
	}
}

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) CallContract(_ context.Context, call geth.CallMsg, _ *big.Int) ([]byte, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	for _, a := range f.abis {
		m, err := a.MethodById(call.Data[:4])
		if err != nil {
			continue
		}
		h, ok := f.handlers[m.Name]
		if !ok {
			return nil, fmt.Errorf("no handler for %s", m.Name)
		}
		args, err := m.Inputs.Unpack(call.Data[4:])
		if err != nil {
			return nil, err
		}
		f.calls[m.Name]++
		return m.Outputs.Pack(h(args)...)
	}
	return nil, errors.New("unknown selector")
}

func (f *fakeBackend) BlockNumber(context.Context) (uint64, error) { return f.height, nil }

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return f.header, nil
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) { return big.NewInt(100), nil }

func (f *fakeBackend) FilterLogs(_ context.Context, q geth.FilterQuery) ([]types.Log, error) {
	f.filters = append(f.filters, q)
	return f.logs, nil
}

func TestEventCodec_roundTrip(t *testing.T) {
	ec := DefaultEventCodec()

	topics, data, err := ec.Encode("MetaEvidence", big.NewInt(2), "/ipfs/QmReg/reg.json")
	if err != nil {
		t.Fatal(err)
	}
	if len(topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(topics))
	}

	ev, err := ec.Decode(gtcr.RawLog{Address: registryAddr, Topics: topics, Data: data, BlockNumber: 7})
	if err != nil {
		t.Fatal(err)
	}
	if ev.Name != "MetaEvidence" {
		t.Errorf("name: got %q", ev.Name)
	}
	if got := ev.Args["_evidence"]; got != "/ipfs/QmReg/reg.json" {
		t.Errorf("_evidence: got %v", got)
	}
	if got, _ := ev.Args["_metaEvidenceID"].(*big.Int); got == nil || got.Int64() != 2 {
		t.Errorf("_metaEvidenceID: got %v", ev.Args["_metaEvidenceID"])
	}
	if ev.BlockNumber != 7 || ev.Address != registryAddr {
		t.Errorf("metadata not carried over: %+v", ev)
	}
}

func TestEventCodec_indexedOnly(t *testing.T) {
	ec := DefaultEventCodec()
	deployed := common.HexToAddress("0xabc0000000000000000000000000000000000abc")

	topics, data, err := ec.Encode("NewGTCR", deployed)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty data for indexed-only event, got %d bytes", len(data))
	}
	ev, err := ec.Decode(gtcr.RawLog{Topics: topics})
	if err != nil {
		t.Fatal(err)
	}
	if got := ev.Args["_address"]; got != deployed {
		t.Errorf("_address: got %v, want %v", got, deployed)
	}
}

func TestEventCodec_errors(t *testing.T) {
	ec := DefaultEventCodec()

	if _, err := ec.Topic("Nope"); err == nil {
		t.Error("expected error for unknown event name")
	}
	if _, _, err := ec.Encode("MetaEvidence", big.NewInt(1)); err == nil {
		t.Error("expected error for wrong argument count")
	}
	if _, err := ec.Decode(gtcr.RawLog{}); err == nil {
		t.Error("expected error for log without topics")
	}
	if _, err := ec.Decode(gtcr.RawLog{Topics: []common.Hash{{0x01}}}); err == nil {
		t.Error("expected error for unknown topic")
	}
}

func TestConn_QueryLogs(t *testing.T) {
	b := newFakeBackend()
	ec := DefaultEventCodec()
	topics, data, err := ec.Encode("MetaEvidence", big.NewInt(0), "/ipfs/a")
	if err != nil {
		t.Fatal(err)
	}
	b.logs = []types.Log{
		{Address: registryAddr, Topics: topics, Data: data, BlockNumber: 5, Index: 1},
		{Address: registryAddr, Topics: topics, Data: data, BlockNumber: 6, Removed: true},
	}
	c := NewConn(b)

	logs, err := c.QueryLogs(ctx, gtcr.LogQuery{Address: registryAddr, Event: "MetaEvidence", FromBlock: 1, ToBlock: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected removed log to be dropped, got %d logs", len(logs))
	}
	if logs[0].BlockNumber != 5 || logs[0].LogIndex != 1 {
		t.Errorf("unexpected log: %+v", logs[0])
	}

	q := b.filters[0]
	if q.FromBlock.Uint64() != 1 || q.ToBlock.Uint64() != 10 {
		t.Errorf("range: got [%s, %s]", q.FromBlock, q.ToBlock)
	}
	if q.Topics[0][0] != topics[0] {
		t.Errorf("topic filter: got %s", q.Topics[0][0].Hex())
	}

	if _, err := c.QueryLogs(ctx, gtcr.LogQuery{Event: "Nope"}); err == nil {
		t.Error("expected error for unknown event")
	}
}

func TestConn_LatestBlockTime(t *testing.T) {
	b := newFakeBackend()
	b.header = &types.Header{Time: 1_700_000_000}
	c := NewConn(b, WithRateLimit(1000, 10))

	ts, err := c.LatestBlockTime(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ts != 1_700_000_000 {
		t.Errorf("got %d", ts)
	}
}

func TestConn_rateLimitHonoursContext(t *testing.T) {
	c := NewConn(newFakeBackend(), WithRateLimit(0.001, 1))
	if _, err := c.BlockNumber(ctx); err != nil {
		t.Fatal(err)
	}
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := c.BlockNumber(cctx); err == nil {
		t.Error("expected limiter wait to fail on cancelled context")
	}
}

func TestRegistry_calls(t *testing.T) {
	b := newFakeBackend(RegistryABI)
	b.handlers["itemCount"] = func([]any) []any { return []any{big.NewInt(42)} }
	b.handlers["challengePeriodDuration"] = func([]any) []any { return []any{big.NewInt(3600)} }
	b.handlers["arbitrator"] = func([]any) []any { return []any{arbAddr} }
	b.handlers["arbitratorExtraData"] = func([]any) []any { return []any{[]byte{0x01, 0x02}} }
	b.handlers["submissionBaseDeposit"] = func([]any) []any { return []any{big.NewInt(1000)} }

	r := NewConn(b).Registry(registryAddr)
	if r.Address() != registryAddr {
		t.Errorf("address: got %s", r.Address().Hex())
	}

	n, err := r.ItemCount(ctx)
	if err != nil || n != 42 {
		t.Errorf("ItemCount: got %d, %v", n, err)
	}
	d, err := r.ChallengePeriodDuration(ctx)
	if err != nil || d != 3600 {
		t.Errorf("ChallengePeriodDuration: got %d, %v", d, err)
	}
	a, err := r.Arbitrator(ctx)
	if err != nil || a != arbAddr {
		t.Errorf("Arbitrator: got %s, %v", a.Hex(), err)
	}
	extra, err := r.ArbitratorExtraData(ctx)
	if err != nil || !bytes.Equal(extra, []byte{0x01, 0x02}) {
		t.Errorf("ArbitratorExtraData: got %x, %v", extra, err)
	}
	dep, err := r.SubmissionBaseDeposit(ctx)
	if err != nil || dep.Int64() != 1000 {
		t.Errorf("SubmissionBaseDeposit: got %v, %v", dep, err)
	}

	if _, err := r.RemovalBaseDeposit(ctx); err == nil {
		t.Error("expected error from unhandled method")
	}
}

func sampleResult(id byte, status uint8) queryResult {
	return queryResult{
		ID:               [32]byte{id},
		Data:             []byte{0xc0},
		Status:           status,
		DisputeID:        big.NewInt(0),
		AppealCost:       big.NewInt(0),
		AppealStart:      big.NewInt(0),
		AppealEnd:        big.NewInt(0),
		Requester:        common.HexToAddress("0x4000000000000000000000000000000000000004"),
		FeeRewards:       big.NewInt(0),
		SubmissionTime:   big.NewInt(1_600_000_000),
		AmountPaid:       [3]*big.Int{big.NewInt(0), big.NewInt(5), big.NewInt(0)},
		HasPaid:          [3]bool{false, true, false},
		NumberOfRequests: big.NewInt(1),
	}
}

func TestView_GetItem(t *testing.T) {
	b := newFakeBackend(ViewABI)
	var gotRegistry common.Address
	b.handlers["getItem"] = func(args []any) []any {
		gotRegistry = args[0].(common.Address)
		return []any{sampleResult(args[1].([32]byte)[0], 2)}
	}

	v := NewConn(b).View(viewAddr)
	item, err := v.GetItem(ctx, registryAddr, common.Hash{0x07})
	if err != nil {
		t.Fatal(err)
	}
	if gotRegistry != registryAddr {
		t.Errorf("registry arg: got %s", gotRegistry.Hex())
	}
	if item.ID != (common.Hash{0x07}) {
		t.Errorf("id: got %s", item.ID.Hex())
	}
	if item.Status != gtcr.StatusRegistrationRequested {
		t.Errorf("status: got %s", item.Status)
	}
	if item.SubmissionTime.Int64() != 1_600_000_000 {
		t.Errorf("submission time: got %s", item.SubmissionTime)
	}
	if !item.HasPaid[1] || item.AmountPaid[1].Int64() != 5 {
		t.Errorf("payments not converted: %+v %+v", item.HasPaid, item.AmountPaid)
	}
}

func TestView_FindIndexForPage(t *testing.T) {
	b := newFakeBackend(ViewABI)
	var targets [4]*big.Int
	var flags [9]bool
	b.handlers["findIndexForPage"] = func(args []any) []any {
		targets = args[1].([4]*big.Int)
		flags = args[2].([9]bool)
		return []any{big.NewInt(17), true, true}
	}

	v := NewConn(b).View(viewAddr)
	cur, err := v.FindIndexForPage(ctx, registryAddr,
		gtcr.PageTarget{Page: 3, ItemsPerPage: 10, ItemsPerRequest: 100, CursorSeed: 4},
		gtcr.DefaultFilter, true, common.Address{})
	if err != nil {
		t.Fatal(err)
	}
	if cur != (gtcr.Cursor{Index: 17, HasMore: true, Found: true}) {
		t.Errorf("cursor: got %+v", cur)
	}
	if targets[0].Uint64() != 3 || targets[1].Uint64() != 10 || targets[2].Uint64() != 100 || targets[3].Uint64() != 4 {
		t.Errorf("targets: got %v", targets)
	}
	for i := 0; i < 8; i++ {
		if flags[i] != gtcr.DefaultFilter[i] {
			t.Errorf("filter flag %d: got %v", i, flags[i])
		}
	}
	if !flags[8] {
		t.Error("oldest-first flag not forwarded")
	}
}

func TestView_QueryItems(t *testing.T) {
	b := newFakeBackend(ViewABI)
	b.handlers["queryItems"] = func(args []any) []any {
		count := args[2].(*big.Int).Int64()
		out := make([]queryResult, count)
		out[0] = sampleResult(0x01, 1)
		for i := 1; i < len(out); i++ {
			out[i] = sampleResult(0, 0)
		}
		return []any{out, false}
	}

	v := NewConn(b).View(viewAddr)
	items, hasMore, err := v.QueryItems(ctx, registryAddr, gtcr.Window{Count: 3, Filter: gtcr.DefaultFilter})
	if err != nil {
		t.Fatal(err)
	}
	if hasMore {
		t.Error("expected hasMore=false")
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 records, got %d", len(items))
	}
	if items[0].IsSentinel() || !items[1].IsSentinel() {
		t.Errorf("sentinel padding not preserved")
	}
}

func TestArbitrator_ArbitrationCost(t *testing.T) {
	b := newFakeBackend(ArbitratorABI)
	b.handlers["arbitrationCost"] = func(args []any) []any {
		if !bytes.Equal(args[0].([]byte), []byte{0xaa}) {
			return []any{big.NewInt(0)}
		}
		return []any{big.NewInt(250)}
	}

	c := NewConn(b)
	arb, err := c.ArbitratorDialer()(arbAddr)
	if err != nil {
		t.Fatal(err)
	}
	cost, err := arb.ArbitrationCost(ctx, []byte{0xaa})
	if err != nil {
		t.Fatal(err)
	}
	if cost.Int64() != 250 {
		t.Errorf("cost: got %s", cost)
	}
}

func TestContract_callErrorWrapped(t *testing.T) {
	b := newFakeBackend(RegistryABI)
	b.callErr = errors.New("connection refused")

	_, err := NewConn(b).Registry(registryAddr).ItemCount(ctx)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, b.callErr) {
		t.Errorf("expected wrapped backend error, got %v", err)
	}
}
