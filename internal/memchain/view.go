package memchain

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jmerrifield20/tcrview/pkg/gtcr"
)

// View is an in-memory view contract over a set of registries.
// It implements gtcr.RegistryView with the same cursor conventions as the
// deployed view contract: when listing newest first, cursor index 0 means
// "start from the newest item".
type View struct {
	mu         sync.RWMutex
	registries map[common.Address]*Registry
	calls      map[string]int
}

// NewView creates a view over registries.
func NewView(registries ...*Registry) *View {
	v := &View{
		registries: make(map[common.Address]*Registry),
		calls:      make(map[string]int),
	}
	for _, r := range registries {
		v.registries[r.Address()] = r
	}
	return v
}

// Calls returns how many times method was called.
func (v *View) Calls(method string) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.calls[method]
}

func (v *View) items(registry common.Address, method string) ([]gtcr.RawItem, error) {
	v.mu.Lock()
	v.calls[method]++
	r, ok := v.registries[registry]
	v.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no registry at %s", registry.Hex())
	}
	return r.snapshot()
}

// GetItem implements gtcr.RegistryView. Unknown IDs yield a zero record.
func (v *View) GetItem(_ context.Context, registry common.Address, id common.Hash) (gtcr.RawItem, error) {
	items, err := v.items(registry, "getItem")
	if err != nil {
		return gtcr.RawItem{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return gtcr.RawItem{}, nil
}

// order maps ordering positions to item indexes.
func order(n uint64, oldestFirst bool) func(p uint64) uint64 {
	if oldestFirst {
		return func(p uint64) uint64 { return p }
	}
	return func(p uint64) uint64 { return n - 1 - p }
}

// position maps a cursor index back to an ordering position.
func position(n, index uint64, oldestFirst bool) uint64 {
	if oldestFirst {
		return index
	}
	if index == 0 {
		return 0
	}
	return n - 1 - index
}

// FindIndexForPage implements gtcr.RegistryView.
//
// Matches are counted from the start of the ordering, but the call only
// looks ItemsPerRequest positions past the cursor seed. When the page start
// lies beyond that, the index of the next unscanned position is returned
// with Found unset so the caller can resume from it.
func (v *View) FindIndexForPage(_ context.Context, registry common.Address, t gtcr.PageTarget, filter gtcr.Filter, oldestFirst bool, account common.Address) (gtcr.Cursor, error) {
	items, err := v.items(registry, "findIndexForPage")
	if err != nil {
		return gtcr.Cursor{}, err
	}
	n := uint64(len(items))
	if n == 0 {
		return gtcr.Cursor{Found: true}, nil
	}
	if t.Page <= 1 {
		return gtcr.Cursor{Index: 0, HasMore: true, Found: true}, nil
	}

	at := order(n, oldestFirst)
	end := position(n, t.CursorSeed, oldestFirst) + t.ItemsPerRequest
	if end > n {
		end = n
	}
	target := (t.Page - 1) * t.ItemsPerPage

	var matched uint64
	for p := uint64(0); p < end; p++ {
		item := items[at(p)]
		if !filter.Matches(&item, account) {
			continue
		}
		if matched == target {
			return gtcr.Cursor{Index: at(p), HasMore: p < n-1, Found: true}, nil
		}
		matched++
	}
	if end == n {
		return gtcr.Cursor{Index: at(n - 1), HasMore: false}, nil
	}
	return gtcr.Cursor{Index: at(end), HasMore: true}, nil
}

// QueryItems implements gtcr.RegistryView. The result always holds exactly
// w.Count records; unused slots are zero-ID sentinels.
func (v *View) QueryItems(_ context.Context, registry common.Address, w gtcr.Window) ([]gtcr.RawItem, bool, error) {
	items, err := v.items(registry, "queryItems")
	if err != nil {
		return nil, false, err
	}
	out := make([]gtcr.RawItem, w.Count)
	n := uint64(len(items))
	if n == 0 || w.Count == 0 {
		return out, false, nil
	}

	at := order(n, w.OldestFirst)
	start := position(n, w.CursorIndex, w.OldestFirst)

	var filled, scanned uint64
	hasMore := false
	for p := start; p < n; p++ {
		if w.Limit > 0 && scanned >= w.Limit {
			break
		}
		item := items[at(p)]
		scanned++
		if !w.Filter.Matches(&item, w.Account) {
			continue
		}
		if filled == w.Count {
			hasMore = true
			break
		}
		out[filled] = item
		filled++
	}
	return out, hasMore, nil
}
