package gtcr

import "github.com/ethereum/go-ethereum/common"

const (
	defaultItemsPerPage    = 100
	defaultItemsPerRequest = 1000
)

// QueryOptions configures an item query. Zero values select the defaults:
// newest items first, DefaultFilter, page 1, 100 items per page, 1000 items
// scanned per page-finding request, the zero account and no limit.
type QueryOptions struct {
	// OldestFirst returns the oldest items first.
	OldestFirst bool

	// Filter selects which items are returned. Nil means DefaultFilter.
	Filter *Filter

	// Page is the 1-based page to return. It accounts for Filter.
	Page uint64

	// ItemsPerPage is the page size.
	ItemsPerPage uint64

	// ItemsPerRequest bounds how many items the view contract scans per
	// page-finding call.
	ItemsPerRequest uint64

	// Account is matched by the requested-by and challenged-by filter flags.
	Account common.Address

	// Limit caps the number of items scanned by the window query. 0 = no cap.
	Limit uint64
}

// resolved is QueryOptions with all defaults applied.
type resolved struct {
	oldestFirst     bool
	filter          Filter
	page            uint64
	itemsPerPage    uint64
	itemsPerRequest uint64
	account         common.Address
	limit           uint64
}

func (o *QueryOptions) resolve() resolved {
	r := resolved{
		filter:          DefaultFilter,
		page:            1,
		itemsPerPage:    defaultItemsPerPage,
		itemsPerRequest: defaultItemsPerRequest,
	}
	if o == nil {
		return r
	}
	r.oldestFirst = o.OldestFirst
	if o.Filter != nil {
		r.filter = *o.Filter
	}
	if o.Page > 0 {
		r.page = o.Page
	}
	if o.ItemsPerPage > 0 {
		r.itemsPerPage = o.ItemsPerPage
	}
	if o.ItemsPerRequest > 0 {
		r.itemsPerRequest = o.ItemsPerRequest
	}
	r.account = o.Account
	r.limit = o.Limit
	return r
}
