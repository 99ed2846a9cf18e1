package gtcr

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Filter selects which items a query returns. Each flag is indexed by one
// of the Include* constants.
type Filter [8]bool

const (
	IncludeAbsent = iota
	IncludeRegistered
	IncludeRegistrationRequested
	IncludeClearingRequested
	IncludeDisputedRegistration
	IncludeDisputedClearing
	IncludeRequestedByAccount
	IncludeChallengedByAccount
)

// DefaultFilter includes every item except absent ones.
var DefaultFilter = Filter{false, true, true, true, true, true, true, true}

var filterNames = [8]string{
	"absent",
	"registered",
	"registration_requested",
	"clearing_requested",
	"disputed_registration",
	"disputed_clearing",
	"requested_by_account",
	"challenged_by_account",
}

// Matches reports whether item passes the filter for account.
func (f Filter) Matches(item *RawItem, account common.Address) bool {
	switch {
	case f[IncludeAbsent] && item.Status == StatusAbsent,
		f[IncludeRegistered] && item.Status == StatusRegistered,
		f[IncludeRegistrationRequested] && item.Status == StatusRegistrationRequested && !item.Disputed,
		f[IncludeClearingRequested] && item.Status == StatusClearingRequested && !item.Disputed,
		f[IncludeDisputedRegistration] && item.Status == StatusRegistrationRequested && item.Disputed,
		f[IncludeDisputedClearing] && item.Status == StatusClearingRequested && item.Disputed,
		f[IncludeRequestedByAccount] && item.Requester == account,
		f[IncludeChallengedByAccount] && item.Challenger == account:
		return true
	}
	return false
}

// String returns the enabled flag names separated by commas.
func (f Filter) String() string {
	var on []string
	for i, v := range f {
		if v {
			on = append(on, filterNames[i])
		}
	}
	return strings.Join(on, ",")
}

// ParseFilter builds a filter from comma-separated flag names. An empty
// string yields DefaultFilter.
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultFilter, nil
	}
	var f Filter
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		idx := -1
		for i, n := range filterNames {
			if n == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return Filter{}, fmt.Errorf("unknown filter flag %q", name)
		}
		f[idx] = true
	}
	return f, nil
}
