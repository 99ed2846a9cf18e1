package gtcr

import (
	"errors"
	"math/big"
	"testing"
	"time"
)

func TestSchemaCache_expiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := newSchemaCache(time.Minute)
	c.now = func() time.Time { return now }

	if _, ok := c.get(); ok {
		t.Fatal("empty cache reported a hit")
	}
	p := &MetaEvidencePair{RegistrationURI: "/ipfs/a"}
	c.set(p)
	if got, ok := c.get(); !ok || got != p {
		t.Fatal("expected a hit right after set")
	}

	now = now.Add(61 * time.Second)
	if _, ok := c.get(); ok {
		t.Error("expected entry to expire after ttl")
	}

	c.set(p)
	c.invalidate()
	if _, ok := c.get(); ok {
		t.Error("expected miss after invalidate")
	}
}

func TestNeedsLastPageFallback(t *testing.T) {
	tests := []struct {
		name   string
		cursor Cursor
		opts   resolved
		want   bool
	}{
		{"newest first, later page, index 0", Cursor{Index: 0}, resolved{page: 4}, true},
		{"first page", Cursor{Index: 0}, resolved{page: 1}, false},
		{"oldest first", Cursor{Index: 0}, resolved{page: 4, oldestFirst: true}, false},
		{"non-zero index", Cursor{Index: 3}, resolved{page: 4}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsLastPageFallback(tt.cursor, tt.opts); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	w := lastPageFallback(resolved{page: 4, itemsPerPage: 10, filter: DefaultFilter})
	if w.CursorIndex != 0 || w.Count != 1 || !w.OldestFirst {
		t.Errorf("fallback window: got %+v", w)
	}
}

func TestChallengeRemaining(t *testing.T) {
	if got := challengeRemaining(big.NewInt(1_000), 3_600, 2_000); got != 2_600 {
		t.Errorf("got %d, want 2600", got)
	}
	if got := challengeRemaining(big.NewInt(1_000), 3_600, 10_000); got != -5_400 {
		t.Errorf("got %d, want -5400", got)
	}
	if got := challengeRemaining(nil, 60, 0); got != 60 {
		t.Errorf("nil submission time: got %d, want 60", got)
	}
}

func TestProviderErr_doesNotDoubleWrap(t *testing.T) {
	if providerErr("op", nil) != nil {
		t.Error("nil error must stay nil")
	}
	inner := &ProviderError{Op: "inner", Err: errors.New("x")}
	var pe *ProviderError
	if !errors.As(providerErr("outer", inner), &pe) || pe.Op != "inner" {
		t.Errorf("expected the inner provider error to be kept, got %v", pe)
	}
}

func TestQueryOptions_resolveDefaults(t *testing.T) {
	var o *QueryOptions
	r := o.resolve()
	if r.page != 1 || r.itemsPerPage != 100 || r.itemsPerRequest != 1000 || r.filter != DefaultFilter || r.oldestFirst {
		t.Errorf("defaults: got %+v", r)
	}

	f := Filter{true}
	r = (&QueryOptions{Page: 3, ItemsPerPage: 5, Filter: &f, OldestFirst: true}).resolve()
	if r.page != 3 || r.itemsPerPage != 5 || r.filter != f || !r.oldestFirst {
		t.Errorf("overrides: got %+v", r)
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("registered, disputed_clearing")
	if err != nil {
		t.Fatal(err)
	}
	if !f[IncludeRegistered] || !f[IncludeDisputedClearing] || f[IncludeAbsent] {
		t.Errorf("got %v", f)
	}
	if f.String() != "registered,disputed_clearing" {
		t.Errorf("String: got %q", f.String())
	}
	if def, _ := ParseFilter(""); def != DefaultFilter {
		t.Error("empty string should yield DefaultFilter")
	}
	if _, err := ParseFilter("bogus"); err == nil {
		t.Error("expected error for unknown flag")
	}
}
