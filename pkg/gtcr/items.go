package gtcr

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jmerrifield20/tcrview/pkg/metaevidence"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Items returns the items on the requested page, decoded against the
// registration column schema. An empty registry yields an empty slice.
func (c *Client) Items(ctx context.Context, opts *QueryOptions) ([]Item, error) {
	p, err := c.Page(ctx, opts)
	if err != nil {
		return nil, err
	}
	return p.Items, nil
}

// Page is like Items but also reports whether more items follow and the
// cursor the page was read from.
func (c *Client) Page(ctx context.Context, opts *QueryOptions) (page *Page, err error) {
	o := opts.resolve()
	start := time.Now()
	cursorRequests := 0
	defer func() {
		if c.cfg.observer != nil {
			n := 0
			if page != nil {
				n = len(page.Items)
			}
			c.cfg.observer.ObserveItemQuery("page", n, cursorRequests, err, time.Since(start).Seconds())
		}
	}()

	var (
		itemCount uint64
		pair      *MetaEvidencePair
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := c.registry.ItemCount(gctx)
		if err != nil {
			return providerErr("get item count", err)
		}
		itemCount = n
		return nil
	})
	g.Go(func() error {
		p, err := c.LatestMetaEvidence(gctx)
		pair = p
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if itemCount == 0 {
		return &Page{Items: []Item{}}, nil
	}

	cursor, n, err := c.findCursor(ctx, itemCount, o)
	cursorRequests = n
	if err != nil {
		return nil, err
	}

	var w Window
	if needsLastPageFallback(cursor, o) {
		w = lastPageFallback(o)
	} else {
		w = Window{
			CursorIndex: cursor.Index,
			Count:       o.itemsPerPage,
			Filter:      o.filter,
			OldestFirst: o.oldestFirst,
			Account:     o.account,
			Limit:       o.limit,
		}
	}

	raw, hasMore, err := c.view.QueryItems(ctx, c.registry.Address(), w)
	if err != nil {
		return nil, providerErr("query items", err)
	}

	items, err := c.decodeItems(withoutSentinels(raw), pair.Columns())
	if err != nil {
		return nil, err
	}

	c.cfg.logger.Debug("items page fetched",
		zap.Uint64("page", o.page),
		zap.Uint64("cursor", cursor.Index),
		zap.Bool("cursor_found", cursor.Found),
		zap.Int("cursor_requests", cursorRequests),
		zap.Int("items", len(items)),
	)
	return &Page{Items: items, HasMore: hasMore, Cursor: cursor}, nil
}

// findCursor resolves the index where the requested page starts.
//
// The view contract scans the item list linearly and times out on large
// registries, so the scan is split into requests of itemsPerRequest items,
// each resuming from the index the previous one returned.
func (c *Client) findCursor(ctx context.Context, itemCount uint64, o resolved) (Cursor, int, error) {
	requests := (itemCount + o.itemsPerRequest - 1) / o.itemsPerRequest
	cursor := Cursor{HasMore: itemCount > 0}
	n := 0
	for uint64(n) < requests && !cursor.Found {
		next, err := c.view.FindIndexForPage(ctx, c.registry.Address(), PageTarget{
			Page:            o.page,
			ItemsPerPage:    o.itemsPerPage,
			ItemsPerRequest: o.itemsPerRequest,
			CursorSeed:      cursor.Index,
		}, o.filter, o.oldestFirst, o.account)
		n++
		if err != nil {
			return Cursor{}, n, providerErr("find index for page", err)
		}
		cursor = next
	}
	return cursor, n, nil
}

// needsLastPageFallback reports whether cursor is ambiguous.
//
// When listing newest first, the view contract treats cursor index 0 as
// "start from the newest item". The page finder also returns 0 when the
// requested page is the last one and holds only the oldest item, so for any
// page but the first, index 0 must be read as that single oldest item.
func needsLastPageFallback(cursor Cursor, o resolved) bool {
	return cursor.Index == 0 && !o.oldestFirst && o.page != 1
}

// lastPageFallback reads the single item at index 0 in oldest-first order.
func lastPageFallback(o resolved) Window {
	return Window{
		CursorIndex: 0,
		Count:       1,
		Filter:      o.filter,
		OldestFirst: true,
		Account:     o.account,
		Limit:       o.limit,
	}
}

func withoutSentinels(raw []RawItem) []RawItem {
	out := make([]RawItem, 0, len(raw))
	for i := range raw {
		if !raw[i].IsSentinel() {
			out = append(out, raw[i])
		}
	}
	return out
}

func (c *Client) decodeItems(raw []RawItem, columns []metaevidence.Column) ([]Item, error) {
	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		item, err := c.decodeItem(r, columns)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *Client) decodeItem(r RawItem, columns []metaevidence.Column) (Item, error) {
	values, err := c.cfg.codec.Decode(columns, r.Data)
	if err != nil {
		return Item{}, &DecodeError{ItemID: r.ID, Err: err}
	}
	return Item{RawItem: r, DecodedData: values}, nil
}

// Item returns a single item by ID. When the item has a pending request,
// ChallengeRemainingTime is set from the registry's challenge period and
// the latest block timestamp.
//
// Disputed reports whether the latest request was ever disputed, not
// whether a dispute is currently open.
func (c *Client) Item(ctx context.Context, id common.Hash) (item *Item, err error) {
	start := time.Now()
	defer func() {
		if c.cfg.observer != nil {
			n := 0
			if item != nil {
				n = 1
			}
			c.cfg.observer.ObserveItemQuery("item", n, 0, err, time.Since(start).Seconds())
		}
	}()

	var (
		pair *MetaEvidencePair
		raw  RawItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := c.LatestMetaEvidence(gctx)
		pair = p
		return err
	})
	g.Go(func() error {
		r, err := c.view.GetItem(gctx, c.registry.Address(), id)
		if err != nil {
			return providerErr("get item", err)
		}
		raw = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(raw.Data) == 0 {
		return nil, fmt.Errorf("item %s: %w", id.Hex(), ErrItemNotFound)
	}
	decoded, err := c.decodeItem(raw, pair.Columns())
	if err != nil {
		return nil, err
	}

	if raw.Status.HasPendingRequest() {
		remaining, err := c.challengeRemainingTime(ctx, raw.SubmissionTime)
		if err != nil {
			return nil, err
		}
		decoded.ChallengeRemainingTime = remaining
	}
	return &decoded, nil
}

func (c *Client) challengeRemainingTime(ctx context.Context, submissionTime *big.Int) (int64, error) {
	var duration, now uint64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := c.registry.ChallengePeriodDuration(gctx)
		if err != nil {
			return providerErr("get challenge period duration", err)
		}
		duration = d
		return nil
	})
	g.Go(func() error {
		t, err := c.ledger.LatestBlockTime(gctx)
		if err != nil {
			return providerErr("get latest block", err)
		}
		now = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return challengeRemaining(submissionTime, duration, now), nil
}

// challengeRemaining returns submission + duration - now in seconds.
// A negative result means the challenge period has elapsed.
func challengeRemaining(submissionTime *big.Int, duration, now uint64) int64 {
	var submitted int64
	if submissionTime != nil && submissionTime.IsInt64() {
		submitted = submissionTime.Int64()
	}
	return submitted + int64(duration) - int64(now)
}
