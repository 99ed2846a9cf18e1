package doccache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmerrifield20/tcrview/internal/doccache"
	"github.com/jmerrifield20/tcrview/internal/memchain"
	"github.com/jmerrifield20/tcrview/pkg/metaevidence"
	"github.com/redis/go-redis/v9"
)

var ctx = context.Background()

func setup(t *testing.T, opts ...doccache.Option) (*miniredis.Miniredis, *memchain.Files, *doccache.Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	files := memchain.NewFiles()
	files.Put("/ipfs/doc", []byte(`{"title":"doc"}`))
	return mr, files, doccache.New(rdb, files, opts...)
}

func TestFetch_readThrough(t *testing.T) {
	mr, files, c := setup(t)

	for i := 0; i < 3; i++ {
		data, err := c.Fetch(ctx, "/ipfs/doc")
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != `{"title":"doc"}` {
			t.Errorf("got %q", data)
		}
	}
	if got := files.Fetches("/ipfs/doc"); got != 1 {
		t.Errorf("expected 1 upstream fetch, got %d", got)
	}
	if !mr.Exists("tcr:doc:/ipfs/doc") {
		t.Error("expected document to be stored in redis")
	}
}

func TestFetch_ttl(t *testing.T) {
	mr, files, c := setup(t, doccache.WithTTL(time.Minute), doccache.WithPrefix("test:"))

	if _, err := c.Fetch(ctx, "/ipfs/doc"); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL("test:/ipfs/doc"); ttl != time.Minute {
		t.Errorf("ttl: got %s", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := c.Fetch(ctx, "/ipfs/doc"); err != nil {
		t.Fatal(err)
	}
	if got := files.Fetches("/ipfs/doc"); got != 2 {
		t.Errorf("expected refetch after expiry, got %d fetches", got)
	}
}

func TestFetch_missNotCached(t *testing.T) {
	mr, _, c := setup(t)

	_, err := c.Fetch(ctx, "/ipfs/missing")
	if !errors.Is(err, metaevidence.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if mr.Exists("tcr:doc:/ipfs/missing") {
		t.Error("failed fetches must not be cached")
	}
}

func TestFetch_redisDown(t *testing.T) {
	mr, files, c := setup(t)
	mr.Close()

	data, err := c.Fetch(ctx, "/ipfs/doc")
	if err != nil {
		t.Fatalf("expected fallback to upstream, got %v", err)
	}
	if len(data) == 0 || files.Fetches("/ipfs/doc") != 1 {
		t.Error("expected the document from upstream")
	}
}

func TestInvalidate(t *testing.T) {
	mr, files, c := setup(t)

	if _, err := c.Fetch(ctx, "/ipfs/doc"); err != nil {
		t.Fatal(err)
	}
	if err := c.Invalidate(ctx, "/ipfs/doc"); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("tcr:doc:/ipfs/doc") {
		t.Error("expected key to be removed")
	}
	if _, err := c.Fetch(ctx, "/ipfs/doc"); err != nil {
		t.Fatal(err)
	}
	if got := files.Fetches("/ipfs/doc"); got != 2 {
		t.Errorf("expected refetch after invalidate, got %d", got)
	}
}
