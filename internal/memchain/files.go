package memchain

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmerrifield20/tcrview/pkg/metaevidence"
)

// Files is an in-memory document store keyed by URI. It implements
// gtcr.DocumentFetcher.
type Files struct {
	mu      sync.RWMutex
	docs    map[string][]byte
	fetches map[string]int
}

// NewFiles creates an empty store.
func NewFiles() *Files {
	return &Files{docs: make(map[string][]byte), fetches: make(map[string]int)}
}

// Put stores data under uri.
func (f *Files) Put(uri string, data []byte) {
	f.mu.Lock()
	f.docs[uri] = data
	f.mu.Unlock()
}

// Fetches returns how many times uri was fetched.
func (f *Files) Fetches(uri string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fetches[uri]
}

// Fetch implements gtcr.DocumentFetcher.
func (f *Files) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[uri]++
	data, ok := f.docs[uri]
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", uri, metaevidence.ErrNotFound)
	}
	return data, nil
}
