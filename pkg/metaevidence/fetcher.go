package metaevidence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotFound is returned when the gateway has no document at the given URI.
var ErrNotFound = errors.New("document not found")

// maxDocumentSize caps the size of a fetched meta-evidence document.
const maxDocumentSize = 4 << 20

// HTTPFetcher fetches documents from a content gateway such as an IPFS
// HTTP gateway. URIs are resolved relative to the gateway base URL.
type HTTPFetcher struct {
	gateway string
	http    *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher for gateway (e.g. "https://ipfs.kleros.io").
func NewHTTPFetcher(gateway string, timeout time.Duration) *HTTPFetcher {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		gateway: strings.TrimRight(gateway, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (f *HTTPFetcher) WithHTTPClient(hc *http.Client) *HTTPFetcher {
	f.http = hc
	return f
}

// URL returns the absolute URL for a document URI.
func (f *HTTPFetcher) URL(uri string) string {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return uri
	}
	if !strings.HasPrefix(uri, "/") {
		uri = "/" + uri
	}
	return f.gateway + uri
}

// Fetch implements gtcr.DocumentFetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	u := f.URL(uri)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build document request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("fetch %s: %w", u, ErrNotFound)
	default:
		return nil, fmt.Errorf("fetch %s: gateway returned status %d", u, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}
	return body, nil
}
