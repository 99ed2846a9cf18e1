package metaevidence_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmerrifield20/tcrview/pkg/metaevidence"
)

const sampleDoc = `{
  "title": "Add a token",
  "rulingOptions": {"titles": ["Yes", "No"]},
  "metadata": {
    "tcrTitle": "Tokens",
    "itemName": "token",
    "itemNamePlural": "tokens",
    "requireRemovalEvidence": true,
    "columns": [
      {"label": "Logo", "type": "image"},
      {"label": "Name", "type": "text", "isIdentifier": true},
      {"label": "Address", "type": "address", "isIdentifier": true},
      {"label": "Notes"}
    ]
  }
}`

func TestParse_valid(t *testing.T) {
	me, err := metaevidence.Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if me.Metadata.ItemName != "token" {
		t.Errorf("ItemName: got %q, want %q", me.Metadata.ItemName, "token")
	}
	if !me.Metadata.RequireRemovalEvidence {
		t.Error("RequireRemovalEvidence: got false, want true")
	}
	if len(me.Metadata.Columns) != 4 {
		t.Fatalf("columns: got %d, want 4", len(me.Metadata.Columns))
	}
	if me.Metadata.Columns[3].Type != metaevidence.TypeText {
		t.Errorf("untyped column: got %q, want %q", me.Metadata.Columns[3].Type, metaevidence.TypeText)
	}
	if ids := me.Metadata.IdentifierColumns(); len(ids) != 2 {
		t.Errorf("identifier columns: got %d, want 2", len(ids))
	}
}

func TestParse_noColumns(t *testing.T) {
	_, err := metaevidence.Parse([]byte(`{"metadata": {"columns": []}}`))
	if !errors.Is(err, metaevidence.ErrNoColumns) {
		t.Errorf("expected ErrNoColumns, got %v", err)
	}
}

func TestParse_unknownType(t *testing.T) {
	_, err := metaevidence.Parse([]byte(`{"metadata": {"columns": [{"label": "x", "type": "hologram"}]}}`))
	if err == nil {
		t.Fatal("expected error for unknown column type")
	}
}

func TestParse_malformed(t *testing.T) {
	if _, err := metaevidence.Parse([]byte(`{`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ipfs/QmDoc/meta.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleDoc)) //nolint:errcheck
	}))
	defer srv.Close()

	f := metaevidence.NewHTTPFetcher(srv.URL+"/", time.Second)

	body, err := f.Fetch(context.Background(), "/ipfs/QmDoc/meta.json")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if _, err := metaevidence.Parse(body); err != nil {
		t.Errorf("Parse(fetched) error: %v", err)
	}

	_, err = f.Fetch(context.Background(), "/ipfs/QmMissing")
	if !errors.Is(err, metaevidence.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHTTPFetcher_URL(t *testing.T) {
	f := metaevidence.NewHTTPFetcher("https://ipfs.example.com/", 0)
	tests := map[string]string{
		"/ipfs/Qm1":            "https://ipfs.example.com/ipfs/Qm1",
		"ipfs/Qm2":             "https://ipfs.example.com/ipfs/Qm2",
		"https://other.io/doc": "https://other.io/doc",
	}
	for in, want := range tests {
		if got := f.URL(in); got != want {
			t.Errorf("URL(%q): got %q, want %q", in, got, want)
		}
	}
}
