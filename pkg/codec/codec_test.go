package codec

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jmerrifield20/tcrview/pkg/metaevidence"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var testColumns = []metaevidence.Column{
	{Label: "Thumbnail", Type: metaevidence.TypeImage},
	{Label: "Title", Type: metaevidence.TypeText},
	{Label: "Link", Type: metaevidence.TypeLink},
	{Label: "Author", Type: metaevidence.TypeAddress},
	{Label: "Supply", Type: metaevidence.TypeNumber},
	{Label: "Verified", Type: metaevidence.TypeBoolean},
}

func equalValue(a, b any) bool {
	switch x := a.(type) {
	case *big.Int:
		y, ok := b.(*big.Int)
		return ok && x.Cmp(y) == 0
	default:
		return a == b
	}
}

func TestEncodeDecode_roundTrip(t *testing.T) {
	values := []any{
		"/ipfs/Qmbf/thumbnail.png",
		"Some title",
		"http://example.com",
		common.HexToAddress("0x00000000000000000000000000000000deadbeef"),
		big.NewInt(21_000_000),
		true,
	}

	raw, err := Encode(testColumns, values)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	got, err := Decode(testColumns, raw)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(got) != len(values) {
		t.Fatalf("decoded %d values, want %d", len(got), len(values))
	}
	for i := range values {
		if !equalValue(got[i], values[i]) {
			t.Errorf("column %q: got %v, want %v", testColumns[i].Label, got[i], values[i])
		}
	}
}

func TestEncodeMap_missingLabelsAreEmpty(t *testing.T) {
	raw, err := EncodeMap(testColumns, map[string]any{"Title": "only title"})
	if err != nil {
		t.Fatalf("EncodeMap() error: %v", err)
	}
	got, err := Decode(testColumns, raw)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got[1] != "only title" {
		t.Errorf("Title: got %v", got[1])
	}
	if got[0] != "" {
		t.Errorf("Thumbnail: got %q, want empty", got[0])
	}
	if got[3] != (common.Address{}) {
		t.Errorf("Author: got %v, want zero address", got[3])
	}
	if got[5] != false {
		t.Errorf("Verified: got %v, want false", got[5])
	}
}

func TestEncode_stringForms(t *testing.T) {
	cols := []metaevidence.Column{
		{Label: "Addr", Type: metaevidence.TypeGTCRAddress},
		{Label: "N", Type: metaevidence.TypeNumber},
	}
	raw, err := Encode(cols, []any{"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "0x10"})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	got, err := RLP{}.Decode(cols, raw)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got[0] != common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed") {
		t.Errorf("Addr: got %v", got[0])
	}
	if got[1].(*big.Int).Int64() != 16 {
		t.Errorf("N: got %v, want 16", got[1])
	}
}

func TestEncode_rejectsBadValues(t *testing.T) {
	cols := []metaevidence.Column{{Label: "N", Type: metaevidence.TypeNumber}}
	if _, err := Encode(cols, []any{big.NewInt(-1)}); !errors.Is(err, ErrNegativeNumber) {
		t.Errorf("negative: expected ErrNegativeNumber, got %v", err)
	}
	if _, err := Encode(cols, []any{"1.5"}); err == nil {
		t.Error("fractional: expected error")
	}
	if _, err := Encode(cols, []any{1, 2}); !errors.Is(err, ErrColumnMismatch) {
		t.Errorf("arity: expected ErrColumnMismatch, got %v", err)
	}
}

func TestDecode_columnMismatch(t *testing.T) {
	raw, err := Encode(testColumns[:2], []any{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(testColumns, raw); !errors.Is(err, ErrColumnMismatch) {
		t.Errorf("expected ErrColumnMismatch, got %v", err)
	}
}

func TestDecode_garbage(t *testing.T) {
	if _, err := Decode(testColumns, []byte{0xff, 0x01}); err == nil {
		t.Error("expected error for non-RLP payload")
	}
}

func TestProperty_RoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("decode(columns, encode(columns, values)) == values", prop.ForAll(
		func(title, link string, author []byte, supply uint64, verified bool) bool {
			values := []any{
				"/ipfs/" + title,
				title,
				link,
				common.BytesToAddress(author),
				new(big.Int).SetUint64(supply),
				verified,
			}
			raw, err := Encode(testColumns, values)
			if err != nil {
				return false
			}
			got, err := Decode(testColumns, raw)
			if err != nil || len(got) != len(values) {
				return false
			}
			for i := range values {
				if !equalValue(got[i], values[i]) {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
		gen.AlphaString(),
		gen.SliceOfN(20, gen.UInt8()),
		gen.UInt64(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
