// Package codec encodes and decodes registry item payloads.
//
// An item's data is stored on-chain as an RLP list with one byte string per
// column of the registration meta-evidence. The column type decides how each
// byte string is interpreted.
package codec

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/jmerrifield20/tcrview/pkg/metaevidence"
)

var (
	// ErrColumnMismatch is returned when the payload field count differs from
	// the column count.
	ErrColumnMismatch = errors.New("field count does not match column schema")

	// ErrNegativeNumber is returned when encoding a negative number column.
	ErrNegativeNumber = errors.New("number columns must be non-negative")
)

// RLP is the schema codec used by curated registries. The zero value is ready
// to use.
type RLP struct{}

// Decode implements gtcr.SchemaCodec.
func (RLP) Decode(columns []metaevidence.Column, raw []byte) ([]any, error) {
	return Decode(columns, raw)
}

// Encode returns the RLP payload for values laid out in column order.
func Encode(columns []metaevidence.Column, values []any) ([]byte, error) {
	if len(values) != len(columns) {
		return nil, fmt.Errorf("%w: %d values for %d columns", ErrColumnMismatch, len(values), len(columns))
	}
	fields := make([][]byte, len(columns))
	for i, col := range columns {
		b, err := encodeField(col.Type, values[i])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Label, err)
		}
		fields[i] = b
	}
	return rlp.EncodeToBytes(fields)
}

// EncodeMap is like Encode but takes values keyed by column label.
// Missing labels encode as empty fields.
func EncodeMap(columns []metaevidence.Column, values map[string]any) ([]byte, error) {
	ordered := make([]any, len(columns))
	for i, col := range columns {
		ordered[i] = values[col.Label]
	}
	return Encode(columns, ordered)
}

// Decode interprets raw against columns. The result holds one value per
// column: string for textual types, common.Address for address types,
// *big.Int for numbers and bool for booleans.
func Decode(columns []metaevidence.Column, raw []byte) ([]any, error) {
	var fields [][]byte
	if err := rlp.DecodeBytes(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode item payload: %w", err)
	}
	if len(fields) != len(columns) {
		return nil, fmt.Errorf("%w: %d fields for %d columns", ErrColumnMismatch, len(fields), len(columns))
	}
	values := make([]any, len(columns))
	for i, col := range columns {
		v, err := decodeField(col.Type, fields[i])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Label, err)
		}
		values[i] = v
	}
	return values, nil
}

func encodeField(t metaevidence.ColumnType, v any) ([]byte, error) {
	if v == nil {
		return []byte{}, nil
	}
	switch t {
	case metaevidence.TypeAddress, metaevidence.TypeGTCRAddress:
		addr, err := toAddress(v)
		if err != nil {
			return nil, err
		}
		return new(big.Int).SetBytes(addr.Bytes()).Bytes(), nil
	case metaevidence.TypeNumber:
		n, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		if n.Sign() < 0 {
			return nil, ErrNegativeNumber
		}
		return n.Bytes(), nil
	case metaevidence.TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		if b {
			return []byte{1}, nil
		}
		return []byte{}, nil
	default:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return []byte(s), nil
	}
}

func decodeField(t metaevidence.ColumnType, b []byte) (any, error) {
	switch t {
	case metaevidence.TypeAddress, metaevidence.TypeGTCRAddress:
		if len(b) > common.AddressLength {
			return nil, fmt.Errorf("address field is %d bytes", len(b))
		}
		return common.BytesToAddress(b), nil
	case metaevidence.TypeNumber:
		return new(big.Int).SetBytes(b), nil
	case metaevidence.TypeBoolean:
		return len(b) > 0 && b[0] != 0, nil
	default:
		return string(b), nil
	}
}

func toAddress(v any) (common.Address, error) {
	switch a := v.(type) {
	case common.Address:
		return a, nil
	case string:
		if !common.IsHexAddress(a) {
			return common.Address{}, fmt.Errorf("invalid address %q", a)
		}
		return common.HexToAddress(a), nil
	}
	return common.Address{}, fmt.Errorf("expected address, got %T", v)
}

func toBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		return n, nil
	case int:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case string:
		s := strings.TrimSpace(n)
		if i, ok := new(big.Int).SetString(s, 0); ok {
			return i, nil
		}
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return nil, fmt.Errorf("fractional number %q not supported", s)
		}
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return nil, fmt.Errorf("expected number, got %T", v)
}
