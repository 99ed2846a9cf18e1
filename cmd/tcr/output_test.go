package main

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestFormatValue(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	long := "a very long description that will not fit in a terminal column"
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"short", "short"},
		{long, long[:45] + "..."},
		{big.NewInt(42), "42"},
		{true, "true"},
		{addr, addr.Hex()},
		{[32]byte{0x01}, common.Hash{0x01}.Hex()},
		{[]byte{0xde, 0xad}, "0xdead"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.in); got != tt.want {
			t.Errorf("formatValue(%v): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatEther(t *testing.T) {
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	if got := formatEther(wei); got != "1.5" {
		t.Errorf("got %q, want 1.5", got)
	}
	if got := formatEther(big.NewInt(0)); got != "0" {
		t.Errorf("got %q, want 0", got)
	}
}
