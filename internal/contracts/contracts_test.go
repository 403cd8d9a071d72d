package contracts

import (
	"math/big"
	"strings"
	"testing"

	"github.com/yagosupro/ethparser/internal/model"
)

func TestClassifyTransfer(t *testing.T) {
	user := "0x1111111111111111111111111111111111111111"
	other := "0x2222222222222222222222222222222222222222"

	cases := []struct {
		name      string
		owner     string
		recipient string
		want      model.TransferType
	}{
		{"stake", user, PsVault, model.TransferPsStake},
		{"stake v0", user, PsVaultV0, model.TransferPsStake},
		{"stake st pool", user, StPsPool, model.TransferPsStake},
		{"exit", PsVault, user, model.TransferPsExit},
		{"buy", FarmUsdcPair, user, model.TransferLpBuy},
		{"sell", user, FarmWethPair, model.TransferLpSell},
		{"common", user, other, model.TransferCommon},
		{"mint", ZeroAddress, user, model.TransferCommon},
	}
	for _, tc := range cases {
		if got := ClassifyTransfer(tc.owner, tc.recipient); got != tc.want {
			t.Fatalf("%s: type = %s, want %s", tc.name, got, tc.want)
		}
	}

	// checksummed input classifies the same
	upper := "0x" + strings.ToUpper(PsVault[2:])
	if got := ClassifyTransfer(user, upper); got != model.TransferPsStake {
		t.Fatalf("mixed case: type = %s, want %s", got, model.TransferPsStake)
	}
}

func TestClassifyPsWinsOverPair(t *testing.T) {
	// a pair-to-vault move is a stake, not a buy
	if got := ClassifyTransfer(FarmUsdcPair, PsVault); got != model.TransferPsStake {
		t.Fatalf("type = %s, want %s", got, model.TransferPsStake)
	}
}

func TestIsNonCheckable(t *testing.T) {
	for _, addr := range []string{ZeroAddress, PsVault, PsVaultV0, StPsPool} {
		if !IsNonCheckable(addr) {
			t.Fatalf("%s should be non-checkable", addr)
		}
	}
	if IsNonCheckable("0x1111111111111111111111111111111111111111") {
		t.Fatalf("plain address should be checkable")
	}
}

func TestParseAmount(t *testing.T) {
	one := new(big.Int)
	one.SetString("1000000000000000000", 10)
	if got := ParseAmount(one, FarmToken); got != 1 {
		t.Fatalf("one token = %v", got)
	}

	half := new(big.Int)
	half.SetString("500000000000000000", 10)
	if got := ParseAmount(half, FarmToken); got != 0.5 {
		t.Fatalf("half token = %v", got)
	}

	if got := ParseAmount(nil, FarmToken); got != 0 {
		t.Fatalf("nil amount = %v", got)
	}

	// a value float64 alone would mangle
	large := new(big.Int)
	large.SetString("123456789012345678901234567890", 10)
	if got := ParseAmount(large, FarmToken); got < 123456789012.345 || got > 123456789012.346 {
		t.Fatalf("large amount = %v", got)
	}
}
