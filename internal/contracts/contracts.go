// Package contracts holds the watched protocol's contract addresses and
// the transfer classification rules built on them. Addresses are compared
// lowercased.
package contracts

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yagosupro/ethparser/internal/model"
)

const (
	ZeroAddress = "0x0000000000000000000000000000000000000000"

	// FARM token and profit-share contracts.
	FarmToken = "0xa0246c9032bc3a600820415ae600c6388619a14d"
	PsVault   = "0x25550cccbd68533fa04bfd3e3ac4d09f9e00fc50"
	PsVaultV0 = "0x59258f4e15a5fc74a7284055a8094f58108dbd4f"
	StPsPool  = "0x8f5adc58b32d4e5ca02eac0e293d35855999436c"

	// FARM liquidity pairs.
	FarmUsdcPair = "0x514906fc121c7878424a5c928cad1852cc545892"
	FarmWethPair = "0x56feaccb7f750b997b36a68625c7c596f0b41a58"
)

var psAddresses = map[string]struct{}{
	PsVault:   {},
	PsVaultV0: {},
	StPsPool:  {},
}

var lpPairs = map[string]struct{}{
	FarmUsdcPair: {},
	FarmWethPair: {},
}

// Balance reconciliation skips these: the zero address mints and burns,
// and the profit-share contracts hold pooled balances that the per-owner
// ledger cannot reconstruct.
var nonCheckable = map[string]struct{}{
	ZeroAddress: {},
	PsVault:     {},
	PsVaultV0:   {},
	StPsPool:    {},
}

// decimal dividers per token; anything unlisted uses 18 decimals.
var dividers = map[string]decimal.Decimal{}

var defaultDivider = decimal.New(1, 18)

// IsNonCheckable reports whether balance checks skip the address.
func IsNonCheckable(address string) bool {
	_, ok := nonCheckable[strings.ToLower(address)]
	return ok
}

// IsPs reports whether the address is a profit-share vault or pool.
func IsPs(address string) bool {
	_, ok := psAddresses[strings.ToLower(address)]
	return ok
}

// IsLpPair reports whether the address is a watched liquidity pair.
func IsLpPair(address string) bool {
	_, ok := lpPairs[strings.ToLower(address)]
	return ok
}

// ClassifyTransfer derives the transfer type from its counterparties.
// Profit-share movements win over pair movements; everything else is
// COMMON. REWARD is assigned by the mapper from RewardPaid events, not
// here, because reward payouts are distinguishable only by event kind.
func ClassifyTransfer(owner, recipient string) model.TransferType {
	switch {
	case IsPs(recipient):
		return model.TransferPsStake
	case IsPs(owner):
		return model.TransferPsExit
	case IsLpPair(owner):
		return model.TransferLpBuy
	case IsLpPair(recipient):
		return model.TransferLpSell
	default:
		return model.TransferCommon
	}
}

// ParseAmount converts a chain-native integer amount to a float in token
// units, dividing by the token's decimal divider exactly before the float
// conversion.
func ParseAmount(amount *big.Int, token string) float64 {
	if amount == nil {
		return 0
	}
	divider, ok := dividers[strings.ToLower(token)]
	if !ok {
		divider = defaultDivider
	}
	value, _ := decimal.NewFromBigInt(amount, 0).Div(divider).Float64()
	return value
}
