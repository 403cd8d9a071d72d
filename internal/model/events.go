package model

import "math/big"

// LogRef carries the log metadata every mapped event keeps for
// traceability and ID derivation.
type LogRef struct {
	Block     uint64 `json:"block"`
	BlockHash string `json:"block_hash"`
	TxHash    string `json:"tx_hash"`
	LogIndex  uint64 `json:"log_index"`
	Address   string `json:"address"`
}

// Event is a decoded domain event produced by the mapper.
type Event interface {
	EventName() string
	Ref() LogRef
}

// TransferEvent is an ERC-20 Transfer.
type TransferEvent struct {
	LogRef
	From  string   `json:"from"`
	To    string   `json:"to"`
	Value *big.Int `json:"value"`
}

func (e *TransferEvent) EventName() string { return "Transfer" }
func (e *TransferEvent) Ref() LogRef       { return e.LogRef }

// VaultEvent is a vault Deposit or Withdraw.
type VaultEvent struct {
	LogRef
	Kind        string   `json:"kind"` // Deposit or Withdraw
	Beneficiary string   `json:"beneficiary"`
	Amount      *big.Int `json:"amount"`
}

func (e *VaultEvent) EventName() string { return e.Kind }
func (e *VaultEvent) Ref() LogRef       { return e.LogRef }

// StakeEvent is a pool Staked, Withdrawn, or RewardPaid.
type StakeEvent struct {
	LogRef
	Kind   string   `json:"kind"`
	User   string   `json:"user"`
	Amount *big.Int `json:"amount"`
}

func (e *StakeEvent) EventName() string { return e.Kind }
func (e *StakeEvent) Ref() LogRef       { return e.LogRef }

// SwapEvent is a Uniswap pair Swap.
type SwapEvent struct {
	LogRef
	Sender     string   `json:"sender"`
	To         string   `json:"to"`
	Amount0In  *big.Int `json:"amount0_in"`
	Amount1In  *big.Int `json:"amount1_in"`
	Amount0Out *big.Int `json:"amount0_out"`
	Amount1Out *big.Int `json:"amount1_out"`
}

func (e *SwapEvent) EventName() string { return "Swap" }
func (e *SwapEvent) Ref() LogRef       { return e.LogRef }

// MintEvent is a Uniswap pair Mint (liquidity added).
type MintEvent struct {
	LogRef
	Sender  string   `json:"sender"`
	Amount0 *big.Int `json:"amount0"`
	Amount1 *big.Int `json:"amount1"`
}

func (e *MintEvent) EventName() string { return "Mint" }
func (e *MintEvent) Ref() LogRef       { return e.LogRef }

// BurnEvent is a Uniswap pair Burn (liquidity removed).
type BurnEvent struct {
	LogRef
	Sender  string   `json:"sender"`
	To      string   `json:"to"`
	Amount0 *big.Int `json:"amount0"`
	Amount1 *big.Int `json:"amount1"`
}

func (e *BurnEvent) EventName() string { return "Burn" }
func (e *BurnEvent) Ref() LogRef       { return e.LogRef }

// SyncEvent is a Uniswap pair reserve sync.
type SyncEvent struct {
	LogRef
	Reserve0 *big.Int `json:"reserve0"`
	Reserve1 *big.Int `json:"reserve1"`
}

func (e *SyncEvent) EventName() string { return "Sync" }
func (e *SyncEvent) Ref() LogRef       { return e.LogRef }

// AdminEvent covers governance and admin events the parser records but
// does not attribute (OwnershipTransferred and friends).
type AdminEvent struct {
	LogRef
	Kind   string   `json:"kind"`
	Values []string `json:"values"`
}

func (e *AdminEvent) EventName() string { return e.Kind }
func (e *AdminEvent) Ref() LogRef       { return e.LogRef }
