package model

import "fmt"

// TransferType classifies a token transfer for profit attribution.
type TransferType string

const (
	TransferCommon  TransferType = "COMMON"
	TransferLpBuy   TransferType = "LP_BUY"
	TransferLpSell  TransferType = "LP_SELL"
	TransferPsStake TransferType = "PS_STAKE"
	TransferPsExit  TransferType = "PS_EXIT"
	TransferReward  TransferType = "REWARD"
)

// Transfer is the central ledger entity: one token movement, enriched and
// attributed. ID uniqueness is enforced at the persistence boundary; after
// the first persist the record is never mutated by the pipeline.
type Transfer struct {
	ID               string       `json:"id"`
	Block            uint64       `json:"block"`
	BlockDate        int64        `json:"block_date"`
	BlockHash        string       `json:"block_hash"`
	TxHash           string       `json:"tx_hash"`
	LogIndex         uint64       `json:"log_index"`
	Token            string       `json:"token"`
	Owner            string       `json:"owner"`
	Recipient        string       `json:"recipient"`
	Value            float64      `json:"value"`
	BalanceOwner     float64      `json:"balance_owner"`
	BalanceRecipient float64      `json:"balance_recipient"`
	Type             TransferType `json:"type"`
	Price            float64      `json:"price"`
	Profit           float64      `json:"profit"`
	ProfitUSD        float64      `json:"profit_usd"`
	Gas              float64      `json:"gas"`
}

// TransferID derives the dedup key from transaction hash and log position.
func TransferID(txHash string, logIndex uint64) string {
	return fmt.Sprintf("%s_%d", txHash, logIndex)
}

// Print renders a short human-readable summary for log lines.
func (t *Transfer) Print() string {
	return fmt.Sprintf("%s %s %f %s -> %s", t.ID, t.Type, t.Value, t.Owner, t.Recipient)
}
