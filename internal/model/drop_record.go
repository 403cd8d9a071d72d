package model

// DropRecord journals a log that was dropped by the pipeline, together
// with the reason, for offline diagnosis.
type DropRecord struct {
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Address     string `json:"address"`
	Topic0      string `json:"topic0"`
	Error       string `json:"error"`
	DroppedAt   string `json:"dropped_at"`
}
