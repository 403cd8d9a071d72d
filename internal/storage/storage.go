package storage

import (
	"context"

	"github.com/yagosupro/ethparser/internal/model"
)

// TransferStore persists and queries the transfer ledger.
//
// Implementations must be safe for concurrent use by multiple pipeline
// workers, and FetchHistory must return records in ascending
// (block_date, block, log_index) order: the profit engine depends on strict
// chronological order as a hard precondition.
type TransferStore interface {
	// ExistsByID reports whether a record with the given dedup key exists.
	ExistsByID(ctx context.Context, id string) (bool, error)

	// Save inserts the record. A second insert with the same ID is a
	// no-op: it returns (false, nil), never an error.
	Save(ctx context.Context, t *model.Transfer) (bool, error)

	// FetchHistory returns every record where the address is owner or
	// recipient, optionally filtered by type, with block date at or before
	// beforeBlockDate.
	FetchHistory(ctx context.Context, address string, types []model.TransferType, beforeBlockDate int64) ([]*model.Transfer, error)

	// BalanceAsOf returns the signed sum of transfer values for the
	// address (incoming positive, outgoing negative) as of blockDate.
	BalanceAsOf(ctx context.Context, address string, blockDate int64) (float64, error)
}
