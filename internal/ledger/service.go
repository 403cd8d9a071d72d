// Package ledger keeps the transfer ledger consistent: idempotent saves,
// balance reconciliation, and profit attribution over ordered history.
package ledger

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/yagosupro/ethparser/internal/contracts"
	"github.com/yagosupro/ethparser/internal/model"
	"github.com/yagosupro/ethparser/internal/storage"
)

// balanceTolerance is the absolute drift allowed between an event-reported
// balance and the locally reconstructed one before a warning is logged.
const balanceTolerance = 1.0

// Service fills balances and profit on a transfer and persists it through
// the dedup-aware store contract.
type Service struct {
	store  storage.TransferStore
	logger *zap.Logger
}

func NewService(store storage.TransferStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Save attributes profit to the record and persists it. A record whose ID
// already exists is reported as not saved, never as an error. An
// ErrInconsistentOwner from the profit walk propagates to the caller.
func (s *Service) Save(ctx context.Context, t *model.Transfer) (bool, error) {
	exists, err := s.store.ExistsByID(ctx, t.ID)
	if err != nil {
		return false, err
	}
	if exists {
		s.logger.Warn("duplicate transfer", zap.String("id", t.ID), zap.String("tx", t.TxHash))
		return false, nil
	}

	s.CheckBalances(ctx, t)
	if err := s.FillProfit(ctx, t); err != nil {
		return false, err
	}
	return s.store.Save(ctx, t)
}

// CheckBalances compares the event-reported balances of owner and
// recipient against the reconstructed running balances. Reported balances
// are post-transfer, so the record being saved counts toward the
// reconstruction even though it is not persisted yet. Mismatches are
// data-quality warnings, never errors: the save proceeds regardless.
func (s *Service) CheckBalances(ctx context.Context, t *model.Transfer) bool {
	ownerOk := s.checkBalance(ctx, t.Owner, t.BalanceOwner, -t.Value, t.BlockDate)
	recipientOk := s.checkBalance(ctx, t.Recipient, t.BalanceRecipient, t.Value, t.BlockDate)
	return ownerOk && recipientOk
}

func (s *Service) checkBalance(ctx context.Context, holder string, expected, delta float64, blockDate int64) bool {
	if contracts.IsNonCheckable(holder) {
		return true
	}
	balance, err := s.store.BalanceAsOf(ctx, holder, blockDate)
	if err != nil {
		s.logger.Warn("balance lookup failed", zap.String("holder", holder), zap.Error(err))
		return true
	}
	balance += delta
	if math.Abs(balance-expected) > balanceTolerance {
		s.logger.Warn("balance drift",
			zap.String("holder", holder),
			zap.Float64("ledger", balance),
			zap.Float64("reported", expected),
		)
		return false
	}
	return true
}

// FillBalances sets both balances from the reconstructed ledger, applying
// the record's own movement so the result matches what the chain would
// report after the transfer. Used when chain-reported balances are
// unavailable, and by recomputation runs.
func (s *Service) FillBalances(ctx context.Context, t *model.Transfer) error {
	balanceOwner, err := s.store.BalanceAsOf(ctx, t.Owner, t.BlockDate)
	if err != nil {
		return err
	}
	t.BalanceOwner = balanceOwner - t.Value

	balanceRecipient, err := s.store.BalanceAsOf(ctx, t.Recipient, t.BlockDate)
	if err != nil {
		return err
	}
	t.BalanceRecipient = balanceRecipient + t.Value
	return nil
}

// FillProfit computes realized profit for the record according to its
// type. The history walk always covers all prior persisted records for the
// relevant address plus the record itself as the final element; only the
// profit written at that final position is attributed.
func (s *Service) FillProfit(ctx context.Context, t *model.Transfer) error {
	switch t.Type {
	case model.TransferPsExit:
		history, err := s.store.FetchHistory(ctx, t.Recipient, nil, t.BlockDate-1)
		if err != nil {
			return err
		}
		history = append(history, t)
		profit := CalculatePsProfit(history)
		t.Profit = profit
		t.ProfitUSD = profit * t.Price

	case model.TransferReward:
		t.Profit = t.Value
		t.ProfitUSD = t.Value * t.Price

	case model.TransferLpSell:
		history, err := s.store.FetchHistory(ctx, t.Owner, nil, t.BlockDate-1)
		if err != nil {
			return err
		}
		history = append(history, t)
		if err := CalculateSellProfits(history, t.Owner, s.logger); err != nil {
			return err
		}
	}
	return nil
}
