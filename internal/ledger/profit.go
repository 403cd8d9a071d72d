package ledger

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/yagosupro/ethparser/internal/model"
)

// ErrInconsistentOwner marks a COMMON transfer in a walked history where
// the address is neither side. It indicates corrupted upstream history and
// stops processing of the current item.
var ErrInconsistentOwner = errors.New("inconsistent owner")

// CalculatePsProfit walks the PS_STAKE/PS_EXIT history in order and
// returns the profit realized at the final position. Whenever accumulated
// exits exceed accumulated stakes the excess is realized and both
// accumulators reset, starting a new cycle. The model cannot see profit
// beyond cumulative principal within one cycle; protocol rewards never
// exceed principal in practice, so this stays a documented shortcut.
func CalculatePsProfit(transfers []*model.Transfer) float64 {
	var stacked, exits, lastProfit float64
	for _, t := range transfers {
		lastProfit = 0
		switch t.Type {
		case model.TransferPsExit:
			exits += t.Value
		case model.TransferPsStake:
			stacked += t.Value
		default:
			continue
		}

		// Profit belongs to the exit that crossed the stake total;
		// reset so the next cycle starts clean.
		if exits > stacked {
			lastProfit = exits - stacked
			stacked = 0
			exits = 0
		}
	}
	return lastProfit
}

// CalculateSellProfits walks LP_BUY/COMMON/LP_SELL history in order,
// maintaining a running open position (bought) and its USD cost basis, and
// fills ProfitUSD on each LP_SELL it passes. Only the profit written at the
// final position matters to the caller; earlier records keep whatever was
// fixed when they were current.
func CalculateSellProfits(transfers []*model.Transfer, owner string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var bought, boughtUsd float64
	for i, t := range transfers {
		switch t.Type {
		case model.TransferLpBuy:
			bought += t.Value
			boughtUsd += t.Value * t.Price

		case model.TransferCommon:
			if strings.EqualFold(owner, t.Recipient) {
				bought += t.Value
				boughtUsd += t.Value * t.Price
			} else if strings.EqualFold(owner, t.Owner) {
				bought -= t.Value
				boughtUsd -= t.Value * t.Price
			} else {
				return fmt.Errorf("%w: %s for %s", ErrInconsistentOwner, owner, t.ID)
			}

		case model.TransferLpSell:
			if i == 0 {
				logger.Error("sell without prior history", zap.String("id", t.ID))
				continue
			}
			sell := t.Value
			sellPrice := t.Price

			// Tokens received outside buy accounting carry no basis.
			if math.Abs(bought) < 0.01 {
				continue
			}
			// Selling more than bought: the uncovered part has no basis
			// either, cap to the open position.
			if sell > bought {
				sell = bought
			}

			rate := sell / bought
			bought -= sell
			coveredUsd := boughtUsd * rate
			boughtUsd -= coveredUsd
			t.Profit = 0
			t.ProfitUSD = sell*sellPrice - coveredUsd
		}
	}
	return nil
}
