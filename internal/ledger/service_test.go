package ledger

import (
	"context"
	"testing"

	"github.com/yagosupro/ethparser/internal/model"
	"github.com/yagosupro/ethparser/internal/storage"
)

func seed(t *testing.T, store *storage.MemoryStore, rec *model.Transfer) {
	t.Helper()
	saved, err := store.Save(context.Background(), rec)
	if err != nil || !saved {
		t.Fatalf("seed %s: saved = %v, err = %v", rec.ID, saved, err)
	}
}

func datedRecord(id string, transferType model.TransferType, owner, recipient string, value, price float64, blockDate int64) *model.Transfer {
	rec := record(id, transferType, owner, recipient, value, price)
	rec.BlockDate = blockDate
	return rec
}

func TestSaveIsIdempotent(t *testing.T) {
	store := storage.NewMemoryStore()
	service := NewService(store, nil)
	ctx := context.Background()

	rec := datedRecord("0xabc_1", model.TransferCommon, userAddr, otherAddr, 5, 1, 100)
	saved, err := service.Save(ctx, rec)
	if err != nil || !saved {
		t.Fatalf("first save: saved = %v, err = %v", saved, err)
	}

	saved, err = service.Save(ctx, rec)
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if saved {
		t.Fatalf("duplicate save reported as saved")
	}
	if store.Len() != 1 {
		t.Fatalf("store holds %d records, want 1", store.Len())
	}
}

func TestSaveRewardProfit(t *testing.T) {
	store := storage.NewMemoryStore()
	service := NewService(store, nil)

	rec := datedRecord("0xr_1", model.TransferReward, pairAddr, userAddr, 25, 1.5, 100)
	saved, err := service.Save(context.Background(), rec)
	if err != nil || !saved {
		t.Fatalf("save: saved = %v, err = %v", saved, err)
	}
	if !almostEqual(rec.Profit, 25) {
		t.Fatalf("profit = %v, want 25", rec.Profit)
	}
	if !almostEqual(rec.ProfitUSD, 37.5) {
		t.Fatalf("profit usd = %v, want 37.5", rec.ProfitUSD)
	}
}

func TestSavePsExitProfit(t *testing.T) {
	store := storage.NewMemoryStore()
	service := NewService(store, nil)
	ctx := context.Background()

	seed(t, store, datedRecord("0xps_1", model.TransferPsStake, userAddr, pairAddr, 100, 0, 100))
	seed(t, store, datedRecord("0xps_2", model.TransferPsExit, pairAddr, userAddr, 60, 0, 200))

	exit := datedRecord("0xps_3", model.TransferPsExit, pairAddr, userAddr, 50, 2, 300)
	saved, err := service.Save(ctx, exit)
	if err != nil || !saved {
		t.Fatalf("save: saved = %v, err = %v", saved, err)
	}
	if !almostEqual(exit.Profit, 10) {
		t.Fatalf("profit = %v, want 10", exit.Profit)
	}
	if !almostEqual(exit.ProfitUSD, 20) {
		t.Fatalf("profit usd = %v, want 20", exit.ProfitUSD)
	}
}

func TestSaveSellProfit(t *testing.T) {
	store := storage.NewMemoryStore()
	service := NewService(store, nil)
	ctx := context.Background()

	seed(t, store, datedRecord("0xlp_1", model.TransferLpBuy, pairAddr, userAddr, 10, 2, 100))

	sell := datedRecord("0xlp_2", model.TransferLpSell, userAddr, pairAddr, 4, 3, 200)
	saved, err := service.Save(ctx, sell)
	if err != nil || !saved {
		t.Fatalf("save: saved = %v, err = %v", saved, err)
	}
	if sell.Profit != 0 {
		t.Fatalf("profit = %v, want 0", sell.Profit)
	}
	if !almostEqual(sell.ProfitUSD, 4) {
		t.Fatalf("profit usd = %v, want 4", sell.ProfitUSD)
	}
}

func TestCheckBalancesPostTransfer(t *testing.T) {
	store := storage.NewMemoryStore()
	service := NewService(store, nil)
	ctx := context.Background()

	seed(t, store, datedRecord("0xb_1", model.TransferCommon, otherAddr, userAddr, 100, 0, 100))

	// balanceOf at the log's block already reflects the transfer
	rec := datedRecord("0xb_2", model.TransferCommon, userAddr, otherAddr, 10, 0, 200)
	rec.BalanceOwner = 90
	rec.BalanceRecipient = -90
	if !service.CheckBalances(ctx, rec) {
		t.Fatalf("chain-accurate post-transfer balances flagged as drift")
	}
}

func TestCheckBalancesTolerance(t *testing.T) {
	store := storage.NewMemoryStore()
	service := NewService(store, nil)
	ctx := context.Background()

	seed(t, store, datedRecord("0xb_1", model.TransferCommon, otherAddr, userAddr, 100, 0, 100))

	rec := datedRecord("0xb_2", model.TransferCommon, userAddr, otherAddr, 10, 0, 200)
	rec.BalanceOwner = 90.5
	rec.BalanceRecipient = -90.5
	if !service.CheckBalances(ctx, rec) {
		t.Fatalf("drift within tolerance flagged")
	}

	rec.BalanceOwner = 92
	if service.CheckBalances(ctx, rec) {
		t.Fatalf("drift beyond tolerance not flagged")
	}
}

func TestCheckBalancesSkipsProtocolAddresses(t *testing.T) {
	store := storage.NewMemoryStore()
	service := NewService(store, nil)

	rec := datedRecord("0xb_3", model.TransferCommon,
		"0x0000000000000000000000000000000000000000", userAddr, 10, 0, 100)
	rec.BalanceOwner = 99999
	rec.BalanceRecipient = 0
	if !service.CheckBalances(context.Background(), rec) {
		t.Fatalf("mint from zero address should not be balance checked")
	}
}

func TestFillBalances(t *testing.T) {
	store := storage.NewMemoryStore()
	service := NewService(store, nil)
	ctx := context.Background()

	seed(t, store, datedRecord("0xf_1", model.TransferCommon, otherAddr, userAddr, 100, 0, 100))
	seed(t, store, datedRecord("0xf_2", model.TransferCommon, userAddr, pairAddr, 30, 0, 200))

	rec := datedRecord("0xf_3", model.TransferCommon, userAddr, otherAddr, 10, 0, 300)
	if err := service.FillBalances(ctx, rec); err != nil {
		t.Fatalf("fill balances: %v", err)
	}
	if !almostEqual(rec.BalanceOwner, 60) {
		t.Fatalf("owner balance = %v, want 60", rec.BalanceOwner)
	}
	if !almostEqual(rec.BalanceRecipient, -90) {
		t.Fatalf("recipient balance = %v, want -90", rec.BalanceRecipient)
	}

	// filled balances reconcile against the reconstruction by construction
	if !service.CheckBalances(ctx, rec) {
		t.Fatalf("ledger-filled balances flagged as drift")
	}
}
