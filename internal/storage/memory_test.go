package storage

import (
	"context"
	"testing"

	"github.com/yagosupro/ethparser/internal/model"
)

const holderAddr = "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

func stored(id string, transferType model.TransferType, owner, recipient string, value float64, blockDate int64, block, logIndex uint64) *model.Transfer {
	return &model.Transfer{
		ID:        id,
		Type:      transferType,
		Owner:     owner,
		Recipient: recipient,
		Value:     value,
		BlockDate: blockDate,
		Block:     block,
		LogIndex:  logIndex,
	}
}

func TestMemoryStoreFetchHistoryOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// inserted out of order on purpose
	records := []*model.Transfer{
		stored("c", model.TransferCommon, holderAddr, "0xdead", 1, 300, 30, 2),
		stored("a", model.TransferCommon, "0xdead", holderAddr, 1, 100, 10, 0),
		stored("b2", model.TransferCommon, holderAddr, "0xdead", 1, 200, 20, 5),
		stored("b1", model.TransferCommon, "0xdead", holderAddr, 1, 200, 20, 1),
	}
	for _, rec := range records {
		if saved, err := store.Save(ctx, rec); err != nil || !saved {
			t.Fatalf("save %s: saved = %v, err = %v", rec.ID, saved, err)
		}
	}

	history, err := store.FetchHistory(ctx, holderAddr, nil, 300)
	if err != nil {
		t.Fatalf("fetch history: %v", err)
	}
	want := []string{"a", "b1", "b2", "c"}
	if len(history) != len(want) {
		t.Fatalf("history length = %d, want %d", len(history), len(want))
	}
	for i, id := range want {
		if history[i].ID != id {
			t.Fatalf("history[%d] = %s, want %s", i, history[i].ID, id)
		}
	}
}

func TestMemoryStoreFetchHistoryFilters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Save(ctx, stored("1", model.TransferPsStake, holderAddr, "0xdead", 1, 100, 1, 0))
	store.Save(ctx, stored("2", model.TransferCommon, holderAddr, "0xdead", 1, 200, 2, 0))
	store.Save(ctx, stored("3", model.TransferPsExit, "0xdead", holderAddr, 1, 300, 3, 0))

	history, err := store.FetchHistory(ctx, holderAddr, []model.TransferType{model.TransferPsStake, model.TransferPsExit}, 300)
	if err != nil {
		t.Fatalf("fetch history: %v", err)
	}
	if len(history) != 2 || history[0].ID != "1" || history[1].ID != "3" {
		t.Fatalf("filtered history = %+v", history)
	}

	// the bound is inclusive
	history, err = store.FetchHistory(ctx, holderAddr, nil, 200)
	if err != nil {
		t.Fatalf("fetch history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("bounded history length = %d, want 2", len(history))
	}
}

func TestMemoryStoreDuplicateSave(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec := stored("dup", model.TransferCommon, holderAddr, "0xdead", 1, 100, 1, 0)
	if saved, err := store.Save(ctx, rec); err != nil || !saved {
		t.Fatalf("first save: saved = %v, err = %v", saved, err)
	}
	if saved, err := store.Save(ctx, rec); err != nil || saved {
		t.Fatalf("second save: saved = %v, err = %v", saved, err)
	}

	exists, err := store.ExistsByID(ctx, "dup")
	if err != nil || !exists {
		t.Fatalf("exists = %v, err = %v", exists, err)
	}
}

func TestMemoryStoreBalanceAsOf(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Save(ctx, stored("1", model.TransferCommon, "0xdead", holderAddr, 100, 100, 1, 0))
	store.Save(ctx, stored("2", model.TransferCommon, holderAddr, "0xdead", 40, 200, 2, 0))
	store.Save(ctx, stored("3", model.TransferCommon, "0xdead", holderAddr, 5, 300, 3, 0))

	balance, err := store.BalanceAsOf(ctx, holderAddr, 250)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 60 {
		t.Fatalf("balance = %v, want 60", balance)
	}
}

func TestMemoryStoreClonesRecords(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec := stored("1", model.TransferCommon, "0xdead", holderAddr, 100, 100, 1, 0)
	store.Save(ctx, rec)
	rec.Value = 999

	history, err := store.FetchHistory(ctx, holderAddr, nil, 100)
	if err != nil || len(history) != 1 {
		t.Fatalf("history = %+v, err = %v", history, err)
	}
	if history[0].Value != 100 {
		t.Fatalf("stored value mutated: %v", history[0].Value)
	}
}
