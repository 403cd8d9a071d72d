package events

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/yagosupro/ethparser/internal/abi"
	"github.com/yagosupro/ethparser/internal/contracts"
	"github.com/yagosupro/ethparser/internal/model"
)

const (
	testUser  = "0x1111111111111111111111111111111111111111"
	testOther = "0x2222222222222222222222222222222222222222"
	testPool  = "0x3333333333333333333333333333333333333333"
)

func testMapper(t *testing.T) *Mapper {
	t.Helper()
	dec, err := abi.NewDecoder(abi.DefaultRegistry())
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	return NewMapper(dec, nil)
}

func topicFor(signature string) string {
	return abi.FullHash(signature)
}

func addrTopic(addr string) string {
	return common.BytesToHash(common.LeftPadBytes(common.HexToAddress(addr).Bytes(), 32)).Hex()
}

func amountData(amount *big.Int) string {
	return hexutil.Encode(common.LeftPadBytes(amount.Bytes(), 32))
}

func oneToken() *big.Int {
	v, _ := new(big.Int).SetString("1000000000000000000", 10)
	return v
}

func TestMapTransferToStake(t *testing.T) {
	m := testMapper(t)

	event, err := m.Map(model.LogRecord{
		BlockNumber: 11000000,
		BlockHash:   "0xblockhash",
		TxHash:      "0xtxhash",
		LogIndex:    3,
		Address:     contracts.FarmToken,
		Topics: []string{
			topicFor("Transfer(address,address,uint256)"),
			addrTopic(testUser),
			addrTopic(contracts.PsVault),
		},
		Data: amountData(oneToken()),
	})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	transferEvent, ok := event.(*model.TransferEvent)
	if !ok {
		t.Fatalf("event = %T", event)
	}
	if transferEvent.From != testUser || transferEvent.To != contracts.PsVault {
		t.Fatalf("parties = %s -> %s", transferEvent.From, transferEvent.To)
	}

	transfer := BuildTransfer(event)
	if transfer == nil {
		t.Fatalf("no transfer built")
	}
	if transfer.Type != model.TransferPsStake {
		t.Fatalf("type = %s, want %s", transfer.Type, model.TransferPsStake)
	}
	if transfer.Value != 1 {
		t.Fatalf("value = %v, want 1", transfer.Value)
	}
	if transfer.ID != "0xtxhash_3" {
		t.Fatalf("id = %s", transfer.ID)
	}
	if transfer.Token != contracts.FarmToken {
		t.Fatalf("token = %s", transfer.Token)
	}
}

func TestMapRewardPaid(t *testing.T) {
	m := testMapper(t)

	event, err := m.Map(model.LogRecord{
		BlockNumber: 11000001,
		TxHash:      "0xreward",
		LogIndex:    0,
		Address:     testPool,
		Topics: []string{
			topicFor("RewardPaid(address,uint256)"),
			addrTopic(testUser),
		},
		Data: amountData(oneToken()),
	})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	stakeEvent, ok := event.(*model.StakeEvent)
	if !ok || stakeEvent.Kind != "RewardPaid" {
		t.Fatalf("event = %#v", event)
	}

	transfer := BuildTransfer(event)
	if transfer == nil {
		t.Fatalf("no transfer built")
	}
	if transfer.Type != model.TransferReward {
		t.Fatalf("type = %s, want %s", transfer.Type, model.TransferReward)
	}
	if transfer.Owner != testPool || transfer.Recipient != testUser {
		t.Fatalf("parties = %s -> %s", transfer.Owner, transfer.Recipient)
	}
	if transfer.Token != contracts.FarmToken {
		t.Fatalf("token = %s", transfer.Token)
	}
}

func TestMapVaultVariant(t *testing.T) {
	m := testMapper(t)

	// V2 carries an extra indexed pid; the amount is still last
	event, err := m.Map(model.LogRecord{
		TxHash:   "0xwithdraw",
		LogIndex: 1,
		Address:  testOther,
		Topics: []string{
			topicFor("Withdraw(address,uint256,uint256)"),
			addrTopic(testUser),
			amountData(big.NewInt(7)),
		},
		Data: amountData(oneToken()),
	})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	vaultEvent, ok := event.(*model.VaultEvent)
	if !ok {
		t.Fatalf("event = %T", event)
	}
	if vaultEvent.Kind != "Withdraw" || vaultEvent.Beneficiary != testUser {
		t.Fatalf("event = %+v", vaultEvent)
	}
	if vaultEvent.Amount.Cmp(oneToken()) != 0 {
		t.Fatalf("amount = %s", vaultEvent.Amount)
	}

	if transfer := BuildTransfer(event); transfer != nil {
		t.Fatalf("vault events must not produce ledger records")
	}
}

func TestMapSwap(t *testing.T) {
	m := testMapper(t)

	data := amountData(big.NewInt(100)) +
		amountData(big.NewInt(0))[2:] +
		amountData(big.NewInt(0))[2:] +
		amountData(big.NewInt(95))[2:]

	event, err := m.Map(model.LogRecord{
		TxHash:   "0xswap",
		LogIndex: 2,
		Address:  contracts.FarmUsdcPair,
		Topics: []string{
			topicFor("Swap(address,uint256,uint256,uint256,uint256,address)"),
			addrTopic(testOther),
			addrTopic(testUser),
		},
		Data: data,
	})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	swapEvent, ok := event.(*model.SwapEvent)
	if !ok {
		t.Fatalf("event = %T", event)
	}
	if swapEvent.Sender != testOther || swapEvent.To != testUser {
		t.Fatalf("parties = %s -> %s", swapEvent.Sender, swapEvent.To)
	}
	if swapEvent.Amount0In.Int64() != 100 || swapEvent.Amount1Out.Int64() != 95 {
		t.Fatalf("amounts = %s / %s", swapEvent.Amount0In, swapEvent.Amount1Out)
	}
}

func TestMapUnknownEventIsSkipped(t *testing.T) {
	m := testMapper(t)

	event, err := m.Map(model.LogRecord{
		TxHash: "0xother",
		Topics: []string{
			"0x0000000000000000000000000000000000000000000000000000000000000042",
		},
	})
	if err != nil || event != nil {
		t.Fatalf("event = %+v, err = %v, want nil, nil", event, err)
	}
}
