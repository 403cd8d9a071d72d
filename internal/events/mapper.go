// Package events translates decoded value sequences into typed domain
// events, one mapping strategy per event kind.
package events

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/yagosupro/ethparser/internal/abi"
	"github.com/yagosupro/ethparser/internal/contracts"
	"github.com/yagosupro/ethparser/internal/model"
)

// Mapper decodes raw logs and maps them onto domain events.
type Mapper struct {
	dec    *abi.Decoder
	logger *zap.Logger
}

func NewMapper(dec *abi.Decoder, logger *zap.Logger) *Mapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mapper{dec: dec, logger: logger}
}

// Map decodes a log into its domain event. Logs outside the watched event
// surface yield (nil, nil); they are expected and not errors.
func (m *Mapper) Map(lg model.LogRecord) (model.Event, error) {
	decoded, err := m.dec.DecodeLog(lg)
	if err != nil {
		return nil, err
	}
	if decoded == nil {
		return nil, nil
	}

	ref := model.LogRef{
		Block:     lg.BlockNumber,
		BlockHash: lg.BlockHash,
		TxHash:    lg.TxHash,
		LogIndex:  lg.LogIndex,
		Address:   strings.ToLower(lg.Address),
	}

	base := decoded.Name
	if idx := strings.Index(base, "#"); idx >= 0 {
		base = base[:idx]
	}

	switch base {
	case "Transfer":
		return m.mapTransfer(ref, decoded)
	case "Deposit", "Withdraw":
		return m.mapVault(ref, base, decoded)
	case "Staked", "Withdrawn", "RewardPaid":
		return m.mapStake(ref, base, decoded)
	case "Swap":
		return m.mapSwap(ref, decoded)
	case "Mint":
		return m.mapMint(ref, decoded)
	case "Burn":
		return m.mapBurn(ref, decoded)
	case "Sync":
		return m.mapSync(ref, decoded)
	case "OwnershipTransferred", "SmartContractRecorded":
		return m.mapAdmin(ref, base, decoded)
	default:
		m.logger.Debug("unmapped event kind", zap.String("name", decoded.Name), zap.String("tx", lg.TxHash))
		return nil, nil
	}
}

func (m *Mapper) mapTransfer(ref model.LogRef, d *abi.DecodedLog) (model.Event, error) {
	if len(d.Values) != 3 {
		return nil, fmt.Errorf("transfer: unexpected values: %d", len(d.Values))
	}
	from, err := abi.AsAddress(d.Values[0])
	if err != nil {
		return nil, fmt.Errorf("transfer from: %w", err)
	}
	to, err := abi.AsAddress(d.Values[1])
	if err != nil {
		return nil, fmt.Errorf("transfer to: %w", err)
	}
	value, err := abi.AsBigInt(d.Values[2])
	if err != nil {
		return nil, fmt.Errorf("transfer value: %w", err)
	}
	return &model.TransferEvent{
		LogRef: ref,
		From:   strings.ToLower(from.Hex()),
		To:     strings.ToLower(to.Hex()),
		Value:  value,
	}, nil
}

// mapVault covers both V0 (address indexed, uint256) and V2 (address
// indexed, uint256 indexed pid, uint256) vault events: the beneficiary is
// always first, the amount always last.
func (m *Mapper) mapVault(ref model.LogRef, kind string, d *abi.DecodedLog) (model.Event, error) {
	if len(d.Values) < 2 {
		return nil, fmt.Errorf("%s: unexpected values: %d", kind, len(d.Values))
	}
	beneficiary, err := abi.AsAddress(d.Values[0])
	if err != nil {
		return nil, fmt.Errorf("%s beneficiary: %w", kind, err)
	}
	amount, err := abi.AsBigInt(d.Values[len(d.Values)-1])
	if err != nil {
		return nil, fmt.Errorf("%s amount: %w", kind, err)
	}
	return &model.VaultEvent{
		LogRef:      ref,
		Kind:        kind,
		Beneficiary: strings.ToLower(beneficiary.Hex()),
		Amount:      amount,
	}, nil
}

func (m *Mapper) mapStake(ref model.LogRef, kind string, d *abi.DecodedLog) (model.Event, error) {
	if len(d.Values) < 2 {
		return nil, fmt.Errorf("%s: unexpected values: %d", kind, len(d.Values))
	}
	user, err := abi.AsAddress(d.Values[0])
	if err != nil {
		return nil, fmt.Errorf("%s user: %w", kind, err)
	}
	amount, err := abi.AsBigInt(d.Values[1])
	if err != nil {
		return nil, fmt.Errorf("%s amount: %w", kind, err)
	}
	return &model.StakeEvent{
		LogRef: ref,
		Kind:   kind,
		User:   strings.ToLower(user.Hex()),
		Amount: amount,
	}, nil
}

func (m *Mapper) mapSwap(ref model.LogRef, d *abi.DecodedLog) (model.Event, error) {
	if len(d.Values) != 6 {
		return nil, fmt.Errorf("swap: unexpected values: %d", len(d.Values))
	}
	sender, err := abi.AsAddress(d.Values[0])
	if err != nil {
		return nil, fmt.Errorf("swap sender: %w", err)
	}
	to, err := abi.AsAddress(d.Values[1])
	if err != nil {
		return nil, fmt.Errorf("swap to: %w", err)
	}
	amounts := make([]interface{}, 4)
	copy(amounts, d.Values[2:])
	event := &model.SwapEvent{
		LogRef: ref,
		Sender: strings.ToLower(sender.Hex()),
		To:     strings.ToLower(to.Hex()),
	}
	if event.Amount0In, err = abi.AsBigInt(amounts[0]); err != nil {
		return nil, fmt.Errorf("swap amount0In: %w", err)
	}
	if event.Amount1In, err = abi.AsBigInt(amounts[1]); err != nil {
		return nil, fmt.Errorf("swap amount1In: %w", err)
	}
	if event.Amount0Out, err = abi.AsBigInt(amounts[2]); err != nil {
		return nil, fmt.Errorf("swap amount0Out: %w", err)
	}
	if event.Amount1Out, err = abi.AsBigInt(amounts[3]); err != nil {
		return nil, fmt.Errorf("swap amount1Out: %w", err)
	}
	return event, nil
}

func (m *Mapper) mapMint(ref model.LogRef, d *abi.DecodedLog) (model.Event, error) {
	if len(d.Values) != 3 {
		return nil, fmt.Errorf("mint: unexpected values: %d", len(d.Values))
	}
	sender, err := abi.AsAddress(d.Values[0])
	if err != nil {
		return nil, fmt.Errorf("mint sender: %w", err)
	}
	amount0, err := abi.AsBigInt(d.Values[1])
	if err != nil {
		return nil, fmt.Errorf("mint amount0: %w", err)
	}
	amount1, err := abi.AsBigInt(d.Values[2])
	if err != nil {
		return nil, fmt.Errorf("mint amount1: %w", err)
	}
	return &model.MintEvent{
		LogRef:  ref,
		Sender:  strings.ToLower(sender.Hex()),
		Amount0: amount0,
		Amount1: amount1,
	}, nil
}

func (m *Mapper) mapBurn(ref model.LogRef, d *abi.DecodedLog) (model.Event, error) {
	if len(d.Values) != 4 {
		return nil, fmt.Errorf("burn: unexpected values: %d", len(d.Values))
	}
	sender, err := abi.AsAddress(d.Values[0])
	if err != nil {
		return nil, fmt.Errorf("burn sender: %w", err)
	}
	to, err := abi.AsAddress(d.Values[1])
	if err != nil {
		return nil, fmt.Errorf("burn to: %w", err)
	}
	amount0, err := abi.AsBigInt(d.Values[2])
	if err != nil {
		return nil, fmt.Errorf("burn amount0: %w", err)
	}
	amount1, err := abi.AsBigInt(d.Values[3])
	if err != nil {
		return nil, fmt.Errorf("burn amount1: %w", err)
	}
	return &model.BurnEvent{
		LogRef:  ref,
		Sender:  strings.ToLower(sender.Hex()),
		To:      strings.ToLower(to.Hex()),
		Amount0: amount0,
		Amount1: amount1,
	}, nil
}

func (m *Mapper) mapSync(ref model.LogRef, d *abi.DecodedLog) (model.Event, error) {
	if len(d.Values) != 2 {
		return nil, fmt.Errorf("sync: unexpected values: %d", len(d.Values))
	}
	reserve0, err := abi.AsBigInt(d.Values[0])
	if err != nil {
		return nil, fmt.Errorf("sync reserve0: %w", err)
	}
	reserve1, err := abi.AsBigInt(d.Values[1])
	if err != nil {
		return nil, fmt.Errorf("sync reserve1: %w", err)
	}
	return &model.SyncEvent{LogRef: ref, Reserve0: reserve0, Reserve1: reserve1}, nil
}

func (m *Mapper) mapAdmin(ref model.LogRef, kind string, d *abi.DecodedLog) (model.Event, error) {
	values := make([]string, 0, len(d.Values))
	for _, v := range d.Values {
		if addr, err := abi.AsAddress(v); err == nil {
			values = append(values, strings.ToLower(addr.Hex()))
			continue
		}
		if raw, ok := v.([]byte); ok {
			values = append(values, hexutil.Encode(raw))
			continue
		}
		values = append(values, fmt.Sprintf("%v", v))
	}
	return &model.AdminEvent{LogRef: ref, Kind: kind, Values: values}, nil
}

// BuildTransfer produces the ledger skeleton for events that create
// transfer records: ERC-20 transfers of a watched token, and RewardPaid
// payouts which become REWARD transfers from the paying pool. Other kinds
// return nil.
func BuildTransfer(e model.Event) *model.Transfer {
	switch event := e.(type) {
	case *model.TransferEvent:
		ref := event.Ref()
		return &model.Transfer{
			ID:        model.TransferID(ref.TxHash, ref.LogIndex),
			Block:     ref.Block,
			BlockHash: ref.BlockHash,
			TxHash:    ref.TxHash,
			LogIndex:  ref.LogIndex,
			Token:     ref.Address,
			Owner:     event.From,
			Recipient: event.To,
			Value:     contracts.ParseAmount(event.Value, ref.Address),
			Type:      contracts.ClassifyTransfer(event.From, event.To),
		}
	case *model.StakeEvent:
		if event.Kind != "RewardPaid" {
			return nil
		}
		ref := event.Ref()
		return &model.Transfer{
			ID:        model.TransferID(ref.TxHash, ref.LogIndex),
			Block:     ref.Block,
			BlockHash: ref.BlockHash,
			TxHash:    ref.TxHash,
			LogIndex:  ref.LogIndex,
			Token:     contracts.FarmToken,
			Owner:     ref.Address,
			Recipient: event.User,
			Value:     contracts.ParseAmount(event.Amount, contracts.FarmToken),
			Type:      model.TransferReward,
		}
	default:
		return nil
	}
}
