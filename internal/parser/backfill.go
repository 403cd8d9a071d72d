package parser

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/yagosupro/ethparser/internal/model"
)

// LogSource fetches historical logs for the backfill.
type LogSource interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]model.LogRecord, error)
}

// BackfillConfig holds settings for a historical range replay.
type BackfillConfig struct {
	FromBlock     uint64
	ToBlock       uint64
	Addresses     []common.Address
	Topic0        []common.Hash
	BatchSize     uint64
	CursorPath    string
	CursorEnabled bool
	MaxRetries    int
	RetryBackoff  time.Duration
}

// Backfill replays historical logs through a parser's input queue in
// batches. The blocking queue push propagates backpressure: fetching
// pauses while the parser digests a batch.
type Backfill struct {
	cfg    BackfillConfig
	source LogSource
	sink   chan<- model.LogRecord
	cursor *CursorStore
	logger *zap.Logger
}

func NewBackfill(cfg BackfillConfig, source LogSource, sink chan<- model.LogRecord, logger *zap.Logger) *Backfill {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backfill{
		cfg:    cfg,
		source: source,
		sink:   sink,
		cursor: NewCursorStore(cfg.CursorPath, cfg.CursorEnabled),
		logger: logger,
	}
}

// Run walks the configured range batch by batch, feeding every fetched
// log to the sink and advancing the cursor after each batch.
func (b *Backfill) Run(ctx context.Context) error {
	if b.source == nil {
		return fmt.Errorf("log source is nil")
	}
	if b.sink == nil {
		return fmt.Errorf("sink is nil")
	}
	if b.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if len(b.cfg.Addresses) == 0 {
		return fmt.Errorf("at least one address is required")
	}

	from := b.cfg.FromBlock
	to := b.cfg.ToBlock
	if to == 0 {
		latest, err := b.source.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	cursor, ok, err := b.cursor.Load()
	if err != nil {
		return err
	}
	if ok && cursor.LastBlock >= from {
		from = cursor.LastBlock + 1
		b.logger.Info("resume from cursor", zap.Uint64("last_block", cursor.LastBlock), zap.Uint64("from", from))
	}

	if from > to {
		b.logger.Info("nothing to backfill", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, b.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		b.logger.Info("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

		logs, err := b.filterLogsWithRetry(ctx, blockRange.From, blockRange.To)
		if err != nil {
			return fmt.Errorf("filter logs: %w", err)
		}

		for _, lg := range logs {
			select {
			case b.sink <- lg:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := b.cursor.Save(blockRange.To); err != nil {
			return err
		}
		b.logger.Info("batch queued", zap.Int("logs", len(logs)), zap.Uint64("to", blockRange.To))
	}
	return nil
}

func (b *Backfill) filterLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64) ([]model.LogRecord, error) {
	var logs []model.LogRecord
	err := withRetry(ctx, b.cfg.MaxRetries, b.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = b.source.FilterLogs(ctx, fromBlock, toBlock, b.cfg.Addresses, b.cfg.Topic0)
		if err != nil {
			b.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
		}
		return err
	})
	return logs, err
}
