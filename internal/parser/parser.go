// Package parser runs the log processing pipeline: raw log in, decoded
// and enriched transfer out, persisted through the ledger.
package parser

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yagosupro/ethparser/internal/abi"
	"github.com/yagosupro/ethparser/internal/contracts"
	"github.com/yagosupro/ethparser/internal/events"
	"github.com/yagosupro/ethparser/internal/ledger"
	"github.com/yagosupro/ethparser/internal/model"
	"github.com/yagosupro/ethparser/internal/prices"
	"github.com/yagosupro/ethparser/internal/storage"
)

// ErrPriceUnavailable marks a record whose profit math needs a price the
// oracle could not serve. The record is dropped, not saved at zero.
var ErrPriceUnavailable = errors.New("price unavailable")

const (
	defaultQueueSize   = 100
	defaultPollTimeout = time.Second
)

// ChainService is the subset of chain lookups the pipeline enriches with.
type ChainService interface {
	TransactionSender(ctx context.Context, txHash string) (string, error)
	BlockTimestamp(ctx context.Context, blockHash string, blockNumber uint64) (int64, error)
	AverageGasPrice(ctx context.Context) (float64, error)
	TokenBalance(ctx context.Context, token, holder string, blockNumber uint64) (*big.Int, error)
}

// Config holds per-parser settings. Zero values fall back to defaults.
type Config struct {
	Name        string
	QueueSize   int
	PollTimeout time.Duration
	// FetchBalances queries balanceOf on chain for both parties; when off
	// (or when the query fails) balances come from the local ledger.
	FetchBalances bool
}

// Parser consumes raw logs from its input queue, decodes and enriches
// them, persists the resulting transfers, and offers them on the output
// queue. One goroutine per parser; queues give backpressure.
type Parser struct {
	cfg     Config
	chain   ChainService
	mapper  *events.Mapper
	prices  prices.Provider
	ledger  *ledger.Service
	journal *storage.DropJournal
	logger  *zap.Logger

	input  chan model.LogRecord
	output chan *model.Transfer

	processed atomic.Uint64
	lastSeen  atomic.Int64
}

func New(
	cfg Config,
	chainService ChainService,
	mapper *events.Mapper,
	priceProvider prices.Provider,
	ledgerService *ledger.Service,
	journal *storage.DropJournal,
	logger *zap.Logger,
) *Parser {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = defaultPollTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		cfg:     cfg,
		chain:   chainService,
		mapper:  mapper,
		prices:  priceProvider,
		ledger:  ledgerService,
		journal: journal,
		logger:  logger.With(zap.String("parser", cfg.Name)),
		input:   make(chan model.LogRecord, cfg.QueueSize),
		output:  make(chan *model.Transfer, cfg.QueueSize),
	}
}

// Input is the raw log queue feeding this parser.
func (p *Parser) Input() chan<- model.LogRecord { return p.input }

// Output carries persisted transfers for downstream consumers. Slow
// consumers never stall the loop; overflow is logged and skipped.
func (p *Parser) Output() <-chan *model.Transfer { return p.output }

func (p *Parser) Name() string { return p.cfg.Name }

// QueueLen reports how many raw logs are waiting in the input queue.
func (p *Parser) QueueLen() int { return len(p.input) }

// Processed returns the number of polled items since start.
func (p *Parser) Processed() uint64 { return p.processed.Load() }

// LastSeen returns when the parser last decoded an item successfully.
// Zero time means it never has.
func (p *Parser) LastSeen() time.Time {
	ns := p.lastSeen.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Run polls the input queue until ctx is canceled. Every failure is
// confined to the item that caused it; the loop never exits on bad data.
func (p *Parser) Run(ctx context.Context) {
	p.logger.Info("parser start")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("parser stop", zap.Uint64("processed", p.processed.Load()))
			return
		case lg := <-p.input:
			p.processed.Add(1)
			p.handle(ctx, lg)
		case <-time.After(p.cfg.PollTimeout):
			// idle poll keeps cancellation responsive
		}
	}
}

func (p *Parser) handle(ctx context.Context, lg model.LogRecord) {
	transfer, err := p.process(ctx, lg)
	if err != nil {
		switch {
		case errors.Is(err, abi.ErrNotReady):
			p.logger.Warn("decoder not ready, log skipped",
				zap.String("tx", lg.TxHash), zap.Uint64("log_index", lg.LogIndex))
		case errors.Is(err, ledger.ErrInconsistentOwner):
			p.logger.Error("profit history inconsistent",
				zap.String("tx", lg.TxHash), zap.Error(err))
			p.drop(lg, err)
		case errors.Is(err, ErrPriceUnavailable):
			p.logger.Warn("price unavailable, log dropped",
				zap.String("tx", lg.TxHash), zap.Error(err))
			p.drop(lg, err)
		default:
			p.logger.Error("log processing failed",
				zap.String("tx", lg.TxHash), zap.Uint64("block", lg.BlockNumber), zap.Error(err))
			p.drop(lg, err)
		}
		return
	}
	if transfer == nil {
		return
	}

	select {
	case p.output <- transfer:
	default:
		p.logger.Warn("output queue full, transfer not forwarded", zap.String("id", transfer.ID))
	}
}

func (p *Parser) drop(lg model.LogRecord, reason error) {
	if err := p.journal.Record(lg, reason); err != nil {
		p.logger.Warn("drop journal write failed", zap.Error(err))
	}
}

// process runs the full path for one log: decode, map, enrich, attribute
// and persist. A nil transfer with nil error means the log is not ours.
func (p *Parser) process(ctx context.Context, lg model.LogRecord) (*model.Transfer, error) {
	if lg.Removed {
		p.logger.Warn("removed log ignored", zap.String("tx", lg.TxHash))
		return nil, nil
	}

	event, err := p.mapper.Map(lg)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, nil
	}
	p.lastSeen.Store(time.Now().UnixNano())

	transfer := events.BuildTransfer(event)
	if transfer == nil {
		return nil, nil
	}

	if err := p.enrich(ctx, lg, transfer); err != nil {
		return nil, err
	}

	saved, err := p.ledger.Save(ctx, transfer)
	if err != nil {
		return nil, err
	}
	if !saved {
		return nil, nil
	}
	return transfer, nil
}

func (p *Parser) enrich(ctx context.Context, lg model.LogRecord, t *model.Transfer) error {
	sender, err := p.chain.TransactionSender(ctx, t.TxHash)
	if err != nil {
		return fmt.Errorf("resolve sender: %w", err)
	}
	p.logger.Debug("tx sender", zap.String("tx", t.TxHash), zap.String("sender", sender))

	ts, err := p.chain.BlockTimestamp(ctx, t.BlockHash, t.Block)
	if err != nil {
		return fmt.Errorf("resolve block timestamp: %w", err)
	}
	t.BlockDate = ts

	if err := p.fillPrice(ctx, t); err != nil {
		return err
	}

	if gas, err := p.chain.AverageGasPrice(ctx); err != nil {
		p.logger.Debug("gas price unavailable", zap.Error(err))
	} else {
		t.Gas = gas
	}

	return p.fillBalances(ctx, lg, t)
}

func (p *Parser) fillPrice(ctx context.Context, t *model.Transfer) error {
	if p.prices == nil {
		if priceRequired(t.Type) {
			return fmt.Errorf("%w: no provider for %s", ErrPriceUnavailable, t.Token)
		}
		return nil
	}
	price, known, err := p.prices.PriceForToken(ctx, t.Token, t.Block)
	if err != nil {
		return fmt.Errorf("%w: %s at %d: %v", ErrPriceUnavailable, t.Token, t.Block, err)
	}
	if !known {
		if priceRequired(t.Type) {
			return fmt.Errorf("%w: %s at %d", ErrPriceUnavailable, t.Token, t.Block)
		}
		return nil
	}
	t.Price = price
	return nil
}

// priceRequired reports whether profit math for the type reads the price.
// Stakes realize nothing, so a missing quote only costs telemetry there.
func priceRequired(transferType model.TransferType) bool {
	return transferType != model.TransferPsStake
}

func (p *Parser) fillBalances(ctx context.Context, lg model.LogRecord, t *model.Transfer) error {
	if p.cfg.FetchBalances {
		ownerBalance, ownerErr := p.tokenBalance(ctx, t.Token, t.Owner, lg.BlockNumber)
		recipientBalance, recipientErr := p.tokenBalance(ctx, t.Token, t.Recipient, lg.BlockNumber)
		if ownerErr == nil && recipientErr == nil {
			t.BalanceOwner = ownerBalance
			t.BalanceRecipient = recipientBalance
			return nil
		}
		p.logger.Warn("chain balance lookup failed, using ledger balances",
			zap.NamedError("owner_err", ownerErr), zap.NamedError("recipient_err", recipientErr))
	}
	return p.ledger.FillBalances(ctx, t)
}

func (p *Parser) tokenBalance(ctx context.Context, token, holder string, blockNumber uint64) (float64, error) {
	raw, err := p.chain.TokenBalance(ctx, token, holder, blockNumber)
	if err != nil {
		return 0, err
	}
	return contracts.ParseAmount(raw, token), nil
}
