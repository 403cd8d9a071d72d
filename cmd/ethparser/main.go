package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yagosupro/ethparser/internal/abi"
	"github.com/yagosupro/ethparser/internal/chain"
	"github.com/yagosupro/ethparser/internal/config"
	"github.com/yagosupro/ethparser/internal/events"
	"github.com/yagosupro/ethparser/internal/ledger"
	"github.com/yagosupro/ethparser/internal/parser"
	"github.com/yagosupro/ethparser/internal/prices"
	"github.com/yagosupro/ethparser/internal/storage"
	"github.com/yagosupro/ethparser/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "ethparser",
		Short:        "Harvest transfer parser and profit ledger",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Parse live logs from a websocket subscription",
		RunE:  runLive,
	}
	addPipelineFlags(runCmd)
	root.AddCommand(runCmd)

	backfillCmd := &cobra.Command{
		Use:   "backfill",
		Short: "Replay a historical block range through the pipeline",
		RunE:  runBackfill,
	}
	addPipelineFlags(backfillCmd)
	backfillCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	backfillCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	backfillCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	backfillCmd.Flags().String("cursor", "./data/cursor.json", "cursor file path")
	backfillCmd.Flags().Bool("cursor-enabled", true, "resume from cursor")
	backfillCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	backfillCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	root.AddCommand(backfillCmd)

	root.AddCommand(newDecodeInputCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "Ethereum RPC URL")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN, empty runs in-memory")
	cmd.Flags().StringSlice("address", nil, "contract addresses to watch (comma-separated)")
	cmd.Flags().StringSlice("topic0", nil, "topic0 filters (comma-separated)")
	cmd.Flags().Duration("poll-timeout", time.Second, "input queue poll timeout")
	cmd.Flags().Int("queue-size", 100, "input and output queue capacity")
	cmd.Flags().Bool("fetch-balances", false, "fetch balanceOf from chain for each record")
	cmd.Flags().String("drop-journal", "./data/drops.jsonl", "dropped logs JSONL path")
	cmd.Flags().StringSlice("prices", nil, "static token prices (addr=usd, comma-separated)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// pipeline bundles everything a command needs to process logs.
type pipeline struct {
	cfg    config.Config
	logger *zap.Logger
	chain  *chain.Client
	parser *parser.Parser
	health *parser.Registry
	close  func()
}

func buildPipeline(ctx context.Context, cmd *cobra.Command) (*pipeline, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}

	decoder, err := abi.NewDecoder(abi.DefaultRegistry())
	if err != nil {
		return nil, fmt.Errorf("build decoder: %w", err)
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	closers := []func(){chainClient.Close, func() { _ = logger.Sync() }}

	var store storage.TransferStore
	if cfg.PgDSN != "" {
		pgStore, err := postgres.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			chainClient.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pgStore.EnsureSchema(ctx); err != nil {
			pgStore.Close()
			chainClient.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		closers = append(closers, pgStore.Close)
		store = pgStore
	} else {
		logger.Warn("no pg-dsn configured, using in-memory store")
		store = storage.NewMemoryStore()
	}

	p := parser.New(
		parser.Config{
			Name:          "transfers",
			QueueSize:     cfg.QueueSize,
			PollTimeout:   cfg.PollTimeout,
			FetchBalances: cfg.FetchBalances,
		},
		chainClient,
		events.NewMapper(decoder, logger),
		prices.NewCached(prices.NewStatic(cfg.Prices)),
		ledger.NewService(store, logger),
		storage.NewDropJournal(cfg.DropJournal),
		logger,
	)

	health := parser.NewRegistry()
	health.Add(p)

	return &pipeline{
		cfg:    cfg,
		logger: logger,
		chain:  chainClient,
		parser: p,
		health: health,
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}

func runLive(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pl, err := buildPipeline(ctx, cmd)
	if err != nil {
		return err
	}
	defer pl.close()

	addresses, err := parser.ParseAddresses(pl.cfg.Addresses)
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		return fmt.Errorf("address list is required")
	}

	if err := pl.chain.SubscribeLogs(ctx, addresses, pl.parser.Input()); err != nil {
		return err
	}

	go drainOutput(ctx, pl)
	go reportHealth(ctx, pl)

	pl.logger.Info("live parsing start",
		zap.String("rpc", pl.cfg.RPCURL),
		zap.Int("addresses", len(addresses)),
		zap.Bool("postgres", pl.cfg.PgDSN != ""),
	)

	pl.parser.Run(ctx)
	return nil
}

func runBackfill(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pl, err := buildPipeline(ctx, cmd)
	if err != nil {
		return err
	}
	defer pl.close()

	addresses, err := parser.ParseAddresses(pl.cfg.Addresses)
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		return fmt.Errorf("address list is required")
	}
	topic0, err := parser.ParseTopic0(pl.cfg.Topic0)
	if err != nil {
		return err
	}

	parserCtx, stopParser := context.WithCancel(ctx)
	defer stopParser()
	parserDone := make(chan struct{})
	go func() {
		defer close(parserDone)
		pl.parser.Run(parserCtx)
	}()
	go drainOutput(parserCtx, pl)
	go reportHealth(parserCtx, pl)

	backfill := parser.NewBackfill(parser.BackfillConfig{
		FromBlock:     pl.cfg.FromBlock,
		ToBlock:       pl.cfg.ToBlock,
		Addresses:     addresses,
		Topic0:        topic0,
		BatchSize:     pl.cfg.BatchSize,
		CursorPath:    pl.cfg.Cursor,
		CursorEnabled: pl.cfg.CursorEnabled,
		MaxRetries:    pl.cfg.MaxRetries,
		RetryBackoff:  pl.cfg.RetryBackoff,
	}, pl.chain, pl.parser.Input(), pl.logger)

	pl.logger.Info("backfill start",
		zap.Uint64("from", pl.cfg.FromBlock),
		zap.Uint64("to", pl.cfg.ToBlock),
		zap.Uint64("batch_size", pl.cfg.BatchSize),
	)

	if err := backfill.Run(ctx); err != nil {
		return err
	}

	// let the parser drain what the backfill queued
	for pl.parser.QueueLen() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	time.Sleep(pl.cfg.PollTimeout)
	stopParser()
	<-parserDone

	pl.logger.Info("backfill complete", zap.Uint64("processed", pl.parser.Processed()))
	return nil
}

func drainOutput(ctx context.Context, pl *pipeline) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-pl.parser.Output():
			pl.logger.Debug("transfer saved",
				zap.String("id", t.ID),
				zap.String("type", string(t.Type)),
				zap.Float64("value", t.Value),
				zap.Float64("profit_usd", t.ProfitUSD),
			)
		}
	}
}

func reportHealth(ctx context.Context, pl *pipeline) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, status := range pl.health.Statuses() {
				pl.logger.Info("parser health",
					zap.String("name", status.Name),
					zap.Uint64("processed", status.Processed),
					zap.Time("last_seen", status.LastSeen),
				)
			}
			for _, status := range pl.health.Stalled(5*time.Minute, time.Now()) {
				pl.logger.Warn("parser stalled", zap.String("name", status.Name))
			}
		}
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
