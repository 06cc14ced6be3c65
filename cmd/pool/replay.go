package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"curvepool/internal/access"
	"curvepool/internal/config"
	"curvepool/internal/custody"
	"curvepool/internal/engine"
	"curvepool/internal/fees"
	"curvepool/internal/ledger"
	"curvepool/internal/model"
	"curvepool/internal/replay"
	"curvepool/internal/storage"
	"curvepool/internal/storage/postgres"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.OpsPath == "" {
		return fmt.Errorf("ops log path is required")
	}
	if cfg.Controller == "" {
		return fmt.Errorf("controller address is required")
	}

	controller, err := replay.ParseAddress(cfg.Controller)
	if err != nil {
		return err
	}
	recipient := controller
	if cfg.FeeRecipient != "" {
		recipient, err = replay.ParseAddress(cfg.FeeRecipient)
		if err != nil {
			return err
		}
	}
	protocolFee, err := replay.ParseAmount(cfg.ProtocolFee)
	if err != nil {
		return err
	}

	feeAuth, err := fees.NewStatic(protocolFee, recipient)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := custody.New()
	led := ledger.New()
	eng := engine.New(logger, reg, led, feeAuth, access.NewSingleController(controller))

	var sink storage.Storage = storage.NewJsonlStorage(cfg.Out)
	var pgStore *postgres.Store
	var state replay.StateStore
	if cfg.PGDSN != "" {
		pgStore, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
		sink = multiSink{sink, &pgTradeSink{ctx: ctx, store: pgStore}}
		if cfg.CheckpointEnabled {
			state = &replay.DBCheckpointStore{Store: pgStore, Name: "pool-replay"}
		}
	}

	runner := replay.NewRunner(replay.RunConfig{
		OpsPath:           cfg.OpsPath,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		BatchSize:         cfg.BatchSize,
		State:             state,
	}, eng, reg, led, sink, logger)

	logger.Info("replay start",
		zap.String("ops", cfg.OpsPath),
		zap.String("out", cfg.Out),
		zap.String("controller", controller.Hex()),
		zap.String("protocol_fee", protocolFee.Dec()),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	if err := runner.Run(ctx); err != nil {
		return err
	}

	if pgStore != nil {
		if err := pgStore.UpsertListings(ctx, eng.Snapshot()); err != nil {
			return fmt.Errorf("store listing snapshots: %w", err)
		}
	}
	return nil
}

// pgTradeSink adapts the Postgres store to the trade sink interface.
type pgTradeSink struct {
	ctx   context.Context
	store *postgres.Store
}

func (s *pgTradeSink) PutTradeBatch(trades []model.TradeRecord) error {
	return s.store.InsertTrades(s.ctx, trades)
}

// multiSink fans a trade batch out to every configured sink.
type multiSink []storage.Storage

func (m multiSink) PutTradeBatch(trades []model.TradeRecord) error {
	for _, sink := range m {
		if err := sink.PutTradeBatch(trades); err != nil {
			return err
		}
	}
	return nil
}
