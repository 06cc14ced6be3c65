package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "pool",
		Short:        "Bonding-curve item swap pool",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay an operation log through the pool engine",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("ops", "", "input operation log JSONL")
	replayCmd.Flags().String("out", "./data/trades.jsonl", "output trades JSONL path")
	replayCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for trades and listing snapshots")
	replayCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	replayCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	replayCmd.Flags().Int("batch-size", 100, "trades per storage batch")
	replayCmd.Flags().String("controller", "", "pool controller address")
	replayCmd.Flags().String("fee-recipient", "", "protocol fee recipient address")
	replayCmd.Flags().String("protocol-fee", "0", "protocol fee multiplier (wad-scaled)")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a trade against a curve without touching state",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("curve", "linear", "curve name (linear, exponential)")
	quoteCmd.Flags().String("side", "buy", "trade side (buy, sell)")
	quoteCmd.Flags().String("spot", "0", "current spot price")
	quoteCmd.Flags().String("delta", "0", "curve step parameter")
	quoteCmd.Flags().Uint64("count", 1, "number of items")
	quoteCmd.Flags().String("fee", "0", "trade fee multiplier (wad-scaled)")
	quoteCmd.Flags().String("protocol-fee", "0", "protocol fee multiplier (wad-scaled)")

	root.AddCommand(quoteCmd)

	summarizeCmd := &cobra.Command{
		Use:   "summarize",
		Short: "Fold a settled-trade log into per-listing summaries",
		RunE:  runSummarize,
	}

	summarizeCmd.Flags().String("trades", "", "input trades JSONL")
	summarizeCmd.Flags().String("summaries", "./data/summaries.jsonl", "output summaries JSONL path")
	summarizeCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for summary upserts")
	summarizeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(summarizeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
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
