package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"curvepool/internal/aggregate"
	"curvepool/internal/model"
	"curvepool/internal/storage/postgres"
)

func runSummarize(cmd *cobra.Command, _ []string) error {
	tradesPath, _ := cmd.Flags().GetString("trades")
	outPath, _ := cmd.Flags().GetString("summaries")
	pgDSN, _ := cmd.Flags().GetString("pg-dsn")
	logLevel, _ := cmd.Flags().GetString("log-level")

	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if tradesPath == "" {
		return fmt.Errorf("trades log path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("summarize start",
		zap.String("trades", tradesPath),
		zap.String("summaries", outPath),
	)

	agg := aggregate.NewAggregator(logger)
	summaries, err := agg.Run(ctx, tradesPath)
	if err != nil {
		return err
	}

	if outPath != "" {
		if err := writeSummaries(outPath, summaries); err != nil {
			return err
		}
	}

	if pgDSN != "" {
		store, err := postgres.NewStore(ctx, pgDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.UpsertListingSummaries(ctx, summaries); err != nil {
			return fmt.Errorf("store summaries: %w", err)
		}
	}
	return nil
}

// writeSummaries replaces the output file with one JSON line per listing.
func writeSummaries(path string, summaries []model.ListingSummary) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, summary := range summaries {
		line, err := json.Marshal(summary)
		if err != nil {
			return fmt.Errorf("marshal summary: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}
	return writer.Flush()
}
