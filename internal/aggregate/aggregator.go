// Package aggregate folds a settled-trade log into per-listing summaries.
// Trade IDs are the unit of identity: a trade that appears twice in the log
// (a resumed run re-flushing a batch) is counted once.
package aggregate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"curvepool/internal/model"
)

// Aggregator accumulates trade records into listing summaries.
type Aggregator struct {
	logger       *zap.Logger
	accumulators map[uint64]*Accumulator
	seen         map[string]struct{}
}

func NewAggregator(logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		logger:       logger,
		accumulators: make(map[uint64]*Accumulator),
		seen:         make(map[string]struct{}),
	}
}

// Run aggregates a trades JSONL file and returns the summaries ordered by
// listing index. Undecodable lines are counted and skipped.
func (a *Aggregator) Run(ctx context.Context, inputPath string) ([]model.ListingSummary, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("open trades log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var total, applied, duplicates, failed int
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var trade model.TradeRecord
		if err := json.Unmarshal(line, &trade); err != nil {
			failed++
			a.logger.Warn("decode trade record", zap.Error(err))
			continue
		}
		if trade.TradeID != "" {
			if _, ok := a.seen[trade.TradeID]; ok {
				duplicates++
				continue
			}
			a.seen[trade.TradeID] = struct{}{}
		}

		acc := a.accumulators[trade.ListingIndex]
		if acc == nil {
			acc = NewAccumulator(trade.ListingIndex)
			a.accumulators[trade.ListingIndex] = acc
		}
		if err := acc.AddTrade(trade); err != nil {
			failed++
			a.logger.Warn("fold trade record", zap.String("trade_id", trade.TradeID), zap.Error(err))
			continue
		}
		applied++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read trades log: %w", err)
	}

	indexes := make([]uint64, 0, len(a.accumulators))
	for index := range a.accumulators {
		indexes = append(indexes, index)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	summaries := make([]model.ListingSummary, 0, len(indexes))
	for _, index := range indexes {
		summaries = append(summaries, a.accumulators[index].Summary())
	}

	a.logger.Info("summarize complete",
		zap.Int("total", total),
		zap.Int("applied", applied),
		zap.Int("duplicates", duplicates),
		zap.Int("failed", failed),
		zap.Int("listings", len(summaries)),
	)
	return summaries, nil
}
