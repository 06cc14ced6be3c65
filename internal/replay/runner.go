// Package replay applies an operation log to a freshly wired pool engine,
// writing the settled trades to a storage sink. Failed ops are recorded and
// skipped; the engine guarantees they left no state behind.
package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"curvepool/internal/curve"
	"curvepool/internal/custody"
	"curvepool/internal/engine"
	"curvepool/internal/ledger"
	"curvepool/internal/model"
	"curvepool/internal/storage"
)

// RunConfig holds runtime settings for replay.
type RunConfig struct {
	OpsPath           string
	CheckpointPath    string
	CheckpointEnabled bool
	BatchSize         int
	// State overrides the default file checkpoint store when set, e.g.
	// with a Postgres-backed store.
	State StateStore
}

// Runner streams ops from the log, applies them to the engine, and writes
// trade records to storage.
type Runner struct {
	cfg        RunConfig
	engine     *engine.Engine
	custody    *custody.Registry
	ledger     *ledger.Ledger
	storage    storage.Storage
	logger     *zap.Logger
	checkpoint StateStore
	failures   []model.OpError
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, eng *engine.Engine, reg *custody.Registry, led *ledger.Ledger, sink storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	state := cfg.State
	if state == nil {
		state = NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled)
	}
	return &Runner{
		cfg:        cfg,
		engine:     eng,
		custody:    reg,
		ledger:     led,
		storage:    sink,
		logger:     logger,
		checkpoint: state,
	}
}

// Failures returns the ops that aborted during the last Run.
func (r *Runner) Failures() []model.OpError {
	return r.failures
}

// Run executes the replay loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.engine == nil {
		return fmt.Errorf("engine is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize <= 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}

	file, err := os.Open(r.cfg.OpsPath)
	if err != nil {
		return fmt.Errorf("open ops log: %w", err)
	}
	defer file.Close()

	lastApplied := uint64(0)
	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load(ctx)
		if err != nil {
			return err
		}
		if ok {
			lastApplied = cp.LastAppliedSeq
			r.logger.Info("resume from checkpoint", zap.Uint64("last_applied", lastApplied))
		}
	}

	r.failures = nil
	var (
		batch   []model.TradeRecord
		applied int
		skipped int
	)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var op model.Op
		if err := json.Unmarshal(line, &op); err != nil {
			return fmt.Errorf("parse op: %w", err)
		}
		if op.Seq <= lastApplied {
			skipped++
			continue
		}

		rcpt, err := r.apply(op)
		if err != nil {
			r.logger.Warn("op aborted", zap.Uint64("seq", op.Seq), zap.String("kind", op.Kind), zap.Error(err))
			r.failures = append(r.failures, model.OpError{Seq: op.Seq, Kind: op.Kind, Error: err.Error()})
		} else if rcpt != nil {
			batch = append(batch, buildTradeRecord(rcpt, time.Now().UTC()))
		}
		lastApplied = op.Seq
		applied++

		if len(batch) >= r.cfg.BatchSize {
			if err := r.flush(ctx, batch, lastApplied); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read ops log: %w", err)
	}

	if err := r.flush(ctx, batch, lastApplied); err != nil {
		return err
	}

	r.logger.Info("replay complete",
		zap.Int("applied", applied),
		zap.Int("skipped", skipped),
		zap.Int("failed", len(r.failures)),
	)
	return nil
}

// flush writes the batch to the sink, then advances the checkpoint. A crash
// between the two replays the batch on resume: the Postgres sink dedups on
// trade ID, an append-only JSONL sink does not, so downstream readers of the
// file must treat the trade ID as the unit of identity.
func (r *Runner) flush(ctx context.Context, batch []model.TradeRecord, lastApplied uint64) error {
	if len(batch) > 0 {
		if err := r.storage.PutTradeBatch(batch); err != nil {
			return fmt.Errorf("store trades: %w", err)
		}
	}
	if r.checkpoint != nil && lastApplied > 0 {
		if err := r.checkpoint.Save(ctx, lastApplied); err != nil {
			return err
		}
	}
	return nil
}

// apply dispatches one op to the engine. Seed and mint ops bootstrap the
// collaborators directly; everything else goes through the engine surface.
func (r *Runner) apply(op model.Op) (*engine.Receipt, error) {
	caller, err := ParseAddress(op.Caller)
	if err != nil {
		return nil, err
	}

	switch op.Kind {
	case "seed-item":
		collection, err := ParseAddress(op.Collection)
		if err != nil {
			return nil, err
		}
		for _, id := range op.ItemIDs {
			r.custody.SetOwner(collection, id, caller)
		}
		return nil, nil

	case "mint":
		amount, err := ParseAmount(op.Amount)
		if err != nil {
			return nil, err
		}
		r.ledger.Mint(caller, amount)
		return nil, nil

	case "register":
		params, err := parseListingParams(op)
		if err != nil {
			return nil, err
		}
		index, err := r.engine.RegisterListing(caller, params)
		if err != nil {
			return nil, err
		}
		r.logger.Info("listing registered", zap.Uint64("seq", op.Seq), zap.Uint64("index", index))
		return nil, nil

	case "update":
		params, err := parseListingParams(op)
		if err != nil {
			return nil, err
		}
		return nil, r.engine.UpdateListing(caller, op.Listing, params)

	case "set-spot":
		price, err := ParseAmount(op.SpotPrice)
		if err != nil {
			return nil, err
		}
		return nil, r.engine.ChangeSpotPrice(caller, op.Listing, price)

	case "set-delta":
		delta, err := ParseAmount(op.Delta)
		if err != nil {
			return nil, err
		}
		return nil, r.engine.ChangeDelta(caller, op.Listing, delta)

	case "set-fee":
		fee, err := ParseAmount(op.Fee)
		if err != nil {
			return nil, err
		}
		return nil, r.engine.ChangeFee(caller, op.Listing, fee)

	case "deposit":
		return nil, r.engine.DepositItems(caller, op.Listing, op.ItemIDs)

	case "withdraw":
		return nil, r.engine.WithdrawItems(caller, op.Listing, op.ItemIDs)

	case "buy-any":
		tendered, err := ParseAmount(op.Amount)
		if err != nil {
			return nil, err
		}
		return r.engine.BuyAny(caller, op.Listing, op.Count, tendered)

	case "buy-exact":
		tendered, err := ParseAmount(op.Amount)
		if err != nil {
			return nil, err
		}
		return r.engine.BuyExact(caller, op.Listing, op.ItemIDs, tendered)

	case "sell":
		minOut, err := ParseAmount(op.MinOut)
		if err != nil {
			return nil, err
		}
		return r.engine.SellExact(caller, op.Listing, op.ItemIDs, minOut)

	default:
		return nil, fmt.Errorf("unknown op kind %q", op.Kind)
	}
}

func parseListingParams(op model.Op) (engine.ListingParams, error) {
	collection, err := ParseAddress(op.Collection)
	if err != nil {
		return engine.ListingParams{}, err
	}
	crv, err := curve.ByName(op.Curve)
	if err != nil {
		return engine.ListingParams{}, err
	}
	poolType, err := engine.ParsePoolType(op.PoolType)
	if err != nil {
		return engine.ListingParams{}, err
	}
	spot, err := ParseAmount(op.SpotPrice)
	if err != nil {
		return engine.ListingParams{}, err
	}
	delta, err := ParseAmount(op.Delta)
	if err != nil {
		return engine.ListingParams{}, err
	}
	fee, err := ParseAmount(op.Fee)
	if err != nil {
		return engine.ListingParams{}, err
	}
	return engine.ListingParams{
		Collection: collection,
		Curve:      crv,
		CurveName:  op.Curve,
		PoolType:   poolType,
		SpotPrice:  spot,
		Delta:      delta,
		Fee:        fee,
	}, nil
}

func buildTradeRecord(rcpt *engine.Receipt, executedAt time.Time) model.TradeRecord {
	return model.TradeRecord{
		TradeID:      rcpt.TradeID.Hex(),
		ListingIndex: rcpt.Listing,
		Side:         rcpt.Side.String(),
		Trader:       rcpt.Trader.Hex(),
		ItemIDs:      rcpt.ItemIDs,
		Amount:       rcpt.Amount.Dec(),
		Refund:       rcpt.Refund.Dec(),
		ProtocolFee:  rcpt.ProtocolFee.Dec(),
		SpotBefore:   rcpt.SpotBefore.Dec(),
		SpotAfter:    rcpt.SpotAfter.Dec(),
		Sequence:     rcpt.Sequence,
		ExecutedAt:   executedAt.Format(time.RFC3339Nano),
	}
}
