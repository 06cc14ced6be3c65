package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"curvepool/internal/model"
)

// Store provides Postgres persistence for listings and trades.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertListings inserts or updates listing snapshots.
func (s *Store) UpsertListings(ctx context.Context, listings []model.ListingRecord) error {
	if len(listings) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, l := range listings {
		batch.Queue(`
			INSERT INTO listings (
				listing_index, collection, curve, pool_type, spot_price, delta, fee, account, inventory, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
			ON CONFLICT (listing_index)
			DO UPDATE SET
				collection = EXCLUDED.collection,
				curve = EXCLUDED.curve,
				pool_type = EXCLUDED.pool_type,
				spot_price = EXCLUDED.spot_price,
				delta = EXCLUDED.delta,
				fee = EXCLUDED.fee,
				account = EXCLUDED.account,
				inventory = EXCLUDED.inventory,
				updated_at = now()
		`,
			int64(l.Index),
			l.Collection,
			l.Curve,
			l.PoolType,
			l.SpotPrice,
			l.Delta,
			l.Fee,
			l.Account,
			l.Inventory,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range listings {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// InsertTrades appends trade records. Trade IDs are unique; replays of the
// same trade are ignored.
func (s *Store) InsertTrades(ctx context.Context, trades []model.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, tr := range trades {
		batch.Queue(`
			INSERT INTO trades (
				trade_id, listing_index, side, trader, item_ids, amount, refund,
				protocol_fee, spot_before, spot_after, sequence, executed_at, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now())
			ON CONFLICT (trade_id) DO NOTHING
		`,
			tr.TradeID,
			int64(tr.ListingIndex),
			tr.Side,
			tr.Trader,
			tr.ItemIDs,
			tr.Amount,
			tr.Refund,
			tr.ProtocolFee,
			tr.SpotBefore,
			tr.SpotAfter,
			int64(tr.Sequence),
			tr.ExecutedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range trades {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertListingSummaries inserts or updates per-listing trade summaries.
func (s *Store) UpsertListingSummaries(ctx context.Context, summaries []model.ListingSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, sm := range summaries {
		batch.Queue(`
			INSERT INTO listing_summaries (
				listing_index, buy_count, sell_count, items_out, items_in,
				volume_in, volume_out, protocol_fees, spot_min, spot_max,
				spot_last, first_seq, last_seq, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,now())
			ON CONFLICT (listing_index)
			DO UPDATE SET
				buy_count = EXCLUDED.buy_count,
				sell_count = EXCLUDED.sell_count,
				items_out = EXCLUDED.items_out,
				items_in = EXCLUDED.items_in,
				volume_in = EXCLUDED.volume_in,
				volume_out = EXCLUDED.volume_out,
				protocol_fees = EXCLUDED.protocol_fees,
				spot_min = EXCLUDED.spot_min,
				spot_max = EXCLUDED.spot_max,
				spot_last = EXCLUDED.spot_last,
				first_seq = EXCLUDED.first_seq,
				last_seq = EXCLUDED.last_seq,
				updated_at = now()
		`,
			int64(sm.ListingIndex),
			int64(sm.BuyCount),
			int64(sm.SellCount),
			int64(sm.ItemsOut),
			int64(sm.ItemsIn),
			sm.VolumeIn,
			sm.VolumeOut,
			sm.ProtocolFees,
			sm.SpotMin,
			sm.SpotMax,
			sm.SpotLast,
			int64(sm.FirstSeq),
			int64(sm.LastSeq),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range summaries {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns the last applied op sequence for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var seq uint64
	row := s.pool.QueryRow(ctx, `SELECT last_applied_seq FROM replay_state WHERE name=$1`, name)
	if err := row.Scan(&seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return seq, true, nil
}

// SaveState upserts the last applied op sequence for a name.
func (s *Store) SaveState(ctx context.Context, name string, seq uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO replay_state (name, last_applied_seq, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_applied_seq = EXCLUDED.last_applied_seq, updated_at = now()
	`, name, seq)
	return err
}
