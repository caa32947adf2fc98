package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgianferro/swap-dapp/internal/model"
)

// Store provides Postgres persistence for pool events and stats.
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

// InsertEvents appends pool event records.
func (s *Store) InsertEvents(ctx context.Context, events []model.EventRecord) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(`
			INSERT INTO pool_events (
				pool, event_name, sequence, event_ts, data, created_at
			) VALUES ($1, $2, $3, $4, $5, now())
			ON CONFLICT (pool, sequence) DO NOTHING
		`,
			event.Pool,
			event.EventName,
			int64(event.Sequence),
			int64(event.Timestamp),
			[]byte(event.Data),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertStats inserts or updates the cumulative stats row for a pool.
func (s *Store) UpsertStats(ctx context.Context, stats model.PoolStats) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pool_stats (
			pool, swap_count, add_count, remove_count,
			volume_a, volume_b, net_liquidity_a, net_liquidity_b,
			last_sequence, last_ts, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now(),now())
		ON CONFLICT (pool)
		DO UPDATE SET
			swap_count = EXCLUDED.swap_count,
			add_count = EXCLUDED.add_count,
			remove_count = EXCLUDED.remove_count,
			volume_a = EXCLUDED.volume_a,
			volume_b = EXCLUDED.volume_b,
			net_liquidity_a = EXCLUDED.net_liquidity_a,
			net_liquidity_b = EXCLUDED.net_liquidity_b,
			last_sequence = EXCLUDED.last_sequence,
			last_ts = EXCLUDED.last_ts,
			updated_at = now()
	`,
		stats.Pool,
		int64(stats.SwapCount),
		int64(stats.AddCount),
		int64(stats.RemoveCount),
		stats.VolumeA,
		stats.VolumeB,
		stats.NetLiquidityA,
		stats.NetLiquidityB,
		int64(stats.LastSequence),
		int64(stats.LastTimestamp),
	)
	return err
}

// PutEventBatch implements storage.Storage.
func (s *Store) PutEventBatch(events []model.EventRecord) error {
	return s.InsertEvents(context.Background(), events)
}
