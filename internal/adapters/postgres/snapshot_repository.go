package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fxcache/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotRepository persists rate snapshots as append-only history. A snapshot
// is one row in rate_snapshots plus one row per quote in snapshot_rates.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

func (r *SnapshotRepository) Save(ctx context.Context, snapshot domain.Snapshot) error {
	rates := snapshot.Rates()
	quotes := make([]string, 0, len(rates))
	values := make([]float64, 0, len(rates))
	for quote, value := range rates {
		quotes = append(quotes, quote)
		values = append(values, value)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", domain.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var snapshotID int64
	err = tx.QueryRow(ctx,
		`insert into rate_snapshots(base, as_of) values ($1, $2) returning id`,
		snapshot.Base(), snapshot.AsOf(),
	).Scan(&snapshotID)
	if err != nil {
		return fmt.Errorf("%w: failed to insert snapshot for %q: %v", domain.ErrStoreUnavailable, snapshot.Base(), err)
	}

	_, err = tx.Exec(ctx,
		`insert into snapshot_rates(snapshot_id, quote, value)
         select $1, unnest($2::text[]), unnest($3::float8[])`,
		snapshotID, quotes, values,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert rates for %q: %v", domain.ErrStoreUnavailable, snapshot.Base(), err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: failed to commit snapshot for %q: %v", domain.ErrStoreUnavailable, snapshot.Base(), err)
	}
	return nil
}

func (r *SnapshotRepository) FindLatest(ctx context.Context, base string) (domain.Snapshot, error) {
	var (
		snapshotID int64
		asOf       time.Time
	)
	err := r.pool.QueryRow(ctx,
		`select id, as_of from rate_snapshots where base = $1 order by as_of desc, id desc limit 1`,
		base,
	).Scan(&snapshotID, &asOf)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, domain.ErrSnapshotNotFound
		}
		return domain.Snapshot{}, fmt.Errorf("%w: failed to select latest snapshot for %q: %v", domain.ErrStoreUnavailable, base, err)
	}

	rates, err := r.loadRates(ctx, snapshotID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: failed to load rates for snapshot %d: %v", domain.ErrStoreUnavailable, snapshotID, err)
	}

	snapshot, err := domain.NewSnapshot(base, asOf, rates)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: corrupt snapshot %d: %v", domain.ErrStoreUnavailable, snapshotID, err)
	}
	return snapshot, nil
}

func (r *SnapshotRepository) FindRange(ctx context.Context, base string, from, to time.Time) ([]domain.Snapshot, error) {
	rows, err := r.pool.Query(ctx,
		`select s.id, s.as_of, r.quote, r.value
         from rate_snapshots s join snapshot_rates r on r.snapshot_id = s.id
         where s.base = $1 and s.as_of between $2 and $3
         order by s.as_of desc, s.id desc`,
		base, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query snapshot range for %q: %v", domain.ErrStoreUnavailable, base, err)
	}
	defer rows.Close()

	snapshots := make([]domain.Snapshot, 0, 8)
	var (
		currentID int64
		asOf      time.Time
		rates     map[string]float64
	)
	flush := func() error {
		if rates == nil {
			return nil
		}
		snapshot, buildErr := domain.NewSnapshot(base, asOf, rates)
		if buildErr != nil {
			return fmt.Errorf("%w: corrupt snapshot %d: %v", domain.ErrStoreUnavailable, currentID, buildErr)
		}
		snapshots = append(snapshots, snapshot)
		return nil
	}

	for rows.Next() {
		var (
			id    int64
			rowAt time.Time
			quote string
			value float64
		)
		if err = rows.Scan(&id, &rowAt, &quote, &value); err != nil {
			return nil, fmt.Errorf("%w: failed to scan snapshot row: %v", domain.ErrStoreUnavailable, err)
		}
		if rates == nil || id != currentID {
			if err = flush(); err != nil {
				return nil, err
			}
			currentID, asOf = id, rowAt
			rates = make(map[string]float64, 16)
		}
		rates[quote] = value
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating snapshot rows: %v", domain.ErrStoreUnavailable, err)
	}
	if err = flush(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (r *SnapshotRepository) loadRates(ctx context.Context, snapshotID int64) (map[string]float64, error) {
	rows, err := r.pool.Query(ctx,
		`select quote, value from snapshot_rates where snapshot_id = $1`, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rates := make(map[string]float64, 32)
	for rows.Next() {
		var (
			quote string
			value float64
		)
		if err = rows.Scan(&quote, &value); err != nil {
			return nil, err
		}
		rates[quote] = value
	}
	return rates, rows.Err()
}

func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}
