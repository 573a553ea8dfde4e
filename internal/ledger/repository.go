package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
	"github.com/ecclesia-app/ecclesia/internal/platform/db"
	"github.com/ecclesia-app/ecclesia/internal/shared"
)

// Repository encapsulates DB operations for the offering ledger.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	CreateOffering(ctx context.Context, o *Offering) (int64, error)
	GetOffering(ctx context.Context, id int64) (*Offering, error)
	GetOfferingIncludingDeleted(ctx context.Context, id int64) (*Offering, error)
	ListOfferings(ctx context.Context, opts lifecycle.ListOptions) ([]Offering, error)
	GetDistribution(ctx context.Context, id int64) (*Distribution, error)
	ListDistributions(ctx context.Context, offeringID int64) ([]Distribution, error)
	TotalDistributed(ctx context.Context, offeringID int64) (decimal.Decimal, error)
	RestoreOffering(ctx context.Context, id int64) error
	HardDeleteOffering(ctx context.Context, id int64) error
}

// TxRepository exposes operations available within a ledger transaction. The
// serialized check-then-commit in AddDistribution runs exclusively here.
type TxRepository interface {
	// GetOfferingForUpdate locks the offering row for the duration of the
	// transaction, serializing concurrent distributions per offering.
	// Distributions against different offerings never contend.
	GetOfferingForUpdate(ctx context.Context, id int64) (*Offering, error)
	TotalDistributed(ctx context.Context, offeringID int64) (decimal.Decimal, error)
	InsertDistribution(ctx context.Context, d *Distribution) (int64, error)
	SoftDeleteDistribution(ctx context.Context, id int64) error
	GetDistribution(ctx context.Context, id int64) (*Distribution, error)
	HasActiveDistributions(ctx context.Context, offeringID int64) (bool, error)
	SoftDeleteDistributionsOf(ctx context.Context, offeringID int64) error
	SoftDeleteOffering(ctx context.Context, id int64) error
}

var offeringDefinition = lifecycle.Definition[Offering]{
	Table:   "offerings",
	Columns: []string{"amount", "recorded_by", "is_public"},
	Scan: func(row pgx.Row) (*Offering, error) {
		var o Offering
		if err := row.Scan(
			&o.ID, &o.Amount, &o.RecordedBy, &o.IsPublic,
			&o.CreatedAt, &o.UpdatedAt, &o.DeletedAt, &o.IsActive,
		); err != nil {
			return nil, err
		}
		return &o, nil
	},
	Values: func(o *Offering) []any {
		return []any{o.Amount, o.RecordedBy, o.IsPublic}
	},
}

var distributionDefinition = lifecycle.Definition[Distribution]{
	Table:   "distributions",
	Columns: []string{"offering_id", "reference", "destination", "amount", "channel", "transfer_date"},
	Scan: func(row pgx.Row) (*Distribution, error) {
		var d Distribution
		if err := row.Scan(
			&d.ID, &d.OfferingID, &d.Reference, &d.Destination, &d.Amount,
			&d.Channel, &d.TransferDate,
			&d.CreatedAt, &d.UpdatedAt, &d.DeletedAt, &d.IsActive,
		); err != nil {
			return nil, err
		}
		return &d, nil
	},
	Values: func(d *Distribution) []any {
		return []any{d.OfferingID, d.Reference, d.Destination, d.Amount, d.Channel, d.TransferDate}
	},
}

// sumDistributionsSQL is the single code path for the distributed total; the
// invariant check and reporting reads must never diverge.
const sumDistributionsSQL = `SELECT COALESCE(SUM(amount), 0) FROM distributions WHERE offering_id = $1 AND deleted_at IS NULL`

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func sumDistributions(ctx context.Context, q querier, offeringID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := q.QueryRow(ctx, sumDistributionsSQL, offeringID).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

type repository struct {
	pool      *pgxpool.Pool
	txOptions pgx.TxOptions
	offerings *lifecycle.Store[Offering]
	dists     *lifecycle.Store[Distribution]
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{
		pool: pool,
		// ReadCommitted, not repeatable read: the conservation check sums
		// distributions after locking the offering row, and that sum must
		// include rows committed by a writer that held the lock first. A
		// repeatable-read snapshot is taken before the lock wait and would
		// hide them, letting both writers pass the check.
		txOptions: pgx.TxOptions{IsoLevel: pgx.ReadCommitted},
		offerings: lifecycle.NewStore(pool, offeringDefinition),
		dists:     lifecycle.NewStore(pool, distributionDefinition),
	}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, r.txOptions, func(tx pgx.Tx) error {
		wrapper := &txRepository{
			tx:        tx,
			offerings: r.offerings.WithTx(tx),
			dists:     r.dists.WithTx(tx),
		}
		return fn(ctx, wrapper)
	})
}

func (r *repository) CreateOffering(ctx context.Context, o *Offering) (int64, error) {
	return r.offerings.Create(ctx, o)
}

func (r *repository) GetOffering(ctx context.Context, id int64) (*Offering, error) {
	return r.offerings.Get(ctx, id)
}

func (r *repository) GetOfferingIncludingDeleted(ctx context.Context, id int64) (*Offering, error) {
	return r.offerings.GetIncludingDeleted(ctx, id)
}

func (r *repository) ListOfferings(ctx context.Context, opts lifecycle.ListOptions) ([]Offering, error) {
	return r.offerings.List(ctx, opts)
}

func (r *repository) GetDistribution(ctx context.Context, id int64) (*Distribution, error) {
	return r.dists.Get(ctx, id)
}

func (r *repository) ListDistributions(ctx context.Context, offeringID int64) ([]Distribution, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, offering_id, reference, destination, amount, channel, transfer_date,
		created_at, updated_at, deleted_at, is_active
		FROM distributions WHERE offering_id = $1 AND deleted_at IS NULL ORDER BY id`, offeringID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Distribution
	for rows.Next() {
		d, err := distributionDefinition.Scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *repository) TotalDistributed(ctx context.Context, offeringID int64) (decimal.Decimal, error) {
	return sumDistributions(ctx, r.pool, offeringID)
}

func (r *repository) RestoreOffering(ctx context.Context, id int64) error {
	return r.offerings.Restore(ctx, id)
}

func (r *repository) HardDeleteOffering(ctx context.Context, id int64) error {
	return r.offerings.HardDelete(ctx, id)
}

type txRepository struct {
	tx        pgx.Tx
	offerings *lifecycle.Store[Offering]
	dists     *lifecycle.Store[Distribution]
}

func (r *txRepository) GetOfferingForUpdate(ctx context.Context, id int64) (*Offering, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, amount, recorded_by, is_public,
		created_at, updated_at, deleted_at, is_active
		FROM offerings WHERE id = $1 FOR UPDATE`, id)
	o, err := offeringDefinition.Scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *txRepository) TotalDistributed(ctx context.Context, offeringID int64) (decimal.Decimal, error) {
	return sumDistributions(ctx, r.tx, offeringID)
}

func (r *txRepository) InsertDistribution(ctx context.Context, d *Distribution) (int64, error) {
	return r.dists.Create(ctx, d)
}

func (r *txRepository) SoftDeleteDistribution(ctx context.Context, id int64) error {
	return r.dists.Delete(ctx, id)
}

func (r *txRepository) GetDistribution(ctx context.Context, id int64) (*Distribution, error) {
	return r.dists.Get(ctx, id)
}

func (r *txRepository) HasActiveDistributions(ctx context.Context, offeringID int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM distributions WHERE offering_id = $1 AND deleted_at IS NULL)`, offeringID).Scan(&exists)
	return exists, err
}

func (r *txRepository) SoftDeleteDistributionsOf(ctx context.Context, offeringID int64) error {
	_, err := r.tx.Exec(ctx,
		`UPDATE distributions SET deleted_at = NOW(), is_active = FALSE, updated_at = NOW()
		WHERE offering_id = $1 AND deleted_at IS NULL`, offeringID)
	return err
}

func (r *txRepository) SoftDeleteOffering(ctx context.Context, id int64) error {
	return r.offerings.Delete(ctx, id)
}
