package tithes

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
)

var titheDefinition = lifecycle.Definition[Tithe]{
	Table:   "tithes",
	Columns: []string{"member_id", "amount", "received_on", "note"},
	Scan: func(row pgx.Row) (*Tithe, error) {
		var t Tithe
		if err := row.Scan(
			&t.ID, &t.MemberID, &t.Amount, &t.ReceivedOn, &t.Note,
			&t.CreatedAt, &t.UpdatedAt, &t.DeletedAt, &t.IsActive,
		); err != nil {
			return nil, err
		}
		return &t, nil
	},
	Values: func(t *Tithe) []any {
		return []any{t.MemberID, t.Amount, t.ReceivedOn, t.Note}
	},
}

type Repository struct {
	pool  *pgxpool.Pool
	store *lifecycle.Store[Tithe]
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, store: lifecycle.NewStore(pool, titheDefinition)}
}

func (r *Repository) Store() *lifecycle.Store[Tithe] {
	return r.store
}

// MonthlyTotals aggregates non-deleted tithes per calendar month within the
// given year. Soft-deleted rows never contribute to reported totals.
func (r *Repository) MonthlyTotals(ctx context.Context, year int) ([]MonthlyTotal, error) {
	rows, err := r.pool.Query(ctx, `SELECT EXTRACT(MONTH FROM received_on)::int, COUNT(*), COALESCE(SUM(amount), 0)
		FROM tithes
		WHERE EXTRACT(YEAR FROM received_on) = $1 AND deleted_at IS NULL
		GROUP BY 1 ORDER BY 1`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MonthlyTotal
	for rows.Next() {
		var month int
		t := MonthlyTotal{Year: year}
		if err := rows.Scan(&month, &t.Count, &t.Total); err != nil {
			return nil, err
		}
		t.Month = time.Month(month)
		out = append(out, t)
	}
	return out, rows.Err()
}
