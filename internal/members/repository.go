package members

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
)

var memberDefinition = lifecycle.Definition[Member]{
	Table:   "members",
	Columns: []string{"name", "email", "phone", "birth_date", "joined_on"},
	Scan: func(row pgx.Row) (*Member, error) {
		var m Member
		if err := row.Scan(
			&m.ID, &m.Name, &m.Email, &m.Phone, &m.BirthDate, &m.JoinedOn,
			&m.CreatedAt, &m.UpdatedAt, &m.DeletedAt, &m.IsActive,
		); err != nil {
			return nil, err
		}
		return &m, nil
	},
	Values: func(m *Member) []any {
		return []any{m.Name, m.Email, m.Phone, m.BirthDate, m.JoinedOn}
	},
}

// Repository wraps member persistence.
type Repository struct {
	pool  *pgxpool.Pool
	store *lifecycle.Store[Member]
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, store: lifecycle.NewStore(pool, memberDefinition)}
}

// Store exposes the lifecycle store for CRUD operations.
func (r *Repository) Store() *lifecycle.Store[Member] {
	return r.store
}

// CountJoinedSince returns how many non-deleted members joined on or after
// the given date. Used by the digest job.
func (r *Repository) CountJoinedSince(ctx context.Context, since string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM members WHERE joined_on >= $1 AND deleted_at IS NULL`, since).Scan(&n)
	return n, err
}
