package identity

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
	"github.com/ecclesia-app/ecclesia/internal/shared"
)

// Repository provides PostgreSQL backed persistence for principals.
//
// Email uniqueness is enforced by a partial unique index on (kind, email)
// WHERE deleted_at IS NULL, so soft-deleting a principal releases its email
// for a new active row.
type Repository struct {
	pool  *pgxpool.Pool
	store *lifecycle.Store[Account]
}

var accountDefinition = lifecycle.Definition[Account]{
	Table: "principals",
	Columns: []string{
		"kind", "email", "name", "password_hash", "is_super_operator", "role_id",
	},
	Scan: func(row pgx.Row) (*Account, error) {
		var a Account
		if err := row.Scan(
			&a.ID, &a.Kind, &a.Email, &a.Name, &a.PasswordHash,
			&a.SuperOperator, &a.RoleID,
			&a.CreatedAt, &a.UpdatedAt, &a.DeletedAt, &a.IsActive,
		); err != nil {
			return nil, err
		}
		return &a, nil
	},
	Values: func(a *Account) []any {
		return []any{a.Kind, a.Email, a.Name, a.PasswordHash, a.SuperOperator, a.RoleID}
	},
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, store: lifecycle.NewStore(pool, accountDefinition)}
}

// Store exposes the lifecycle store for principals.
func (r *Repository) Store() *lifecycle.Store[Account] {
	return r.store
}

// FindActiveByEmail returns active principals matching the email, operators
// first. Emails are unique per kind among active rows, so at most three rows
// can match.
func (r *Repository) FindActiveByEmail(ctx context.Context, email string) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, kind, email, name, password_hash, is_super_operator, role_id,
		created_at, updated_at, deleted_at, is_active
		FROM principals WHERE email = $1 AND deleted_at IS NULL
		ORDER BY CASE kind WHEN 'operator' THEN 0 WHEN 'staff' THEN 1 ELSE 2 END`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := accountDefinition.Scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// SetRole assigns or clears the principal's role reference.
func (r *Repository) SetRole(ctx context.Context, id int64, roleID *int64) error {
	if roleID != nil {
		var exists bool
		err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1 AND deleted_at IS NULL)`, *roleID).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return shared.ErrNotFound
		}
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE principals SET role_id = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
