package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
	"github.com/ecclesia-app/ecclesia/internal/shared"
)

// Repository provides PostgreSQL backed persistence for roles.
type Repository struct {
	pool  *pgxpool.Pool
	store *lifecycle.Store[Role]
}

var roleDefinition = lifecycle.Definition[Role]{
	Table: "roles",
	Columns: []string{
		"name", "manage_members", "manage_events", "manage_finances",
		"register_tithes", "register_offerings", "manage_roles",
		"manage_documents", "view_reports",
	},
	Scan: func(row pgx.Row) (*Role, error) {
		var r Role
		if err := row.Scan(
			&r.ID, &r.Name, &r.ManageMembers, &r.ManageEvents, &r.ManageFinances,
			&r.RegisterTithes, &r.RegisterOfferings, &r.ManageRoles,
			&r.ManageDocuments, &r.ViewReports,
			&r.CreatedAt, &r.UpdatedAt, &r.DeletedAt, &r.IsActive,
		); err != nil {
			return nil, err
		}
		return &r, nil
	},
	Values: func(r *Role) []any {
		return []any{
			r.Name, r.ManageMembers, r.ManageEvents, r.ManageFinances,
			r.RegisterTithes, r.RegisterOfferings, r.ManageRoles,
			r.ManageDocuments, r.ViewReports,
		}
	},
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, store: lifecycle.NewStore(pool, roleDefinition)}
}

// Store exposes the lifecycle store for roles.
func (r *Repository) Store() *lifecycle.Store[Role] {
	return r.store
}

// GetByName fetches an active role by its unique name.
func (r *Repository) GetByName(ctx context.Context, name string) (*Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, manage_members, manage_events, manage_finances,
		register_tithes, register_offerings, manage_roles, manage_documents, view_reports,
		created_at, updated_at, deleted_at, is_active
		FROM roles WHERE name = $1 AND deleted_at IS NULL`, name)
	role, err := roleDefinition.Scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return role, nil
}

// CountActiveHolders counts active principals referencing the role.
func (r *Repository) CountActiveHolders(ctx context.Context, roleID int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM principals WHERE role_id = $1 AND deleted_at IS NULL`, roleID).Scan(&n)
	return n, err
}
