package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecclesia-app/ecclesia/internal/shared"
)

// Meta carries the audit timestamps and logical-deletion markers shared by
// managed entities. IsActive always mirrors deleted_at IS NULL; only the store
// writes either column.
type Meta struct {
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	IsActive  bool       `json:"is_active"`
}

// Deleted reports whether the row is logically removed.
func (m Meta) Deleted() bool {
	return m.DeletedAt != nil
}

const metaColumns = "created_at, updated_at, deleted_at, is_active"

// Definition binds a Store to a concrete table.
type Definition[T any] struct {
	// Table is the backing table name.
	Table string
	// Columns lists the insertable data columns, excluding id and the
	// lifecycle columns.
	Columns []string
	// Scan reads one row in the order: id, Columns..., created_at,
	// updated_at, deleted_at, is_active.
	Scan func(row pgx.Row) (*T, error)
	// Values returns insert values aligned with Columns.
	Values func(e *T) []any
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides lifecycle-aware CRUD over a single table. Default reads
// exclude soft-deleted rows; callers needing them must use the explicit
// IncludeDeleted variants.
type Store[T any] struct {
	db  dbtx
	def Definition[T]
}

// NewStore constructs a Store backed by the pool.
func NewStore[T any](pool *pgxpool.Pool, def Definition[T]) *Store[T] {
	return &Store[T]{db: pool, def: def}
}

// WithTx returns a Store bound to the given transaction.
func (s *Store[T]) WithTx(tx pgx.Tx) *Store[T] {
	return &Store[T]{db: tx, def: s.def}
}

// Create inserts a new active row with timestamps set and returns its id.
func (s *Store[T]) Create(ctx context.Context, e *T) (int64, error) {
	placeholders := make([]string, len(s.def.Columns))
	for i := range s.def.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (%s, created_at, updated_at, deleted_at, is_active) VALUES (%s, NOW(), NOW(), NULL, TRUE) RETURNING id`,
		s.def.Table, strings.Join(s.def.Columns, ", "), strings.Join(placeholders, ", "),
	)
	var id int64
	if err := s.db.QueryRow(ctx, query, s.def.Values(e)...).Scan(&id); err != nil {
		return 0, mapPgError(err)
	}
	return id, nil
}

// Get fetches an active row by id. Soft-deleted rows yield ErrNotFound.
func (s *Store[T]) Get(ctx context.Context, id int64) (*T, error) {
	return s.get(ctx, id, false)
}

// GetIncludingDeleted fetches a row by id regardless of deletion state.
func (s *Store[T]) GetIncludingDeleted(ctx context.Context, id int64) (*T, error) {
	return s.get(ctx, id, true)
}

func (s *Store[T]) get(ctx context.Context, id int64, includeDeleted bool) (*T, error) {
	query := fmt.Sprintf(`SELECT id, %s, %s FROM %s WHERE id = $1`,
		strings.Join(s.def.Columns, ", "), metaColumns, s.def.Table)
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}
	e, err := s.def.Scan(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListOptions controls pagination and deleted-row visibility.
type ListOptions struct {
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// List returns rows ordered by id. Soft-deleted rows are excluded unless
// explicitly requested.
func (s *Store[T]) List(ctx context.Context, opts ListOptions) ([]T, error) {
	query := fmt.Sprintf(`SELECT id, %s, %s FROM %s`,
		strings.Join(s.def.Columns, ", "), metaColumns, s.def.Table)
	if !opts.IncludeDeleted {
		query += " WHERE deleted_at IS NULL"
	}
	query += " ORDER BY id"
	args := []any{}
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, opts.Limit, opts.Offset)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		e, err := s.def.Scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Update applies the given column updates to an active row and refreshes
// updated_at. Lifecycle columns are owned by Delete/Restore and are rejected.
func (s *Store[T]) Update(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(s.def.Columns))
	for _, c := range s.def.Columns {
		allowed[c] = struct{}{}
	}
	query := fmt.Sprintf("UPDATE %s SET updated_at = NOW()", s.def.Table)
	var args []any
	argPos := 1
	for _, col := range s.def.Columns {
		v, ok := updates[col]
		if !ok {
			continue
		}
		query += fmt.Sprintf(", %s = $%d", col, argPos)
		args = append(args, v)
		argPos++
	}
	for col := range updates {
		switch col {
		case "deleted_at", "is_active", "created_at", "updated_at":
			return shared.ErrLifecycleManaged
		}
		if _, ok := allowed[col]; !ok {
			return fmt.Errorf("%w: unknown column %q", shared.ErrValidation, col)
		}
	}
	query += fmt.Sprintf(" WHERE id = $%d AND deleted_at IS NULL", argPos)
	args = append(args, id)
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete soft-deletes a row. Deleting an already-deleted row is a no-op.
func (s *Store[T]) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET deleted_at = NOW(), is_active = FALSE, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		s.def.Table), id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return s.ensureExists(ctx, id)
	}
	return nil
}

// HardDelete physically removes the row. Irreversible; callers must gate it
// behind its own authorization action.
func (s *Store[T]) HardDelete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.def.Table), id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Restore reverses a soft delete. Restoring an active row is a no-op.
func (s *Store[T]) Restore(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET deleted_at = NULL, is_active = TRUE, updated_at = NOW() WHERE id = $1 AND deleted_at IS NOT NULL`,
		s.def.Table), id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return s.ensureExists(ctx, id)
	}
	return nil
}

func (s *Store[T]) ensureExists(ctx context.Context, id int64) error {
	var exists bool
	err := s.db.QueryRow(ctx, fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, s.def.Table), id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return shared.ErrNotFound
	}
	return nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return shared.ErrDuplicate
		case "23503":
			return shared.ErrReferenced
		}
	}
	return err
}
