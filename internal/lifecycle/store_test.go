package lifecycle

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecclesia-app/ecclesia/internal/shared"
)

type thing struct {
	ID   int64
	Name string
	Meta
}

var thingDef = Definition[thing]{
	Table:   "things",
	Columns: []string{"name"},
	Scan: func(row pgx.Row) (*thing, error) {
		var t thing
		if err := row.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt, &t.IsActive); err != nil {
			return nil, err
		}
		return &t, nil
	},
	Values: func(t *thing) []any { return []any{t.Name} },
}

// fakeDB scripts Exec/QueryRow outcomes and records what was sent.
type fakeDB struct {
	execSQL    []string
	execTag    pgconn.CommandTag
	execErr    error
	rowScanner func(dest ...any) error
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	return f.execTag, f.execErr
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return fakeRow{scan: f.rowScanner}
}

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

func newFakeStore(db *fakeDB) *Store[thing] {
	return &Store[thing]{db: db, def: thingDef}
}

func TestUpdateRejectsLifecycleColumns(t *testing.T) {
	db := &fakeDB{}
	store := newFakeStore(db)

	for _, col := range []string{"deleted_at", "is_active", "created_at", "updated_at"} {
		err := store.Update(context.Background(), 1, map[string]any{col: "x"})
		assert.ErrorIs(t, err, shared.ErrLifecycleManaged, "column %s", col)
	}
	assert.Empty(t, db.execSQL, "rejected updates must never reach the database")
}

func TestUpdateRejectsUnknownColumns(t *testing.T) {
	db := &fakeDB{}
	store := newFakeStore(db)

	err := store.Update(context.Background(), 1, map[string]any{"password": "x"})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, db.execSQL)
}

func TestUpdateNoopOnEmptyInput(t *testing.T) {
	db := &fakeDB{}
	store := newFakeStore(db)

	require.NoError(t, store.Update(context.Background(), 1, nil))
	assert.Empty(t, db.execSQL)
}

func TestUpdateMissingRow(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 0")}
	store := newFakeStore(db)

	err := store.Update(context.Background(), 42, map[string]any{"name": "x"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// Deleting an already-deleted row affects nothing but still succeeds as long
// as the row exists.
func TestDeleteIdempotent(t *testing.T) {
	db := &fakeDB{
		execTag: pgconn.NewCommandTag("UPDATE 0"),
		rowScanner: func(dest ...any) error {
			*(dest[0].(*bool)) = true
			return nil
		},
	}
	store := newFakeStore(db)

	assert.NoError(t, store.Delete(context.Background(), 1))
}

// Exec failures surface through the same taxonomy as the other mutations.
func TestDeleteMapsConstraintErrors(t *testing.T) {
	db := &fakeDB{execErr: &pgconn.PgError{Code: "23503"}}
	store := newFakeStore(db)

	err := store.Delete(context.Background(), 1)
	assert.ErrorIs(t, err, shared.ErrReferenced)
}

func TestDeleteMissingRow(t *testing.T) {
	db := &fakeDB{
		execTag: pgconn.NewCommandTag("UPDATE 0"),
		rowScanner: func(dest ...any) error {
			*(dest[0].(*bool)) = false
			return nil
		},
	}
	store := newFakeStore(db)

	assert.ErrorIs(t, store.Delete(context.Background(), 1), shared.ErrNotFound)
}

func TestRestoreActiveRowIsNoop(t *testing.T) {
	db := &fakeDB{
		execTag: pgconn.NewCommandTag("UPDATE 0"),
		rowScanner: func(dest ...any) error {
			*(dest[0].(*bool)) = true
			return nil
		},
	}
	store := newFakeStore(db)

	assert.NoError(t, store.Restore(context.Background(), 1))
}

func TestHardDeleteMissingRow(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("DELETE 0")}
	store := newFakeStore(db)

	assert.ErrorIs(t, store.HardDelete(context.Background(), 1), shared.ErrNotFound)
}

func TestMapPgError(t *testing.T) {
	assert.ErrorIs(t, mapPgError(&pgconn.PgError{Code: "23505"}), shared.ErrDuplicate)
	assert.ErrorIs(t, mapPgError(&pgconn.PgError{Code: "23503"}), shared.ErrReferenced)

	other := &pgconn.PgError{Code: "42P01"}
	assert.Equal(t, error(other), mapPgError(other))
}

func TestMetaDeleted(t *testing.T) {
	var m Meta
	assert.False(t, m.Deleted())
}
