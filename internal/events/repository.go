package events

import (
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
)

var eventDefinition = lifecycle.Definition[Event]{
	Table:   "events",
	Columns: []string{"title", "description", "location", "starts_at", "ends_at", "is_public"},
	Scan: func(row pgx.Row) (*Event, error) {
		var e Event
		if err := row.Scan(
			&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.EndsAt, &e.IsPublic,
			&e.CreatedAt, &e.UpdatedAt, &e.DeletedAt, &e.IsActive,
		); err != nil {
			return nil, err
		}
		return &e, nil
	},
	Values: func(e *Event) []any {
		return []any{e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt, e.IsPublic}
	},
}

type Repository struct {
	store *lifecycle.Store[Event]
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{store: lifecycle.NewStore(pool, eventDefinition)}
}

func (r *Repository) Store() *lifecycle.Store[Event] {
	return r.store
}
