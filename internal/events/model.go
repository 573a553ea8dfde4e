package events

import (
	"time"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
)

// Event is a scheduled congregation event.
type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Location    *string   `json:"location,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	IsPublic    bool      `json:"is_public"`
	lifecycle.Meta
}
