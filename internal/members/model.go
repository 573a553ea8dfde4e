package members

import (
	"time"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
)

// Member is a congregation member record. Members here are directory entries;
// a member who signs in does so through a principal account, not this row.
type Member struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     *string    `json:"phone,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	JoinedOn  time.Time  `json:"joined_on"`
	lifecycle.Meta
}
