package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
)

// Offering is a record of collected funds available for distribution. An
// offering stays open to distributions indefinitely; "fully allocated" is not
// a stored state but the natural consequence of the conservation check.
type Offering struct {
	ID         int64           `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	RecordedBy int64           `json:"recorded_by"`
	IsPublic   bool            `json:"is_public"`
	lifecycle.Meta
}

// Distribution is a disbursement of part of an offering to an external
// recipient. A distribution cannot outlive its offering.
type Distribution struct {
	ID           int64           `json:"id"`
	OfferingID   int64           `json:"offering_id"`
	Reference    uuid.UUID       `json:"reference"`
	Destination  string          `json:"destination"`
	Amount       decimal.Decimal `json:"amount"`
	Channel      *string         `json:"channel,omitempty"`
	TransferDate *time.Time      `json:"transfer_date,omitempty"`
	lifecycle.Meta
}
