package tithes

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
)

// Tithe is a tithe transaction attributed to a member.
type Tithe struct {
	ID         int64           `json:"id"`
	MemberID   int64           `json:"member_id"`
	Amount     decimal.Decimal `json:"amount"`
	ReceivedOn time.Time       `json:"received_on"`
	Note       *string         `json:"note,omitempty"`
	lifecycle.Meta
}

// MonthlyTotal aggregates non-deleted tithes for one calendar month.
type MonthlyTotal struct {
	Year  int             `json:"year"`
	Month time.Month      `json:"month"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}
