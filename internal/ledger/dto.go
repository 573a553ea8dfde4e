package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecclesia-app/ecclesia/internal/shared"
)

// OfferingRequest is the payload for recording an offering. Amounts travel
// as strings so float encoders can never distort them.
type OfferingRequest struct {
	Amount   string `json:"amount" validate:"required"`
	IsPublic bool   `json:"is_public"`
}

func (r OfferingRequest) input() (OfferingInput, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return OfferingInput{}, shared.ErrValidation
	}
	return OfferingInput{Amount: amount, IsPublic: r.IsPublic}, nil
}

// DistributionRequest is the payload for adding a distribution.
type DistributionRequest struct {
	Destination  string     `json:"destination" validate:"required,max=200"`
	Amount       string     `json:"amount" validate:"required"`
	Channel      *string    `json:"channel,omitempty" validate:"omitempty,max=100"`
	TransferDate *time.Time `json:"transfer_date,omitempty"`
}

func (r DistributionRequest) input(offeringID int64) (DistributionInput, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return DistributionInput{}, shared.ErrValidation
	}
	return DistributionInput{
		OfferingID:   offeringID,
		Destination:  r.Destination,
		Amount:       amount,
		Channel:      r.Channel,
		TransferDate: r.TransferDate,
	}, nil
}

// BalanceResponse reports an offering's allocation position.
type BalanceResponse struct {
	Offering      *Offering `json:"offering"`
	Distributed   string    `json:"distributed"`
	Undistributed string    `json:"undistributed"`
}

func balanceResponse(b *OfferingBalance) BalanceResponse {
	return BalanceResponse{
		Offering:      b.Offering,
		Distributed:   b.Distributed.String(),
		Undistributed: b.Undistributed.String(),
	}
}
