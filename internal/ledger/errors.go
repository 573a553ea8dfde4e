package ledger

import (
	"errors"
	"fmt"

	"github.com/ecclesia-app/ecclesia/internal/shared"
)

var (
	// ErrConservation indicates a distribution that would push the allocated
	// total past the offering's collected amount. Always recoverable: the
	// caller may retry with a smaller amount after re-reading capacity.
	ErrConservation = errors.New("ledger: distribution exceeds undistributed offering balance")
	// ErrNonPositiveAmount indicates a zero or negative monetary amount.
	ErrNonPositiveAmount = fmt.Errorf("ledger: %w: amount must be positive", shared.ErrValidation)
	// ErrOfferingDeleted indicates a write against a soft-deleted offering.
	ErrOfferingDeleted = fmt.Errorf("ledger: offering is deleted: %w", shared.ErrNotFound)
	// ErrDistributionsExist blocks deleting an offering that still has
	// non-deleted distributions when cascade was not requested.
	ErrDistributionsExist = fmt.Errorf("ledger: %w: offering has non-deleted distributions", shared.ErrReferenced)
	// ErrDestinationRequired indicates a distribution without a recipient.
	ErrDestinationRequired = fmt.Errorf("ledger: %w: destination required", shared.ErrValidation)
)
