package sales

import (
	"errors"
	"time"

	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
)

var (
	// ErrAlreadyReviewed is returned when a verdict is recorded on a sale
	// that already left the pending status. Verdicts are recorded exactly once.
	ErrAlreadyReviewed = errors.New("sale has already been reviewed")

	// ErrInvalidVerdict is returned when the verdict is neither valid nor invalid.
	ErrInvalidVerdict = errors.New("verdict must be valid or invalid")
)

// Approve records a review verdict on a pending sale, stamping the reviewer
// and timestamp. Like the custom request transitions it is pure; the caller
// persists the returned copy.
func Approve(s models.Sale, actorID uint64, verdict models.SaleStatus, now time.Time) (models.Sale, error) {
	if verdict != models.SaleStatusValid && verdict != models.SaleStatusInvalid {
		return s, ErrInvalidVerdict
	}

	if s.Status != models.SaleStatusPending {
		return s, ErrAlreadyReviewed
	}

	s.Status = verdict
	s.ApprovedBy = &actorID
	s.ApprovedAt = &now

	return s, nil
}

// ValidGrossTotal sums the gross amounts of valid sales. Each valid row
// counts exactly once, so a repeated approval attempt (which is rejected)
// can never double-count revenue.
func ValidGrossTotal(sales []models.Sale) float64 {
	var total float64

	for _, s := range sales {
		if s.Status == models.SaleStatusValid {
			total += s.GrossAmount
		}
	}

	return total
}
