// Package policy holds the marketplace's two time-based business rules: the
// refund bands and booking auto-completion. Nothing here does I/O.
package policy

import (
	"fmt"
	"time"

	"github.com/joshua-takyi/tourbay/internal/models"
)

const FullRefundWindow = 24 * time.Hour

const (
	FullRefundPercentage    = 100
	PartialRefundPercentage = 50
)

type RefundDecision struct {
	Eligible        bool    `json:"eligible"`
	Percentage      int     `json:"refund_percentage"`
	Amount          float64 `json:"refund_amount"`
	HoursUntilStart float64 `json:"hours_until_start"`
	Reason          string  `json:"reason,omitempty"`
}

// Band names the refund band for metrics labels.
func (d RefundDecision) Band() string {
	switch d.Percentage {
	case FullRefundPercentage:
		return "full"
	case PartialRefundPercentage:
		return "partial"
	default:
		return "none"
	}
}

// EvaluateRefund applies the refund bands: at least 24 hours before the start
// refunds everything, any time before the start refunds half, and nothing is
// refunded once the tour has started.
func EvaluateRefund(startsAt, now time.Time, paid float64) RefundDecision {
	until := startsAt.Sub(now)
	d := RefundDecision{HoursUntilStart: until.Hours()}

	switch {
	case until >= FullRefundWindow:
		d.Eligible = true
		d.Percentage = FullRefundPercentage
	case until > 0:
		d.Eligible = true
		d.Percentage = PartialRefundPercentage
	default:
		d.Reason = "tour has already started"
		return d
	}

	d.Amount = paid * float64(d.Percentage) / 100
	return d
}

// CheckRefundable reports why a booking cannot be refunded regardless of
// timing. The returned error wraps models.ErrRefundIneligible.
func CheckRefundable(b *models.Booking, p *models.Payment) error {
	switch {
	case b.Status == models.BookingCancelled:
		return ineligible("booking is already cancelled")
	case p == nil:
		return ineligible("no payment recorded for this booking")
	case p.Status != models.PaymentCompleted:
		return ineligible("payment has not been completed")
	case p.RefundStatus == models.RefundStatusRefunded:
		return ineligible("payment has already been refunded")
	}
	return nil
}

func ineligible(reason string) error {
	return fmt.Errorf("%w: %s", models.ErrRefundIneligible, reason)
}
