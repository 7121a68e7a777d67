package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshua-takyi/tourbay/internal/events"
	"github.com/joshua-takyi/tourbay/internal/metrics"
	"github.com/joshua-takyi/tourbay/internal/models"
	"github.com/joshua-takyi/tourbay/internal/payments"
	"github.com/joshua-takyi/tourbay/internal/policy"
)

type RefundResult struct {
	Booking  *models.Booking       `json:"booking"`
	Payment  *models.Payment       `json:"payment"`
	Decision policy.RefundDecision `json:"decision"`
}

type RefundService struct {
	bookings models.BookingsRepo
	payments models.PaymentsRepo
	gateway  payments.Gateway
	bus      events.Bus
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

func NewRefundService(bookings models.BookingsRepo, paymentsRepo models.PaymentsRepo, gateway payments.Gateway, bus events.Bus, loc *time.Location, logger *slog.Logger) *RefundService {
	if loc == nil {
		loc = time.UTC
	}
	return &RefundService{
		bookings: bookings,
		payments: paymentsRepo,
		gateway:  gateway,
		bus:      bus,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

func (rs *RefundService) load(ctx context.Context, actor Actor, bookingID string) (*models.Booking, *models.Payment, error) {
	booking, err := rs.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if booking.TravelerID != actor.UserID && !actor.IsAdmin() {
		return nil, nil, fmt.Errorf("%w: only the traveler can cancel this booking", models.ErrForbidden)
	}

	payment, err := rs.payments.GetPaymentByBooking(ctx, bookingID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, nil, err
		}
		payment = nil
	}
	return booking, payment, nil
}

// Quote shows what a cancellation would refund right now without changing
// anything.
func (rs *RefundService) Quote(ctx context.Context, actor Actor, bookingID string) (policy.RefundDecision, error) {
	booking, payment, err := rs.load(ctx, actor, bookingID)
	if err != nil {
		return policy.RefundDecision{}, err
	}
	if err := policy.CheckRefundable(booking, payment); err != nil {
		return policy.RefundDecision{Reason: reasonOf(err)}, nil
	}
	return policy.EvaluateRefund(booking.StartsAt(rs.loc), rs.now(), payment.Amount), nil
}

// Request cancels the booking and refunds according to the refund bands. The
// payment is written first. If the booking write then fails the payment is
// put back so the two records never disagree.
func (rs *RefundService) Request(ctx context.Context, actor Actor, bookingID string) (*RefundResult, error) {
	booking, payment, err := rs.load(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckRefundable(booking, payment); err != nil {
		return nil, err
	}

	now := rs.now()
	decision := policy.EvaluateRefund(booking.StartsAt(rs.loc), now, payment.Amount)
	if !decision.Eligible {
		return nil, fmt.Errorf("%w: %s", models.ErrRefundIneligible, decision.Reason)
	}

	at := now.UTC()
	if err := rs.payments.ApplyRefund(ctx, payment.ID, decision.Amount, decision.Percentage, at); err != nil {
		return nil, err
	}

	if err := rs.bookings.CancelBooking(ctx, booking.ID, at); err != nil {
		if revertErr := rs.payments.RevertRefund(context.WithoutCancel(ctx), payment.ID); revertErr != nil {
			rs.logger.Error("Failed to revert refund after booking update failed",
				"booking_id", booking.ID,
				"payment_id", payment.ID,
				"error", revertErr,
				"cause", err,
			)
		}
		return nil, err
	}

	if err := rs.gateway.Refund(ctx, payment.TransactionID, decision.Amount); err != nil {
		rs.logger.Error("Refund recorded but provider refund failed",
			"booking_id", booking.ID,
			"transaction_id", payment.TransactionID,
			"amount", decision.Amount,
			"error", err,
		)
	}

	payment.RefundStatus = models.RefundStatusRefunded
	payment.RefundAmount = decision.Amount
	payment.RefundPercentage = decision.Percentage
	payment.RefundedAt = &at
	booking.Status = models.BookingCancelled
	booking.PaymentStatus = models.PaymentStatusRefunded
	booking.CancelledAt = &at

	metrics.IncRefund(decision.Band(), decision.Amount)
	metrics.IncBooking(models.BookingCancelled)
	if rs.bus != nil {
		if err := rs.bus.Publish(ctx, events.BookingCancelled, events.BookingEvent{
			Type:       events.BookingCancelled,
			BookingID:  booking.ID,
			TourID:     booking.TourID,
			GuideID:    booking.GuideID,
			TravelerID: booking.TravelerID,
			Status:     booking.Status,
			Amount:     decision.Amount,
			At:         at,
		}); err != nil {
			rs.logger.Warn("Failed to publish booking event", "subject", events.BookingCancelled, "booking_id", booking.ID, "error", err)
		}
	}

	return &RefundResult{Booking: booking, Payment: payment, Decision: decision}, nil
}

func reasonOf(err error) string {
	msg := err.Error()
	prefix := models.ErrRefundIneligible.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
