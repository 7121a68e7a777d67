package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/tourbay/internal/cache"
	"github.com/joshua-takyi/tourbay/internal/metrics"
	"github.com/joshua-takyi/tourbay/internal/models"
	"github.com/joshua-takyi/tourbay/internal/payments"
)

const checkoutPrefix = "checkout:"

// PendingBooking is the typed draft handed from tour selection to payment.
type PendingBooking struct {
	ID           string    `json:"id"`
	TravelerID   string    `json:"traveler_id"`
	TourID       string    `json:"tour_id"`
	TourTitle    string    `json:"tour_title"`
	Date         string    `json:"date"`
	StartTime    string    `json:"start_time"`
	Participants int       `json:"participants"`
	UnitPrice    float64   `json:"unit_price"`
	QuotedTotal  float64   `json:"quoted_total"`
	Currency     string    `json:"currency"`
	BookingID    string    `json:"booking_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (p *PendingBooking) request() *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		TourID:       p.TourID,
		Date:         p.Date,
		StartTime:    p.StartTime,
		Participants: p.Participants,
	}
}

type CheckoutResult struct {
	Booking *models.Booking `json:"booking"`
	Payment *models.Payment `json:"payment"`
}

type CheckoutService struct {
	store    cache.Store
	bookings *BookingService
	repo     models.BookingsRepo
	payments models.PaymentsRepo
	gateway  payments.Gateway
	ttl      time.Duration
	currency string
	logger   *slog.Logger
	now      func() time.Time
}

func NewCheckoutService(store cache.Store, bookings *BookingService, repo models.BookingsRepo, paymentsRepo models.PaymentsRepo, gateway payments.Gateway, ttl time.Duration, currency string, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		store:    store,
		bookings: bookings,
		repo:     repo,
		payments: paymentsRepo,
		gateway:  gateway,
		ttl:      ttl,
		currency: strings.ToUpper(currency),
		logger:   logger,
		now:      time.Now,
	}
}

func (cs *CheckoutService) Start(ctx context.Context, actor Actor, req *models.CreateBookingRequest) (*PendingBooking, error) {
	if err := actor.require(models.RoleTraveler); err != nil {
		return nil, err
	}
	tour, total, err := cs.bookings.Quote(ctx, req)
	if err != nil {
		return nil, err
	}

	now := cs.now().UTC()
	draft := &PendingBooking{
		ID:           uuid.NewString(),
		TravelerID:   actor.UserID,
		TourID:       tour.ID.String(),
		TourTitle:    tour.Title,
		Date:         req.Date,
		StartTime:    req.StartTime,
		Participants: req.Participants,
		UnitPrice:    tour.Price,
		QuotedTotal:  total,
		Currency:     cs.currency,
		CreatedAt:    now,
		ExpiresAt:    now.Add(cs.ttl),
	}
	if err := cs.save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (cs *CheckoutService) Get(ctx context.Context, actor Actor, draftID string) (*PendingBooking, error) {
	var draft PendingBooking
	if err := cache.GetJSON(ctx, cs.store, checkoutPrefix+draftID, &draft); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, fmt.Errorf("checkout %s expired or unknown: %w", draftID, models.ErrNotFound)
		}
		return nil, err
	}
	if draft.TravelerID != actor.UserID {
		// do not reveal other travelers' drafts
		return nil, fmt.Errorf("checkout %s: %w", draftID, models.ErrNotFound)
	}
	return &draft, nil
}

// Complete turns the draft into a booking and pays for it. A declined charge
// keeps the draft, pointing at the pending booking, so the traveler can retry.
func (cs *CheckoutService) Complete(ctx context.Context, actor Actor, draftID, paymentMethodToken string) (*CheckoutResult, error) {
	draft, err := cs.Get(ctx, actor, draftID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(paymentMethodToken) == "" {
		return nil, fmt.Errorf("%w: payment method is required", models.ErrInvalidInput)
	}

	booking, err := cs.bookingFor(ctx, actor, draft)
	if err != nil {
		return nil, err
	}

	charge, err := cs.gateway.Charge(ctx, payments.ChargeRequest{
		BookingID:          booking.ID,
		CustomerID:         actor.UserID,
		Amount:             booking.TotalPrice,
		Currency:           draft.Currency,
		PaymentMethodToken: paymentMethodToken,
	})
	if err != nil {
		metrics.IncPaymentFailure(failureReason(err))
		if markErr := cs.bookings.MarkPaymentFailed(ctx, booking); markErr != nil {
			cs.logger.Error("Failed to mark payment failed", "booking_id", booking.ID, "error", markErr)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrPaymentDeclined, err)
	}

	now := cs.now().UTC()
	payment := &models.Payment{
		ID:            uuid.NewString(),
		BookingID:     booking.ID,
		TravelerID:    actor.UserID,
		Amount:        charge.Amount,
		Currency:      charge.Currency,
		TransactionID: charge.TransactionID,
		PaymentMethod: charge.PaymentMethod,
		Status:        models.PaymentCompleted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := cs.payments.CreatePayment(ctx, payment); err != nil {
		if refundErr := cs.gateway.Refund(context.WithoutCancel(ctx), charge.TransactionID, charge.Amount); refundErr != nil {
			cs.logger.Error("Charge captured but not recorded and refund failed",
				"booking_id", booking.ID,
				"transaction_id", charge.TransactionID,
				"error", refundErr,
			)
		}
		return nil, err
	}

	if err := cs.bookings.Confirm(ctx, booking); err != nil {
		cs.logger.Error("Payment recorded but booking not confirmed",
			"booking_id", booking.ID,
			"payment_id", payment.ID,
			"error", err,
		)
		return nil, err
	}

	if err := cs.store.Delete(ctx, checkoutPrefix+draft.ID); err != nil {
		cs.logger.Warn("Failed to delete checkout draft", "draft_id", draft.ID, "error", err)
	}

	return &CheckoutResult{Booking: booking, Payment: payment}, nil
}

func (cs *CheckoutService) bookingFor(ctx context.Context, actor Actor, draft *PendingBooking) (*models.Booking, error) {
	if draft.BookingID != "" {
		booking, err := cs.repo.GetBooking(ctx, draft.BookingID)
		if err != nil {
			return nil, err
		}
		if booking.Status != models.BookingPending {
			return nil, fmt.Errorf("%w: booking is already %s", models.ErrConflict, booking.Status)
		}
		return booking, nil
	}

	booking, err := cs.bookings.Create(ctx, actor, draft.request())
	if err != nil {
		return nil, err
	}
	draft.BookingID = booking.ID
	if err := cs.save(ctx, draft); err != nil {
		cs.logger.Warn("Failed to remember booking on draft", "draft_id", draft.ID, "error", err)
	}
	return booking, nil
}

func (cs *CheckoutService) save(ctx context.Context, draft *PendingBooking) error {
	ttl := draft.ExpiresAt.Sub(cs.now())
	if ttl <= 0 {
		return fmt.Errorf("checkout %s: %w", draft.ID, models.ErrNotFound)
	}
	return cache.SetJSON(ctx, cs.store, checkoutPrefix+draft.ID, draft, ttl)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, payments.ErrDeclined):
		return "declined"
	case errors.Is(err, payments.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, payments.ErrInvalidAmount):
		return "invalid_amount"
	}
	return "error"
}
