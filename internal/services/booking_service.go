package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/tourbay/internal/events"
	"github.com/joshua-takyi/tourbay/internal/metrics"
	"github.com/joshua-takyi/tourbay/internal/models"
	"github.com/joshua-takyi/tourbay/internal/policy"
)

type BookingService struct {
	bookings models.BookingsRepo
	tours    models.ToursRepo
	guides   models.GuidesRepo
	bus      events.Bus
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

func NewBookingService(bookings models.BookingsRepo, tours models.ToursRepo, guides models.GuidesRepo, bus events.Bus, loc *time.Location, logger *slog.Logger) *BookingService {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{
		bookings: bookings,
		tours:    tours,
		guides:   guides,
		bus:      bus,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Quote validates a booking request against the tour and returns the tour
// with the total price. Nothing is written.
func (bs *BookingService) Quote(ctx context.Context, req *models.CreateBookingRequest) (*models.Tour, float64, error) {
	req.Sanitize()
	if err := models.Validate.Struct(req); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	tourID, err := uuid.Parse(req.TourID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: invalid tour id", models.ErrInvalidInput)
	}
	tour, err := bs.tours.GetTourByID(ctx, tourID)
	if err != nil {
		return nil, 0, err
	}
	if !tour.IsActive {
		return nil, 0, fmt.Errorf("%w: tour is not accepting bookings", models.ErrInvalidInput)
	}
	if req.Participants < 1 || req.Participants > tour.MaxParticipants {
		return nil, 0, fmt.Errorf("%w: participants must be between 1 and %d", models.ErrInvalidInput, tour.MaxParticipants)
	}

	slot := models.Booking{Date: req.Date, StartTime: req.StartTime}
	startsAt := slot.StartsAt(bs.loc)
	if startsAt.IsZero() {
		return nil, 0, fmt.Errorf("%w: invalid date or start time", models.ErrInvalidInput)
	}
	if startsAt.Before(bs.now()) {
		return nil, 0, fmt.Errorf("%w: tour date is in the past", models.ErrInvalidInput)
	}

	return tour, tour.Price * float64(req.Participants), nil
}

func (bs *BookingService) Create(ctx context.Context, actor Actor, req *models.CreateBookingRequest) (*models.Booking, error) {
	if err := actor.require(models.RoleTraveler); err != nil {
		return nil, err
	}

	tour, total, err := bs.Quote(ctx, req)
	if err != nil {
		return nil, err
	}

	now := bs.now().UTC()
	booking := &models.Booking{
		ID:            uuid.NewString(),
		TourID:        tour.ID.String(),
		GuideID:       tour.GuideID.String(),
		TravelerID:    actor.UserID,
		TourTitle:     tour.Title,
		Date:          req.Date,
		StartTime:     req.StartTime,
		Duration:      tour.Duration,
		Participants:  req.Participants,
		TotalPrice:    total,
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := bs.bookings.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}
	metrics.IncBooking(models.BookingPending)
	return booking, nil
}

// Get returns the booking to its traveler, its guide or an admin.
func (bs *BookingService) Get(ctx context.Context, actor Actor, id string) (*models.Booking, error) {
	booking, err := bs.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.TravelerID != actor.UserID && booking.GuideID != actor.UserID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: not your booking", models.ErrForbidden)
	}
	return booking, nil
}

// ListForTraveler completes any finished tours first so the caller always
// sees current statuses.
func (bs *BookingService) ListForTraveler(ctx context.Context, actor Actor) ([]*models.Booking, error) {
	if _, err := bs.AutoCompleteForTraveler(ctx, actor.UserID); err != nil {
		bs.logger.Warn("Auto-completion skipped", "traveler_id", actor.UserID, "error", err)
	}
	return bs.bookings.ListBookings(ctx, models.BookingFilter{TravelerID: actor.UserID})
}

// AutoCompleteForTraveler flips every confirmed booking whose tour has ended to
// completed. Individual write failures are logged and skipped.
func (bs *BookingService) AutoCompleteForTraveler(ctx context.Context, travelerID string) (int, error) {
	confirmed, err := bs.bookings.ListBookings(ctx, models.BookingFilter{
		TravelerID: travelerID,
		Status:     models.BookingConfirmed,
	})
	if err != nil {
		return 0, err
	}

	now := bs.now()
	completed := 0
	for _, b := range confirmed {
		if !policy.ShouldComplete(b, now, bs.loc) {
			continue
		}

		at := now.UTC()
		updated, err := bs.bookings.CompleteBooking(ctx, b.ID, at)
		if err != nil {
			bs.logger.Error("Failed to complete booking", "booking_id", b.ID, "error", err)
			continue
		}
		if !updated {
			continue
		}
		completed++
		b.Status = models.BookingCompleted
		b.CompletedAt = &at
		metrics.IncBooking(models.BookingCompleted)

		if err := bs.guides.IncrementCompletedTours(ctx, b.GuideID, 1); err != nil {
			bs.logger.Warn("Failed to bump guide completed tours", "guide_id", b.GuideID, "error", err)
		}
		bs.publish(ctx, events.BookingCompleted, b)
	}
	return completed, nil
}

func (bs *BookingService) ListForGuide(ctx context.Context, actor Actor) ([]*models.Booking, error) {
	if err := actor.require(models.RoleGuide); err != nil {
		return nil, err
	}
	return bs.bookings.ListBookings(ctx, models.BookingFilter{GuideID: actor.UserID})
}

// Confirm is called by checkout once the charge is captured and recorded.
func (bs *BookingService) Confirm(ctx context.Context, booking *models.Booking) error {
	if err := bs.bookings.ConfirmBooking(ctx, booking.ID); err != nil {
		return err
	}
	booking.Status = models.BookingConfirmed
	booking.PaymentStatus = models.PaymentStatusPaid
	metrics.IncBooking(models.BookingConfirmed)
	bs.publish(ctx, events.BookingConfirmed, booking)
	return nil
}

func (bs *BookingService) MarkPaymentFailed(ctx context.Context, booking *models.Booking) error {
	if err := bs.bookings.SetPaymentStatus(ctx, booking.ID, models.PaymentStatusFailed); err != nil {
		return err
	}
	booking.PaymentStatus = models.PaymentStatusFailed
	return nil
}

func (bs *BookingService) publish(ctx context.Context, subject string, b *models.Booking) {
	if bs.bus == nil {
		return
	}
	err := bs.bus.Publish(ctx, subject, events.BookingEvent{
		Type:       subject,
		BookingID:  b.ID,
		TourID:     b.TourID,
		GuideID:    b.GuideID,
		TravelerID: b.TravelerID,
		Status:     b.Status,
		Amount:     b.TotalPrice,
		At:         bs.now().UTC(),
	})
	if err != nil {
		bs.logger.Warn("Failed to publish booking event", "subject", subject, "booking_id", b.ID, "error", err)
	}
}
