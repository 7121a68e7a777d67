package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/tourbay/internal/models"
)

const defaultReviewLimit = 50

// RatingRecorder stores a tour's recomputed rating. TourService satisfies it.
type RatingRecorder interface {
	RecordRating(ctx context.Context, tourID string, agg *models.RatingAggregate) error
}

type ReviewService struct {
	reviews  models.ReviewsRepo
	bookings models.BookingsRepo
	guides   models.GuidesRepo
	tours    RatingRecorder
	logger   *slog.Logger
}

func NewReviewService(reviews models.ReviewsRepo, bookings models.BookingsRepo, guides models.GuidesRepo, tours RatingRecorder, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		bookings: bookings,
		guides:   guides,
		tours:    tours,
		logger:   logger,
	}
}

// Create records a review for a completed booking. Only the booking's traveler
// can review it, and only once.
func (rs *ReviewService) Create(ctx context.Context, actor Actor, bookingID string, req *models.CreateReviewRequest) (*models.Review, error) {
	if err := models.Validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	booking, err := rs.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.TravelerID != actor.UserID {
		return nil, fmt.Errorf("%w: only the traveler can review this booking", models.ErrForbidden)
	}
	if booking.Status != models.BookingCompleted {
		return nil, fmt.Errorf("%w: booking is %s, reviews open once the tour is completed", models.ErrInvalidInput, booking.Status)
	}

	if existing, err := rs.reviews.GetReviewByBooking(ctx, bookingID); err == nil && existing != nil {
		return nil, models.ErrAlreadyReviewed
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	review := &models.Review{
		ID:         uuid.NewString(),
		BookingID:  booking.ID,
		TourID:     booking.TourID,
		GuideID:    booking.GuideID,
		TravelerID: booking.TravelerID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		CreatedAt:  time.Now().UTC(),
	}
	review.Sanitize()

	if err := rs.reviews.CreateReview(ctx, review); err != nil {
		return nil, err
	}

	rs.refreshRatings(ctx, review)
	return review, nil
}

// refreshRatings recomputes the tour and guide aggregates from the reviews
// collection. Failures leave the old aggregate in place and are logged.
func (rs *ReviewService) refreshRatings(ctx context.Context, review *models.Review) {
	if agg, err := rs.reviews.AggregateRating(ctx, models.ReviewByTour, review.TourID); err != nil {
		rs.logger.Warn("Failed to aggregate tour rating", "tour_id", review.TourID, "error", err)
	} else if err := rs.tours.RecordRating(ctx, review.TourID, agg); err != nil {
		rs.logger.Warn("Failed to store tour rating", "tour_id", review.TourID, "error", err)
	}

	if agg, err := rs.reviews.AggregateRating(ctx, models.ReviewByGuide, review.GuideID); err != nil {
		rs.logger.Warn("Failed to aggregate guide rating", "guide_id", review.GuideID, "error", err)
	} else if err := rs.guides.SetGuideRating(ctx, review.GuideID, agg.Average, agg.Count); err != nil {
		rs.logger.Warn("Failed to store guide rating", "guide_id", review.GuideID, "error", err)
	}
}

func (rs *ReviewService) ListForTour(ctx context.Context, tourID string, limit int) ([]*models.Review, error) {
	return rs.reviews.ListReviews(ctx, models.ReviewByTour, tourID, reviewLimit(limit))
}

func (rs *ReviewService) ListForGuide(ctx context.Context, guideID string, limit int) ([]*models.Review, error) {
	return rs.reviews.ListReviews(ctx, models.ReviewByGuide, guideID, reviewLimit(limit))
}

func reviewLimit(limit int) int {
	if limit <= 0 || limit > defaultReviewLimit {
		return defaultReviewLimit
	}
	return limit
}
