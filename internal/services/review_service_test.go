package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joshua-takyi/tourbay/internal/cache"
	"github.com/joshua-takyi/tourbay/internal/models"
)

func newReviewFixture(b *models.Booking, tour *models.Tour) (*ReviewService, *stubReviews, *stubTours, *stubGuides) {
	reviews := &stubReviews{}
	tours := newStubTours(tour)
	guides := newStubGuides()
	tourSvc := NewTourService(tours, cache.NewMemoryStore(), &stubUploader{}, time.Minute, discardLogger())
	return NewReviewService(reviews, newStubBookings(b), guides, tourSvc, discardLogger()), reviews, tours, guides
}

func completedBooking(tour *models.Tour) *models.Booking {
	return &models.Booking{
		ID:         "b1",
		TourID:     tour.ID.String(),
		GuideID:    tour.GuideID.String(),
		TravelerID: "traveler-1",
		Status:     models.BookingCompleted,
	}
}

func TestReviewCreateUpdatesAggregates(t *testing.T) {
	tour := activeTour(50, 4)
	b := completedBooking(tour)
	rs, _, tours, guides := newReviewFixture(b, tour)

	review, err := rs.Create(context.Background(), traveler, b.ID, &models.CreateReviewRequest{Rating: 5, Comment: "  Wonderful guide  "})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if review.TourID != b.TourID || review.GuideID != b.GuideID || review.TravelerID != b.TravelerID {
		t.Fatalf("ids not copied from booking: %+v", review)
	}
	if review.Comment != "Wonderful guide" {
		t.Fatalf("comment not trimmed: %q", review.Comment)
	}

	stored, _ := tours.GetTourByID(context.Background(), tour.ID)
	if stored.Rating != 5 || stored.ReviewCount != 1 {
		t.Fatalf("tour aggregate not updated: %v/%d", stored.Rating, stored.ReviewCount)
	}
	if agg := guides.ratings[b.GuideID]; agg.Average != 5 || agg.Count != 1 {
		t.Fatalf("guide aggregate not updated: %+v", agg)
	}
}

func TestReviewCommentStoredAsWritten(t *testing.T) {
	tour := activeTour(50, 4)
	b := completedBooking(tour)
	rs, reviews, _, _ := newReviewFixture(b, tour)

	review, err := rs.Create(context.Background(), traveler, b.ID, &models.CreateReviewRequest{Rating: 5, Comment: "  Damn good tour, hell of a view  "})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	want := "Damn good tour, hell of a view"
	if review.Comment != want {
		t.Fatalf("expected %q, got %q", want, review.Comment)
	}
	if len(reviews.items) != 1 || reviews.items[0].Comment != want {
		t.Fatalf("stored comment altered: %+v", reviews.items)
	}
}

func TestReviewSecondAttemptRejected(t *testing.T) {
	tour := activeTour(50, 4)
	b := completedBooking(tour)
	rs, reviews, _, _ := newReviewFixture(b, tour)

	if _, err := rs.Create(context.Background(), traveler, b.ID, &models.CreateReviewRequest{Rating: 4}); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}
	_, err := rs.Create(context.Background(), traveler, b.ID, &models.CreateReviewRequest{Rating: 1})
	if !errors.Is(err, models.ErrAlreadyReviewed) {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}
	if len(reviews.items) != 1 {
		t.Fatalf("expected one stored review, got %d", len(reviews.items))
	}
}

func TestReviewRejections(t *testing.T) {
	tour := activeTour(50, 4)

	confirmed := completedBooking(tour)
	confirmed.Status = models.BookingConfirmed
	rs, _, _, _ := newReviewFixture(confirmed, tour)
	if _, err := rs.Create(context.Background(), traveler, confirmed.ID, &models.CreateReviewRequest{Rating: 4}); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for an uncompleted booking, got %v", err)
	}

	done := completedBooking(tour)
	rs, _, _, _ = newReviewFixture(done, tour)
	stranger := Actor{UserID: "traveler-2", Role: models.RoleTraveler}
	if _, err := rs.Create(context.Background(), stranger, done.ID, &models.CreateReviewRequest{Rating: 4}); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for another traveler, got %v", err)
	}
	for _, rating := range []int{0, 6} {
		if _, err := rs.Create(context.Background(), traveler, done.ID, &models.CreateReviewRequest{Rating: rating}); !errors.Is(err, models.ErrInvalidInput) {
			t.Fatalf("rating %d: expected ErrInvalidInput, got %v", rating, err)
		}
	}
}

func TestReviewListLimits(t *testing.T) {
	if got := reviewLimit(0); got != defaultReviewLimit {
		t.Fatalf("expected default limit, got %d", got)
	}
	if got := reviewLimit(500); got != defaultReviewLimit {
		t.Fatalf("expected capped limit, got %d", got)
	}
	if got := reviewLimit(5); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}
