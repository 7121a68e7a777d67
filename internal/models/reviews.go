package models

import (
	"time"

	"github.com/joshua-takyi/tourbay/internal/helpers"
)

type Review struct {
	ID         string    `bson:"_id" json:"id"`
	BookingID  string    `bson:"booking_id" json:"booking_id"`
	TourID     string    `bson:"tour_id" json:"tour_id"`
	GuideID    string    `bson:"guide_id" json:"guide_id"`
	TravelerID string    `bson:"traveler_id" json:"traveler_id"`
	Rating     int       `bson:"rating" json:"rating" validate:"required,min=1,max=5"`
	Comment    string    `bson:"comment" json:"comment" validate:"max=2000"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func (r *Review) Sanitize() {
	r.Comment = helpers.StringTrim(r.Comment)
}

// RatingAggregate is the average and count of reviews for one tour or guide.
type RatingAggregate struct {
	Average float64 `bson:"average" json:"average"`
	Count   int     `bson:"count" json:"count"`
}
