package models

import (
	"strings"
	"time"
)

const BookingsColName = "bookings"

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
	PaymentStatusFailed   = "failed"
)

const (
	DateLayout      = "2006-01-02"
	StartTimeLayout = "15:04"
)

type Booking struct {
	ID            string     `bson:"_id" json:"id"`
	TourID        string     `bson:"tour_id" json:"tour_id"`
	GuideID       string     `bson:"guide_id" json:"guide_id"`
	TravelerID    string     `bson:"traveler_id" json:"traveler_id"`
	TourTitle     string     `bson:"tour_title" json:"tour_title"`
	Date          string     `bson:"date" json:"date"`
	StartTime     string     `bson:"start_time" json:"start_time"`
	Duration      string     `bson:"duration" json:"duration"`
	Participants  int        `bson:"participants" json:"participants"`
	TotalPrice    float64    `bson:"total_price" json:"total_price"`
	Status        string     `bson:"status" json:"status"`
	PaymentStatus string     `bson:"payment_status" json:"payment_status"`
	CancelledAt   *time.Time `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	CompletedAt   *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at" json:"updated_at"`
}

// StartsAt is the tour start in loc. The zero time is returned when the stored
// date or start time does not parse.
func (b *Booking) StartsAt(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+StartTimeLayout, b.Date+" "+b.StartTime, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

type CreateBookingRequest struct {
	TourID       string `json:"tour_id" validate:"required,uuid"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime    string `json:"start_time" validate:"required,datetime=15:04"`
	Participants int    `json:"participants" validate:"required,min=1"`
}

func (r *CreateBookingRequest) Sanitize() {
	r.TourID = strings.TrimSpace(r.TourID)
	r.Date = strings.TrimSpace(r.Date)
	r.StartTime = strings.TrimSpace(r.StartTime)
}

type BookingFilter struct {
	TravelerID string
	GuideID    string
	Status     string
	Limit      int
}
