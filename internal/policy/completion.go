package policy

import (
	"time"

	"github.com/joshua-takyi/tourbay/internal/models"
)

// TourEnd is the booking's start (date and start time in loc) plus the parsed
// tour duration. ok is false when the stored date or time cannot be read.
func TourEnd(b *models.Booking, loc *time.Location) (end time.Time, ok bool) {
	start := b.StartsAt(loc)
	if start.IsZero() {
		return time.Time{}, false
	}
	hours := ParseDurationHours(b.Duration)
	return start.Add(time.Duration(hours * float64(time.Hour))), true
}

// ShouldComplete reports whether a confirmed booking has ended by now.
func ShouldComplete(b *models.Booking, now time.Time, loc *time.Location) bool {
	if b.Status != models.BookingConfirmed {
		return false
	}
	end, ok := TourEnd(b, loc)
	if !ok {
		return false
	}
	return now.After(end)
}
