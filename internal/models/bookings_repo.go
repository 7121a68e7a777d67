package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BookingsRepo interface {
	CreateBooking(ctx context.Context, booking *Booking) error
	GetBooking(ctx context.Context, id string) (*Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]*Booking, error)
	ConfirmBooking(ctx context.Context, id string) error
	SetPaymentStatus(ctx context.Context, id, status string) error
	CompleteBooking(ctx context.Context, id string, at time.Time) (bool, error)
	CancelBooking(ctx context.Context, id string, at time.Time) error
	CountBookingsByStatus(ctx context.Context) (map[string]int64, error)
}

func (mdb *MongodbRepo) CreateBooking(ctx context.Context, booking *Booking) error {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return err
	}
	if _, err := col.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetBooking(ctx context.Context, id string) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return nil, err
	}

	var booking Booking
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("booking %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (mdb *MongodbRepo) ListBookings(ctx context.Context, filter BookingFilter) ([]*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return nil, err
	}

	query := bson.M{}
	if filter.TravelerID != "" {
		query["traveler_id"] = filter.TravelerID
	}
	if filter.GuideID != "" {
		query["guide_id"] = filter.GuideID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "start_time", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*Booking, 0)
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// ConfirmBooking moves a pending booking to confirmed and paid.
func (mdb *MongodbRepo) ConfirmBooking(ctx context.Context, id string) error {
	return mdb.transitionBooking(ctx,
		bson.M{"_id": id, "status": BookingPending},
		bson.M{"status": BookingConfirmed, "payment_status": PaymentStatusPaid},
	)
}

func (mdb *MongodbRepo) SetPaymentStatus(ctx context.Context, id, status string) error {
	return mdb.transitionBooking(ctx, bson.M{"_id": id}, bson.M{"payment_status": status})
}

// CompleteBooking reports false when the booking was no longer confirmed.
func (mdb *MongodbRepo) CompleteBooking(ctx context.Context, id string, at time.Time) (bool, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return false, err
	}
	res, err := col.UpdateOne(ctx,
		bson.M{"_id": id, "status": BookingConfirmed},
		bson.M{"$set": bson.M{"status": BookingCompleted, "completed_at": at, "updated_at": at}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete booking %s: %w", id, err)
	}
	return res.ModifiedCount == 1, nil
}

func (mdb *MongodbRepo) CancelBooking(ctx context.Context, id string, at time.Time) error {
	return mdb.transitionBooking(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": BookingCancelled}},
		bson.M{"status": BookingCancelled, "payment_status": PaymentStatusRefunded, "cancelled_at": at},
	)
}

func (mdb *MongodbRepo) transitionBooking(ctx context.Context, filter, set bson.M) error {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return err
	}
	set["updated_at"] = time.Now().UTC()
	res, err := col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("booking %v in expected state: %w", filter["_id"], ErrNotFound)
	}
	return nil
}

func (mdb *MongodbRepo) CountBookingsByStatus(ctx context.Context) (map[string]int64, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode booking counts: %w", err)
	}

	counts := map[string]int64{
		BookingPending:   0,
		BookingConfirmed: 0,
		BookingCompleted: 0,
		BookingCancelled: 0,
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
