package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type PaymentsRepo interface {
	CreatePayment(ctx context.Context, payment *Payment) error
	GetPaymentByBooking(ctx context.Context, bookingID string) (*Payment, error)
	ApplyRefund(ctx context.Context, paymentID string, amount float64, percentage int, at time.Time) error
	RevertRefund(ctx context.Context, paymentID string) error
	RevenueSummary(ctx context.Context) (*RevenueSummary, error)
}

func (mdb *MongodbRepo) CreatePayment(ctx context.Context, payment *Payment) error {
	col, err := mdb.GetCollection(ctx, PaymentsColName)
	if err != nil {
		return err
	}
	if _, err := col.InsertOne(ctx, payment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("payment for booking %s: %w", payment.BookingID, ErrConflict)
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetPaymentByBooking(ctx context.Context, bookingID string) (*Payment, error) {
	col, err := mdb.GetCollection(ctx, PaymentsColName)
	if err != nil {
		return nil, err
	}

	var payment Payment
	if err := col.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&payment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("payment for booking %s: %w", bookingID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

// ApplyRefund only touches a completed payment that has not been refunded yet,
// so two concurrent requests cannot both succeed.
func (mdb *MongodbRepo) ApplyRefund(ctx context.Context, paymentID string, amount float64, percentage int, at time.Time) error {
	col, err := mdb.GetCollection(ctx, PaymentsColName)
	if err != nil {
		return err
	}

	res, err := col.UpdateOne(ctx,
		bson.M{"_id": paymentID, "status": PaymentCompleted, "refund_status": bson.M{"$ne": RefundStatusRefunded}},
		bson.M{"$set": bson.M{
			"refund_status":     RefundStatusRefunded,
			"refund_amount":     amount,
			"refund_percentage": percentage,
			"refunded_at":       at,
			"updated_at":        at,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to record refund: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("payment %s already refunded: %w", paymentID, ErrConflict)
	}
	return nil
}

func (mdb *MongodbRepo) RevertRefund(ctx context.Context, paymentID string) error {
	col, err := mdb.GetCollection(ctx, PaymentsColName)
	if err != nil {
		return err
	}

	_, err = col.UpdateOne(ctx,
		bson.M{"_id": paymentID},
		bson.M{
			"$set": bson.M{
				"refund_status":     "",
				"refund_amount":     0.0,
				"refund_percentage": 0,
				"updated_at":        time.Now().UTC(),
			},
			"$unset": bson.M{"refunded_at": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to revert refund on payment %s: %w", paymentID, err)
	}
	return nil
}

func (mdb *MongodbRepo) RevenueSummary(ctx context.Context) (*RevenueSummary, error) {
	col, err := mdb.GetCollection(ctx, PaymentsColName)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": PaymentCompleted}}},
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"gross":    bson.M{"$sum": "$amount"},
			"refunded": bson.M{"$sum": "$refund_amount"},
			"payments": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate revenue: %w", err)
	}
	defer cursor.Close(ctx)

	summary := &RevenueSummary{}
	if cursor.Next(ctx) {
		if err := cursor.Decode(summary); err != nil {
			return nil, fmt.Errorf("failed to decode revenue: %w", err)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("revenue cursor: %w", err)
	}
	summary.Net = summary.Gross - summary.Refunded
	return summary, nil
}
