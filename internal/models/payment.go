package models

import "time"

const PaymentsColName = "payments"

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"

	RefundStatusRefunded = "refunded"
)

type Payment struct {
	ID               string     `bson:"_id" json:"id"`
	BookingID        string     `bson:"booking_id" json:"booking_id"`
	TravelerID       string     `bson:"traveler_id" json:"traveler_id"`
	Amount           float64    `bson:"amount" json:"amount"`
	Currency         string     `bson:"currency" json:"currency"`
	TransactionID    string     `bson:"transaction_id" json:"transaction_id"`
	PaymentMethod    string     `bson:"payment_method" json:"payment_method"`
	Status           string     `bson:"status" json:"status"`
	RefundStatus     string     `bson:"refund_status" json:"refund_status"`
	RefundAmount     float64    `bson:"refund_amount" json:"refund_amount"`
	RefundPercentage int        `bson:"refund_percentage" json:"refund_percentage"`
	RefundedAt       *time.Time `bson:"refunded_at,omitempty" json:"refunded_at,omitempty"`
	CreatedAt        time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `bson:"updated_at" json:"updated_at"`
}

type RevenueSummary struct {
	Gross    float64 `json:"gross" bson:"gross"`
	Refunded float64 `json:"refunded" bson:"refunded"`
	Net      float64 `json:"net" bson:"-"`
	Payments int64   `json:"payments" bson:"payments"`
}
