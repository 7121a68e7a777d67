package models

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ReviewColName = "reviews"

const (
	ReviewByTour  = "tour_id"
	ReviewByGuide = "guide_id"
)

type ReviewsRepo interface {
	CreateReview(ctx context.Context, review *Review) error
	GetReviewByBooking(ctx context.Context, bookingID string) (*Review, error)
	ListReviews(ctx context.Context, field, id string, limit int) ([]*Review, error)
	AggregateRating(ctx context.Context, field, id string) (*RatingAggregate, error)
}

// CreateReview relies on the unique booking_id index to refuse a second
// review for the same booking.
func (mdb *MongodbRepo) CreateReview(ctx context.Context, review *Review) error {
	if err := Validate.Struct(review); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	col, err := mdb.GetCollection(ctx, ReviewColName)
	if err != nil {
		return err
	}

	if _, err := col.InsertOne(ctx, review); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyReviewed
		}
		return fmt.Errorf("failed to insert review into database: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetReviewByBooking(ctx context.Context, bookingID string) (*Review, error) {
	col, err := mdb.GetCollection(ctx, ReviewColName)
	if err != nil {
		return nil, err
	}

	var review Review
	if err := col.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&review); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("review for booking %s: %w", bookingID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

func (mdb *MongodbRepo) ListReviews(ctx context.Context, field, id string, limit int) ([]*Review, error) {
	if field != ReviewByTour && field != ReviewByGuide {
		return nil, fmt.Errorf("%w: cannot list reviews by %q", ErrInvalidInput, field)
	}

	col, err := mdb.GetCollection(ctx, ReviewColName)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := col.Find(ctx, bson.M{field: id}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := make([]*Review, 0)
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, nil
}

func (mdb *MongodbRepo) AggregateRating(ctx context.Context, field, id string) (*RatingAggregate, error) {
	if field != ReviewByTour && field != ReviewByGuide {
		return nil, fmt.Errorf("%w: cannot aggregate reviews by %q", ErrInvalidInput, field)
	}

	col, err := mdb.GetCollection(ctx, ReviewColName)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{field: id}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$rating"},
			"count":   bson.M{"$sum": 1},
		}}},
	}

	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	defer cursor.Close(ctx)

	agg := &RatingAggregate{}
	if cursor.Next(ctx) {
		if err := cursor.Decode(agg); err != nil {
			return nil, fmt.Errorf("failed to decode rating aggregate: %w", err)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("rating cursor: %w", err)
	}
	agg.Average = math.Round(agg.Average*10) / 10
	return agg, nil
}
