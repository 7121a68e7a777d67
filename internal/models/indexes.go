package models

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories rely on, including the
// unique ones that enforce one payment and one review per booking.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	plan := map[string][]mongo.IndexModel{
		BookingsColName: {
			{
				Keys:    bson.D{{Key: "traveler_id", Value: 1}, {Key: "date", Value: -1}},
				Options: options.Index().SetName("traveler_date_idx"),
			},
			{
				Keys:    bson.D{{Key: "guide_id", Value: 1}, {Key: "date", Value: -1}},
				Options: options.Index().SetName("guide_date_idx"),
			},
			{
				Keys:    bson.D{{Key: "status", Value: 1}},
				Options: options.Index().SetName("status_idx"),
			},
		},
		PaymentsColName: {
			{
				Keys:    bson.D{{Key: "booking_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("booking_unique"),
			},
		},
		ReviewColName: {
			{
				Keys:    bson.D{{Key: "booking_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("booking_unique"),
			},
			{
				Keys:    bson.D{{Key: "tour_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("tour_created_idx"),
			},
			{
				Keys:    bson.D{{Key: "guide_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("guide_created_idx"),
			},
		},
		GuidesColName: {
			{
				Keys:    bson.D{{Key: "rating", Value: -1}, {Key: "review_count", Value: -1}},
				Options: options.Index().SetName("rating_idx"),
			},
		},
		ConversationsColName: {
			{
				Keys:    bson.D{{Key: "traveler_id", Value: 1}, {Key: "guide_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("participants_unique"),
			},
			{
				Keys:    bson.D{{Key: "guide_id", Value: 1}, {Key: "updated_at", Value: -1}},
				Options: options.Index().SetName("guide_updated_idx"),
			},
		},
		FavouritesColName: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("user_unique"),
			},
		},
		MessagesColName: {
			{
				Keys:    bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}},
				Options: options.Index().SetName("conversation_created_idx"),
			},
		},
	}

	for colName, indexes := range plan {
		col, err := mdb.GetCollection(ctx, colName)
		if err != nil {
			return fmt.Errorf("error getting collection %s: %w", colName, err)
		}
		if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("error creating indexes on %s: %w", colName, err)
		}
	}

	return nil
}
