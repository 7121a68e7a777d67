package models

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type GuidesRepo interface {
	UpsertGuide(ctx context.Context, guide *GuideProfile) error
	GetGuide(ctx context.Context, userID string) (*GuideProfile, error)
	ListGuides(ctx context.Context, filter GuideFilter) ([]*GuideProfile, int64, error)
	SetCertifications(ctx context.Context, userID string, certifications []string) (*GuideProfile, error)
	AddVerificationDocument(ctx context.Context, userID, url string) error
	IncrementCompletedTours(ctx context.Context, userID string, n int) error
	SetGuideRating(ctx context.Context, userID string, rating float64, count int) error
}

// UpsertGuide writes the profile-derived fields and leaves counters and
// guide-only fields untouched on existing documents.
func (mdb *MongodbRepo) UpsertGuide(ctx context.Context, guide *GuideProfile) error {
	col, err := mdb.GetCollection(ctx, GuidesColName)
	if err != nil {
		return err
	}

	languages := guide.Languages
	if languages == nil {
		languages = []string{}
	}

	update := bson.M{
		"$set": bson.M{
			"username":    guide.Username,
			"fullname":    guide.FullName,
			"avatar_url":  guide.AvatarURL,
			"bio":         guide.Bio,
			"location":    guide.Location,
			"languages":   languages,
			"is_verified": guide.IsVerified,
			"updated_at":  time.Now().UTC(),
		},
		"$setOnInsert": bson.M{
			"certifications":         []string{},
			"verification_documents": []string{},
			"rating":                 0.0,
			"review_count":           0,
			"completed_tours":        0,
		},
	}

	_, err = col.UpdateByID(ctx, guide.UserID, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert guide %s: %w", guide.UserID, err)
	}
	return nil
}

func (mdb *MongodbRepo) GetGuide(ctx context.Context, userID string) (*GuideProfile, error) {
	col, err := mdb.GetCollection(ctx, GuidesColName)
	if err != nil {
		return nil, err
	}

	var guide GuideProfile
	if err := col.FindOne(ctx, bson.M{"_id": userID}).Decode(&guide); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("guide %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get guide: %w", err)
	}
	return &guide, nil
}

func (mdb *MongodbRepo) ListGuides(ctx context.Context, filter GuideFilter) ([]*GuideProfile, int64, error) {
	filter.Normalize()
	col, err := mdb.GetCollection(ctx, GuidesColName)
	if err != nil {
		return nil, 0, err
	}

	query := bson.M{}
	if filter.Location != "" {
		query["location"] = bson.M{"$regex": regexp.QuoteMeta(filter.Location), "$options": "i"}
	}
	if filter.Language != "" {
		query["languages"] = bson.M{"$regex": "^" + regexp.QuoteMeta(filter.Language) + "$", "$options": "i"}
	}

	total, err := col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count guides: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "review_count", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list guides: %w", err)
	}
	defer cursor.Close(ctx)

	guides := make([]*GuideProfile, 0)
	if err := cursor.All(ctx, &guides); err != nil {
		return nil, 0, fmt.Errorf("failed to decode guides: %w", err)
	}
	return guides, total, nil
}

func (mdb *MongodbRepo) SetCertifications(ctx context.Context, userID string, certifications []string) (*GuideProfile, error) {
	col, err := mdb.GetCollection(ctx, GuidesColName)
	if err != nil {
		return nil, err
	}

	var guide GuideProfile
	err = col.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"certifications": certifications, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&guide)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("guide %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update certifications: %w", err)
	}
	return &guide, nil
}

func (mdb *MongodbRepo) AddVerificationDocument(ctx context.Context, userID, url string) error {
	return mdb.updateGuide(ctx, userID, bson.M{
		"$addToSet": bson.M{"verification_documents": url},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
}

func (mdb *MongodbRepo) IncrementCompletedTours(ctx context.Context, userID string, n int) error {
	return mdb.updateGuide(ctx, userID, bson.M{
		"$inc": bson.M{"completed_tours": n},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
}

func (mdb *MongodbRepo) SetGuideRating(ctx context.Context, userID string, rating float64, count int) error {
	return mdb.updateGuide(ctx, userID, bson.M{
		"$set": bson.M{"rating": rating, "review_count": count, "updated_at": time.Now().UTC()},
	})
}

func (mdb *MongodbRepo) updateGuide(ctx context.Context, userID string, update bson.M) error {
	col, err := mdb.GetCollection(ctx, GuidesColName)
	if err != nil {
		return err
	}
	res, err := col.UpdateByID(ctx, userID, update)
	if err != nil {
		return fmt.Errorf("failed to update guide %s: %w", userID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("guide %s: %w", userID, ErrNotFound)
	}
	return nil
}
