package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const FavouritesColName = "favourites"

type SavedTour struct {
	TourID  string    `bson:"tour_id" json:"tour_id"`
	Title   string    `bson:"title" json:"title"`
	AddedAt time.Time `bson:"added_at" json:"added_at"`
}

// Favourites is one document per traveler, saved tours keyed by tour id.
type Favourites struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"-"`
	UserID    string               `bson:"user_id" json:"user_id"`
	Tours     map[string]SavedTour `bson:"tours" json:"-"`
	CreatedAt time.Time            `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt time.Time            `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// Saved returns the saved tours, most recent first.
func (f *Favourites) Saved() []SavedTour {
	out := make([]SavedTour, 0, len(f.Tours))
	for _, t := range f.Tours {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
	return out
}

type FavouritesRepo interface {
	SaveTour(ctx context.Context, userID string, tour SavedTour) (*Favourites, error)
	RemoveSavedTour(ctx context.Context, userID, tourID string) error
	GetFavourites(ctx context.Context, userID string) (*Favourites, error)
}

func (mdb *MongodbRepo) SaveTour(ctx context.Context, userID string, tour SavedTour) (*Favourites, error) {
	col, err := mdb.GetCollection(ctx, FavouritesColName)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if tour.AddedAt.IsZero() {
		tour.AddedAt = now
	}

	update := bson.M{
		"$set": bson.M{
			"updated_at":           now,
			"tours." + tour.TourID: tour,
		},
		"$setOnInsert": bson.M{
			"user_id":    userID,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result Favourites
	if err := col.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to save tour: %w", err)
	}
	return &result, nil
}

func (mdb *MongodbRepo) RemoveSavedTour(ctx context.Context, userID, tourID string) error {
	col, err := mdb.GetCollection(ctx, FavouritesColName)
	if err != nil {
		return err
	}
	update := bson.M{
		"$unset": bson.M{"tours." + tourID: ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	}
	if _, err := col.UpdateOne(ctx, bson.M{"user_id": userID}, update); err != nil {
		return fmt.Errorf("failed to remove saved tour: %w", err)
	}
	return nil
}

// GetFavourites returns an empty document when the traveler never saved a tour.
func (mdb *MongodbRepo) GetFavourites(ctx context.Context, userID string) (*Favourites, error) {
	col, err := mdb.GetCollection(ctx, FavouritesColName)
	if err != nil {
		return nil, err
	}
	var fav Favourites
	err = col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&fav)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &Favourites{UserID: userID, Tours: map[string]SavedTour{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load favourites: %w", err)
	}
	return &fav, nil
}
