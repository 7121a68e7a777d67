package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/joshua-takyi/tourbay/internal/models"
)

// FavouriteService keeps each traveler's saved tours.
type FavouriteService struct {
	favourites models.FavouritesRepo
	tours      models.ToursRepo
	logger     *slog.Logger
}

func NewFavouriteService(favourites models.FavouritesRepo, tours models.ToursRepo, logger *slog.Logger) *FavouriteService {
	return &FavouriteService{
		favourites: favourites,
		tours:      tours,
		logger:     logger,
	}
}

func (fs *FavouriteService) SaveTour(ctx context.Context, actor Actor, tourID string) ([]models.SavedTour, error) {
	if err := actor.require(models.RoleTraveler); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(strings.TrimSpace(tourID))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid tour id", models.ErrInvalidInput)
	}

	tour, err := fs.tours.GetTourByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tour.IsActive {
		return nil, fmt.Errorf("%w: tour is not available", models.ErrInvalidInput)
	}

	fav, err := fs.favourites.SaveTour(ctx, actor.UserID, models.SavedTour{TourID: tour.ID.String(), Title: tour.Title})
	if err != nil {
		return nil, err
	}
	fs.logger.Info("Tour saved", "user_id", actor.UserID, "tour_id", tour.ID)
	return fav.Saved(), nil
}

func (fs *FavouriteService) RemoveTour(ctx context.Context, actor Actor, tourID string) error {
	if err := actor.require(models.RoleTraveler); err != nil {
		return err
	}
	if strings.TrimSpace(tourID) == "" {
		return fmt.Errorf("%w: tour id cannot be empty", models.ErrInvalidInput)
	}
	return fs.favourites.RemoveSavedTour(ctx, actor.UserID, strings.TrimSpace(tourID))
}

func (fs *FavouriteService) List(ctx context.Context, actor Actor) ([]models.SavedTour, error) {
	fav, err := fs.favourites.GetFavourites(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return fav.Saved(), nil
}
