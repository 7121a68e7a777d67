package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/tourbay/internal/cache"
	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/joshua-takyi/tourbay/internal/models"
)

const (
	TourImageUploadTimeout = 30 * time.Second
	tourListPrefix         = "tours:list:"
)

type TourService struct {
	tours    models.ToursRepo
	cache    cache.Store
	uploader ImageUploader
	cacheTTL time.Duration
	logger   *slog.Logger
}

func NewTourService(tours models.ToursRepo, store cache.Store, uploader ImageUploader, cacheTTL time.Duration, logger *slog.Logger) *TourService {
	return &TourService{
		tours:    tours,
		cache:    store,
		uploader: uploader,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func (ts *TourService) CreateTour(ctx context.Context, actor Actor, req *models.CreateTourRequest) (*models.Tour, error) {
	if err := actor.require(models.RoleGuide); err != nil {
		return nil, err
	}
	guideID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid guide id", models.ErrInvalidInput)
	}

	req.Sanitize()
	if err := models.Validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	images, publicIDs, err := ts.uploadImages(ctx, req.Images)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	id := uuid.New()
	tour := &models.Tour{
		ID:              id,
		GuideID:         guideID,
		Title:           req.Title,
		Slug:            helpers.GenerateSlug(req.Title, id.String()[:8]),
		Description:     req.Description,
		Price:           req.Price,
		Location:        req.Location,
		Duration:        req.Duration,
		Images:          images,
		Category:        req.Category,
		MaxParticipants: req.MaxParticipants,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := ts.tours.CreateTour(ctx, tour, actor.AccessToken)
	if err != nil {
		ts.uploader.Delete(context.WithoutCancel(ctx), publicIDs)
		return nil, err
	}

	ts.invalidate(ctx)
	return created, nil
}

// uploadImages sends anything that is not already a hosted URL to the image
// host. Existing URLs pass through unchanged.
func (ts *TourService) uploadImages(ctx context.Context, images []string) ([]string, []string, error) {
	var pending []string
	out := make([]string, 0, len(images))
	for _, img := range images {
		if strings.HasPrefix(img, "https://") {
			out = append(out, img)
			continue
		}
		pending = append(pending, img)
	}
	if len(pending) == 0 {
		return out, nil, nil
	}

	var urls, publicIDs []string
	err := raceTimeout(ctx, TourImageUploadTimeout, func(ctx context.Context) error {
		var err error
		urls, publicIDs, err = ts.uploader.Upload(ctx, pending, helpers.TourFolder)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to upload tour images: %w", err)
	}
	return append(out, urls...), publicIDs, nil
}

func (ts *TourService) GetTour(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	return ts.tours.GetTourByID(ctx, id)
}

func (ts *TourService) UpdateTour(ctx context.Context, actor Actor, id uuid.UUID, fields map[string]interface{}) (*models.Tour, error) {
	if _, err := ts.ownedTour(ctx, actor, id); err != nil {
		return nil, err
	}

	clean := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		if !models.TourUpdateFields[k] {
			return nil, fmt.Errorf("%w: field %q cannot be updated", models.ErrInvalidInput, k)
		}
		clean[k] = v
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", models.ErrInvalidInput)
	}
	if p, ok := clean["price"].(float64); ok && p <= 0 {
		return nil, fmt.Errorf("%w: price must be greater than zero", models.ErrInvalidInput)
	}
	if m, ok := clean["max_participants"].(float64); ok && m < 1 {
		return nil, fmt.Errorf("%w: max_participants must be at least 1", models.ErrInvalidInput)
	}
	if c, ok := clean["category"].(string); ok {
		clean["category"] = strings.ToLower(strings.TrimSpace(c))
	}
	clean["updated_at"] = time.Now().UTC()

	tour, err := ts.tours.UpdateTour(ctx, id, clean, actor.AccessToken)
	if err != nil {
		return nil, err
	}
	ts.invalidate(ctx)
	return tour, nil
}

// SetActive soft-enables or soft-disables a tour. Owners and admins only.
func (ts *TourService) SetActive(ctx context.Context, actor Actor, id uuid.UUID, active bool) (*models.Tour, error) {
	if _, err := ts.ownedTour(ctx, actor, id); err != nil {
		return nil, err
	}
	tour, err := ts.tours.UpdateTour(ctx, id, map[string]interface{}{
		"is_active":  active,
		"updated_at": time.Now().UTC(),
	}, actor.AccessToken)
	if err != nil {
		return nil, err
	}
	ts.invalidate(ctx)
	return tour, nil
}

func (ts *TourService) ListTours(ctx context.Context, filter models.TourFilter) (*models.TourPage, error) {
	filter.Normalize()
	key := filter.CacheKey()

	var page models.TourPage
	err := cache.GetJSON(ctx, ts.cache, key, &page)
	if err == nil {
		return &page, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		ts.logger.Warn("Tour cache read failed", "key", key, "error", err)
	}

	tours, total, err := ts.tours.ListTours(ctx, filter)
	if err != nil {
		return nil, err
	}
	page = models.TourPage{Tours: tours, Total: total, Page: filter.Page, Limit: filter.Limit}

	if err := cache.SetJSON(ctx, ts.cache, key, page, ts.cacheTTL); err != nil {
		ts.logger.Warn("Tour cache write failed", "key", key, "error", err)
	}
	return &page, nil
}

// RecordRating stores the aggregate computed from the reviews collection.
func (ts *TourService) RecordRating(ctx context.Context, tourID string, agg *models.RatingAggregate) error {
	id, err := uuid.Parse(tourID)
	if err != nil {
		return fmt.Errorf("%w: invalid tour id", models.ErrInvalidInput)
	}
	if err := ts.tours.SetTourRating(ctx, id, agg.Average, agg.Count); err != nil {
		return err
	}
	ts.invalidate(ctx)
	return nil
}

func (ts *TourService) ownedTour(ctx context.Context, actor Actor, id uuid.UUID) (*models.Tour, error) {
	tour, err := ts.tours.GetTourByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tour.GuideID.String() != actor.UserID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: tour belongs to another guide", models.ErrForbidden)
	}
	return tour, nil
}

func (ts *TourService) invalidate(ctx context.Context) {
	if err := ts.cache.DeletePrefix(ctx, tourListPrefix); err != nil {
		ts.logger.Warn("Tour cache invalidation failed", "error", err)
	}
}
