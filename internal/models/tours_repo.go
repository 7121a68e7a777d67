package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

type ToursRepo interface {
	CreateTour(ctx context.Context, tour *Tour, accessToken string) (*Tour, error)
	GetTourByID(ctx context.Context, id uuid.UUID) (*Tour, error)
	UpdateTour(ctx context.Context, id uuid.UUID, fields map[string]interface{}, accessToken string) (*Tour, error)
	ListTours(ctx context.Context, filter TourFilter) ([]*Tour, int64, error)
	SetTourRating(ctx context.Context, id uuid.UUID, rating float64, reviewCount int) error
}

func (su *SupabaseRepo) CreateTour(ctx context.Context, tour *Tour, accessToken string) (*Tour, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	tourData := map[string]interface{}{
		"id":               tour.ID,
		"guide_id":         tour.GuideID,
		"title":            tour.Title,
		"slug":             tour.Slug,
		"description":      tour.Description,
		"price":            tour.Price,
		"location":         tour.Location,
		"duration":         tour.Duration,
		"images":           tour.Images,
		"category":         tour.Category,
		"max_participants": tour.MaxParticipants,
		"rating":           0,
		"review_count":     0,
		"is_active":        tour.IsActive,
		"created_at":       tour.CreatedAt,
		"updated_at":       tour.UpdatedAt,
	}

	var created []*Tour
	data, _, err := client.From(ToursTable).
		Insert(tourData, false, "", "representation", "exact").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to insert tour: %w", err)
	}

	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("failed to unmarshal created tour: %w", err)
	}

	if len(created) == 0 {
		return nil, fmt.Errorf("no tour returned after insert")
	}

	return created[0], nil
}

func (su *SupabaseRepo) GetTourByID(ctx context.Context, id uuid.UUID) (*Tour, error) {
	var tours []*Tour
	data, _, err := su.supabaseClient.From(ToursTable).
		Select("*", "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}

	if err := json.Unmarshal(data, &tours); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tour: %w", err)
	}

	if len(tours) == 0 {
		return nil, fmt.Errorf("tour %s: %w", id, ErrNotFound)
	}

	return tours[0], nil
}

func (su *SupabaseRepo) UpdateTour(ctx context.Context, id uuid.UUID, fields map[string]interface{}, accessToken string) (*Tour, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}

	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	var tours []*Tour
	data, _, err := client.From(ToursTable).
		Update(fields, "representation", "exact").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update tour: %w", err)
	}

	if err := json.Unmarshal(data, &tours); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated tour: %w", err)
	}

	if len(tours) == 0 {
		return nil, fmt.Errorf("tour %s: %w", id, ErrNotFound)
	}

	return tours[0], nil
}

// SetTourRating writes the review aggregate. No traveler owns the tour row, so
// this goes through the system client rather than a per-user one.
func (su *SupabaseRepo) SetTourRating(ctx context.Context, id uuid.UUID, rating float64, reviewCount int) error {
	var tours []*Tour
	data, _, err := su.systemClient().From(ToursTable).
		Update(map[string]interface{}{
			"rating":       rating,
			"review_count": reviewCount,
		}, "representation", "exact").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update tour rating: %w", err)
	}

	if err := json.Unmarshal(data, &tours); err != nil {
		return fmt.Errorf("failed to unmarshal rated tour: %w", err)
	}

	// row level security hides the row instead of failing the update
	if len(tours) == 0 {
		return fmt.Errorf("tour %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListTours pushes every filter down to PostgREST and returns the page along
// with the exact total.
func (su *SupabaseRepo) ListTours(ctx context.Context, filter TourFilter) ([]*Tour, int64, error) {
	filter.Normalize()

	query := su.supabaseClient.From(ToursTable).Select("*", "exact", false)
	if !filter.IncludeInactive {
		query = query.Eq("is_active", "true")
	}
	if filter.Location != "" {
		query = query.Ilike("location", "%"+filter.Location+"%")
	}
	if filter.Category != "" {
		query = query.Eq("category", filter.Category)
	}
	if filter.MinPrice > 0 {
		query = query.Gte("price", strconv.FormatFloat(filter.MinPrice, 'f', -1, 64))
	}
	if filter.MaxPrice > 0 {
		query = query.Lte("price", strconv.FormatFloat(filter.MaxPrice, 'f', -1, 64))
	}
	if filter.GuideID != "" {
		query = query.Eq("guide_id", filter.GuideID)
	}

	from := (filter.Page - 1) * filter.Limit
	data, count, err := query.
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Range(from, from+filter.Limit-1, "").
		Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tours: %w", err)
	}

	tours := make([]*Tour, 0)
	if err := json.Unmarshal(data, &tours); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal tours: %w", err)
	}

	return tours, count, nil
}
