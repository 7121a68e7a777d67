package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/joshua-takyi/tourbay/internal/models"
)

type stubFavourites struct {
	mu   sync.Mutex
	docs map[string]*models.Favourites
	tick time.Time
}

func newStubFavourites() *stubFavourites {
	return &stubFavourites{docs: make(map[string]*models.Favourites), tick: testNow}
}

func (s *stubFavourites) SaveTour(ctx context.Context, userID string, tour models.SavedTour) (*models.Favourites, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fav, ok := s.docs[userID]
	if !ok {
		fav = &models.Favourites{UserID: userID, Tours: map[string]models.SavedTour{}}
		s.docs[userID] = fav
	}
	s.tick = s.tick.Add(time.Minute)
	tour.AddedAt = s.tick
	fav.Tours[tour.TourID] = tour
	return fav, nil
}

func (s *stubFavourites) RemoveSavedTour(ctx context.Context, userID, tourID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fav, ok := s.docs[userID]; ok {
		delete(fav.Tours, tourID)
	}
	return nil
}

func (s *stubFavourites) GetFavourites(ctx context.Context, userID string) (*models.Favourites, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fav, ok := s.docs[userID]; ok {
		return fav, nil
	}
	return &models.Favourites{UserID: userID, Tours: map[string]models.SavedTour{}}, nil
}

func TestFavouritesSaveListRemove(t *testing.T) {
	first := activeTour(50, 4)
	second := activeTour(80, 4)
	second.Title = "Harbour Cruise"
	fs := NewFavouriteService(newStubFavourites(), newStubTours(first, second), discardLogger())
	ctx := context.Background()

	if _, err := fs.SaveTour(ctx, traveler, first.ID.String()); err != nil {
		t.Fatalf("save first: %v", err)
	}
	saved, err := fs.SaveTour(ctx, traveler, second.ID.String())
	if err != nil {
		t.Fatalf("save second: %v", err)
	}
	if len(saved) != 2 || saved[0].Title != "Harbour Cruise" {
		t.Fatalf("expected newest first, got %+v", saved)
	}

	// saving again keeps a single entry
	if _, err := fs.SaveTour(ctx, traveler, first.ID.String()); err != nil {
		t.Fatal(err)
	}
	if err := fs.RemoveTour(ctx, traveler, second.ID.String()); err != nil {
		t.Fatal(err)
	}
	saved, err = fs.List(ctx, traveler)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 || saved[0].TourID != first.ID.String() {
		t.Fatalf("unexpected saved tours %+v", saved)
	}
}

func TestFavouritesRejects(t *testing.T) {
	inactive := activeTour(50, 4)
	inactive.IsActive = false
	fs := NewFavouriteService(newStubFavourites(), newStubTours(inactive), discardLogger())
	guide := Actor{UserID: "guide-1", Role: models.RoleGuide}

	tests := []struct {
		name   string
		actor  Actor
		tourID string
		want   error
	}{
		{"guide", guide, inactive.ID.String(), models.ErrForbidden},
		{"bad id", traveler, "nope", models.ErrInvalidInput},
		{"inactive tour", traveler, inactive.ID.String(), models.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fs.SaveTour(context.Background(), tt.actor, tt.tourID)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
