package routes

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/tourbay/internal/cache"
	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/joshua-takyi/tourbay/internal/models"
	"github.com/joshua-takyi/tourbay/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memTours struct {
	items map[uuid.UUID]*models.Tour
}

func (m *memTours) CreateTour(ctx context.Context, t *models.Tour, token string) (*models.Tour, error) {
	m.items[t.ID] = t
	return t, nil
}

func (m *memTours) GetTourByID(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	t, ok := m.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTours) UpdateTour(ctx context.Context, id uuid.UUID, fields map[string]interface{}, token string) (*models.Tour, error) {
	t, ok := m.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if v, ok := fields["is_active"].(bool); ok {
		t.IsActive = v
	}
	cp := *t
	return &cp, nil
}

func (m *memTours) ListTours(ctx context.Context, f models.TourFilter) ([]*models.Tour, int64, error) {
	return nil, 0, nil
}

func (m *memTours) SetTourRating(ctx context.Context, id uuid.UUID, rating float64, reviewCount int) error {
	return nil
}

// signedIn stands in for AuthMiddleware.
func signedIn(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user", &helpers.EnhancedClaims{UserID: userID, Role: role})
		c.Next()
	}
}

func tourRouter(repo *memTours, userID, role string) *gin.Engine {
	ts := services.NewTourService(repo, cache.NewMemoryStore(), nil, time.Minute,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := gin.New()
	registerTourRoutes(r.Group("/tours", signedIn(userID, role)), ts)
	return r
}

func TestTourActivationRoles(t *testing.T) {
	tour := &models.Tour{ID: uuid.New(), GuideID: uuid.New(), Title: "Canopy Walk", IsActive: true}
	repo := &memTours{items: map[uuid.UUID]*models.Tour{tour.ID: tour}}
	path := "/tours/" + tour.ID.String()

	tests := []struct {
		name   string
		userID string
		role   string
		action string
		want   int
		active bool
	}{
		{"admin deactivates another guide's tour", "admin-1", models.RoleAdmin, "/deactivate", http.StatusOK, false},
		{"admin reactivates it", "admin-1", models.RoleAdmin, "/activate", http.StatusOK, true},
		{"other guide is refused", uuid.NewString(), models.RoleGuide, "/deactivate", http.StatusForbidden, true},
		{"traveler is refused", "traveler-1", models.RoleTraveler, "/deactivate", http.StatusForbidden, true},
		{"owner deactivates", tour.GuideID.String(), models.RoleGuide, "/deactivate", http.StatusOK, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tourRouter(repo, tt.userID, tt.role).ServeHTTP(w, httptest.NewRequest(http.MethodPost, path+tt.action, nil))
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if repo.items[tour.ID].IsActive != tt.active {
				t.Fatalf("expected is_active=%v", tt.active)
			}
		})
	}
}

func TestTourCreateStaysGuideOnly(t *testing.T) {
	repo := &memTours{items: map[uuid.UUID]*models.Tour{}}

	w := httptest.NewRecorder()
	tourRouter(repo, "admin-1", models.RoleAdmin).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tours", nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for an admin creating a tour, got %d", w.Code)
	}
}
