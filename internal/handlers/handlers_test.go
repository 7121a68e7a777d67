package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/tourbay/internal/cache"
	"github.com/joshua-takyi/tourbay/internal/events"
	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/joshua-takyi/tourbay/internal/models"
	"github.com/joshua-takyi/tourbay/internal/payments"
	"github.com/joshua-takyi/tourbay/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withClaims stands in for AuthMiddleware.
func withClaims(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ClaimsKey, &helpers.EnhancedClaims{UserID: userID, Role: role})
		c.Next()
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) helpers.ApiResponse {
	t.Helper()
	var resp helpers.ApiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not an envelope: %v: %s", err, w.Body.String())
	}
	return resp
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", models.ErrNotFound), http.StatusNotFound},
		{models.ErrForbidden, http.StatusForbidden},
		{models.ErrInvalidInput, http.StatusBadRequest},
		{models.ErrConflict, http.StatusConflict},
		{models.ErrAlreadyReviewed, http.StatusConflict},
		{fmt.Errorf("%w: too late", models.ErrRefundIneligible), http.StatusUnprocessableEntity},
		{models.ErrPaymentDeclined, http.StatusPaymentRequired},
		{errors.New("mongo down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFromError(tt.err); got != tt.want {
			t.Errorf("StatusFromError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

type stubTours struct {
	items map[uuid.UUID]*models.Tour
}

func (s *stubTours) CreateTour(ctx context.Context, t *models.Tour, token string) (*models.Tour, error) {
	s.items[t.ID] = t
	return t, nil
}

func (s *stubTours) GetTourByID(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	t, ok := s.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return t, nil
}

func (s *stubTours) UpdateTour(ctx context.Context, id uuid.UUID, fields map[string]interface{}, token string) (*models.Tour, error) {
	return s.GetTourByID(ctx, id)
}

func (s *stubTours) SetTourRating(ctx context.Context, id uuid.UUID, rating float64, reviewCount int) error {
	return nil
}

func (s *stubTours) ListTours(ctx context.Context, filter models.TourFilter) ([]*models.Tour, int64, error) {
	var out []*models.Tour
	for _, t := range s.items {
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

type noopUploader struct{}

func (noopUploader) Upload(ctx context.Context, images []string, folder string) ([]string, []string, error) {
	return images, nil, nil
}

func (noopUploader) Delete(ctx context.Context, publicIDs []string) {}

func TestGetTour(t *testing.T) {
	tour := &models.Tour{ID: uuid.New(), Title: "Old Town Walk", Price: 40, IsActive: true}
	ts := services.NewTourService(&stubTours{items: map[uuid.UUID]*models.Tour{tour.ID: tour}},
		cache.NewMemoryStore(), noopUploader{}, time.Minute, discardLogger())

	r := gin.New()
	r.GET("/tours/:id", GetTour(ts))

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/tours/" + tour.ID.String(), http.StatusOK},
		{"missing", "/tours/" + uuid.NewString(), http.StatusNotFound},
		{"malformed", "/tours/not-a-uuid", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if resp := decode(t, w); resp.Success != (tt.want == http.StatusOK) {
				t.Fatalf("unexpected success flag in %+v", resp)
			}
		})
	}
}

func TestListToursPaginated(t *testing.T) {
	tour := &models.Tour{ID: uuid.New(), Title: "Harbour Cruise", Price: 60, IsActive: true}
	ts := services.NewTourService(&stubTours{items: map[uuid.UUID]*models.Tour{tour.ID: tour}},
		cache.NewMemoryStore(), noopUploader{}, time.Minute, discardLogger())

	r := gin.New()
	r.GET("/tours", ListTours(ts))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tours?page=1&limit=10", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode(t, w)
	if resp.Meta == nil || resp.Meta.Total != 1 {
		t.Fatalf("expected pagination meta with one tour, got %+v", resp.Meta)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tours?guide_id=nope", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad guide id, got %d", w.Code)
	}
}

// bookingsByID implements only what the refund quote reads.
type bookingsByID struct {
	models.BookingsRepo
	items map[string]*models.Booking
}

func (s *bookingsByID) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, ok := s.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return b, nil
}

type paymentsByBooking struct {
	models.PaymentsRepo
	items map[string]*models.Payment
}

func (s *paymentsByBooking) GetPaymentByBooking(ctx context.Context, bookingID string) (*models.Payment, error) {
	p, ok := s.items[bookingID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p, nil
}

func TestRefundQuote(t *testing.T) {
	start := time.Now().UTC().Add(72 * time.Hour)
	booking := &models.Booking{
		ID:         "b1",
		TravelerID: "traveler-1",
		Date:       start.Format(models.DateLayout),
		StartTime:  start.Format(models.StartTimeLayout),
		Status:     models.BookingConfirmed,
	}
	payment := &models.Payment{ID: "p1", BookingID: "b1", Amount: 200, Status: models.PaymentCompleted}

	rs := services.NewRefundService(
		&bookingsByID{items: map[string]*models.Booking{"b1": booking}},
		&paymentsByBooking{items: map[string]*models.Payment{"b1": payment}},
		payments.NewSimulatedGateway(), events.NewLocalBus(), time.UTC, discardLogger())

	route := func(userID, role string) *gin.Engine {
		r := gin.New()
		r.GET("/bookings/:id/refund", withClaims(userID, role), RefundQuote(rs))
		return r
	}

	w := httptest.NewRecorder()
	route("traveler-1", models.RoleTraveler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bookings/b1/refund", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Data struct {
			Eligible   bool    `json:"eligible"`
			Percentage int     `json:"refund_percentage"`
			Amount     float64 `json:"refund_amount"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Data.Eligible || body.Data.Percentage != 100 || body.Data.Amount != 200 {
		t.Fatalf("expected a full refund quote, got %+v", body.Data)
	}

	w = httptest.NewRecorder()
	route("someone-else", models.RoleTraveler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bookings/b1/refund", nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another traveler, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	route("traveler-1", models.RoleTraveler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bookings/missing/refund", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHandlersRequireClaims(t *testing.T) {
	rs := services.NewRefundService(&bookingsByID{}, &paymentsByBooking{},
		payments.NewSimulatedGateway(), events.NewLocalBus(), time.UTC, discardLogger())

	r := gin.New()
	r.POST("/bookings/:id/refund", RequestRefund(rs))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/bookings/b1/refund", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without claims, got %d", w.Code)
	}
}

func TestInternalErrorsHideDetail(t *testing.T) {
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) {
		fail(c, errors.New("connection refused to 10.0.0.3"), "Failed to load booking")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if resp := decode(t, w); resp.Error != "" {
		t.Fatalf("internal detail leaked: %q", resp.Error)
	}
}
