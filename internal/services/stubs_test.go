package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/tourbay/internal/models"
	"github.com/joshua-takyi/tourbay/internal/payments"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubBookings struct {
	mu          sync.Mutex
	items       map[string]*models.Booking
	cancelErr   error
	completeErr error
	completed   []string
}

func newStubBookings(bs ...*models.Booking) *stubBookings {
	s := &stubBookings{items: make(map[string]*models.Booking)}
	for _, b := range bs {
		s.items[b.ID] = b
	}
	return s
}

func (s *stubBookings) CreateBooking(ctx context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.items[b.ID] = &cp
	return nil
}

func (s *stubBookings) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *stubBookings) ListBookings(ctx context.Context, f models.BookingFilter) ([]*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Booking
	for _, b := range s.items {
		if f.TravelerID != "" && b.TravelerID != f.TravelerID {
			continue
		}
		if f.GuideID != "" && b.GuideID != f.GuideID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubBookings) ConfirmBooking(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.items[id]
	if !ok || b.Status != models.BookingPending {
		return models.ErrConflict
	}
	b.Status = models.BookingConfirmed
	b.PaymentStatus = models.PaymentStatusPaid
	return nil
}

func (s *stubBookings) SetPaymentStatus(ctx context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.items[id]
	if !ok {
		return models.ErrNotFound
	}
	b.PaymentStatus = status
	return nil
}

func (s *stubBookings) CompleteBooking(ctx context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completeErr != nil {
		return false, s.completeErr
	}
	b, ok := s.items[id]
	if !ok || b.Status != models.BookingConfirmed {
		return false, nil
	}
	b.Status = models.BookingCompleted
	b.CompletedAt = &at
	s.completed = append(s.completed, id)
	return true, nil
}

func (s *stubBookings) CancelBooking(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelErr != nil {
		return s.cancelErr
	}
	b, ok := s.items[id]
	if !ok {
		return models.ErrNotFound
	}
	b.Status = models.BookingCancelled
	b.PaymentStatus = models.PaymentStatusRefunded
	b.CancelledAt = &at
	return nil
}

func (s *stubBookings) CountBookingsByStatus(ctx context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64)
	for _, b := range s.items {
		out[b.Status]++
	}
	return out, nil
}

type stubPayments struct {
	mu        sync.Mutex
	byBooking map[string]*models.Payment
	createErr error
	reverted  []string
}

func newStubPayments(ps ...*models.Payment) *stubPayments {
	s := &stubPayments{byBooking: make(map[string]*models.Payment)}
	for _, p := range ps {
		s.byBooking[p.BookingID] = p
	}
	return s
}

func (s *stubPayments) find(id string) *models.Payment {
	for _, p := range s.byBooking {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *stubPayments) CreatePayment(ctx context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.byBooking[p.BookingID]; ok {
		return models.ErrConflict
	}
	cp := *p
	s.byBooking[p.BookingID] = &cp
	return nil
}

func (s *stubPayments) GetPaymentByBooking(ctx context.Context, bookingID string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byBooking[bookingID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubPayments) ApplyRefund(ctx context.Context, paymentID string, amount float64, pct int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.find(paymentID)
	if p == nil || p.Status != models.PaymentCompleted || p.RefundStatus == models.RefundStatusRefunded {
		return models.ErrConflict
	}
	p.RefundStatus = models.RefundStatusRefunded
	p.RefundAmount = amount
	p.RefundPercentage = pct
	p.RefundedAt = &at
	return nil
}

func (s *stubPayments) RevertRefund(ctx context.Context, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.find(paymentID)
	if p == nil {
		return models.ErrNotFound
	}
	p.RefundStatus = ""
	p.RefundAmount = 0
	p.RefundPercentage = 0
	p.RefundedAt = nil
	s.reverted = append(s.reverted, paymentID)
	return nil
}

func (s *stubPayments) RevenueSummary(ctx context.Context) (*models.RevenueSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum models.RevenueSummary
	for _, p := range s.byBooking {
		if p.Status != models.PaymentCompleted {
			continue
		}
		sum.Gross += p.Amount
		sum.Refunded += p.RefundAmount
		sum.Payments++
	}
	sum.Net = sum.Gross - sum.Refunded
	return &sum, nil
}

type stubTours struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*models.Tour
	updates []map[string]interface{}
	rated   int
	listed  int
}

func newStubTours(ts ...*models.Tour) *stubTours {
	s := &stubTours{items: make(map[uuid.UUID]*models.Tour)}
	for _, t := range ts {
		s.items[t.ID] = t
	}
	return s
}

func (s *stubTours) CreateTour(ctx context.Context, t *models.Tour, token string) (*models.Tour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[t.ID] = t
	return t, nil
}

func (s *stubTours) GetTourByID(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *stubTours) UpdateTour(ctx context.Context, id uuid.UUID, fields map[string]interface{}, token string) (*models.Tour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	s.updates = append(s.updates, fields)
	if v, ok := fields["is_active"].(bool); ok {
		t.IsActive = v
	}
	if v, ok := fields["title"].(string); ok {
		t.Title = v
	}
	cp := *t
	return &cp, nil
}

func (s *stubTours) SetTourRating(ctx context.Context, id uuid.UUID, rating float64, reviewCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok {
		return models.ErrNotFound
	}
	s.rated++
	t.Rating = rating
	t.ReviewCount = reviewCount
	return nil
}

func (s *stubTours) ListTours(ctx context.Context, f models.TourFilter) ([]*models.Tour, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listed++
	var out []*models.Tour
	for _, t := range s.items {
		if !f.IncludeInactive && !t.IsActive {
			continue
		}
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

type stubGuides struct {
	mu        sync.Mutex
	guides    map[string]*models.GuideProfile
	completed map[string]int
	ratings   map[string]models.RatingAggregate
	docs      map[string][]string
	docErr    error
	upsertErr error
}

func newStubGuides() *stubGuides {
	return &stubGuides{
		guides:    make(map[string]*models.GuideProfile),
		completed: make(map[string]int),
		ratings:   make(map[string]models.RatingAggregate),
		docs:      make(map[string][]string),
	}
}

func (s *stubGuides) UpsertGuide(ctx context.Context, g *models.GuideProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.guides[g.UserID] = g
	return nil
}

func (s *stubGuides) GetGuide(ctx context.Context, id string) (*models.GuideProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guides[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return g, nil
}

func (s *stubGuides) ListGuides(ctx context.Context, f models.GuideFilter) ([]*models.GuideProfile, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.GuideProfile
	for _, g := range s.guides {
		out = append(out, g)
	}
	return out, int64(len(out)), nil
}

func (s *stubGuides) SetCertifications(ctx context.Context, id string, certs []string) (*models.GuideProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guides[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	g.Certifications = certs
	return g, nil
}

func (s *stubGuides) AddVerificationDocument(ctx context.Context, id, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docErr != nil {
		return s.docErr
	}
	s.docs[id] = append(s.docs[id], url)
	return nil
}

func (s *stubGuides) IncrementCompletedTours(ctx context.Context, id string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[id] += n
	return nil
}

func (s *stubGuides) SetGuideRating(ctx context.Context, id string, rating float64, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[id] = models.RatingAggregate{Average: rating, Count: count}
	return nil
}

type stubReviews struct {
	mu    sync.Mutex
	items []*models.Review
}

func (s *stubReviews) CreateReview(ctx context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.BookingID == r.BookingID {
			return models.ErrAlreadyReviewed
		}
	}
	s.items = append(s.items, r)
	return nil
}

func (s *stubReviews) GetReviewByBooking(ctx context.Context, bookingID string) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.items {
		if r.BookingID == bookingID {
			return r, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *stubReviews) matching(field, id string) []*models.Review {
	var out []*models.Review
	for _, r := range s.items {
		if (field == models.ReviewByTour && r.TourID == id) || (field == models.ReviewByGuide && r.GuideID == id) {
			out = append(out, r)
		}
	}
	return out
}

func (s *stubReviews) ListReviews(ctx context.Context, field, id string, limit int) ([]*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.matching(field, id)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubReviews) AggregateRating(ctx context.Context, field, id string) (*models.RatingAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := s.matching(field, id)
	agg := &models.RatingAggregate{Count: len(rs)}
	if len(rs) == 0 {
		return agg, nil
	}
	total := 0
	for _, r := range rs {
		total += r.Rating
	}
	agg.Average = float64(total) / float64(len(rs))
	return agg, nil
}

type stubUsers struct {
	models.UserRepo
	users map[uuid.UUID]*models.User
}

func (s *stubUsers) GetUser(ctx context.Context, id uuid.UUID, token string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (s *stubUsers) CountUsersByRole(ctx context.Context, token string) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, u := range s.users {
		out[u.Role]++
	}
	return out, nil
}

type stubMessages struct {
	mu       sync.Mutex
	convs    map[string]*models.Conversation
	messages []*models.Message
}

func newStubMessages() *stubMessages {
	return &stubMessages{convs: make(map[string]*models.Conversation)}
}

func (s *stubMessages) UpsertConversation(ctx context.Context, travelerID, guideID string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.convs {
		if c.TravelerID == travelerID && c.GuideID == guideID {
			return c, nil
		}
	}
	c := &models.Conversation{ID: uuid.NewString(), TravelerID: travelerID, GuideID: guideID}
	s.convs[c.ID] = c
	return c, nil
}

func (s *stubMessages) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return c, nil
}

func (s *stubMessages) ListConversations(ctx context.Context, userID string) ([]*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Conversation
	for _, c := range s.convs {
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubMessages) InsertMessage(ctx context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	if c, ok := s.convs[m.ConversationID]; ok {
		c.LastMessage = m.Text
		c.LastMessageAt = m.CreatedAt
	}
	return nil
}

func (s *stubMessages) ListMessages(ctx context.Context, convID string) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Message
	for _, m := range s.messages {
		if m.ConversationID == convID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubMessages) MarkRead(ctx context.Context, convID, readerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.ConversationID == convID && m.SenderID != readerID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

type stubUploader struct {
	deleted []string
	err     error
}

func (u *stubUploader) Upload(ctx context.Context, images []string, folder string) ([]string, []string, error) {
	if u.err != nil {
		return nil, nil, u.err
	}
	var urls, ids []string
	for i := range images {
		id := folder + "/" + uuid.NewString()
		ids = append(ids, id)
		urls = append(urls, "https://img.example.com/"+id+string(rune('a'+i)))
	}
	return urls, ids, nil
}

func (u *stubUploader) Delete(ctx context.Context, ids []string) {
	u.deleted = append(u.deleted, ids...)
}

// recordingGateway charges through the simulated gateway and can fail refunds.
type recordingGateway struct {
	*payments.SimulatedGateway
	refundErr error
	refunds   []float64
}

func newRecordingGateway() *recordingGateway {
	return &recordingGateway{SimulatedGateway: payments.NewSimulatedGateway()}
}

func (g *recordingGateway) Refund(ctx context.Context, transactionID string, amount float64) error {
	g.refunds = append(g.refunds, amount)
	if g.refundErr != nil {
		return g.refundErr
	}
	return g.SimulatedGateway.Refund(ctx, transactionID, amount)
}
