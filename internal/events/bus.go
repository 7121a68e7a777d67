package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	BookingConfirmed = "booking.confirmed"
	BookingCompleted = "booking.completed"
	BookingCancelled = "booking.cancelled"
	BookingAll       = "booking.>"

	chatPrefix = "chat."
)

func ChatSubject(conversationID string) string {
	return chatPrefix + conversationID
}

type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	TourID     string    `json:"tour_id"`
	GuideID    string    `json:"guide_id"`
	TravelerID string    `json:"traveler_id"`
	Status     string    `json:"status"`
	Amount     float64   `json:"amount,omitempty"`
	At         time.Time `json:"at"`
}

type Subscription interface {
	Unsubscribe() error
}

type Bus interface {
	Publish(ctx context.Context, subject string, v interface{}) error
	Subscribe(subject string, handler func(data []byte)) (Subscription, error)
}

type NatsBus struct {
	conn *nats.Conn
}

func NewNatsBus(conn *nats.Conn) *NatsBus {
	return &NatsBus{conn: conn}
}

func (b *NatsBus) Publish(ctx context.Context, subject string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", subject, err)
	}
	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}

func (b *NatsBus) Subscribe(subject string, handler func(data []byte)) (Subscription, error) {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	return sub, nil
}

// LocalBus delivers in process. It backs tests and development runs without a
// NATS server. Subjects support the trailing ">" wildcard.
type LocalBus struct {
	mu   sync.RWMutex
	next int
	subs map[int]localSub
}

type localSub struct {
	subject string
	handler func([]byte)
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[int]localSub)}
}

func (b *LocalBus) Publish(ctx context.Context, subject string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", subject, err)
	}

	b.mu.RLock()
	var handlers []func([]byte)
	for _, s := range b.subs {
		if subjectMatches(s.subject, subject) {
			handlers = append(handlers, s.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(data)
	}
	return nil
}

func (b *LocalBus) Subscribe(subject string, handler func(data []byte)) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[id] = localSub{subject: subject, handler: handler}
	return &localSubscription{bus: b, id: id}, nil
}

type localSubscription struct {
	bus  *LocalBus
	id   int
	once sync.Once
}

func (s *localSubscription) Unsubscribe() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		s.bus.mu.Unlock()
	})
	return nil
}

func subjectMatches(pattern, subject string) bool {
	if strings.HasSuffix(pattern, ">") {
		return strings.HasPrefix(subject, strings.TrimSuffix(pattern, ">"))
	}
	return pattern == subject
}

// LogBookingEvents writes every booking event to the audit log.
func LogBookingEvents(bus Bus, logger *slog.Logger) (Subscription, error) {
	return bus.Subscribe(BookingAll, func(data []byte) {
		var ev BookingEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			logger.Warn("Failed to parse booking event", "error", err)
			return
		}
		logger.Info("Booking event",
			"type", ev.Type,
			"booking_id", ev.BookingID,
			"tour_id", ev.TourID,
			"status", ev.Status,
		)
	})
}
