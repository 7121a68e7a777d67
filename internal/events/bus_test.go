package events

import (
	"context"
	"encoding/json"
	"testing"
)

func TestLocalBusDeliversBySubject(t *testing.T) {
	bus := NewLocalBus()
	var chat, booking []string

	if _, err := bus.Subscribe(ChatSubject("c1"), func(data []byte) { chat = append(chat, string(data)) }); err != nil {
		t.Fatal(err)
	}
	sub, err := bus.Subscribe(BookingAll, func(data []byte) {
		var ev BookingEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		booking = append(booking, ev.Type)
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	_ = bus.Publish(ctx, ChatSubject("c1"), "hello")
	_ = bus.Publish(ctx, ChatSubject("c2"), "other room")
	_ = bus.Publish(ctx, BookingConfirmed, BookingEvent{Type: BookingConfirmed})
	_ = bus.Publish(ctx, BookingCancelled, BookingEvent{Type: BookingCancelled})

	if len(chat) != 1 || chat[0] != `"hello"` {
		t.Errorf("unexpected chat deliveries %v", chat)
	}
	if len(booking) != 2 {
		t.Errorf("expected 2 booking events, got %v", booking)
	}

	_ = sub.Unsubscribe()
	_ = bus.Publish(ctx, BookingCompleted, BookingEvent{Type: BookingCompleted})
	if len(booking) != 2 {
		t.Error("unsubscribed handler still received events")
	}
}

func TestSubjectMatches(t *testing.T) {
	if !subjectMatches("booking.>", "booking.completed") {
		t.Error("wildcard should match")
	}
	if subjectMatches("booking.>", "chat.1") {
		t.Error("wildcard matched a different prefix")
	}
	if subjectMatches("chat.1", "chat.10") {
		t.Error("exact subjects must match exactly")
	}
}
