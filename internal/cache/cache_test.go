package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreExpiry(t *testing.T) {
	clock := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return clock }
	ctx := context.Background()

	if err := s.Set(ctx, "checkout:1", []byte("draft"), 30*time.Minute); err != nil {
		t.Fatal(err)
	}
	if v, err := s.Get(ctx, "checkout:1"); err != nil || string(v) != "draft" {
		t.Fatalf("Get = %q, %v", v, err)
	}

	clock = clock.Add(30 * time.Minute)
	if _, err := s.Get(ctx, "checkout:1"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected miss after ttl, got %v", err)
	}
}

func TestMemoryStoreDeletePrefix(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Set(ctx, "tours:list:a", []byte("1"), 0)
	_ = s.Set(ctx, "tours:list:b", []byte("2"), 0)
	_ = s.Set(ctx, "checkout:x", []byte("3"), 0)

	if err := s.DeletePrefix(ctx, "tours:list:"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "tours:list:a"); !errors.Is(err, ErrMiss) {
		t.Error("tours:list:a should be gone")
	}
	if _, err := s.Get(ctx, "checkout:x"); err != nil {
		t.Errorf("unrelated key removed: %v", err)
	}
}

func TestJSONRoundTripThroughStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	type draft struct {
		TourID       string `json:"tour_id"`
		Participants int    `json:"participants"`
	}

	if err := SetJSON(ctx, s, "k", draft{TourID: "t1", Participants: 3}, time.Minute); err != nil {
		t.Fatal(err)
	}
	var got draft
	if err := GetJSON(ctx, s, "k", &got); err != nil {
		t.Fatal(err)
	}
	if got.TourID != "t1" || got.Participants != 3 {
		t.Errorf("unexpected draft %+v", got)
	}
	if err := GetJSON(ctx, s, "missing", &got); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss, got %v", err)
	}
}
