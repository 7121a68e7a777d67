package payments

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSimulatedGatewayCharge(t *testing.T) {
	g := NewSimulatedGateway()
	res, err := g.Charge(context.Background(), ChargeRequest{
		BookingID:          "b1",
		Amount:             120,
		Currency:           "usd",
		PaymentMethodToken: "pm_card_visa",
	})
	if err != nil {
		t.Fatalf("Charge returned error: %v", err)
	}
	if !strings.HasPrefix(res.TransactionID, "txn_") {
		t.Errorf("unexpected transaction id %q", res.TransactionID)
	}
	if res.Currency != "USD" || res.Amount != 120 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestSimulatedGatewayRejects(t *testing.T) {
	g := NewSimulatedGateway()
	cases := []struct {
		name string
		req  ChargeRequest
		want error
	}{
		{"declined card", ChargeRequest{Amount: 10, PaymentMethodToken: DeclinedTestToken}, ErrDeclined},
		{"raw card number", ChargeRequest{Amount: 10, PaymentMethodToken: "4242424242424242"}, ErrInvalidToken},
		{"zero amount", ChargeRequest{Amount: 0, PaymentMethodToken: "pm_card_visa"}, ErrInvalidAmount},
		{"negative amount", ChargeRequest{Amount: -5, PaymentMethodToken: "pm_card_visa"}, ErrInvalidAmount},
	}
	for _, tc := range cases {
		if _, err := g.Charge(context.Background(), tc.req); !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestSimulatedGatewayRefund(t *testing.T) {
	g := NewSimulatedGateway()
	ctx := context.Background()
	res, err := g.Charge(ctx, ChargeRequest{Amount: 100, PaymentMethodToken: "pm_card_visa"})
	if err != nil {
		t.Fatalf("Charge returned error: %v", err)
	}

	if err := g.Refund(ctx, res.TransactionID, 50); err != nil {
		t.Fatalf("partial refund failed: %v", err)
	}
	if err := g.Refund(ctx, res.TransactionID, 60); err == nil {
		t.Error("refunding more than remains should fail")
	}
	if err := g.Refund(ctx, "ch_unknown", 10); !errors.Is(err, ErrUnknownCharge) {
		t.Errorf("expected ErrUnknownCharge, got %v", err)
	}
}

func TestSimulatedGatewayHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSimulatedGateway().Charge(ctx, ChargeRequest{Amount: 1, PaymentMethodToken: "pm_x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
