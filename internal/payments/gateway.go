package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrDeclined      = errors.New("card declined")
	ErrInvalidToken  = errors.New("invalid payment method token")
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	ErrUnknownCharge = errors.New("unknown transaction")
)

const DeclinedTestToken = "pm_card_declined"

type ChargeRequest struct {
	BookingID          string
	CustomerID         string
	Amount             float64
	Currency           string
	PaymentMethodToken string
}

type ChargeResult struct {
	TransactionID string
	Amount        float64
	Currency      string
	PaymentMethod string
}

// Gateway captures and refunds card payments tokenized on the client.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	Refund(ctx context.Context, transactionID string, amount float64) error
}

// SimulatedGateway stands in for the hosted provider. Captures are kept in
// memory so refunds can be checked against them.
type SimulatedGateway struct {
	mu       sync.Mutex
	captured map[string]float64
}

func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{captured: make(map[string]float64)}
}

func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return ChargeResult{}, err
	}
	if req.Amount <= 0 {
		return ChargeResult{}, ErrInvalidAmount
	}
	token := strings.TrimSpace(req.PaymentMethodToken)
	if !strings.HasPrefix(token, "pm_") {
		return ChargeResult{}, ErrInvalidToken
	}
	if token == DeclinedTestToken {
		return ChargeResult{}, ErrDeclined
	}

	txn := "txn_" + uuid.NewString()
	g.mu.Lock()
	g.captured[txn] = req.Amount
	g.mu.Unlock()

	return ChargeResult{
		TransactionID: txn,
		Amount:        req.Amount,
		Currency:      strings.ToUpper(req.Currency),
		PaymentMethod: "card",
	}, nil
}

func (g *SimulatedGateway) Refund(ctx context.Context, transactionID string, amount float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	captured, ok := g.captured[transactionID]
	if !ok {
		// captures from a previous process are not tracked
		if strings.HasPrefix(transactionID, "txn_") {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrUnknownCharge, transactionID)
	}
	if amount > captured {
		return fmt.Errorf("refund %.2f exceeds captured %.2f", amount, captured)
	}
	g.captured[transactionID] = captured - amount
	return nil
}
