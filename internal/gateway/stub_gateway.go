package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StubGateway is an in-memory provider used in development mode and in
// tests. It mints order ids locally and remembers refunds so tests can
// assert compensation happened.
type StubGateway struct {
	mu         sync.Mutex
	FailCreate bool
	FailRefund bool
	orders     map[string]decimal.Decimal
	refunds    map[string]decimal.Decimal
}

func NewStubGateway() *StubGateway {
	return &StubGateway{
		orders:  make(map[string]decimal.Decimal),
		refunds: make(map[string]decimal.Decimal),
	}
}

func (g *StubGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, reference string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailCreate {
		return "", fmt.Errorf("stub gateway: order creation disabled")
	}
	orderID := "ord_" + uuid.New().String()
	g.orders[orderID] = amount
	return orderID, nil
}

func (g *StubGateway) RefundPayment(ctx context.Context, paymentID string, amount decimal.Decimal) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailRefund {
		return "", fmt.Errorf("stub gateway: refunds disabled")
	}
	refundID := "rfd_" + uuid.New().String()
	g.refunds[paymentID] = amount
	return refundID, nil
}

// Refunded returns the refunded amount recorded for paymentID, if any.
func (g *StubGateway) Refunded(paymentID string) (decimal.Decimal, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	amount, ok := g.refunds[paymentID]
	return amount, ok
}
