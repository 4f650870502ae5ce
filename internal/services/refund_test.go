package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventtide/ticketcore/internal/apperr"
	"github.com/eventtide/ticketcore/internal/gateway"
	"github.com/eventtide/ticketcore/internal/models"
)

// countingGateway records how many refund round trips actually reach the
// provider.
type countingGateway struct {
	*gateway.StubGateway
	refundCalls atomic.Int32
}

func (g *countingGateway) RefundPayment(ctx context.Context, paymentID string, amount decimal.Decimal) (string, error) {
	g.refundCalls.Add(1)
	return g.StubGateway.RefundPayment(ctx, paymentID, amount)
}

func TestRefundReturnsActiveTicket(t *testing.T) {
	db := newTestDB(t)
	event, _ := seedClass(t, db, 3, 10*time.Minute)
	gw := gateway.NewStubGateway()
	buyer := uuid.New()

	ticket, order := bookAndOrder(t, db, gw, event.ID, buyer)
	_, err := newReconciler(db, gw).Verify(
		context.Background(), order.ExternalOrderID, "pay_1", signFor(order.ExternalOrderID, "pay_1"))
	require.NoError(t, err)

	require.NoError(t, NewRefundService(db, gw).Refund(context.Background(), buyer, ticket.ID))

	assert.Equal(t, models.TicketReturned, reloadTicket(t, db, ticket.ID).Status)

	var refunded models.PaymentOrder
	require.NoError(t, db.First(&refunded, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderRefunded, refunded.Status)

	_, ok := gw.Refunded("pay_1")
	assert.True(t, ok)
	assert.Contains(t, auditActions(t, db, ticket.ID), AuditRefund)
}

func TestRefundRejectsNonOwner(t *testing.T) {
	db := newTestDB(t)
	_, class := seedClass(t, db, 3, 10*time.Minute)
	gw := gateway.NewStubGateway()
	ticket := seedActiveTicket(t, db, class.ID, uuid.New())

	err := NewRefundService(db, gw).Refund(context.Background(), uuid.New(), ticket.ID)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestRefundRejectsHeldTicket(t *testing.T) {
	db := newTestDB(t)
	event, _ := seedClass(t, db, 3, 10*time.Minute)
	gw := gateway.NewStubGateway()
	buyer := uuid.New()

	held, err := NewReservationService(db).Book(context.Background(), buyer, event.ID, "general")
	require.NoError(t, err)

	err = NewRefundService(db, gw).Refund(context.Background(), buyer, held.ID)
	require.ErrorIs(t, err, apperr.ErrWrongState)
}

func TestRefundGatewayFailureLeavesStateUntouched(t *testing.T) {
	db := newTestDB(t)
	event, _ := seedClass(t, db, 3, 10*time.Minute)
	gw := gateway.NewStubGateway()
	buyer := uuid.New()

	ticket, order := bookAndOrder(t, db, gw, event.ID, buyer)
	_, err := newReconciler(db, gw).Verify(
		context.Background(), order.ExternalOrderID, "pay_1", signFor(order.ExternalOrderID, "pay_1"))
	require.NoError(t, err)

	gw.FailRefund = true
	err = NewRefundService(db, gw).Refund(context.Background(), buyer, ticket.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindGateway, apperr.KindOf(err))

	// Nothing moved; the owner can retry once the gateway recovers.
	assert.Equal(t, models.TicketActive, reloadTicket(t, db, ticket.ID).Status)

	var untouched models.PaymentOrder
	require.NoError(t, db.First(&untouched, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderCompleted, untouched.Status)

	gw.FailRefund = false
	require.NoError(t, NewRefundService(db, gw).Refund(context.Background(), buyer, ticket.ID))
	assert.Equal(t, models.TicketReturned, reloadTicket(t, db, ticket.ID).Status)
}

// Duplicate webhook deliveries for a stale subject both trigger
// compensation; the refunding claim must let exactly one of them reach
// the gateway.
func TestRefundOrderConcurrentDeliveriesRefundOnce(t *testing.T) {
	db := newTestDB(t)
	event, _ := seedClass(t, db, 3, 10*time.Minute)
	buyer := uuid.New()

	held, err := NewReservationService(db).Book(context.Background(), buyer, event.ID, "general")
	require.NoError(t, err)

	paymentID := "pay_dup"
	order := models.PaymentOrder{
		SubjectKind:       models.SubjectTicket,
		TicketID:          held.ID,
		PayerID:           buyer,
		Amount:            decimal.NewFromInt(50),
		Currency:          "USD",
		ExternalOrderID:   "ord_dup",
		ExternalPaymentID: &paymentID,
		Status:            models.OrderCompleted,
	}
	require.NoError(t, db.Create(&order).Error)

	gw := &countingGateway{StubGateway: gateway.NewStubGateway()}
	svc := NewRefundService(db, gw)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.RefundOrder(context.Background(), "ord_dup")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, gw.refundCalls.Load())

	var settled models.PaymentOrder
	require.NoError(t, db.First(&settled, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderRefunded, settled.Status)
}

func TestRefundConcurrentAttemptsRefundOnce(t *testing.T) {
	db := newTestDB(t)
	event, _ := seedClass(t, db, 3, 10*time.Minute)
	gw := &countingGateway{StubGateway: gateway.NewStubGateway()}
	buyer := uuid.New()

	ticket, order := bookAndOrder(t, db, gw, event.ID, buyer)
	_, err := newReconciler(db, gw).Verify(
		context.Background(), order.ExternalOrderID, "pay_1", signFor(order.ExternalOrderID, "pay_1"))
	require.NoError(t, err)

	svc := NewRefundService(db, gw)
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Refund(context.Background(), buyer, ticket.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		// The loser sees WrongState or, if the winner already claimed the
		// order, no completed order at all.
		kind := apperr.KindOf(err)
		require.True(t, kind == apperr.KindConflict || kind == apperr.KindNotFound, "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.EqualValues(t, 1, gw.refundCalls.Load())
	assert.Equal(t, models.TicketReturned, reloadTicket(t, db, ticket.ID).Status)
}
