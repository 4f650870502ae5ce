package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventtide/ticketcore/internal/apperr"
	"github.com/eventtide/ticketcore/internal/models"
)

func TestCheckInMarksTicketUsed(t *testing.T) {
	db := newTestDB(t)
	_, class := seedClass(t, db, 3, 10*time.Minute)
	owner, agent := uuid.New(), uuid.New()
	ticket := seedActiveTicket(t, db, class.ID, owner)
	svc := NewCheckinService(db, CheckInPolicy{})

	result, err := svc.CheckIn(context.Background(), agent, *ticket.QRToken)
	require.NoError(t, err)

	assert.Equal(t, ticket.ID, result.TicketID)
	assert.Equal(t, models.TicketUsed, result.Status)
	assert.False(t, result.AlreadyUsed)
	assert.Equal(t, models.TicketUsed, reloadTicket(t, db, ticket.ID).Status)
	assert.ElementsMatch(t, []string{AuditUse, AuditScan}, auditActions(t, db, ticket.ID))
}

func TestCheckInRepeatedScanIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	_, class := seedClass(t, db, 3, 10*time.Minute)
	ticket := seedActiveTicket(t, db, class.ID, uuid.New())
	svc := NewCheckinService(db, CheckInPolicy{})

	_, err := svc.CheckIn(context.Background(), uuid.New(), *ticket.QRToken)
	require.NoError(t, err)

	result, err := svc.CheckIn(context.Background(), uuid.New(), *ticket.QRToken)
	require.NoError(t, err)
	assert.True(t, result.AlreadyUsed)

	// The second scan records nothing new.
	assert.ElementsMatch(t, []string{AuditUse, AuditScan}, auditActions(t, db, ticket.ID))
}

func TestCheckInUnknownToken(t *testing.T) {
	db := newTestDB(t)
	svc := NewCheckinService(db, CheckInPolicy{})

	_, err := svc.CheckIn(context.Background(), uuid.New(), "no-such-token")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

// A listed ticket still admits its current owner; the open listing is
// the seller's problem, not the gate's.
func TestCheckInAdmitsListedTicket(t *testing.T) {
	db := newTestDB(t)
	_, class := seedClass(t, db, 3, 10*time.Minute)
	seller := uuid.New()
	ticket := seedActiveTicket(t, db, class.ID, seller)

	_, err := NewResaleService(db).List(context.Background(), seller, ticket.ID, decimal.NewFromInt(80))
	require.NoError(t, err)

	result, err := NewCheckinService(db, CheckInPolicy{}).CheckIn(context.Background(), uuid.New(), *ticket.QRToken)
	require.NoError(t, err)
	assert.Equal(t, models.TicketUsed, result.Status)
}

func TestCheckInRejectsReturnedTicket(t *testing.T) {
	db := newTestDB(t)
	_, class := seedClass(t, db, 3, 10*time.Minute)
	ticket := seedActiveTicket(t, db, class.ID, uuid.New())
	require.NoError(t, db.Model(&models.Ticket{}).
		Where("id = ?", ticket.ID).
		Update("status", models.TicketReturned).Error)

	_, err := NewCheckinService(db, CheckInPolicy{}).CheckIn(context.Background(), uuid.New(), *ticket.QRToken)
	require.ErrorIs(t, err, apperr.ErrNotRedeemable)
}

func TestCheckInEnforcesAdmissionWindow(t *testing.T) {
	db := newTestDB(t)
	// Event starts a day from now; with a one hour early-entry allowance
	// the gate must still be closed.
	_, class := seedClass(t, db, 3, 10*time.Minute)
	ticket := seedActiveTicket(t, db, class.ID, uuid.New())

	policy := CheckInPolicy{Enforce: true, EarlyEntry: time.Hour, LateEntry: time.Hour}
	_, err := NewCheckinService(db, policy).CheckIn(context.Background(), uuid.New(), *ticket.QRToken)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, models.TicketActive, reloadTicket(t, db, ticket.ID).Status)

	// A generous allowance that covers the start time opens the gate.
	open := CheckInPolicy{Enforce: true, EarlyEntry: 48 * time.Hour, LateEntry: time.Hour}
	_, err = NewCheckinService(db, open).CheckIn(context.Background(), uuid.New(), *ticket.QRToken)
	require.NoError(t, err)
}
