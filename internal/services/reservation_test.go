package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventtide/ticketcore/internal/apperr"
	"github.com/eventtide/ticketcore/internal/models"
)

func TestBookCreatesHeldTicket(t *testing.T) {
	db := newTestDB(t)
	event, class := seedClass(t, db, 5, 10*time.Minute)
	svc := NewReservationService(db)
	buyer := uuid.New()

	ticket, err := svc.Book(context.Background(), buyer, event.ID, "general")
	require.NoError(t, err)

	assert.Equal(t, models.TicketHeld, ticket.Status)
	assert.Equal(t, buyer, ticket.OwnerID)
	require.NotNil(t, ticket.HoldExpiresAt)
	assert.True(t, ticket.HoldExpiresAt.After(time.Now().UTC()))

	assert.Equal(t, 4, remainingSupply(t, db, class.ID))
	assert.Equal(t, []string{AuditHold}, auditActions(t, db, ticket.ID))
}

func TestBookSoldOut(t *testing.T) {
	db := newTestDB(t)
	event, class := seedClass(t, db, 1, 10*time.Minute)
	svc := NewReservationService(db)

	_, err := svc.Book(context.Background(), uuid.New(), event.ID, "general")
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), uuid.New(), event.ID, "general")
	require.ErrorIs(t, err, apperr.ErrSoldOut)
	assert.Equal(t, 0, remainingSupply(t, db, class.ID))
}

func TestBookUnknownClass(t *testing.T) {
	db := newTestDB(t)
	event, _ := seedClass(t, db, 5, 10*time.Minute)
	svc := NewReservationService(db)

	_, err := svc.Book(context.Background(), uuid.New(), event.ID, "vip")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

// Many buyers racing for a small class must never drive remaining below
// zero, and exactly supply-many of them may win.
func TestBookConcurrentNeverOversells(t *testing.T) {
	db := newTestDB(t)
	const supply = 3
	const buyers = 10
	event, class := seedClass(t, db, supply, 10*time.Minute)
	svc := NewReservationService(db)

	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Book(context.Background(), uuid.New(), event.ID, "general")
		}(i)
	}
	wg.Wait()

	held := 0
	for _, err := range errs {
		if err == nil {
			held++
		} else {
			require.ErrorIs(t, err, apperr.ErrSoldOut)
		}
	}
	assert.Equal(t, supply, held)
	assert.Equal(t, 0, remainingSupply(t, db, class.ID))

	var count int64
	require.NoError(t, db.Model(&models.Ticket{}).Where("class_id = ?", class.ID).Count(&count).Error)
	assert.EqualValues(t, supply, count)
}
