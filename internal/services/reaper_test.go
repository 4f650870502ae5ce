package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventtide/ticketcore/internal/models"
)

func TestSweepReclaimsExpiredHolds(t *testing.T) {
	db := newTestDB(t)
	event, class := seedClass(t, db, 5, time.Millisecond)
	reservations := NewReservationService(db)

	first, err := reservations.Book(context.Background(), uuid.New(), event.ID, "general")
	require.NoError(t, err)
	second, err := reservations.Book(context.Background(), uuid.New(), event.ID, "general")
	require.NoError(t, err)
	require.Equal(t, 3, remainingSupply(t, db, class.ID))

	time.Sleep(5 * time.Millisecond)

	reclaimed, err := NewReaperService(db).SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, reclaimed)
	assert.Equal(t, 5, remainingSupply(t, db, class.ID))

	for _, id := range []uuid.UUID{first.ID, second.ID} {
		assert.Equal(t, models.TicketExpired, reloadTicket(t, db, id).Status)
		assert.ElementsMatch(t, []string{AuditHold, AuditExpire}, auditActions(t, db, id))
	}
}

func TestSweepSkipsUnexpiredAndSettledTickets(t *testing.T) {
	db := newTestDB(t)
	event, class := seedClass(t, db, 5, 10*time.Minute)
	seedActiveTicket(t, db, class.ID, uuid.New())

	held, err := NewReservationService(db).Book(context.Background(), uuid.New(), event.ID, "general")
	require.NoError(t, err)

	reclaimed, err := NewReaperService(db).SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, reclaimed)
	assert.Equal(t, models.TicketHeld, reloadTicket(t, db, held.ID).Status)
	assert.Equal(t, 4, remainingSupply(t, db, class.ID))
}

func TestSweepIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	event, class := seedClass(t, db, 5, time.Millisecond)

	_, err := NewReservationService(db).Book(context.Background(), uuid.New(), event.ID, "general")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	reaper := NewReaperService(db)
	reclaimed, err := reaper.SweepExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, reclaimed)

	// A second sweep finds nothing and must not release supply twice.
	reclaimed, err = reaper.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, reclaimed)
	assert.Equal(t, 5, remainingSupply(t, db, class.ID))
}

func TestRunSweepsUntilCancelled(t *testing.T) {
	db := newTestDB(t)
	event, class := seedClass(t, db, 5, time.Millisecond)

	_, err := NewReservationService(db).Book(context.Background(), uuid.New(), event.ID, "general")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewReaperService(db).Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		var current models.TicketClass
		if err := db.First(&current, "id = ?", class.ID).Error; err != nil {
			return false
		}
		return current.Remaining == 5
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper loop did not stop after cancel")
	}
}

func TestReleaseNeverExceedsTotalSupply(t *testing.T) {
	db := newTestDB(t)
	_, class := seedClass(t, db, 2, 10*time.Minute)
	var ledger InventoryLedger

	require.NoError(t, ledger.Release(db, class.ID))
	require.NoError(t, ledger.Release(db, class.ID))
	assert.Equal(t, 2, remainingSupply(t, db, class.ID))
}
