package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/eventtide/ticketcore/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the shared in-memory database alive and
	// serializes writers the way the production pool does under contention.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Role{}, &models.User{},
		&models.Event{}, &models.TicketClass{}, &models.Ticket{},
		&models.PaymentOrder{}, &models.ResaleListing{}, &models.AuditEntry{},
	))
	return db
}

func seedClass(t *testing.T, db *gorm.DB, supply int, holdWindow time.Duration) (models.Event, models.TicketClass) {
	t.Helper()

	event := models.Event{
		Title:     "Eventide Live",
		StartTime: time.Now().UTC().Add(24 * time.Hour),
		EndTime:   time.Now().UTC().Add(28 * time.Hour),
		Venue:     "Main Hall",
		UserID:    uuid.New(),
	}
	require.NoError(t, db.Create(&event).Error)

	class := models.TicketClass{
		Type:        "general",
		UnitPrice:   decimal.NewFromInt(50),
		TotalSupply: supply,
		Remaining:   supply,
		HoldWindow:  holdWindow,
		EventID:     event.ID,
	}
	require.NoError(t, db.Create(&class).Error)
	return event, class
}

func seedActiveTicket(t *testing.T, db *gorm.DB, classID, ownerID uuid.UUID) models.Ticket {
	t.Helper()

	token := uuid.New().String()
	ticket := models.Ticket{
		ClassID:      classID,
		OwnerID:      ownerID,
		Status:       models.TicketActive,
		PaymentState: models.PaymentCompleted,
		QRToken:      &token,
	}
	require.NoError(t, db.Create(&ticket).Error)
	return ticket
}

func reloadTicket(t *testing.T, db *gorm.DB, id uuid.UUID) models.Ticket {
	t.Helper()

	var ticket models.Ticket
	require.NoError(t, db.First(&ticket, "id = ?", id).Error)
	return ticket
}

func remainingSupply(t *testing.T, db *gorm.DB, classID uuid.UUID) int {
	t.Helper()

	var class models.TicketClass
	require.NoError(t, db.First(&class, "id = ?", classID).Error)
	return class.Remaining
}

func auditActions(t *testing.T, db *gorm.DB, ticketID uuid.UUID) []string {
	t.Helper()

	var entries []models.AuditEntry
	require.NoError(t, db.Where("ticket_id = ?", ticketID).Order("created_at ASC, id ASC").Find(&entries).Error)

	actions := make([]string, 0, len(entries))
	for _, entry := range entries {
		actions = append(actions, entry.Action)
	}
	return actions
}
