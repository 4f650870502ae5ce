package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventtide/ticketcore/internal/apperr"
	"github.com/eventtide/ticketcore/internal/models"
)

// InventoryLedger owns the per-class supply counter. Both operations are
// single conditional UPDATE statements so the counter can never go below
// zero or above total_supply, no matter how many callers race.
type InventoryLedger struct{}

// TryReserve decrements remaining by one if any supply is left. The test
// and the decrement happen in the same statement; a read-then-write here
// would oversell under concurrency.
func (InventoryLedger) TryReserve(tx *gorm.DB, classID uuid.UUID) error {
	result := tx.Model(&models.TicketClass{}).
		Where("id = ? AND remaining > 0", classID).
		UpdateColumn("remaining", gorm.Expr("remaining - 1"))
	if result.Error != nil {
		return apperr.Internal("failed to reserve supply", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.TicketClass{}).Where("id = ?", classID).Count(&count).Error; err != nil {
			return apperr.Internal("failed to look up ticket class", err)
		}
		if count == 0 {
			return apperr.NotFound("ticket class")
		}
		return apperr.ErrSoldOut
	}
	return nil
}

// Release returns one unit of supply, capped at total_supply. Releasing a
// class that is already full is a no-op, not an error.
func (InventoryLedger) Release(tx *gorm.DB, classID uuid.UUID) error {
	result := tx.Model(&models.TicketClass{}).
		Where("id = ? AND remaining < total_supply", classID).
		UpdateColumn("remaining", gorm.Expr("remaining + 1"))
	if result.Error != nil {
		return apperr.Internal("failed to release supply", result.Error)
	}
	return nil
}
