package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventtide/ticketcore/internal/apperr"
	"github.com/eventtide/ticketcore/internal/models"
	"github.com/eventtide/ticketcore/internal/monitoring"
)

type ReservationService struct {
	db     *gorm.DB
	ledger InventoryLedger
}

func NewReservationService(db *gorm.DB) *ReservationService {
	return &ReservationService{db: db}
}

// Book reserves one ticket of the given class for the buyer. The supply
// decrement and the ticket creation commit together or not at all; on
// rollback the decrement never becomes visible, so no compensating
// release is needed.
func (s *ReservationService) Book(ctx context.Context, buyerID, eventID uuid.UUID, classType string) (*models.Ticket, error) {
	var ticket *models.Ticket

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var class models.TicketClass
		if err := tx.Where("event_id = ? AND type = ?", eventID, classType).First(&class).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("ticket class")
			}
			return apperr.Internal("failed to look up ticket class", err)
		}

		if err := s.ledger.TryReserve(tx, class.ID); err != nil {
			return err
		}

		expiresAt := time.Now().UTC().Add(class.HoldWindow)
		held := models.Ticket{
			ClassID:       class.ID,
			OwnerID:       buyerID,
			Status:        models.TicketHeld,
			HoldExpiresAt: &expiresAt,
			PaymentState:  models.PaymentPending,
		}
		if err := tx.Create(&held).Error; err != nil {
			return apperr.Internal("failed to create held ticket", err)
		}
		if err := appendAudit(tx, held.ID, buyerID, AuditHold); err != nil {
			return apperr.Internal("failed to record hold", err)
		}

		ticket = &held
		return nil
	})
	if err != nil {
		monitoring.TrackBooking(bookingOutcome(err))
		return nil, err
	}

	monitoring.TrackBooking("held")
	return ticket, nil
}

func bookingOutcome(err error) string {
	switch {
	case errors.Is(err, apperr.ErrSoldOut):
		return "sold_out"
	case apperr.KindOf(err) == apperr.KindNotFound:
		return "not_found"
	default:
		return "error"
	}
}
