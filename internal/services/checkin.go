package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventtide/ticketcore/internal/apperr"
	"github.com/eventtide/ticketcore/internal/models"
)

// CheckInPolicy is the explicit admission-window rule. Disabled by
// default: gates accept any active ticket regardless of event time.
type CheckInPolicy struct {
	Enforce    bool
	EarlyEntry time.Duration
	LateEntry  time.Duration
}

type CheckInResult struct {
	TicketID    uuid.UUID
	Status      models.TicketStatus
	AlreadyUsed bool
}

type CheckinService struct {
	db     *gorm.DB
	policy CheckInPolicy
}

func NewCheckinService(db *gorm.DB, policy CheckInPolicy) *CheckinService {
	return &CheckinService{db: db, policy: policy}
}

// CheckIn marks the ticket behind qrToken as used. Repeated scans of a
// used ticket succeed without side effects; anything not active or
// for_sale is rejected.
func (s *CheckinService) CheckIn(ctx context.Context, agentID uuid.UUID, qrToken string) (*CheckInResult, error) {
	var result *CheckInResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ticket models.Ticket
		if err := tx.Preload("Class.Event").Where("qr_token = ?", qrToken).First(&ticket).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("ticket")
			}
			return apperr.Internal("failed to load ticket", err)
		}

		if ticket.Status == models.TicketUsed {
			result = &CheckInResult{TicketID: ticket.ID, Status: models.TicketUsed, AlreadyUsed: true}
			return nil
		}
		if ticket.Status != models.TicketActive && ticket.Status != models.TicketForSale {
			return apperr.ErrNotRedeemable
		}
		if err := s.checkWindow(ticket.Class.Event); err != nil {
			return err
		}

		used := tx.Model(&models.Ticket{}).
			Where("id = ? AND status IN ?", ticket.ID, []models.TicketStatus{models.TicketActive, models.TicketForSale}).
			Update("status", models.TicketUsed)
		if used.Error != nil {
			return apperr.Internal("failed to mark ticket used", used.Error)
		}
		if used.RowsAffected == 0 {
			return apperr.ErrNotRedeemable
		}

		if err := appendAudit(tx, ticket.ID, ticket.OwnerID, AuditUse); err != nil {
			return apperr.Internal("failed to record use", err)
		}
		if err := appendAudit(tx, ticket.ID, agentID, AuditScan); err != nil {
			return apperr.Internal("failed to record scan", err)
		}

		result = &CheckInResult{TicketID: ticket.ID, Status: models.TicketUsed}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *CheckinService) checkWindow(event models.Event) error {
	if !s.policy.Enforce {
		return nil
	}
	now := time.Now().UTC()
	opens := event.StartTime.Add(-s.policy.EarlyEntry)
	closes := event.EndTime.Add(s.policy.LateEntry)
	if now.Before(opens) || now.After(closes) {
		return apperr.New(apperr.KindConflict, "OUTSIDE_ADMISSION_WINDOW", "check-in is outside the admission window")
	}
	return nil
}
