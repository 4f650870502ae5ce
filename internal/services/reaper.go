package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventtide/ticketcore/internal/apperr"
	"github.com/eventtide/ticketcore/internal/models"
	"github.com/eventtide/ticketcore/internal/monitoring"
)

// errHoldSettled means the reconciler won the race and activated the
// ticket between candidate selection and the reap transaction.
var errHoldSettled = errors.New("hold already settled")

type ReaperService struct {
	db     *gorm.DB
	ledger InventoryLedger
}

func NewReaperService(db *gorm.DB) *ReaperService {
	return &ReaperService{db: db}
}

// SweepExpired reclaims every hold whose window elapsed. Each ticket is
// reaped in its own transaction; one bad ticket never stops the sweep.
func (s *ReaperService) SweepExpired(ctx context.Context) (int, error) {
	now := time.Now().UTC()

	var candidates []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("status = ? AND hold_expires_at < ?", models.TicketHeld, now).
		Pluck("id", &candidates).Error; err != nil {
		return 0, apperr.Internal("failed to find expired holds", err)
	}

	reclaimed := 0
	for _, ticketID := range candidates {
		if err := s.reapOne(ctx, ticketID, now); err != nil {
			if errors.Is(err, errHoldSettled) {
				continue
			}
			slog.Error("failed to reap expired hold", "ticketID", ticketID, "error", err)
			continue
		}
		reclaimed++
	}

	if reclaimed > 0 {
		monitoring.TrackSweep(reclaimed)
		slog.Info("expiry sweep reclaimed holds", "count", reclaimed)
	}
	return reclaimed, nil
}

func (s *ReaperService) reapOne(ctx context.Context, ticketID uuid.UUID, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ticket models.Ticket
		if err := tx.First(&ticket, "id = ?", ticketID).Error; err != nil {
			return err
		}

		// Recheck under the transaction: if the reconciler activated the
		// ticket first, zero rows match and we must not release supply.
		expired := tx.Model(&models.Ticket{}).
			Where("id = ? AND status = ? AND hold_expires_at < ?", ticketID, models.TicketHeld, now).
			Update("status", models.TicketExpired)
		if expired.Error != nil {
			return expired.Error
		}
		if expired.RowsAffected == 0 {
			return errHoldSettled
		}

		if err := s.ledger.Release(tx, ticket.ClassID); err != nil {
			return err
		}
		return appendAudit(tx, ticketID, SystemActor, AuditExpire)
	})
}

// Run sweeps on the given interval until ctx is cancelled. Used when the
// reaper is driven by a plain goroutine instead of the scheduler.
func (s *ReaperService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepExpired(ctx); err != nil {
				slog.Error("expiry sweep failed", "error", err)
			}
		}
	}
}
