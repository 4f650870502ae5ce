package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventtide/ticketcore/internal/apperr"
	"github.com/eventtide/ticketcore/internal/authz"
	"github.com/eventtide/ticketcore/internal/gateway"
	"github.com/eventtide/ticketcore/internal/models"
	"github.com/eventtide/ticketcore/internal/monitoring"
)

type RefundService struct {
	db *gorm.DB
	gw gateway.Gateway
}

func NewRefundService(db *gorm.DB, gw gateway.Gateway) *RefundService {
	return &RefundService{db: db, gw: gw}
}

// Refund reverses the completed payment for an active ticket the caller
// owns. The ticket and its order are claimed first, through conditional
// flips to returned and refunding, so concurrent refund attempts cannot
// both reach the gateway. A gateway failure reverts the claim and the
// caller may retry.
func (s *RefundService) Refund(ctx context.Context, ownerID, ticketID uuid.UUID) error {
	var ticket models.Ticket
	if err := s.db.WithContext(ctx).First(&ticket, "id = ?", ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("ticket")
		}
		return apperr.Internal("failed to load ticket", err)
	}

	if err := authz.Allow(ownerID, ticket.OwnerID, authz.ActionRefund); err != nil {
		return err
	}
	if ticket.Status != models.TicketActive {
		return apperr.ErrWrongState
	}

	var order models.PaymentOrder
	err := s.db.WithContext(ctx).
		Where("ticket_id = ? AND status = ? AND applied = ?", ticket.ID, models.OrderCompleted, true).
		Order("updated_at DESC").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("completed payment order")
		}
		return apperr.Internal("failed to load payment order", err)
	}
	if order.ExternalPaymentID == nil {
		return apperr.Internal("completed order has no payment reference", nil)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flipped := tx.Model(&models.Ticket{}).
			Where("id = ? AND status = ?", ticket.ID, models.TicketActive).
			Update("status", models.TicketReturned)
		if flipped.Error != nil {
			return apperr.Internal("failed to mark ticket returned", flipped.Error)
		}
		if flipped.RowsAffected == 0 {
			return apperr.ErrWrongState
		}

		claimed := tx.Model(&models.PaymentOrder{}).
			Where("id = ? AND status = ?", order.ID, models.OrderCompleted).
			Update("status", models.OrderRefunding)
		if claimed.Error != nil {
			return apperr.Internal("failed to claim order for refund", claimed.Error)
		}
		if claimed.RowsAffected == 0 {
			return apperr.ErrWrongState
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.refundAtGateway(ctx, *order.ExternalPaymentID, &order); err != nil {
		s.revertTicketClaim(ctx, ticket.ID, order.ID)
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PaymentOrder{}).
			Where("id = ? AND status = ?", order.ID, models.OrderRefunding).
			Update("status", models.OrderRefunded).Error; err != nil {
			return apperr.Internal("failed to mark order refunded", err)
		}
		return appendAudit(tx, ticket.ID, ownerID, AuditRefund)
	})
}

// RefundOrder compensates a completed-but-unapplied order: the buyer's
// money came in but the subject had already expired or gone stale, so the
// payment is reversed without touching any ticket state. The conditional
// flip to refunding is the claim; duplicate webhook deliveries racing
// here produce exactly one gateway refund.
func (s *RefundService) RefundOrder(ctx context.Context, externalOrderID string) error {
	claimed := s.db.WithContext(ctx).Model(&models.PaymentOrder{}).
		Where("external_order_id = ? AND status = ? AND applied = ?", externalOrderID, models.OrderCompleted, false).
		Update("status", models.OrderRefunding)
	if claimed.Error != nil {
		return apperr.Internal("failed to claim order for refund", claimed.Error)
	}
	if claimed.RowsAffected == 0 {
		// Nothing to compensate: unknown, applied, or another delivery
		// already claimed it.
		return nil
	}

	var order models.PaymentOrder
	if err := s.db.WithContext(ctx).First(&order, "external_order_id = ?", externalOrderID).Error; err != nil {
		return apperr.Internal("failed to load payment order", err)
	}
	if order.ExternalPaymentID == nil {
		s.revertOrderClaim(ctx, order.ID)
		return apperr.Internal("completed order has no payment reference", nil)
	}

	if err := s.refundAtGateway(ctx, *order.ExternalPaymentID, &order); err != nil {
		s.revertOrderClaim(ctx, order.ID)
		return err
	}

	return s.db.WithContext(ctx).Model(&models.PaymentOrder{}).
		Where("id = ? AND status = ?", order.ID, models.OrderRefunding).
		Update("status", models.OrderRefunded).Error
}

// revertTicketClaim undoes a failed owner refund so the ticket stays
// usable and the refund can be retried once the gateway recovers.
func (s *RefundService) revertTicketClaim(ctx context.Context, ticketID, orderID uuid.UUID) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Ticket{}).
			Where("id = ? AND status = ?", ticketID, models.TicketReturned).
			Update("status", models.TicketActive).Error; err != nil {
			return err
		}
		return tx.Model(&models.PaymentOrder{}).
			Where("id = ? AND status = ?", orderID, models.OrderRefunding).
			Update("status", models.OrderCompleted).Error
	})
	if err != nil {
		slog.Error("failed to revert refund claim", "ticketID", ticketID, "orderID", orderID, "error", err)
	}
}

func (s *RefundService) revertOrderClaim(ctx context.Context, orderID uuid.UUID) {
	err := s.db.WithContext(ctx).Model(&models.PaymentOrder{}).
		Where("id = ? AND status = ?", orderID, models.OrderRefunding).
		Update("status", models.OrderCompleted).Error
	if err != nil {
		slog.Error("failed to revert refund claim", "orderID", orderID, "error", err)
	}
}

func (s *RefundService) refundAtGateway(ctx context.Context, paymentID string, order *models.PaymentOrder) error {
	started := time.Now()
	_, err := s.gw.RefundPayment(ctx, paymentID, order.Amount)
	monitoring.ObserveGateway("refund", time.Since(started))
	if err != nil {
		return apperr.Gateway("payment gateway refund failed", err)
	}
	return nil
}
