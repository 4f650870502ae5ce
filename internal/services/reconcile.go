package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventtide/ticketcore/internal/apperr"
	"github.com/eventtide/ticketcore/internal/gateway"
	"github.com/eventtide/ticketcore/internal/models"
	"github.com/eventtide/ticketcore/internal/monitoring"
	"github.com/eventtide/ticketcore/internal/notify"
)

type VerifyResult struct {
	TicketID uuid.UUID
	QRToken  string
}

// ReconcileService matches gateway payment confirmations to pending
// orders and applies each one exactly once. Completing the order and
// applying its effect are two steps: the completion claim is the
// exactly-once gate, and the apply transaction is the atomic unit that
// moves ticket, listing and audit rows together. An order that settles
// but can no longer be applied (expired hold, stale listing) stays
// completed and is compensated with a refund.
type ReconcileService struct {
	db        *gorm.DB
	secret    string
	refunds   *RefundService
	publisher notify.Publisher
}

func NewReconcileService(db *gorm.DB, secret string, refunds *RefundService, publisher notify.Publisher) *ReconcileService {
	return &ReconcileService{db: db, secret: secret, refunds: refunds, publisher: publisher}
}

func (s *ReconcileService) Verify(ctx context.Context, externalOrderID, externalPaymentID, signature string) (*VerifyResult, error) {
	if !gateway.VerifySignature(s.secret, externalOrderID, externalPaymentID, signature) {
		if err := s.db.WithContext(ctx).Model(&models.PaymentOrder{}).
			Where("external_order_id = ? AND status = ?", externalOrderID, models.OrderPending).
			Update("status", models.OrderFailed).Error; err != nil {
			slog.Warn("failed to mark order failed after signature mismatch", "orderID", externalOrderID, "error", err)
		}
		monitoring.TrackVerify("invalid_signature")
		return nil, apperr.ErrInvalidSignature
	}

	order, err := s.claimOrder(ctx, externalOrderID, externalPaymentID)
	if err != nil {
		monitoring.TrackVerify("rejected")
		return nil, err
	}

	return s.settle(ctx, order)
}

// settle applies a claimed order, or replays the recorded outcome when it
// was already applied.
func (s *ReconcileService) settle(ctx context.Context, order *models.PaymentOrder) (*VerifyResult, error) {
	if order.Applied {
		// Duplicate delivery of an already settled payment: report the
		// recorded outcome without touching anything.
		result, err := s.recordedResult(ctx, order)
		if err != nil {
			return nil, err
		}
		monitoring.TrackVerify("replayed")
		return result, nil
	}

	result, applyErr := s.apply(ctx, order)
	if applyErr != nil {
		if errors.Is(applyErr, apperr.ErrWrongState) {
			// A concurrent duplicate delivery may have finished the apply
			// between our claim and our apply; if so this is a replay, not
			// a failure.
			var settled models.PaymentOrder
			if err := s.db.WithContext(ctx).First(&settled, "id = ?", order.ID).Error; err == nil && settled.Applied {
				replay, err := s.recordedResult(ctx, &settled)
				if err != nil {
					return nil, err
				}
				monitoring.TrackVerify("replayed")
				return replay, nil
			}
		}
		if apperr.KindOf(applyErr) == apperr.KindConflict {
			// The money settled but the subject is gone; give it back.
			if err := s.refunds.RefundOrder(ctx, order.ExternalOrderID); err != nil {
				slog.Error("failed to compensate unapplied order", "orderID", order.ExternalOrderID, "error", err)
			}
			monitoring.TrackVerify("compensated")
		} else {
			monitoring.TrackVerify("error")
		}
		return nil, applyErr
	}

	if order.SubjectKind == models.SubjectTicket {
		s.announceActivation(order.TicketID)
	}
	monitoring.TrackVerify("applied")
	return result, nil
}

// claimOrder flips the order from pending to completed. Exactly one
// delivery wins the flip; every later delivery observes a settled order.
func (s *ReconcileService) claimOrder(ctx context.Context, externalOrderID, externalPaymentID string) (*models.PaymentOrder, error) {
	db := s.db.WithContext(ctx)

	result := db.Model(&models.PaymentOrder{}).
		Where("external_order_id = ? AND status = ?", externalOrderID, models.OrderPending).
		Updates(map[string]interface{}{
			"status":              models.OrderCompleted,
			"external_payment_id": externalPaymentID,
		})
	if result.Error != nil {
		return nil, apperr.Internal("failed to complete payment order", result.Error)
	}

	var order models.PaymentOrder
	if err := db.Where("external_order_id = ?", externalOrderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("payment order")
		}
		return nil, apperr.Internal("failed to load payment order", err)
	}
	if order.Status == models.OrderFailed {
		return nil, apperr.ErrWrongState
	}
	return &order, nil
}

func (s *ReconcileService) apply(ctx context.Context, order *models.PaymentOrder) (*VerifyResult, error) {
	var result *VerifyResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		switch order.SubjectKind {
		case models.SubjectListing:
			result, err = s.applyResale(tx, order)
		default:
			result, err = s.applyDirect(tx, order)
		}
		if err != nil {
			return err
		}

		markApplied := tx.Model(&models.PaymentOrder{}).
			Where("id = ? AND applied = ?", order.ID, false).
			Update("applied", true)
		if markApplied.Error != nil {
			return apperr.Internal("failed to mark order applied", markApplied.Error)
		}
		if markApplied.RowsAffected == 0 {
			return apperr.Internal("order applied twice", nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyDirect activates a held ticket for its buyer. The state test and
// the transition are one conditional UPDATE; if the expiry reaper committed
// first, zero rows match and the payment is rejected instead.
func (s *ReconcileService) applyDirect(tx *gorm.DB, order *models.PaymentOrder) (*VerifyResult, error) {
	var ticket models.Ticket
	if err := tx.First(&ticket, "id = ?", order.TicketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("ticket")
		}
		return nil, apperr.Internal("failed to load ticket", err)
	}

	now := time.Now().UTC()
	token := uuid.New().String()
	result := tx.Model(&models.Ticket{}).
		Where("id = ? AND status = ? AND owner_id = ? AND hold_expires_at >= ?",
			order.TicketID, models.TicketHeld, order.PayerID, now).
		Updates(map[string]interface{}{
			"status":        models.TicketActive,
			"payment_state": models.PaymentCompleted,
			"qr_token":      token,
		})
	if result.Error != nil {
		return nil, apperr.Internal("failed to activate ticket", result.Error)
	}
	if result.RowsAffected == 0 {
		if ticket.Status == models.TicketExpired ||
			(ticket.HoldExpiresAt != nil && ticket.HoldExpiresAt.Before(now)) {
			return nil, apperr.ErrHoldExpired
		}
		return nil, apperr.ErrWrongState
	}

	if err := appendAudit(tx, ticket.ID, order.PayerID, AuditMint); err != nil {
		return nil, apperr.Internal("failed to record mint", err)
	}
	return &VerifyResult{TicketID: ticket.ID, QRToken: token}, nil
}

// applyResale transfers ownership to the buyer. Listing and ticket are
// both revalidated by the conditional UPDATEs inside this transaction; if
// either went stale since the order was created, everything rolls back
// and the order is left completed-but-unapplied for compensation.
func (s *ReconcileService) applyResale(tx *gorm.DB, order *models.PaymentOrder) (*VerifyResult, error) {
	if order.ListingID == nil {
		return nil, apperr.Internal("listing order without a listing reference", nil)
	}

	var listing models.ResaleListing
	if err := tx.First(&listing, "id = ?", *order.ListingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("listing")
		}
		return nil, apperr.Internal("failed to load listing", err)
	}

	closed := tx.Model(&models.ResaleListing{}).
		Where("id = ? AND status = ?", listing.ID, models.ListingOpen).
		Update("status", models.ListingSold)
	if closed.Error != nil {
		return nil, apperr.Internal("failed to close listing", closed.Error)
	}
	if closed.RowsAffected == 0 {
		return nil, apperr.ErrListingStale
	}

	// The new owner gets a fresh token; the seller's copy of the old one
	// must not open any gate.
	token := uuid.New().String()
	transferred := tx.Model(&models.Ticket{}).
		Where("id = ? AND status = ? AND owner_id = ?", listing.TicketID, models.TicketForSale, listing.SellerID).
		Updates(map[string]interface{}{
			"owner_id":      order.PayerID,
			"status":        models.TicketActive,
			"payment_state": models.PaymentCompleted,
			"qr_token":      token,
		})
	if transferred.Error != nil {
		return nil, apperr.Internal("failed to transfer ticket", transferred.Error)
	}
	if transferred.RowsAffected == 0 {
		return nil, apperr.ErrListingStale
	}

	if err := appendAudit(tx, listing.TicketID, order.PayerID, AuditTransfer); err != nil {
		return nil, apperr.Internal("failed to record transfer", err)
	}
	if err := appendAudit(tx, listing.TicketID, listing.SellerID, AuditResale); err != nil {
		return nil, apperr.Internal("failed to record resale", err)
	}
	return &VerifyResult{TicketID: listing.TicketID, QRToken: token}, nil
}

func (s *ReconcileService) recordedResult(ctx context.Context, order *models.PaymentOrder) (*VerifyResult, error) {
	var ticket models.Ticket
	if err := s.db.WithContext(ctx).First(&ticket, "id = ?", order.TicketID).Error; err != nil {
		return nil, apperr.Internal("failed to load ticket for replay", err)
	}
	result := &VerifyResult{TicketID: ticket.ID}
	if ticket.QRToken != nil {
		result.QRToken = *ticket.QRToken
	}
	return result, nil
}

// announceActivation emits the downstream "activated" hook. It runs after
// commit on its own context; a failing consumer never rolls back a sale.
func (s *ReconcileService) announceActivation(ticketID uuid.UUID) {
	var ticket models.Ticket
	if err := s.db.Preload("Class.Event").First(&ticket, "id = ?", ticketID).Error; err != nil {
		slog.Warn("failed to load ticket for activation event", "ticketID", ticketID, "error", err)
		return
	}

	event := notify.ActivatedEvent{
		TicketID:   ticket.ID,
		BuyerID:    ticket.OwnerID,
		EventID:    ticket.Class.EventID,
		EventTitle: ticket.Class.Event.Title,
		ClassType:  ticket.Class.Type,
	}
	go s.publisher.TicketActivated(context.Background(), event)
}
