package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/eventtide/ticketcore/internal/apperr"
	"github.com/eventtide/ticketcore/internal/authz"
	"github.com/eventtide/ticketcore/internal/gateway"
	"github.com/eventtide/ticketcore/internal/models"
	"github.com/eventtide/ticketcore/internal/monitoring"
)

type OrderService struct {
	db       *gorm.DB
	gw       gateway.Gateway
	currency string
}

func NewOrderService(db *gorm.DB, gw gateway.Gateway, currency string) *OrderService {
	return &OrderService{db: db, gw: gw, currency: currency}
}

// CreateTicketOrder opens a gateway order for a held ticket. The gateway
// round trip happens before any row is written, so a gateway failure
// leaves the hold untouched and the caller may retry until it expires.
func (s *OrderService) CreateTicketOrder(ctx context.Context, payerID, ticketID uuid.UUID) (*models.PaymentOrder, error) {
	var ticket models.Ticket
	if err := s.db.WithContext(ctx).Preload("Class").First(&ticket, "id = ?", ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("ticket")
		}
		return nil, apperr.Internal("failed to load ticket", err)
	}

	if err := authz.Allow(payerID, ticket.OwnerID, authz.ActionPay); err != nil {
		return nil, err
	}
	if ticket.Status != models.TicketHeld {
		return nil, apperr.ErrWrongState
	}
	if ticket.HoldExpiresAt == nil || time.Now().UTC().After(*ticket.HoldExpiresAt) {
		return nil, apperr.ErrHoldExpired
	}

	externalOrderID, err := s.createGatewayOrder(ctx, ticket.Class.UnitPrice, ticket.ID.String())
	if err != nil {
		return nil, err
	}

	order := models.PaymentOrder{
		SubjectKind:     models.SubjectTicket,
		TicketID:        ticket.ID,
		PayerID:         payerID,
		Amount:          ticket.Class.UnitPrice,
		Currency:        s.currency,
		ExternalOrderID: externalOrderID,
		Status:          models.OrderPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return apperr.Internal("failed to create payment order", err)
		}
		// Attach the order id to the reservation so webhook deliveries
		// can be matched back to it.
		return tx.Model(&models.Ticket{}).
			Where("id = ?", ticket.ID).
			Update("external_order_id", externalOrderID).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateListingOrder opens a gateway order for an open resale listing.
func (s *OrderService) CreateListingOrder(ctx context.Context, payerID, listingID uuid.UUID) (*models.PaymentOrder, error) {
	var listing models.ResaleListing
	if err := s.db.WithContext(ctx).First(&listing, "id = ?", listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("listing")
		}
		return nil, apperr.Internal("failed to load listing", err)
	}

	if listing.Status != models.ListingOpen {
		return nil, apperr.ErrWrongState
	}
	if listing.SellerID == payerID {
		return nil, apperr.Forbidden("seller cannot buy their own listing")
	}

	externalOrderID, err := s.createGatewayOrder(ctx, listing.AskPrice, listing.ID.String())
	if err != nil {
		return nil, err
	}

	order := models.PaymentOrder{
		SubjectKind:     models.SubjectListing,
		TicketID:        listing.TicketID,
		ListingID:       &listing.ID,
		PayerID:         payerID,
		Amount:          listing.AskPrice,
		Currency:        s.currency,
		ExternalOrderID: externalOrderID,
		Status:          models.OrderPending,
	}
	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, apperr.Internal("failed to create payment order", err)
	}
	return &order, nil
}

func (s *OrderService) createGatewayOrder(ctx context.Context, amount decimal.Decimal, reference string) (string, error) {
	started := time.Now()
	externalOrderID, err := s.gw.CreateOrder(ctx, amount, s.currency, reference)
	monitoring.ObserveGateway("create_order", time.Since(started))
	if err != nil {
		return "", apperr.Gateway("payment gateway order creation failed", err)
	}
	return externalOrderID, nil
}
