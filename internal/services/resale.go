package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/eventtide/ticketcore/internal/apperr"
	"github.com/eventtide/ticketcore/internal/authz"
	"github.com/eventtide/ticketcore/internal/models"
)

type ResaleService struct {
	db *gorm.DB
}

func NewResaleService(db *gorm.DB) *ResaleService {
	return &ResaleService{db: db}
}

// List puts an active ticket the seller owns up for resale. The flip to
// for_sale is conditional on the ticket still being active, so two
// concurrent List calls cannot both create an open listing.
func (s *ResaleService) List(ctx context.Context, sellerID, ticketID uuid.UUID, askPrice decimal.Decimal) (*models.ResaleListing, error) {
	if !askPrice.IsPositive() {
		return nil, apperr.Validation("ask price must be positive")
	}

	var listing *models.ResaleListing
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ticket models.Ticket
		if err := tx.First(&ticket, "id = ?", ticketID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("ticket")
			}
			return apperr.Internal("failed to load ticket", err)
		}

		if err := authz.Allow(sellerID, ticket.OwnerID, authz.ActionList); err != nil {
			return err
		}

		flipped := tx.Model(&models.Ticket{}).
			Where("id = ? AND status = ?", ticket.ID, models.TicketActive).
			Update("status", models.TicketForSale)
		if flipped.Error != nil {
			return apperr.Internal("failed to mark ticket for sale", flipped.Error)
		}
		if flipped.RowsAffected == 0 {
			var open int64
			if err := tx.Model(&models.ResaleListing{}).
				Where("ticket_id = ? AND status = ?", ticket.ID, models.ListingOpen).
				Count(&open).Error; err != nil {
				return apperr.Internal("failed to check for open listings", err)
			}
			if open > 0 {
				return apperr.ErrAlreadyListed
			}
			return apperr.ErrWrongState
		}

		created := models.ResaleListing{
			TicketID: ticket.ID,
			SellerID: sellerID,
			AskPrice: askPrice,
			Status:   models.ListingOpen,
		}
		if err := tx.Create(&created).Error; err != nil {
			return apperr.Internal("failed to create listing", err)
		}
		if err := appendAudit(tx, ticket.ID, sellerID, AuditList); err != nil {
			return apperr.Internal("failed to record listing", err)
		}

		listing = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// Cancel closes an open listing and returns the ticket to active. Only
// the seller may cancel.
func (s *ResaleService) Cancel(ctx context.Context, sellerID, listingID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing models.ResaleListing
		if err := tx.First(&listing, "id = ?", listingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("listing")
			}
			return apperr.Internal("failed to load listing", err)
		}

		if err := authz.Allow(sellerID, listing.SellerID, authz.ActionCancelListing); err != nil {
			return err
		}

		closed := tx.Model(&models.ResaleListing{}).
			Where("id = ? AND status = ?", listing.ID, models.ListingOpen).
			Update("status", models.ListingCancelled)
		if closed.Error != nil {
			return apperr.Internal("failed to cancel listing", closed.Error)
		}
		if closed.RowsAffected == 0 {
			return apperr.ErrWrongState
		}

		// Revert the ticket only if it is still parked in for_sale; a
		// ticket checked in at the gate while listed stays used.
		if err := tx.Model(&models.Ticket{}).
			Where("id = ? AND status = ?", listing.TicketID, models.TicketForSale).
			Update("status", models.TicketActive).Error; err != nil {
			return apperr.Internal("failed to restore ticket", err)
		}

		return appendAudit(tx, listing.TicketID, sellerID, AuditUnlist)
	})
}
