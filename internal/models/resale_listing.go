package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ListingStatus string

const (
	ListingOpen      ListingStatus = "open"
	ListingSold      ListingStatus = "sold"
	ListingCancelled ListingStatus = "cancelled"
)

type ResaleListing struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	TicketID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Ticket    Ticket          `gorm:"foreignKey:TicketID"`
	SellerID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Seller    User            `gorm:"foreignKey:SellerID"`
	AskPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status    ListingStatus   `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (listing *ResaleListing) BeforeCreate(tx *gorm.DB) (err error) {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	return
}
