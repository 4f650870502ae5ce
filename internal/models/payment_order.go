package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderFailed    OrderStatus = "failed"
	OrderRefunding OrderStatus = "refunding"
	OrderRefunded  OrderStatus = "refunded"
)

type OrderSubject string

const (
	SubjectTicket  OrderSubject = "ticket"
	SubjectListing OrderSubject = "listing"
)

// PaymentOrder is one attempted payment against a ticket or a resale
// listing. TicketID is always set; ListingID only for resale purchases.
type PaymentOrder struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key"`
	SubjectKind       OrderSubject    `gorm:"not null"`
	TicketID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Ticket            *Ticket         `gorm:"foreignKey:TicketID"`
	ListingID         *uuid.UUID      `gorm:"type:uuid;index"`
	Listing           *ResaleListing  `gorm:"foreignKey:ListingID"`
	PayerID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency          string          `gorm:"not null"`
	ExternalOrderID   string          `gorm:"not null;uniqueIndex"`
	ExternalPaymentID *string
	Status            OrderStatus `gorm:"not null;default:'pending'"`
	Applied           bool        `gorm:"not null;default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (order *PaymentOrder) BeforeCreate(tx *gorm.DB) (err error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return
}
