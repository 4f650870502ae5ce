package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketStatus string

const (
	TicketHeld     TicketStatus = "held"
	TicketActive   TicketStatus = "active"
	TicketForSale  TicketStatus = "for_sale"
	TicketUsed     TicketStatus = "used"
	TicketExpired  TicketStatus = "expired"
	TicketReturned TicketStatus = "returned"
)

// Terminal reports whether no further transition may leave this status.
func (s TicketStatus) Terminal() bool {
	return s == TicketUsed || s == TicketExpired || s == TicketReturned
}

type PaymentState string

const (
	PaymentPending   PaymentState = "pending"
	PaymentCompleted PaymentState = "completed"
	PaymentFailed    PaymentState = "failed"
)

type Ticket struct {
	gorm.Model
	ID              uuid.UUID    `gorm:"type:uuid;primary_key"`
	ClassID         uuid.UUID    `gorm:"type:uuid;not null;index"`
	Class           TicketClass  `gorm:"foreignKey:ClassID"`
	OwnerID         uuid.UUID    `gorm:"type:uuid;not null;index"`
	Owner           User         `gorm:"foreignKey:OwnerID"`
	Status          TicketStatus `gorm:"not null;index"`
	HoldExpiresAt   *time.Time   `gorm:"index"`
	PaymentState    PaymentState `gorm:"not null;default:'pending'"`
	ExternalOrderID *string
	QRToken         *string `gorm:"uniqueIndex"`
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	return
}
