package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TicketClass is one priced tier of an event with a finite supply.
// Remaining only ever changes through the inventory ledger's conditional
// decrement/increment, never through a plain read-modify-write.
type TicketClass struct {
	gorm.Model
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	Type        string          `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalSupply int             `gorm:"not null"`
	Remaining   int             `gorm:"not null"`
	HoldWindow  time.Duration   `gorm:"not null"`
	EventID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Event       Event
}

func (class *TicketClass) BeforeCreate(tx *gorm.DB) (err error) {
	if class.ID == uuid.Nil {
		class.ID = uuid.New()
	}
	return
}
