package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditEntry is append-only. Nothing in the codebase updates or deletes
// rows of this table; ActorID is uuid.Nil for system-initiated actions.
type AuditEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TicketID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ActorID   uuid.UUID `gorm:"type:uuid"`
	Action    string    `gorm:"not null"`
	CreatedAt time.Time
}

func (entry *AuditEntry) BeforeCreate(tx *gorm.DB) (err error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return
}
