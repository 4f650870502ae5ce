package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventtide/ticketcore/internal/models"
)

const (
	AuditHold     = "hold"
	AuditMint     = "mint"
	AuditTransfer = "transfer"
	AuditResale   = "resale"
	AuditExpire   = "expire"
	AuditRefund   = "refund"
	AuditUse      = "use"
	AuditScan     = "scan"
	AuditList     = "list"
	AuditUnlist   = "unlist"
)

// SystemActor marks audit entries produced by background jobs rather
// than a request on behalf of a user.
var SystemActor = uuid.Nil

// appendAudit writes one immutable audit entry inside the caller's
// transaction so the record commits or rolls back with the state change.
func appendAudit(tx *gorm.DB, ticketID, actorID uuid.UUID, action string) error {
	entry := models.AuditEntry{
		TicketID: ticketID,
		ActorID:  actorID,
		Action:   action,
	}
	return tx.Create(&entry).Error
}
