// Package authz centralizes the ownership checks that gate every
// state-changing operation on tickets and listings.
package authz

import (
	"github.com/google/uuid"

	"github.com/eventtide/ticketcore/internal/apperr"
)

type Action string

const (
	ActionPay           Action = "pay"
	ActionList          Action = "list"
	ActionCancelListing Action = "cancel_listing"
	ActionRefund        Action = "refund"
	ActionShowQR        Action = "show_qr"
)

// Allow is the single authorization predicate: the actor may perform
// action only on entities it owns. Buying a listing is the one exception
// and is checked the other way around by the order service.
func Allow(actor, owner uuid.UUID, action Action) error {
	if actor == owner {
		return nil
	}
	return apperr.Forbidden("caller does not own the " + subjectOf(action))
}

func subjectOf(action Action) string {
	switch action {
	case ActionCancelListing:
		return "listing"
	default:
		return "ticket"
	}
}
