// Package apperr defines the application error taxonomy shared by the
// reservation, payment, resale and check-in services. Handlers map kinds
// to HTTP status codes; services never return raw storage errors.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindAuthorization
	KindSignature
	KindGateway
	KindInternal
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets sentinel errors match wrapped copies of themselves by code.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// KindOf extracts the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

var (
	ErrSoldOut          = New(KindConflict, "SOLD_OUT", "no remaining supply for this ticket class")
	ErrAlreadyListed    = New(KindConflict, "ALREADY_LISTED", "an open resale listing already exists for this ticket")
	ErrWrongState       = New(KindConflict, "WRONG_STATE", "the entity is not in a state that allows this operation")
	ErrListingStale     = New(KindConflict, "LISTING_STALE", "the listing or its ticket changed before payment settled")
	ErrHoldExpired      = New(KindConflict, "HOLD_EXPIRED", "the reservation hold has expired")
	ErrNotRedeemable    = New(KindConflict, "NOT_REDEEMABLE", "the ticket cannot be checked in from its current state")
	ErrInvalidSignature = New(KindSignature, "INVALID_SIGNATURE", "payment callback signature mismatch")
)

func NotFound(entity string) *Error {
	return New(KindNotFound, "NOT_FOUND", entity+" not found")
}

func Validation(message string) *Error {
	return New(KindValidation, "INVALID_INPUT", message)
}

func Forbidden(message string) *Error {
	return New(KindAuthorization, "FORBIDDEN", message)
}

func Gateway(message string, err error) *Error {
	return Wrap(KindGateway, "GATEWAY_ERROR", message, err)
}

// Internal marks an atomic unit that was rolled back; always safe to retry.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, "INTERNAL", message, err)
}
