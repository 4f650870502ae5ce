package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventtide/ticketcore/internal/helpers"
	"github.com/eventtide/ticketcore/internal/services"
)

type BookingHandler struct {
	reservations *services.ReservationService
}

func NewBookingHandler(reservations *services.ReservationService) *BookingHandler {
	return &BookingHandler{reservations: reservations}
}

type BookRequest struct {
	EventID   uuid.UUID `json:"event_id" binding:"required"`
	ClassType string    `json:"class_type" binding:"required"`
}

func (h *BookingHandler) Book(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ticket, err := h.reservations.Book(c.Request.Context(), userID, req.EventID, req.ClassType)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"ticket_id":       ticket.ID,
		"hold_expires_at": ticket.HoldExpiresAt,
	})
}
