package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/eventtide/ticketcore/internal/helpers"
	"github.com/eventtide/ticketcore/internal/models"
	"github.com/eventtide/ticketcore/internal/services"
)

type CheckinHandler struct {
	checkins *services.CheckinService
}

func NewCheckinHandler(checkins *services.CheckinService) *CheckinHandler {
	return &CheckinHandler{checkins: checkins}
}

type CheckInRequest struct {
	QRToken string `json:"qr_token" binding:"required"`
}

func (h *CheckinHandler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	agentID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := h.checkins.CheckIn(c.Request.Context(), agentID, req.QRToken)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ticket_id":    result.TicketID,
		"status":       result.Status,
		"already_used": result.AlreadyUsed,
	})
}

// TicketQR renders the ticket's entry token as a QR code PNG for its owner.
func (h *CheckinHandler) TicketQR(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket ID.")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	db, ok := contextDB(c)
	if !ok {
		return
	}

	var ticket models.Ticket
	if err := db.First(&ticket, "id = ?", ticketID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
		return
	}

	if ticket.OwnerID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to view this ticket's QR code.")
		return
	}
	if ticket.QRToken == nil || (ticket.Status != models.TicketActive && ticket.Status != models.TicketForSale) {
		helpers.RespondWithError(c, http.StatusConflict, "Ticket has no redeemable QR code.")
		return
	}

	qrImage, err := qrcode.Encode(*ticket.QRToken, qrcode.Medium, 256)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate QR code.")
		return
	}

	c.Data(http.StatusOK, "image/png", qrImage)
}
