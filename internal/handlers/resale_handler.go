package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eventtide/ticketcore/internal/helpers"
	"github.com/eventtide/ticketcore/internal/services"
)

type ResaleHandler struct {
	resale *services.ResaleService
}

func NewResaleHandler(resale *services.ResaleService) *ResaleHandler {
	return &ResaleHandler{resale: resale}
}

type ListRequest struct {
	TicketID uuid.UUID       `json:"ticket_id" binding:"required"`
	AskPrice decimal.Decimal `json:"ask_price" binding:"required"`
}

func (h *ResaleHandler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	listing, err := h.resale.List(c.Request.Context(), userID, req.TicketID, req.AskPrice)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"listing_id": listing.ID,
		"ask_price":  listing.AskPrice,
	})
}

func (h *ResaleHandler) Cancel(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid listing ID.")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.resale.Cancel(c.Request.Context(), userID, listingID); err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}
