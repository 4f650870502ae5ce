package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventtide/ticketcore/internal/helpers"
	"github.com/eventtide/ticketcore/internal/models"
	"github.com/eventtide/ticketcore/internal/services"
)

type PaymentHandler struct {
	orders     *services.OrderService
	reconciler *services.ReconcileService
	refunds    *services.RefundService
}

func NewPaymentHandler(orders *services.OrderService, reconciler *services.ReconcileService, refunds *services.RefundService) *PaymentHandler {
	return &PaymentHandler{orders: orders, reconciler: reconciler, refunds: refunds}
}

type CreateOrderRequest struct {
	TicketID  *uuid.UUID `json:"ticket_id"`
	ListingID *uuid.UUID `json:"listing_id"`
}

// CreateOrder opens a gateway order for a held ticket or an open resale
// listing; exactly one of the two references must be set.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}
	if (req.TicketID == nil) == (req.ListingID == nil) {
		helpers.RespondWithError(c, http.StatusBadRequest, "Provide either a ticket_id or a listing_id.")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var (
		order *models.PaymentOrder
		err   error
	)
	if req.TicketID != nil {
		order, err = h.orders.CreateTicketOrder(c.Request.Context(), userID, *req.TicketID)
	} else {
		order, err = h.orders.CreateListingOrder(c.Request.Context(), userID, *req.ListingID)
	}
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order_id": order.ExternalOrderID,
		"amount":   order.Amount,
		"currency": order.Currency,
	})
}

type WebhookRequest struct {
	OrderID   string `json:"order_id" binding:"required"`
	PaymentID string `json:"payment_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// Webhook receives the gateway's payment confirmation. Unauthenticated;
// the HMAC signature is the only credential.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	result, err := h.reconciler.Verify(c.Request.Context(), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ticket_id": result.TicketID,
		"qr_token":  result.QRToken,
	})
}

func (h *PaymentHandler) ReturnTicket(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket ID.")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.refunds.Refund(c.Request.Context(), userID, ticketID); err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "returned"})
}
