package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/eventtide/ticketcore/internal/helpers"
	"github.com/eventtide/ticketcore/internal/models"
)

// EventHandler carries the supporting event/class setup endpoints the
// core needs to be exercised end to end.
type EventHandler struct {
	defaultHoldWindow time.Duration
}

func NewEventHandler(defaultHoldWindow time.Duration) *EventHandler {
	return &EventHandler{defaultHoldWindow: defaultHoldWindow}
}

type EventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
	Venue       string    `json:"venue" binding:"required"`
	City        string    `json:"city"`
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}
	if !req.EndTime.After(req.StartTime) {
		helpers.RespondWithError(c, http.StatusBadRequest, "Event end time must be after its start time.")
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

	event := models.Event{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Venue:       req.Venue,
		City:        req.City,
		UserID:      userID,
	}

	if err := db.Create(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create event.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Event created successfully.",
		"event_id": event.ID,
	})
}

type TicketClassRequest struct {
	Type        string          `json:"type" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	TotalSupply int             `json:"total_supply" binding:"required,gt=0"`
	HoldWindow  string          `json:"hold_window"`
}

func (h *EventHandler) CreateTicketClass(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	var req TicketClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}
	if !req.UnitPrice.IsPositive() {
		helpers.RespondWithError(c, http.StatusBadRequest, "Unit price must be positive.")
		return
	}

	holdWindow := h.defaultHoldWindow
	if req.HoldWindow != "" {
		holdWindow, err = time.ParseDuration(req.HoldWindow)
		if err != nil || holdWindow <= 0 {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid hold window.")
			return
		}
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	db, ok := contextDB(c)
	if !ok {
		return
	}

	var event models.Event
	if err := db.Where("id = ? AND user_id = ?", eventID, userID).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusForbidden, "Event not found or you don't have permission to modify it.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error verifying event ownership.")
		return
	}

	class := models.TicketClass{
		Type:        req.Type,
		UnitPrice:   req.UnitPrice,
		TotalSupply: req.TotalSupply,
		Remaining:   req.TotalSupply,
		HoldWindow:  holdWindow,
		EventID:     event.ID,
	}

	if err := db.Create(&class).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create ticket class.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Ticket class created successfully.",
		"class_id": class.ID,
	})
}

func (h *EventHandler) ListEvents(c *gin.Context) {
	db, ok := contextDB(c)
	if !ok {
		return
	}

	var events []models.Event
	if err := db.Preload("Classes").Find(&events).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving events.")
		return
	}

	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	db, ok := contextDB(c)
	if !ok {
		return
	}

	var event models.Event
	if err := db.Preload("Classes").Where("id = ?", c.Param("id")).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	c.JSON(http.StatusOK, event)
}
