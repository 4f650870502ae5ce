package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventtide/ticketcore/internal/helpers"
	"github.com/eventtide/ticketcore/internal/services"
)

type AdminHandler struct {
	reaper *services.ReaperService
}

func NewAdminHandler(reaper *services.ReaperService) *AdminHandler {
	return &AdminHandler{reaper: reaper}
}

// ReleaseExpired triggers the expiry sweep on demand, in addition to the
// scheduled runs.
func (h *AdminHandler) ReleaseExpired(c *gin.Context) {
	count, err := h.reaper.SweepExpired(c.Request.Context())
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
