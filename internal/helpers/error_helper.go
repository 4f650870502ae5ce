package helpers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventtide/ticketcore/internal/apperr"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: customMessage,
	})
}

// RespondWithAppError maps the application error taxonomy onto HTTP
// status codes. Unclassified errors become a 500 without leaking detail.
func RespondWithAppError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		RespondWithError(c, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindAuthorization:
		status = http.StatusForbidden
	case apperr.KindSignature:
		status = http.StatusUnauthorized
	case apperr.KindGateway:
		status = http.StatusBadGateway
	}

	c.JSON(status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}
