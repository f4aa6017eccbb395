package api

import (
	"errors"
	"fmt"
	"net/http"

	"serviceconnect/internal/logger"

	"github.com/gin-gonic/gin"
)

// Error kinds. Domain packages wrap these with %w and a human readable detail.
var (
	ErrValidation              = errors.New("validation failed")
	ErrUnauthorized            = errors.New("authentication required")
	ErrForbidden               = errors.New("not allowed")
	ErrNotFound                = errors.New("not found")
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrInsufficientFunds       = errors.New("insufficient wallet balance")
	ErrRequestAlreadyProcessed = errors.New("request already processed")
	ErrNotEligible             = errors.New("not eligible")
	ErrConflict                = errors.New("conflict")
)

// Errorf wraps kind with a formatted detail message.
func Errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

var statusByKind = []struct {
	kind   error
	status int
}{
	{ErrValidation, http.StatusBadRequest},
	{ErrInsufficientFunds, http.StatusBadRequest},
	{ErrNotEligible, http.StatusBadRequest},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrNotFound, http.StatusNotFound},
	{ErrInvalidTransition, http.StatusConflict},
	{ErrRequestAlreadyProcessed, http.StatusConflict},
	{ErrConflict, http.StatusConflict},
}

// StatusFor returns the HTTP status for err, 500 for anything unclassified.
func StatusFor(err error) int {
	for _, k := range statusByKind {
		if errors.Is(err, k.kind) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

// RespondError writes err as {"error": ...}. Unclassified errors are logged and masked.
func RespondError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.WithError(err).Error("unexpected error",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", c.GetString("request_id"),
		)
		c.JSON(status, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}
