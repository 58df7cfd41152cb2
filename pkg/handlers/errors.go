package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrNotFound indicates the addressed record does not exist or is not visible
type ErrNotFound struct {
	Entity string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

// ErrForbidden indicates the caller may not perform the action
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("not allowed to %s", e.Action)
}

// ErrValidation indicates a request that parsed but makes no sense
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// httpStatus maps an error to the status code it is reported with
func httpStatus(err error) int {
	var notFound *ErrNotFound
	var forbidden *ErrForbidden
	var invalid *ErrValidation
	switch {
	case errors.As(err, &notFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Internal errors are logged
// and replaced by a generic message.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		h.logger(c).Error("request failed", "error", err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(status, gin.H{"error": "Not found"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
