// Package handlers implements the HTTP endpoints of the mess backend.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/messmate/messmate/internal/menu"
	"github.com/messmate/messmate/internal/messpass"
	"github.com/messmate/messmate/internal/models"
	"github.com/messmate/messmate/internal/order"
	"github.com/messmate/messmate/internal/payment"
	"github.com/messmate/messmate/internal/users"
)

// Context keys set by the auth middleware.
const (
	ContextUserIDKey   = "userID"
	ContextUserTypeKey = "userType"
)

// getUserID returns the authenticated user's id from the gin context.
func getUserID(c *gin.Context) uint64 {
	value, ok := c.Get(ContextUserIDKey)
	if !ok {
		return 0
	}
	id, ok := value.(uint64)
	if !ok {
		return 0
	}
	return id
}

// statusForError maps service sentinels to HTTP status codes. Lookups map to
// 404, uniqueness conflicts to 409, business rule failures to 400 and anything
// unrecognized to 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, messpass.ErrPassNotFound),
		errors.Is(err, payment.ErrPaymentNotFound),
		errors.Is(err, users.ErrUserNotFound),
		errors.Is(err, menu.ErrMenuNotFound),
		errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, messpass.ErrActivePassExists),
		errors.Is(err, users.ErrEmailExists),
		errors.Is(err, users.ErrRollNumberExists):
		return http.StatusConflict
	case errors.Is(err, messpass.ErrInvalidAmount),
		errors.Is(err, payment.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidUserType),
		errors.Is(err, messpass.ErrInsufficientBalance),
		errors.Is(err, messpass.ErrPassInactive),
		errors.Is(err, users.ErrAccountInactive),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrItemUnavailable),
		errors.Is(err, order.ErrOrderNotPayable):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the standard error body for a service failure.
func respondError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
