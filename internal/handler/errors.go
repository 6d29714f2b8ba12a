package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bitewave/go-food-ordering-api/internal/service"
)

// respondError maps service sentinels to HTTP statuses. 4xx responses
// carry the service message; anything unrecognized stays a generic 500
// so internals never leak.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCartNotFound),
		errors.Is(err, service.ErrCartItemNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrBranchNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrOrderAccessDenied),
		errors.Is(err, service.ErrUserBlocked),
		errors.Is(err, service.ErrUserNotActive):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPromoConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidStatusTransition),
		errors.Is(err, service.ErrCancellationReasonRequired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidOptionSelection),
		errors.Is(err, service.ErrProductUnavailable),
		errors.Is(err, service.ErrBranchNotAcceptingOrders),
		errors.Is(err, service.ErrBelowMinOrderAmount),
		errors.Is(err, service.ErrAboveMaxOrderAmount),
		errors.Is(err, service.ErrAddressRequired),
		errors.Is(err, service.ErrInvalidPromoCode),
		errors.Is(err, service.ErrInsufficientBonus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
