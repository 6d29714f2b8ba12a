package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bitewave/go-food-ordering-api/internal/dto"
	"github.com/bitewave/go-food-ordering-api/internal/model"
	"github.com/bitewave/go-food-ordering-api/internal/service"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
}

func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Webhook receives provider status callbacks. The provider retries on
// non-2xx, so transient failures return 500 and duplicates are
// harmless status rewrites.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var req dto.PaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	err = h.paymentService.ApplyProviderStatus(c.Request.Context(), orderID,
		model.PaymentStatus(req.Status), req.ExternalID, req.FailureReason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
