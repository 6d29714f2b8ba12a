package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bitewave/go-food-ordering-api/internal/dto"
	"github.com/bitewave/go-food-ordering-api/internal/middleware"
	"github.com/bitewave/go-food-ordering-api/internal/model"
	"github.com/bitewave/go-food-ordering-api/internal/service"
)

type OrderHandler struct {
	checkoutService *service.CheckoutService
	orderService    *service.OrderService
}

func NewOrderHandler(checkoutService *service.CheckoutService, orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{checkoutService: checkoutService, orderService: orderService}
}

func (h *OrderHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch ID"})
		return
	}

	input := service.CheckoutInput{
		BranchID:      branchID,
		OrderType:     model.OrderType(req.OrderType),
		PaymentMethod: model.PaymentMethod(req.PaymentMethod),
		PromoCode:     req.PromoCode,
		Comment:       req.Comment,
	}
	if req.AddressID != nil {
		addressID, err := uuid.Parse(*req.AddressID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address ID"})
			return
		}
		input.AddressID = &addressID
	}
	if input.BonusRequested, err = parseAmount(req.BonusToUse); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bonus amount"})
		return
	}
	if input.TipsAmount, err = parseAmount(req.TipsAmount); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tips amount"})
		return
	}

	order, err := h.checkoutService.Checkout(c.Request.Context(), middleware.GetUserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToOrderResponse(order))
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderService.ListForUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, dto.ToOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, gin.H{"orders": items, "total": len(items)})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}
	order, err := h.orderService.GetForUser(c.Request.Context(), orderID, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

func (h *OrderHandler) GetStatusHistory(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}
	history, err := h.orderService.HistoryForUser(c.Request.Context(), orderID, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": dto.ToStatusHistoryResponse(history)})
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), orderID, middleware.GetUserID(c), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// UpdateStatus is the staff-facing transition endpoint.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actorID := middleware.GetUserID(c)
	order, err := h.orderService.Transition(c.Request.Context(), orderID, model.OrderStatus(req.Status), &actorID, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
