package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bitewave/go-food-ordering-api/internal/dto"
	"github.com/bitewave/go-food-ordering-api/internal/middleware"
	"github.com/bitewave/go-food-ordering-api/internal/service"
)

type PromoHandler struct {
	promoService *service.PromoService
	cartService  *service.CartService
}

func NewPromoHandler(promoService *service.PromoService, cartService *service.CartService) *PromoHandler {
	return &PromoHandler{promoService: promoService, cartService: cartService}
}

func (h *PromoHandler) ListActive(c *gin.Context) {
	promos, err := h.promoService.Active(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]dto.PromoResponse, 0, len(promos))
	for i := range promos {
		items = append(items, dto.ToPromoResponse(&promos[i]))
	}
	c.JSON(http.StatusOK, gin.H{"promo_codes": items})
}

// Validate checks a code against the user's current cart without
// consuming it.
func (h *PromoHandler) Validate(c *gin.Context) {
	var req dto.ValidatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch ID"})
		return
	}

	userID := middleware.GetUserID(c)
	cart, err := h.cartService.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	scope, err := h.promoService.ScopeForCart(c.Request.Context(), branchID, cart)
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := h.promoService.Validate(c.Request.Context(), userID, req.Code, cart.Total(), scope)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PromoValidationResponse{
		Valid:   result.Valid,
		Reason:  result.Reason,
		Message: result.Message,
	})
}
