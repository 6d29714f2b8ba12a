package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bitewave/go-food-ordering-api/internal/dto"
	"github.com/bitewave/go-food-ordering-api/internal/middleware"
	"github.com/bitewave/go-food-ordering-api/internal/service"
)

type BonusHandler struct {
	bonusService *service.BonusService
}

func NewBonusHandler(bonusService *service.BonusService) *BonusHandler {
	return &BonusHandler{bonusService: bonusService}
}

func (h *BonusHandler) GetBalance(c *gin.Context) {
	balance, err := h.bonusService.Balance(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BonusBalanceResponse{Balance: balance})
}

func (h *BonusHandler) ListTransactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	txs, err := h.bonusService.Transactions(c.Request.Context(), middleware.GetUserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]dto.BonusTransactionResponse, 0, len(txs))
	for i := range txs {
		items = append(items, dto.ToBonusTransactionResponse(&txs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": items})
}

func (h *BonusHandler) ListRules(c *gin.Context) {
	rules, err := h.bonusService.Rules(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]dto.BonusRuleResponse, 0, len(rules))
	for i := range rules {
		items = append(items, dto.ToBonusRuleResponse(&rules[i]))
	}
	c.JSON(http.StatusOK, gin.H{"rules": items})
}

// ExpireDue triggers the overdue-grant sweep. Admin only; safe to call
// repeatedly.
func (h *BonusHandler) ExpireDue(c *gin.Context) {
	expired, err := h.bonusService.ExpireAllDue(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired_grants": expired})
}
