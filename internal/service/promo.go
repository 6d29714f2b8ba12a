package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bitewave/go-food-ordering-api/internal/model"
	"github.com/bitewave/go-food-ordering-api/internal/money"
	"github.com/bitewave/go-food-ordering-api/internal/repository"
)

// Stable machine-readable reasons for a failed promo validation.
const (
	PromoReasonNotFound          = "not_found"
	PromoReasonInactive          = "inactive"
	PromoReasonNotStarted        = "not_started"
	PromoReasonExpired           = "expired"
	PromoReasonUsageLimitReached = "usage_limit_reached"
	PromoReasonUserLimitReached  = "user_limit_reached"
	PromoReasonMinOrderAmount    = "min_order_amount"
	PromoReasonNotApplicable     = "not_applicable"
	PromoReasonNewUsersOnly      = "new_users_only"
)

// PromoValidation is the outcome of running a code through every
// eligibility check. Reason carries the first failing check only.
type PromoValidation struct {
	Valid          bool
	Reason         string
	Message        string
	DiscountAmount decimal.Decimal
}

// PromoScope describes what the promo would apply to: the restaurant
// being ordered from and the products/categories in the cart.
type PromoScope struct {
	RestaurantID uuid.UUID
	ProductIDs   []uuid.UUID
	CategoryIDs  []uuid.UUID
}

type PromoService struct {
	promoRepo      repository.PromoRepository
	orderRepo      repository.OrderRepository
	restaurantRepo repository.RestaurantRepository
	productRepo    repository.ProductRepository
}

func NewPromoService(promoRepo repository.PromoRepository, orderRepo repository.OrderRepository, restaurantRepo repository.RestaurantRepository, productRepo repository.ProductRepository) *PromoService {
	return &PromoService{
		promoRepo:      promoRepo,
		orderRepo:      orderRepo,
		restaurantRepo: restaurantRepo,
		productRepo:    productRepo,
	}
}

// ScopeForCart derives the applicability scope a promo would be
// matched against if the cart were checked out at the given branch.
func (s *PromoService) ScopeForCart(ctx context.Context, branchID uuid.UUID, cart *model.Cart) (PromoScope, error) {
	branch, err := s.restaurantRepo.GetBranchByID(ctx, branchID)
	if err != nil {
		return PromoScope{}, fmt.Errorf("promo scope: %w", err)
	}
	if branch == nil {
		return PromoScope{}, ErrBranchNotFound
	}

	scope := PromoScope{RestaurantID: branch.RestaurantID}
	for _, item := range cart.Items {
		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			return PromoScope{}, fmt.Errorf("promo scope: %w", err)
		}
		if product == nil {
			continue
		}
		scope.ProductIDs = append(scope.ProductIDs, product.ID)
		if product.CategoryID != nil {
			scope.CategoryIDs = append(scope.CategoryIDs, *product.CategoryID)
		}
	}
	return scope, nil
}

func (s *PromoService) Active(ctx context.Context) ([]model.PromoCode, error) {
	promos, err := s.promoRepo.ListActive(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("list active promos: %w", err)
	}
	return promos, nil
}

// Validate runs the full eligibility chain for a user and reports the
// outcome without consuming the code. The checkout transaction reruns
// the same chain against a locked row before redeeming.
func (s *PromoService) Validate(ctx context.Context, userID uuid.UUID, code string, orderAmount decimal.Decimal, scope PromoScope) (*PromoValidation, error) {
	promo, err := s.promoRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("validate promo: %w", err)
	}
	if promo == nil {
		return failedValidation(PromoReasonNotFound, "promo code not found"), nil
	}

	used, err := s.promoRepo.CountUserUsage(ctx, userID, promo.ID)
	if err != nil {
		return nil, fmt.Errorf("validate promo: %w", err)
	}
	completed, err := s.orderRepo.CountCompletedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("validate promo: %w", err)
	}
	return EvaluatePromo(promo, used, completed, orderAmount, scope, time.Now()), nil
}

// EvaluatePromo runs the eligibility checks in a fixed order and stops
// at the first failure. Pure function so the read-only validate
// endpoint and the checkout transaction share one rule set.
func EvaluatePromo(promo *model.PromoCode, userUsageCount, userCompletedOrders int, orderAmount decimal.Decimal, scope PromoScope, now time.Time) *PromoValidation {
	if promo == nil {
		return failedValidation(PromoReasonNotFound, "promo code not found")
	}
	if !promo.IsActive {
		return failedValidation(PromoReasonInactive, "promo code is not active")
	}
	if now.Before(promo.ValidFrom) {
		return failedValidation(PromoReasonNotStarted, "promo code is not yet valid")
	}
	if !now.Before(promo.ValidUntil) {
		return failedValidation(PromoReasonExpired, "promo code has expired")
	}
	if promo.UsageLimit != nil && promo.UsageCount >= *promo.UsageLimit {
		return failedValidation(PromoReasonUsageLimitReached, "promo code usage limit reached")
	}
	if promo.UsageLimitPerUser != nil && userUsageCount >= *promo.UsageLimitPerUser {
		return failedValidation(PromoReasonUserLimitReached, "you have already used this promo code")
	}
	if promo.MinOrderAmount != nil && orderAmount.LessThan(*promo.MinOrderAmount) {
		return failedValidation(PromoReasonMinOrderAmount,
			fmt.Sprintf("minimum order amount is %s", promo.MinOrderAmount.StringFixed(money.Scale)))
	}
	if !promoScopeMatches(promo, scope) {
		return failedValidation(PromoReasonNotApplicable, "promo code does not apply to this order")
	}
	if promo.IsForNewUsersOnly && userCompletedOrders > 0 {
		return failedValidation(PromoReasonNewUsersOnly, "promo code is for new customers only")
	}
	return &PromoValidation{Valid: true}
}

// promoScopeMatches checks every configured scope dimension; an empty
// dimension applies to everything.
func promoScopeMatches(promo *model.PromoCode, scope PromoScope) bool {
	if !promo.AppliesToRestaurant(scope.RestaurantID) {
		return false
	}
	if len(promo.ApplicableProductIDs) > 0 && !intersects(promo.ApplicableProductIDs, scope.ProductIDs) {
		return false
	}
	if len(promo.ApplicableCategoryIDs) > 0 && !intersects(promo.ApplicableCategoryIDs, scope.CategoryIDs) {
		return false
	}
	return true
}

func intersects(a, b []uuid.UUID) bool {
	set := make(map[uuid.UUID]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

// PromoDiscount computes the discount a valid promo grants. Fixed
// amounts are capped at the subtotal, percentages are truncated to
// currency precision, free delivery offsets the delivery fee, and
// buy-x-get-y makes one unit of the cheapest applicable line free.
func PromoDiscount(promo *model.PromoCode, subtotal, deliveryFee decimal.Decimal, items []model.OrderItem) decimal.Decimal {
	switch promo.PromoType {
	case model.PromoTypeFixedAmount:
		if promo.DiscountAmount == nil {
			return decimal.Zero
		}
		return money.Min(money.Trunc(*promo.DiscountAmount), subtotal)
	case model.PromoTypePercentage:
		if promo.DiscountPercentage == nil {
			return decimal.Zero
		}
		return money.Percent(subtotal, *promo.DiscountPercentage)
	case model.PromoTypeFreeDelivery:
		return deliveryFee
	case model.PromoTypeBuyXGetY:
		return cheapestApplicableUnit(promo, items)
	default:
		return decimal.Zero
	}
}

func cheapestApplicableUnit(promo *model.PromoCode, items []model.OrderItem) decimal.Decimal {
	applicable := make(map[uuid.UUID]struct{}, len(promo.ApplicableProductIDs))
	for _, id := range promo.ApplicableProductIDs {
		applicable[id] = struct{}{}
	}

	cheapest := decimal.Zero
	for _, item := range items {
		if len(applicable) > 0 {
			if item.ProductID == nil {
				continue
			}
			if _, ok := applicable[*item.ProductID]; !ok {
				continue
			}
		}
		if cheapest.IsZero() || item.UnitPrice.LessThan(cheapest) {
			cheapest = item.UnitPrice
		}
	}
	return money.Trunc(cheapest)
}

func failedValidation(reason, message string) *PromoValidation {
	return &PromoValidation{Valid: false, Reason: reason, Message: message, DiscountAmount: decimal.Zero}
}
