package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PromoType string

const (
	PromoTypeFixedAmount  PromoType = "fixed_amount"
	PromoTypePercentage   PromoType = "percentage"
	PromoTypeFreeDelivery PromoType = "free_delivery"
	PromoTypeBuyXGetY     PromoType = "buy_x_get_y"
)

// PromoCode validity window is [ValidFrom, ValidUntil). UsageCount
// increments exactly once per successful redemption, inside the
// checkout transaction, never at validation time.
type PromoCode struct {
	ID                 uuid.UUID
	Name               string
	Code               string
	PromoType          PromoType
	DiscountAmount     *decimal.Decimal
	DiscountPercentage *decimal.Decimal

	UsageLimit        *int
	UsageLimitPerUser *int
	MinOrderAmount    *decimal.Decimal

	ValidFrom  time.Time
	ValidUntil time.Time

	ApplicableRestaurantIDs []uuid.UUID
	ApplicableCategoryIDs   []uuid.UUID
	ApplicableProductIDs    []uuid.UUID
	IsForNewUsersOnly       bool

	IsActive   bool
	UsageCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppliesToRestaurant: an empty scope applies everywhere.
func (p *PromoCode) AppliesToRestaurant(restaurantID uuid.UUID) bool {
	if len(p.ApplicableRestaurantIDs) == 0 {
		return true
	}
	for _, id := range p.ApplicableRestaurantIDs {
		if id == restaurantID {
			return true
		}
	}
	return false
}

// UserPromoCodeUsage has a unique (user, promo_code) constraint: at
// most one row per user per code.
type UserPromoCodeUsage struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	PromoCodeID uuid.UUID
	OrderID     *uuid.UUID
	UsedAt      time.Time
}
