package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BonusRuleType string

const (
	BonusRuleRegistration    BonusRuleType = "registration"
	BonusRuleFirstOrder      BonusRuleType = "first_order"
	BonusRuleOrderPercentage BonusRuleType = "order_percentage"
	BonusRuleBirthday        BonusRuleType = "birthday"
	BonusRuleReferral        BonusRuleType = "referral"
	BonusRuleCustom          BonusRuleType = "custom"
)

// BonusRule defines how bonus is earned and how long a grant lives.
type BonusRule struct {
	ID                      uuid.UUID
	Name                    string
	RuleType                BonusRuleType
	BonusAmount             decimal.Decimal
	BonusPercentage         *decimal.Decimal
	MaxBonusAmount          *decimal.Decimal
	MinOrderAmount          *decimal.Decimal
	ApplicableRestaurantIDs []uuid.UUID
	ValidityDays            int
	IsActive                bool
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// AppliesToRestaurant: an empty scope applies everywhere.
func (r *BonusRule) AppliesToRestaurant(restaurantID uuid.UUID) bool {
	if len(r.ApplicableRestaurantIDs) == 0 {
		return true
	}
	for _, id := range r.ApplicableRestaurantIDs {
		if id == restaurantID {
			return true
		}
	}
	return false
}

type BonusTransactionType string

const (
	BonusEarned     BonusTransactionType = "earned"
	BonusSpent      BonusTransactionType = "spent"
	BonusExpired    BonusTransactionType = "expired"
	BonusAdjustment BonusTransactionType = "adjustment"
)

// BonusTransaction is an append-only ledger row. The ledger is the
// source of truth for a user's balance:
//
//	balance = sum(earned) + sum(expired) + sum(adjustment) - sum(spent)
//
// Earned rows (grants) carry RemainingAmount, drawn down FIFO by
// soonest expiry when spending. Expiry appends a negative "expired"
// compensating row covering only the unspent portion, so a grant that
// was partly spent and then expired nets to zero.
type BonusTransaction struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	TransactionType BonusTransactionType
	Amount          decimal.Decimal
	RemainingAmount decimal.Decimal
	Description     string
	OrderID         *uuid.UUID
	BonusRuleID     *uuid.UUID
	ExpiresAt       *time.Time
	IsExpired       bool
	CreatedAt       time.Time
}
