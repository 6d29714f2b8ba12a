package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Restaurant struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description string
	Currency    string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RestaurantBranch carries the per-branch order and fee configuration
// the checkout engine resolves fees from.
type RestaurantBranch struct {
	ID                    uuid.UUID
	RestaurantID          uuid.UUID
	Name                  string
	Address               string
	City                  string
	MinOrderAmount        decimal.Decimal
	MaxOrderAmount        *decimal.Decimal
	DeliveryFee           decimal.Decimal
	FreeDeliveryThreshold *decimal.Decimal
	ServiceFee            decimal.Decimal
	PackagingFee          decimal.Decimal
	PreparationTimeMin    int
	PreparationTimeMax    int
	IsActive              bool
	IsAcceptingOrders     bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
