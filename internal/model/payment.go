package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment tracks the state of a provider payment for an order. The
// backend never calls providers itself; status changes arrive through
// the payment collaborator.
type Payment struct {
	ID                uuid.UUID
	OrderID           uuid.UUID
	PaymentMethod     PaymentMethod
	PaymentProvider   string
	Amount            decimal.Decimal
	Currency          string
	Status            PaymentStatus
	ExternalPaymentID string
	FailureReason     string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ProcessedAt       *time.Time
}
