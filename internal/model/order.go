package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
)

type PaymentMethod string

const (
	PaymentMethodCash           PaymentMethod = "cash"
	PaymentMethodCardOnline     PaymentMethod = "card_online"
	PaymentMethodCardOnDelivery PaymentMethod = "card_on_delivery"
	PaymentMethodBonus          PaymentMethod = "bonus"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

// Order aggregates immutable item snapshots and a full pricing
// breakdown. Once in a terminal state it is immutable except for
// refund/audit fields.
type Order struct {
	ID          uuid.UUID
	OrderNumber string
	UserID      uuid.UUID
	BranchID    uuid.UUID
	OrderType   OrderType
	Status      OrderStatus

	AddressID *uuid.UUID

	Subtotal            decimal.Decimal
	DeliveryFee         decimal.Decimal
	ServiceFee          decimal.Decimal
	PackagingFee        decimal.Decimal
	DiscountAmount      decimal.Decimal
	BonusUsed           decimal.Decimal
	TotalAmount         decimal.Decimal
	TipsAmount          decimal.Decimal
	PromoCode           string
	PromoDiscountAmount decimal.Decimal
	BonusEarned         decimal.Decimal

	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	PaymentID     string

	CustomerComment    string
	CancellationReason string

	Items []OrderItem

	CreatedAt    time.Time
	UpdatedAt    time.Time
	ConfirmedAt  *time.Time
	PreparedAt   *time.Time
	DispatchedAt *time.Time
	CompletedAt  *time.Time
	CancelledAt  *time.Time
}

// CalculateTotal applies the order pricing invariant. The caller clamps
// the result at zero; the component fields stay as computed so the
// audit trail shows the full discount even on a floored bill.
func (o *Order) CalculateTotal() decimal.Decimal {
	total := o.Subtotal.Add(o.DeliveryFee).Add(o.ServiceFee).Add(o.PackagingFee)
	total = total.Sub(o.DiscountAmount).Sub(o.BonusUsed).Sub(o.PromoDiscountAmount)
	return total.Add(o.TipsAmount)
}

// OrderItem is a frozen snapshot of a cart line taken at checkout.
// Product name, description, price and the selected options are copied
// so later catalog edits never alter historical orders.
type OrderItem struct {
	ID                 uuid.UUID
	OrderID            uuid.UUID
	ProductID          *uuid.UUID
	ProductName        string
	ProductDescription string
	ProductPrice       decimal.Decimal
	Quantity           int
	OptionsModifier    decimal.Decimal
	UnitPrice          decimal.Decimal
	Subtotal           decimal.Decimal
	SelectedOptions    []OrderItemOption
	CreatedAt          time.Time
}

// OrderItemOption is the frozen form of a selected option value,
// persisted as JSON on the order item.
type OrderItemOption struct {
	OptionName    string          `json:"option_name"`
	Value         string          `json:"value"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
}

// OrderStatusHistory rows are append-only and never mutated after
// insertion.
type OrderStatusHistory struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Status    OrderStatus
	Comment   string
	ChangedBy *uuid.UUID
	CreatedAt time.Time
}
