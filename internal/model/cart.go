package model

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is created lazily on first access and cleared on successful
// checkout. One cart per user.
type Cart struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ItemCount is the total quantity across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Total is the sum of all line totals.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.TotalPrice)
	}
	return total
}

// CartItem prices are derived, never trusted from client input:
// UnitPrice = product price + sum of selected option modifiers,
// TotalPrice = UnitPrice * Quantity. Both are recomputed on every
// mutation and before checkout.
type CartItem struct {
	ID                uuid.UUID
	CartID            uuid.UUID
	ProductID         uuid.UUID
	Quantity          int
	SelectedOptionIDs []uuid.UUID
	UnitPrice         decimal.Decimal
	TotalPrice        decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SelectionKey is the merge key for cart lines: product plus the sorted
// selected option-value set. Two adds with the same key merge into one
// line with summed quantity.
func (i *CartItem) SelectionKey() string {
	ids := make([]string, len(i.SelectedOptionIDs))
	for n, id := range i.SelectedOptionIDs {
		ids[n] = id.String()
	}
	sort.Strings(ids)
	return i.ProductID.String() + "|" + strings.Join(ids, ",")
}
