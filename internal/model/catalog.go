package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	ParentID     *uuid.UUID
	Name         string
	Slug         string
	Description  string
	DisplayOrder int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Product struct {
	ID               uuid.UUID
	RestaurantID     uuid.UUID
	CategoryID       *uuid.UUID
	Name             string
	Description      string
	Price            decimal.Decimal
	OldPrice         *decimal.Decimal
	IsAvailable      bool
	StockQuantity    *int
	IsUnlimitedStock bool
	IsPopular        bool
	IsNew            bool
	DisplayOrder     int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// InStock reports whether the product can currently be ordered.
// Unlimited stock always wins; otherwise the product must be available
// and either untracked or have units left.
func (p *Product) InStock() bool {
	if p.IsUnlimitedStock {
		return true
	}
	if !p.IsAvailable {
		return false
	}
	return p.StockQuantity == nil || *p.StockQuantity > 0
}

type OptionType string

const (
	OptionTypeSingleChoice   OptionType = "single_choice"
	OptionTypeMultipleChoice OptionType = "multiple_choice"
	OptionTypeBoolean        OptionType = "boolean"
)

// ProductOption is a configurable axis of a product (size, toppings).
// Products reference options through a mapping table; an OptionValue is
// only selectable for a product whose mapping includes its option.
type ProductOption struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	OptionType   OptionType
	IsRequired   bool
	MinSelection int
	MaxSelection int
	DisplayOrder int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OptionValue belongs to exactly one ProductOption and carries a signed
// price modifier. Modifiers sum linearly into the line's unit price.
type OptionValue struct {
	ID            uuid.UUID
	OptionID      uuid.UUID
	Value         string
	PriceModifier decimal.Decimal
	IsAvailable   bool
	IsDefault     bool
	DisplayOrder  int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProductOptionView pairs an option with its values for menu reads.
type ProductOptionView struct {
	Option ProductOption
	Values []OptionValue
}
