package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bitewave/go-food-ordering-api/internal/model"
	"github.com/bitewave/go-food-ordering-api/internal/money"
)

// ResolveUnitPrice computes a cart line's unit price: the product's
// base price plus the sum of the selected option modifiers, truncated
// to currency precision and floored at zero. Every selected value must
// belong to an option mapped to the product; a stray value fails the
// whole resolution instead of being silently ignored. Pure function.
func ResolveUnitPrice(product *model.Product, selected []model.OptionValue, mappedOptionIDs []uuid.UUID) (decimal.Decimal, error) {
	mapped := make(map[uuid.UUID]struct{}, len(mappedOptionIDs))
	for _, id := range mappedOptionIDs {
		mapped[id] = struct{}{}
	}

	price := product.Price
	for _, value := range selected {
		if _, ok := mapped[value.OptionID]; !ok {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidOptionSelection, value.Value)
		}
		price = price.Add(value.PriceModifier)
	}
	return money.ClampNonNegative(money.Trunc(price)), nil
}

// optionsModifier sums the price modifiers of the selected values.
func optionsModifier(selected []model.OptionValue) decimal.Decimal {
	sum := decimal.Zero
	for _, value := range selected {
		sum = sum.Add(value.PriceModifier)
	}
	return sum
}
