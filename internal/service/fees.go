package service

import (
	"github.com/shopspring/decimal"

	"github.com/bitewave/go-food-ordering-api/internal/model"
)

// FeeQuote is the branch/fee collaborator's answer for one checkout.
type FeeQuote struct {
	DeliveryFee  decimal.Decimal
	ServiceFee   decimal.Decimal
	PackagingFee decimal.Decimal
}

// ResolveFees computes the order fees from the branch configuration.
// Pickup orders never pay delivery; delivery is free at or above the
// branch's free-delivery threshold. Service and packaging fees are
// flat per branch.
func ResolveFees(branch *model.RestaurantBranch, orderType model.OrderType, subtotal decimal.Decimal) FeeQuote {
	quote := FeeQuote{
		DeliveryFee:  decimal.Zero,
		ServiceFee:   branch.ServiceFee,
		PackagingFee: branch.PackagingFee,
	}
	if orderType == model.OrderTypeDelivery {
		quote.DeliveryFee = branch.DeliveryFee
		if t := branch.FreeDeliveryThreshold; t != nil && subtotal.GreaterThanOrEqual(*t) {
			quote.DeliveryFee = decimal.Zero
		}
	}
	return quote
}
