package service

import "errors"

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserBlocked   = errors.New("user is blocked")
	ErrUserNotActive = errors.New("user is not active")

	ErrProductNotFound        = errors.New("product not found")
	ErrProductUnavailable     = errors.New("product is not available")
	ErrInvalidOptionSelection = errors.New("option is not applicable to this product")
	ErrInvalidQuantity        = errors.New("quantity must be at least 1")

	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrEmptyCart        = errors.New("cart is empty")

	ErrBranchNotFound           = errors.New("branch not found")
	ErrBranchNotAcceptingOrders = errors.New("branch is not accepting orders")
	ErrBelowMinOrderAmount      = errors.New("order amount is below the branch minimum")
	ErrAboveMaxOrderAmount      = errors.New("order amount is above the branch maximum")
	ErrAddressRequired          = errors.New("delivery address is required")

	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAccessDenied = errors.New("access denied")

	// ErrInvalidPromoCode wraps the specific failing validation check;
	// a promo code is never silently dropped at checkout.
	ErrInvalidPromoCode = errors.New("invalid promo code")
	// ErrPromoConflict is returned when a usage-cap race is lost inside
	// the checkout transaction.
	ErrPromoConflict = errors.New("promo code redemption conflict")

	ErrInsufficientBonus = errors.New("insufficient bonus balance")

	ErrInvalidStatusTransition    = errors.New("invalid status transition")
	ErrCancellationReasonRequired = errors.New("cancellation reason is required")
)
