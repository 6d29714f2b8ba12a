package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bitewave/go-food-ordering-api/internal/model"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// --- auth ---

type TelegramAuthRequest struct {
	TelegramID   int64  `json:"telegram_id" binding:"required"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LanguageCode string `json:"language_code"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID                  string          `json:"id"`
	TelegramID          int64           `json:"telegram_id"`
	Username            string          `json:"username"`
	FullName            string          `json:"full_name"`
	Phone               string          `json:"phone,omitempty"`
	TotalOrders         int             `json:"total_orders"`
	TotalSpent          decimal.Decimal `json:"total_spent"`
	BonusBalance        decimal.Decimal `json:"bonus_balance"`
	BonusPercentAllowed int             `json:"bonus_percent_allowed"`
	ReferralCode        string          `json:"referral_code"`
}

func ToUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:                  u.ID.String(),
		TelegramID:          u.TelegramID,
		Username:            u.Username,
		FullName:            u.FullName(),
		Phone:               u.Phone,
		TotalOrders:         u.TotalOrders,
		TotalSpent:          u.TotalSpent,
		BonusBalance:        u.BonusBalance,
		BonusPercentAllowed: u.BonusPercentAllowed,
		ReferralCode:        u.ReferralCode,
	}
}

// --- catalog ---

type RestaurantResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Currency    string `json:"currency"`
}

func ToRestaurantResponse(r *model.Restaurant) RestaurantResponse {
	return RestaurantResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Currency:    r.Currency,
	}
}

type BranchResponse struct {
	ID                    string           `json:"id"`
	Name                  string           `json:"name"`
	Address               string           `json:"address"`
	IsActive              bool             `json:"is_active"`
	IsAcceptingOrders     bool             `json:"is_accepting_orders"`
	MinOrderAmount        decimal.Decimal  `json:"min_order_amount"`
	MaxOrderAmount        *decimal.Decimal `json:"max_order_amount,omitempty"`
	DeliveryFee           decimal.Decimal  `json:"delivery_fee"`
	FreeDeliveryThreshold *decimal.Decimal `json:"free_delivery_threshold,omitempty"`
	ServiceFee            decimal.Decimal  `json:"service_fee"`
	PackagingFee          decimal.Decimal  `json:"packaging_fee"`
	PreparationTimeMin    int              `json:"preparation_time_min"`
	PreparationTimeMax    int              `json:"preparation_time_max"`
}

func ToBranchResponse(b *model.RestaurantBranch) BranchResponse {
	return BranchResponse{
		ID:                    b.ID.String(),
		Name:                  b.Name,
		Address:               b.Address,
		IsActive:              b.IsActive,
		IsAcceptingOrders:     b.IsAcceptingOrders,
		MinOrderAmount:        b.MinOrderAmount,
		MaxOrderAmount:        b.MaxOrderAmount,
		DeliveryFee:           b.DeliveryFee,
		FreeDeliveryThreshold: b.FreeDeliveryThreshold,
		ServiceFee:            b.ServiceFee,
		PackagingFee:          b.PackagingFee,
		PreparationTimeMin:    b.PreparationTimeMin,
		PreparationTimeMax:    b.PreparationTimeMax,
	}
}

type ProductResponse struct {
	ID            string           `json:"id"`
	CategoryID    string           `json:"category_id,omitempty"`
	Name          string           `json:"name"`
	Description   string           `json:"description,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	OldPrice      *decimal.Decimal `json:"old_price,omitempty"`
	IsAvailable   bool             `json:"is_available"`
	InStock       bool             `json:"in_stock"`
	StockQuantity *int             `json:"stock_quantity,omitempty"`
	IsPopular     bool             `json:"is_popular"`
	IsNew         bool             `json:"is_new"`
}

func ToProductResponse(p *model.Product) ProductResponse {
	resp := ProductResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		OldPrice:      p.OldPrice,
		IsAvailable:   p.IsAvailable,
		InStock:       p.InStock(),
		StockQuantity: p.StockQuantity,
		IsPopular:     p.IsPopular,
		IsNew:         p.IsNew,
	}
	if p.CategoryID != nil {
		resp.CategoryID = p.CategoryID.String()
	}
	return resp
}

type CategoryResponse struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Slug     string            `json:"slug"`
	Products []ProductResponse `json:"products"`
}

type MenuResponse struct {
	RestaurantID string             `json:"restaurant_id"`
	Categories   []CategoryResponse `json:"categories"`
}

type OptionValueResponse struct {
	ID            string          `json:"id"`
	Value         string          `json:"value"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
	IsAvailable   bool            `json:"is_available"`
	IsDefault     bool            `json:"is_default"`
}

type ProductOptionResponse struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	OptionType   string                `json:"option_type"`
	IsRequired   bool                  `json:"is_required"`
	MinSelection int                   `json:"min_selection"`
	MaxSelection int                   `json:"max_selection"`
	Values       []OptionValueResponse `json:"values"`
}

func ToProductOptionResponse(view model.ProductOptionView) ProductOptionResponse {
	resp := ProductOptionResponse{
		ID:           view.Option.ID.String(),
		Name:         view.Option.Name,
		OptionType:   string(view.Option.OptionType),
		IsRequired:   view.Option.IsRequired,
		MinSelection: view.Option.MinSelection,
		MaxSelection: view.Option.MaxSelection,
	}
	for _, v := range view.Values {
		resp.Values = append(resp.Values, OptionValueResponse{
			ID:            v.ID.String(),
			Value:         v.Value,
			PriceModifier: v.PriceModifier,
			IsAvailable:   v.IsAvailable,
			IsDefault:     v.IsDefault,
		})
	}
	return resp
}

// --- cart ---

type AddCartItemRequest struct {
	ProductID      string   `json:"product_id" binding:"required,uuid"`
	Quantity       int      `json:"quantity" binding:"required,min=1"`
	OptionValueIDs []string `json:"option_value_ids" binding:"omitempty,dive,uuid"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

type CartItemResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	Quantity          int             `json:"quantity"`
	SelectedOptionIDs []string        `json:"selected_option_ids"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	TotalPrice        decimal.Decimal `json:"total_price"`
}

type CartResponse struct {
	ID        string             `json:"id"`
	Items     []CartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Total     decimal.Decimal    `json:"total"`
}

func ToCartResponse(cart *model.Cart) CartResponse {
	resp := CartResponse{
		ID:        cart.ID.String(),
		Items:     make([]CartItemResponse, 0, len(cart.Items)),
		ItemCount: cart.ItemCount(),
		Total:     cart.Total(),
	}
	for _, item := range cart.Items {
		optionIDs := make([]string, 0, len(item.SelectedOptionIDs))
		for _, id := range item.SelectedOptionIDs {
			optionIDs = append(optionIDs, id.String())
		}
		resp.Items = append(resp.Items, CartItemResponse{
			ID:                item.ID.String(),
			ProductID:         item.ProductID.String(),
			Quantity:          item.Quantity,
			SelectedOptionIDs: optionIDs,
			UnitPrice:         item.UnitPrice,
			TotalPrice:        item.TotalPrice,
		})
	}
	return resp
}

// --- orders ---

type CheckoutRequest struct {
	BranchID      string  `json:"branch_id" binding:"required,uuid"`
	OrderType     string  `json:"order_type" binding:"required,oneof=delivery pickup"`
	PaymentMethod string  `json:"payment_method" binding:"required,oneof=cash card_online card_on_delivery bonus"`
	AddressID     *string `json:"address_id" binding:"omitempty,uuid"`
	PromoCode     string  `json:"promo_code"`
	BonusToUse    string  `json:"bonus_to_use"`
	TipsAmount    string  `json:"tips_amount"`
	Comment       string  `json:"comment"`
}

type OrderItemOptionResponse struct {
	OptionName    string          `json:"option_name"`
	Value         string          `json:"value"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
}

type OrderItemResponse struct {
	ID              string                    `json:"id"`
	ProductID       string                    `json:"product_id,omitempty"`
	ProductName     string                    `json:"product_name"`
	ProductPrice    decimal.Decimal           `json:"product_price"`
	Quantity        int                       `json:"quantity"`
	OptionsModifier decimal.Decimal           `json:"options_modifier"`
	UnitPrice       decimal.Decimal           `json:"unit_price"`
	Subtotal        decimal.Decimal           `json:"subtotal"`
	SelectedOptions []OrderItemOptionResponse `json:"selected_options"`
}

type OrderResponse struct {
	ID                  string           `json:"id"`
	OrderNumber         string           `json:"order_number"`
	BranchID            string           `json:"branch_id"`
	OrderType           string           `json:"order_type"`
	Status              string           `json:"status"`
	Subtotal            decimal.Decimal  `json:"subtotal"`
	DeliveryFee         decimal.Decimal  `json:"delivery_fee"`
	ServiceFee          decimal.Decimal  `json:"service_fee"`
	PackagingFee        decimal.Decimal  `json:"packaging_fee"`
	DiscountAmount      decimal.Decimal  `json:"discount_amount"`
	BonusUsed           decimal.Decimal  `json:"bonus_used"`
	PromoCode           string           `json:"promo_code,omitempty"`
	PromoDiscountAmount decimal.Decimal  `json:"promo_discount_amount"`
	TipsAmount          decimal.Decimal  `json:"tips_amount"`
	TotalAmount         decimal.Decimal  `json:"total_amount"`
	BonusEarned         decimal.Decimal  `json:"bonus_earned"`
	PaymentMethod       string           `json:"payment_method"`
	PaymentStatus       string           `json:"payment_status"`
	CustomerComment     string           `json:"customer_comment,omitempty"`
	CancellationReason  string           `json:"cancellation_reason,omitempty"`
	Items               []OrderItemResponse `json:"items"`
	CreatedAt           time.Time        `json:"created_at"`
}

func ToOrderResponse(order *model.Order) OrderResponse {
	resp := OrderResponse{
		ID:                  order.ID.String(),
		OrderNumber:         order.OrderNumber,
		BranchID:            order.BranchID.String(),
		OrderType:           string(order.OrderType),
		Status:              string(order.Status),
		Subtotal:            order.Subtotal,
		DeliveryFee:         order.DeliveryFee,
		ServiceFee:          order.ServiceFee,
		PackagingFee:        order.PackagingFee,
		DiscountAmount:      order.DiscountAmount,
		BonusUsed:           order.BonusUsed,
		PromoCode:           order.PromoCode,
		PromoDiscountAmount: order.PromoDiscountAmount,
		TipsAmount:          order.TipsAmount,
		TotalAmount:         order.TotalAmount,
		BonusEarned:         order.BonusEarned,
		PaymentMethod:       string(order.PaymentMethod),
		PaymentStatus:       string(order.PaymentStatus),
		CustomerComment:     order.CustomerComment,
		CancellationReason:  order.CancellationReason,
		Items:               make([]OrderItemResponse, 0, len(order.Items)),
		CreatedAt:           order.CreatedAt,
	}
	for _, item := range order.Items {
		itemResp := OrderItemResponse{
			ID:              item.ID.String(),
			ProductName:     item.ProductName,
			ProductPrice:    item.ProductPrice,
			Quantity:        item.Quantity,
			OptionsModifier: item.OptionsModifier,
			UnitPrice:       item.UnitPrice,
			Subtotal:        item.Subtotal,
		}
		if item.ProductID != nil {
			itemResp.ProductID = item.ProductID.String()
		}
		for _, opt := range item.SelectedOptions {
			itemResp.SelectedOptions = append(itemResp.SelectedOptions, OrderItemOptionResponse{
				OptionName:    opt.OptionName,
				Value:         opt.Value,
				PriceModifier: opt.PriceModifier,
			})
		}
		resp.Items = append(resp.Items, itemResp)
	}
	return resp
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type UpdateOrderStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Comment string `json:"comment"`
}

type StatusHistoryResponse struct {
	Status    string    `json:"status"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func ToStatusHistoryResponse(history []model.OrderStatusHistory) []StatusHistoryResponse {
	resp := make([]StatusHistoryResponse, 0, len(history))
	for _, h := range history {
		resp = append(resp, StatusHistoryResponse{
			Status:    string(h.Status),
			Comment:   h.Comment,
			CreatedAt: h.CreatedAt,
		})
	}
	return resp
}

// --- promo ---

type ValidatePromoRequest struct {
	Code     string `json:"code" binding:"required"`
	BranchID string `json:"branch_id" binding:"required,uuid"`
}

type PromoValidationResponse struct {
	Valid   bool   `json:"valid"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

type PromoResponse struct {
	Code               string           `json:"code"`
	Name               string           `json:"name"`
	PromoType          string           `json:"promo_type"`
	DiscountAmount     *decimal.Decimal `json:"discount_amount,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	MinOrderAmount     *decimal.Decimal `json:"min_order_amount,omitempty"`
	ValidUntil         time.Time        `json:"valid_until"`
}

func ToPromoResponse(p *model.PromoCode) PromoResponse {
	return PromoResponse{
		Code:               p.Code,
		Name:               p.Name,
		PromoType:          string(p.PromoType),
		DiscountAmount:     p.DiscountAmount,
		DiscountPercentage: p.DiscountPercentage,
		MinOrderAmount:     p.MinOrderAmount,
		ValidUntil:         p.ValidUntil,
	}
}

// --- bonus ---

type BonusBalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type BonusTransactionResponse struct {
	ID              string          `json:"id"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description,omitempty"`
	OrderID         string          `json:"order_id,omitempty"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
	IsExpired       bool            `json:"is_expired"`
	CreatedAt       time.Time       `json:"created_at"`
}

func ToBonusTransactionResponse(t *model.BonusTransaction) BonusTransactionResponse {
	resp := BonusTransactionResponse{
		ID:              t.ID.String(),
		TransactionType: string(t.TransactionType),
		Amount:          t.Amount,
		Description:     t.Description,
		ExpiresAt:       t.ExpiresAt,
		IsExpired:       t.IsExpired,
		CreatedAt:       t.CreatedAt,
	}
	if t.OrderID != nil {
		resp.OrderID = t.OrderID.String()
	}
	return resp
}

type BonusRuleResponse struct {
	Name            string           `json:"name"`
	RuleType        string           `json:"rule_type"`
	BonusAmount     decimal.Decimal  `json:"bonus_amount"`
	BonusPercentage *decimal.Decimal `json:"bonus_percentage,omitempty"`
	MaxBonusAmount  *decimal.Decimal `json:"max_bonus_amount,omitempty"`
	MinOrderAmount  *decimal.Decimal `json:"min_order_amount,omitempty"`
	ValidityDays    int              `json:"validity_days"`
}

func ToBonusRuleResponse(r *model.BonusRule) BonusRuleResponse {
	return BonusRuleResponse{
		Name:            r.Name,
		RuleType:        string(r.RuleType),
		BonusAmount:     r.BonusAmount,
		BonusPercentage: r.BonusPercentage,
		MaxBonusAmount:  r.MaxBonusAmount,
		MinOrderAmount:  r.MinOrderAmount,
		ValidityDays:    r.ValidityDays,
	}
}

// --- payments ---

type PaymentWebhookRequest struct {
	OrderID       string `json:"order_id" binding:"required,uuid"`
	Status        string `json:"status" binding:"required,oneof=pending processing paid failed refunded cancelled"`
	ExternalID    string `json:"external_id"`
	FailureReason string `json:"failure_reason"`
}
