package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bitewave/go-food-ordering-api/internal/model"
	"github.com/bitewave/go-food-ordering-api/internal/money"
	"github.com/bitewave/go-food-ordering-api/internal/repository"
)

// OrderPublisher announces a placed order to the async pipeline.
// Publishing is best-effort; a broker outage never fails a checkout.
type OrderPublisher interface {
	PublishOrderCreated(ctx context.Context, msg model.OrderMessage) error
}

// CheckoutInput carries the client's choices. Every amount on the
// resulting order is derived server-side from the catalog and the
// branch configuration.
type CheckoutInput struct {
	BranchID       uuid.UUID
	OrderType      model.OrderType
	PaymentMethod  model.PaymentMethod
	AddressID      *uuid.UUID
	PromoCode      string
	BonusRequested decimal.Decimal
	TipsAmount     decimal.Decimal
	Comment        string
}

type CheckoutService struct {
	orderRepo      repository.OrderRepository
	cartRepo       repository.CartRepository
	productRepo    repository.ProductRepository
	userRepo       repository.UserRepository
	restaurantRepo repository.RestaurantRepository
	promoRepo      repository.PromoRepository
	bonus          *BonusService
	cart           *CartService
	publisher      OrderPublisher
	log            *slog.Logger
}

func NewCheckoutService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	restaurantRepo repository.RestaurantRepository,
	promoRepo repository.PromoRepository,
	bonus *BonusService,
	cart *CartService,
	publisher OrderPublisher,
	log *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		orderRepo:      orderRepo,
		cartRepo:       cartRepo,
		productRepo:    productRepo,
		userRepo:       userRepo,
		restaurantRepo: restaurantRepo,
		promoRepo:      promoRepo,
		bonus:          bonus,
		cart:           cart,
		publisher:      publisher,
		log:            log,
	}
}

// orderLine pairs a frozen item snapshot with the stock bookkeeping
// the transaction needs.
type orderLine struct {
	item         model.OrderItem
	trackedStock bool
}

// Checkout turns the user's cart into an order. Reads and validation
// run first; everything that mutates state happens inside a single
// transaction anchored on the user row lock, so two concurrent
// checkouts by one user serialize and either both succeed or the loser
// fails cleanly. Any failing step aborts the whole checkout; nothing
// is partially applied.
func (s *CheckoutService) Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*model.Order, error) {
	if input.OrderType == model.OrderTypeDelivery && input.AddressID == nil {
		return nil, ErrAddressRequired
	}

	cart, err := s.cart.Recompute(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	branch, err := s.restaurantRepo.GetBranchByID(ctx, input.BranchID)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if branch == nil {
		return nil, ErrBranchNotFound
	}
	if !branch.IsActive || !branch.IsAcceptingOrders {
		return nil, ErrBranchNotAcceptingOrders
	}

	lines, scope, err := s.snapshotLines(ctx, cart, branch.RestaurantID)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.item.Subtotal)
	}
	if subtotal.LessThan(branch.MinOrderAmount) {
		return nil, fmt.Errorf("%w: minimum is %s", ErrBelowMinOrderAmount, branch.MinOrderAmount.StringFixed(money.Scale))
	}
	if branch.MaxOrderAmount != nil && subtotal.GreaterThan(*branch.MaxOrderAmount) {
		return nil, fmt.Errorf("%w: maximum is %s", ErrAboveMaxOrderAmount, branch.MaxOrderAmount.StringFixed(money.Scale))
	}

	fees := ResolveFees(branch, input.OrderType, subtotal)
	now := time.Now()

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	defer tx.Rollback(ctx)

	user, err := s.userRepo.LockForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.IsBlocked {
		return nil, ErrUserBlocked
	}
	if !user.IsActive {
		return nil, ErrUserNotActive
	}

	order := &model.Order{
		OrderNumber:   generateOrderNumber(now),
		UserID:        userID,
		BranchID:      branch.ID,
		OrderType:     input.OrderType,
		Status:        model.OrderStatusPending,
		AddressID:     input.AddressID,
		Subtotal:      subtotal,
		DeliveryFee:   fees.DeliveryFee,
		ServiceFee:    fees.ServiceFee,
		PackagingFee:  fees.PackagingFee,
		TipsAmount:    money.Trunc(money.ClampNonNegative(input.TipsAmount)),
		PaymentMethod: input.PaymentMethod,
		PaymentStatus: model.PaymentStatusPending,
	}
	order.CustomerComment = input.Comment
	for _, line := range lines {
		order.Items = append(order.Items, line.item)
	}

	var promo *model.PromoCode
	if code := strings.TrimSpace(input.PromoCode); code != "" {
		promo, err = s.redeemablePromo(ctx, tx, userID, code, subtotal, scope, now)
		if err != nil {
			return nil, err
		}
		order.PromoCode = promo.Code
		order.PromoDiscountAmount = PromoDiscount(promo, subtotal, fees.DeliveryFee, order.Items)
	}

	if input.BonusRequested.GreaterThan(decimal.Zero) {
		balance, err := s.bonus.BalanceTx(ctx, tx, userID)
		if err != nil {
			return nil, fmt.Errorf("checkout: %w", err)
		}
		order.BonusUsed = ClampBonusSpend(input.BonusRequested, balance, subtotal, user.BonusPercentAllowed)
	}

	order.TotalAmount = money.ClampNonNegative(money.Trunc(order.CalculateTotal()))

	if err := s.orderRepo.CreateTx(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	if promo != nil {
		if err := s.consumePromo(ctx, tx, promo, userID, order.ID); err != nil {
			return nil, err
		}
	}

	for _, line := range lines {
		if !line.trackedStock {
			continue
		}
		if err := s.productRepo.DecrementStock(ctx, tx, *line.item.ProductID, line.item.Quantity); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, line.item.ProductName)
		}
	}

	if order.BonusUsed.GreaterThan(decimal.Zero) {
		if err := s.bonus.SpendTx(ctx, tx, userID, order.BonusUsed, order.ID, "spent on order "+order.OrderNumber); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.IncrementOrderStats(ctx, tx, userID, order.TotalAmount); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if err := s.cartRepo.ClearTx(ctx, tx, cart.ID); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	if s.publisher != nil {
		msg := model.OrderMessage{OrderID: order.ID, UserID: order.UserID}
		if err := s.publisher.PublishOrderCreated(ctx, msg); err != nil {
			s.log.Warn("order created event not published",
				slog.String("order_id", order.ID.String()), slog.Any("error", err))
		}
	}
	return order, nil
}

// snapshotLines freezes each cart line into an order item: product
// name, description, base price and resolved option values are copied
// so catalog edits never rewrite order history.
func (s *CheckoutService) snapshotLines(ctx context.Context, cart *model.Cart, restaurantID uuid.UUID) ([]orderLine, PromoScope, error) {
	scope := PromoScope{RestaurantID: restaurantID}
	lines := make([]orderLine, 0, len(cart.Items))

	for _, item := range cart.Items {
		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, scope, fmt.Errorf("snapshot cart: %w", err)
		}
		if product == nil {
			return nil, scope, ErrProductNotFound
		}
		if !product.InStock() {
			return nil, scope, fmt.Errorf("%w: %s", ErrProductUnavailable, product.Name)
		}

		var selected []model.OptionValue
		if len(item.SelectedOptionIDs) > 0 {
			selected, err = s.productRepo.GetOptionValues(ctx, item.SelectedOptionIDs)
			if err != nil {
				return nil, scope, fmt.Errorf("snapshot cart: %w", err)
			}
			if len(selected) != len(item.SelectedOptionIDs) {
				return nil, scope, fmt.Errorf("%w: unknown option value", ErrInvalidOptionSelection)
			}
		}
		mapped, err := s.productRepo.MappedOptionIDs(ctx, product.ID)
		if err != nil {
			return nil, scope, fmt.Errorf("snapshot cart: %w", err)
		}
		unitPrice, err := ResolveUnitPrice(product, selected, mapped)
		if err != nil {
			return nil, scope, err
		}

		optionNames, err := s.optionNames(ctx, product.ID)
		if err != nil {
			return nil, scope, err
		}
		frozen := make([]model.OrderItemOption, 0, len(selected))
		for _, value := range selected {
			frozen = append(frozen, model.OrderItemOption{
				OptionName:    optionNames[value.OptionID],
				Value:         value.Value,
				PriceModifier: value.PriceModifier,
			})
		}

		productID := product.ID
		lines = append(lines, orderLine{
			item: model.OrderItem{
				ProductID:          &productID,
				ProductName:        product.Name,
				ProductDescription: product.Description,
				ProductPrice:       product.Price,
				Quantity:           item.Quantity,
				OptionsModifier:    optionsModifier(selected),
				UnitPrice:          unitPrice,
				Subtotal:           lineTotal(unitPrice, item.Quantity),
				SelectedOptions:    frozen,
			},
			trackedStock: !product.IsUnlimitedStock && product.StockQuantity != nil,
		})

		scope.ProductIDs = append(scope.ProductIDs, product.ID)
		if product.CategoryID != nil {
			scope.CategoryIDs = append(scope.CategoryIDs, *product.CategoryID)
		}
	}
	return lines, scope, nil
}

// redeemablePromo reruns the full validation chain against the locked
// promo row. A code that fails any check aborts the checkout; it is
// never silently dropped.
func (s *CheckoutService) redeemablePromo(ctx context.Context, tx pgx.Tx, userID uuid.UUID, code string, subtotal decimal.Decimal, scope PromoScope, now time.Time) (*model.PromoCode, error) {
	promo, err := s.promoRepo.LockByCode(ctx, tx, code)
	if err != nil {
		return nil, fmt.Errorf("checkout promo: %w", err)
	}

	used := 0
	completed := 0
	if promo != nil {
		if used, err = s.promoRepo.CountUserUsage(ctx, userID, promo.ID); err != nil {
			return nil, fmt.Errorf("checkout promo: %w", err)
		}
		if completed, err = s.orderRepo.CountCompletedByUser(ctx, userID); err != nil {
			return nil, fmt.Errorf("checkout promo: %w", err)
		}
	}

	result := EvaluatePromo(promo, used, completed, subtotal, scope, now)
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPromoCode, result.Message)
	}
	return promo, nil
}

func (s *CheckoutService) consumePromo(ctx context.Context, tx pgx.Tx, promo *model.PromoCode, userID, orderID uuid.UUID) error {
	if err := s.promoRepo.IncrementUsageTx(ctx, tx, promo.ID); err != nil {
		if errors.Is(err, repository.ErrUsageLimitReached) {
			return fmt.Errorf("%w: %v", ErrPromoConflict, err)
		}
		return fmt.Errorf("checkout promo: %w", err)
	}
	usage := &model.UserPromoCodeUsage{UserID: userID, PromoCodeID: promo.ID, OrderID: &orderID}
	if err := s.promoRepo.InsertUsageTx(ctx, tx, usage); err != nil {
		if errors.Is(err, repository.ErrPromoAlreadyUsed) {
			return fmt.Errorf("%w: %v", ErrPromoConflict, err)
		}
		return fmt.Errorf("checkout promo: %w", err)
	}
	return nil
}

func (s *CheckoutService) optionNames(ctx context.Context, productID uuid.UUID) (map[uuid.UUID]string, error) {
	views, err := s.productRepo.ListOptionsForProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("snapshot cart: %w", err)
	}
	names := make(map[uuid.UUID]string, len(views))
	for _, view := range views {
		names[view.Option.ID] = view.Option.Name
	}
	return names, nil
}

// generateOrderNumber yields a human-readable number like
// ORD-20250131-7F3A2C41. Uniqueness comes from the random suffix.
func generateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
