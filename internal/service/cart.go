package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bitewave/go-food-ordering-api/internal/model"
	"github.com/bitewave/go-food-ordering-api/internal/money"
	"github.com/bitewave/go-food-ordering-api/internal/repository"
)

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

// Get returns the user's cart with current catalog prices applied.
func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.reprice(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// AddItem adds a product with its option selection to the cart. A line
// with the same product and the same selection is merged by bumping
// its quantity; a different selection of the same product stays a
// separate line.
func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int, optionValueIDs []uuid.UUID) (*model.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.InStock() {
		return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, product.Name)
	}

	unitPrice, _, err := s.resolveLine(ctx, product, optionValueIDs)
	if err != nil {
		return nil, err
	}

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	line := model.CartItem{
		CartID:            cart.ID,
		ProductID:         productID,
		Quantity:          quantity,
		SelectedOptionIDs: optionValueIDs,
		UnitPrice:         unitPrice,
	}
	for i := range cart.Items {
		if cart.Items[i].SelectionKey() != line.SelectionKey() {
			continue
		}
		cart.Items[i].Quantity += quantity
		cart.Items[i].UnitPrice = unitPrice
		cart.Items[i].TotalPrice = lineTotal(unitPrice, cart.Items[i].Quantity)
		if err := s.cartRepo.UpdateItem(ctx, &cart.Items[i]); err != nil {
			return nil, fmt.Errorf("add to cart: %w", err)
		}
		return cart, nil
	}

	line.TotalPrice = lineTotal(unitPrice, quantity)
	if err := s.cartRepo.AddItem(ctx, &line); err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	cart.Items = append(cart.Items, line)
	return cart, nil
}

// UpdateItemQuantity sets a line's quantity; zero removes the line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*model.Cart, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	item := findItem(cart, itemID)
	if item == nil {
		return nil, ErrCartItemNotFound
	}

	if quantity == 0 {
		if err := s.cartRepo.DeleteItem(ctx, itemID); err != nil {
			return nil, fmt.Errorf("update cart item: %w", err)
		}
		return s.loadCart(ctx, userID)
	}

	item.Quantity = quantity
	item.TotalPrice = lineTotal(item.UnitPrice, quantity)
	if err := s.cartRepo.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return cart, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*model.Cart, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if findItem(cart, itemID) == nil {
		return nil, ErrCartItemNotFound
	}
	if err := s.cartRepo.DeleteItem(ctx, itemID); err != nil {
		return nil, fmt.Errorf("remove cart item: %w", err)
	}
	return s.loadCart(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.cartRepo.Clear(ctx, cart.ID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Recompute reprices every line from the catalog and fails on lines
// that can no longer be ordered. Checkout runs this before freezing
// the order snapshot.
func (s *CartService) Recompute(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range cart.Items {
		item := &cart.Items[i]
		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("recompute cart: %w", err)
		}
		if product == nil {
			return nil, fmt.Errorf("%w: cart item %s", ErrProductNotFound, item.ID)
		}
		if !product.InStock() {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, product.Name)
		}
		unitPrice, _, err := s.resolveLine(ctx, product, item.SelectedOptionIDs)
		if err != nil {
			return nil, err
		}
		if !unitPrice.Equal(item.UnitPrice) {
			item.UnitPrice = unitPrice
			item.TotalPrice = lineTotal(unitPrice, item.Quantity)
			if err := s.cartRepo.UpdateItem(ctx, item); err != nil {
				return nil, fmt.Errorf("recompute cart: %w", err)
			}
		} else {
			item.TotalPrice = lineTotal(unitPrice, item.Quantity)
		}
	}
	return cart, nil
}

// reprice refreshes line prices for display without failing the whole
// cart on an unavailable product.
func (s *CartService) reprice(ctx context.Context, cart *model.Cart) error {
	for i := range cart.Items {
		item := &cart.Items[i]
		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			return fmt.Errorf("reprice cart: %w", err)
		}
		if product == nil {
			continue
		}
		unitPrice, _, err := s.resolveLine(ctx, product, item.SelectedOptionIDs)
		if err != nil {
			continue
		}
		item.UnitPrice = unitPrice
		item.TotalPrice = lineTotal(unitPrice, item.Quantity)
	}
	return nil
}

func (s *CartService) resolveLine(ctx context.Context, product *model.Product, optionValueIDs []uuid.UUID) (decimal.Decimal, []model.OptionValue, error) {
	var selected []model.OptionValue
	if len(optionValueIDs) > 0 {
		values, err := s.productRepo.GetOptionValues(ctx, optionValueIDs)
		if err != nil {
			return decimal.Zero, nil, fmt.Errorf("resolve options: %w", err)
		}
		if len(values) != len(optionValueIDs) {
			return decimal.Zero, nil, fmt.Errorf("%w: unknown option value", ErrInvalidOptionSelection)
		}
		selected = values
	}
	mapped, err := s.productRepo.MappedOptionIDs(ctx, product.ID)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("resolve options: %w", err)
	}
	unitPrice, err := ResolveUnitPrice(product, selected, mapped)
	if err != nil {
		return decimal.Zero, nil, err
	}
	return unitPrice, selected, nil
}

func (s *CartService) loadCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	cart, err = s.cartRepo.GetWithItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

func findItem(cart *model.Cart, itemID uuid.UUID) *model.CartItem {
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			return &cart.Items[i]
		}
	}
	return nil
}

func lineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return money.Trunc(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}
