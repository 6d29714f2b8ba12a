package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bitewave/go-food-ordering-api/internal/model"
)

type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]model.Product, error)
	ListCategories(ctx context.Context, restaurantID uuid.UUID) ([]model.Category, error)
	ListOptionsForProduct(ctx context.Context, productID uuid.UUID) ([]model.ProductOptionView, error)
	MappedOptionIDs(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error)
	GetOptionValues(ctx context.Context, ids []uuid.UUID) ([]model.OptionValue, error)
	DecrementStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error
}

type pgProductRepo struct{ pool *pgxpool.Pool }

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool}
}

const productColumns = `id, restaurant_id, category_id, name, description, price, old_price,
	is_available, stock_quantity, is_unlimited_stock, is_popular, is_new, display_order,
	created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(
		&p.ID, &p.RestaurantID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.OldPrice,
		&p.IsAvailable, &p.StockQuantity, &p.IsUnlimitedStock, &p.IsPopular, &p.IsNew,
		&p.DisplayOrder, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *pgProductRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE restaurant_id = $1 ORDER BY display_order, name`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, nil
}

func (r *pgProductRepo) ListCategories(ctx context.Context, restaurantID uuid.UUID) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, restaurant_id, parent_id, name, slug, description, display_order, is_active, created_at, updated_at
		 FROM categories WHERE restaurant_id = $1 AND is_active ORDER BY display_order`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.RestaurantID, &c.ParentID, &c.Name, &c.Slug,
			&c.Description, &c.DisplayOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func (r *pgProductRepo) ListOptionsForProduct(ctx context.Context, productID uuid.UUID) ([]model.ProductOptionView, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT o.id, o.restaurant_id, o.name, o.option_type, o.is_required,
				o.min_selection, o.max_selection, o.display_order, o.is_active,
				o.created_at, o.updated_at
		 FROM product_options o
		 JOIN product_option_mappings m ON m.option_id = o.id
		 WHERE m.product_id = $1 AND o.is_active
		 ORDER BY o.display_order`, productID)
	if err != nil {
		return nil, fmt.Errorf("list product options: %w", err)
	}
	defer rows.Close()

	var views []model.ProductOptionView
	for rows.Next() {
		var o model.ProductOption
		if err := rows.Scan(&o.ID, &o.RestaurantID, &o.Name, &o.OptionType, &o.IsRequired,
			&o.MinSelection, &o.MaxSelection, &o.DisplayOrder, &o.IsActive,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product option: %w", err)
		}
		views = append(views, model.ProductOptionView{Option: o})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product options: %w", err)
	}

	for i := range views {
		values, err := r.listOptionValues(ctx, views[i].Option.ID)
		if err != nil {
			return nil, err
		}
		views[i].Values = values
	}
	return views, nil
}

func (r *pgProductRepo) listOptionValues(ctx context.Context, optionID uuid.UUID) ([]model.OptionValue, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+optionValueColumns+` FROM option_values
		 WHERE option_id = $1 AND is_available ORDER BY display_order`, optionID)
	if err != nil {
		return nil, fmt.Errorf("list option values: %w", err)
	}
	defer rows.Close()

	var values []model.OptionValue
	for rows.Next() {
		v, err := scanOptionValue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan option value: %w", err)
		}
		values = append(values, *v)
	}
	return values, nil
}

const optionValueColumns = `id, option_id, value, price_modifier, is_available, is_default,
	display_order, created_at, updated_at`

func scanOptionValue(row pgx.Row) (*model.OptionValue, error) {
	v := &model.OptionValue{}
	err := row.Scan(&v.ID, &v.OptionID, &v.Value, &v.PriceModifier, &v.IsAvailable,
		&v.IsDefault, &v.DisplayOrder, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *pgProductRepo) MappedOptionIDs(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT option_id FROM product_option_mappings WHERE product_id = $1`, productID)
	if err != nil {
		return nil, fmt.Errorf("mapped option ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan option id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *pgProductRepo) GetOptionValues(ctx context.Context, ids []uuid.UUID) ([]model.OptionValue, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+optionValueColumns+` FROM option_values WHERE id = ANY($1::uuid[])`,
		uuidStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("get option values: %w", err)
	}
	defer rows.Close()

	var values []model.OptionValue
	for rows.Next() {
		v, err := scanOptionValue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan option value: %w", err)
		}
		values = append(values, *v)
	}
	return values, nil
}

// DecrementStock only touches tracked stock; the caller skips products
// with unlimited or untracked stock.
func (r *pgProductRepo) DecrementStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error {
	ct, err := tx.Exec(ctx,
		`UPDATE products SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		 WHERE id = $1 AND NOT is_unlimited_stock AND stock_quantity IS NOT NULL AND stock_quantity >= $2`,
		productID, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("insufficient stock for product %s", productID)
	}
	return nil
}
