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

type RestaurantRepository interface {
	ListActive(ctx context.Context) ([]model.Restaurant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Restaurant, error)
	GetBranchByID(ctx context.Context, id uuid.UUID) (*model.RestaurantBranch, error)
	ListBranches(ctx context.Context, restaurantID uuid.UUID) ([]model.RestaurantBranch, error)
}

type pgRestaurantRepo struct{ pool *pgxpool.Pool }

func NewRestaurantRepository(pool *pgxpool.Pool) RestaurantRepository {
	return &pgRestaurantRepo{pool: pool}
}

func (r *pgRestaurantRepo) ListActive(ctx context.Context) ([]model.Restaurant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, slug, description, currency, is_active, created_at, updated_at
		 FROM restaurants WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	var restaurants []model.Restaurant
	for rows.Next() {
		var rest model.Restaurant
		if err := rows.Scan(&rest.ID, &rest.Name, &rest.Slug, &rest.Description,
			&rest.Currency, &rest.IsActive, &rest.CreatedAt, &rest.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		restaurants = append(restaurants, rest)
	}
	return restaurants, nil
}

func (r *pgRestaurantRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Restaurant, error) {
	rest := &model.Restaurant{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, slug, description, currency, is_active, created_at, updated_at
		 FROM restaurants WHERE id = $1`, id,
	).Scan(&rest.ID, &rest.Name, &rest.Slug, &rest.Description,
		&rest.Currency, &rest.IsActive, &rest.CreatedAt, &rest.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	return rest, nil
}

const branchColumns = `id, restaurant_id, name, address, city, min_order_amount, max_order_amount,
	delivery_fee, free_delivery_threshold, service_fee, packaging_fee,
	preparation_time_min, preparation_time_max, is_active, is_accepting_orders,
	created_at, updated_at`

func scanBranch(row pgx.Row) (*model.RestaurantBranch, error) {
	b := &model.RestaurantBranch{}
	err := row.Scan(
		&b.ID, &b.RestaurantID, &b.Name, &b.Address, &b.City,
		&b.MinOrderAmount, &b.MaxOrderAmount, &b.DeliveryFee, &b.FreeDeliveryThreshold,
		&b.ServiceFee, &b.PackagingFee, &b.PreparationTimeMin, &b.PreparationTimeMax,
		&b.IsActive, &b.IsAcceptingOrders, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *pgRestaurantRepo) GetBranchByID(ctx context.Context, id uuid.UUID) (*model.RestaurantBranch, error) {
	branch, err := scanBranch(r.pool.QueryRow(ctx,
		`SELECT `+branchColumns+` FROM restaurant_branches WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get branch: %w", err)
	}
	return branch, nil
}

func (r *pgRestaurantRepo) ListBranches(ctx context.Context, restaurantID uuid.UUID) ([]model.RestaurantBranch, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+branchColumns+` FROM restaurant_branches
		 WHERE restaurant_id = $1 AND is_active ORDER BY name`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer rows.Close()

	var branches []model.RestaurantBranch
	for rows.Next() {
		branch, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		branches = append(branches, *branch)
	}
	return branches, nil
}
