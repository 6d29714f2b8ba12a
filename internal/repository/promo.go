package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bitewave/go-food-ordering-api/internal/model"
)

var (
	// ErrUsageLimitReached is returned when the guarded usage_count
	// increment finds the global limit already consumed.
	ErrUsageLimitReached = errors.New("promo code usage limit reached")
	// ErrPromoAlreadyUsed is returned when the unique (user, promo)
	// constraint rejects a second redemption.
	ErrPromoAlreadyUsed = errors.New("promo code already used by this user")
)

type PromoRepository interface {
	GetByCode(ctx context.Context, code string) (*model.PromoCode, error)
	LockByCode(ctx context.Context, tx pgx.Tx, code string) (*model.PromoCode, error)
	ListActive(ctx context.Context, now time.Time) ([]model.PromoCode, error)
	CountUserUsage(ctx context.Context, userID, promoID uuid.UUID) (int, error)
	IncrementUsageTx(ctx context.Context, tx pgx.Tx, promoID uuid.UUID) error
	InsertUsageTx(ctx context.Context, tx pgx.Tx, usage *model.UserPromoCodeUsage) error
}

type pgPromoRepo struct{ pool *pgxpool.Pool }

func NewPromoRepository(pool *pgxpool.Pool) PromoRepository {
	return &pgPromoRepo{pool: pool}
}

const promoColumns = `id, name, code, promo_type, discount_amount, discount_percentage,
	usage_limit, usage_limit_per_user, min_order_amount, valid_from, valid_until,
	applicable_restaurant_ids, applicable_category_ids, applicable_product_ids,
	is_for_new_users_only, is_active, usage_count, created_at, updated_at`

func scanPromo(row pgx.Row) (*model.PromoCode, error) {
	p := &model.PromoCode{}
	var restaurants, categories, products []string
	err := row.Scan(
		&p.ID, &p.Name, &p.Code, &p.PromoType, &p.DiscountAmount, &p.DiscountPercentage,
		&p.UsageLimit, &p.UsageLimitPerUser, &p.MinOrderAmount, &p.ValidFrom, &p.ValidUntil,
		&restaurants, &categories, &products,
		&p.IsForNewUsersOnly, &p.IsActive, &p.UsageCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.ApplicableRestaurantIDs, err = parseUUIDs(restaurants); err != nil {
		return nil, err
	}
	if p.ApplicableCategoryIDs, err = parseUUIDs(categories); err != nil {
		return nil, err
	}
	if p.ApplicableProductIDs, err = parseUUIDs(products); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgPromoRepo) GetByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	promo, err := scanPromo(r.pool.QueryRow(ctx,
		`SELECT `+promoColumns+` FROM promo_codes WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get promo code: %w", err)
	}
	return promo, nil
}

// LockByCode loads the promo row under a row lock so concurrent
// redemptions serialize on the usage counters.
func (r *pgPromoRepo) LockByCode(ctx context.Context, tx pgx.Tx, code string) (*model.PromoCode, error) {
	promo, err := scanPromo(tx.QueryRow(ctx,
		`SELECT `+promoColumns+` FROM promo_codes WHERE code = $1 FOR UPDATE`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock promo code: %w", err)
	}
	return promo, nil
}

func (r *pgPromoRepo) ListActive(ctx context.Context, now time.Time) ([]model.PromoCode, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+promoColumns+` FROM promo_codes
		 WHERE is_active AND valid_from <= $1 AND valid_until > $1 ORDER BY valid_until`, now)
	if err != nil {
		return nil, fmt.Errorf("list active promo codes: %w", err)
	}
	defer rows.Close()

	var promos []model.PromoCode
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promo code: %w", err)
		}
		promos = append(promos, *p)
	}
	return promos, nil
}

func (r *pgPromoRepo) CountUserUsage(ctx context.Context, userID, promoID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_promo_code_usages WHERE user_id = $1 AND promo_code_id = $2`,
		userID, promoID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count promo usage: %w", err)
	}
	return count, nil
}

// IncrementUsageTx bumps usage_count only while the global limit still
// has headroom; a zero row count means the race was lost.
func (r *pgPromoRepo) IncrementUsageTx(ctx context.Context, tx pgx.Tx, promoID uuid.UUID) error {
	ct, err := tx.Exec(ctx,
		`UPDATE promo_codes SET usage_count = usage_count + 1, updated_at = NOW()
		 WHERE id = $1 AND (usage_limit IS NULL OR usage_count < usage_limit)`, promoID)
	if err != nil {
		return fmt.Errorf("increment promo usage: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrUsageLimitReached
	}
	return nil
}

func (r *pgPromoRepo) InsertUsageTx(ctx context.Context, tx pgx.Tx, usage *model.UserPromoCodeUsage) error {
	usage.ID = uuid.New()
	err := tx.QueryRow(ctx,
		`INSERT INTO user_promo_code_usages (id, user_id, promo_code_id, order_id, used_at)
		 VALUES ($1, $2, $3, $4, NOW()) RETURNING used_at`,
		usage.ID, usage.UserID, usage.PromoCodeID, usage.OrderID,
	).Scan(&usage.UsedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrPromoAlreadyUsed
		}
		return fmt.Errorf("insert promo usage: %w", err)
	}
	return nil
}
