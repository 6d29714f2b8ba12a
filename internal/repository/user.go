package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bitewave/go-food-ordering-api/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.User, error)
	UpdateBonusBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error
	IncrementOrderStats(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error
}

type pgUserRepo struct{ pool *pgxpool.Pool }

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepo{pool: pool}
}

const userColumns = `id, telegram_id, username, first_name, last_name, phone, language_code,
	total_orders, total_spent, bonus_balance, bonus_percent_allowed, referral_code,
	is_active, is_blocked, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.TelegramID, &user.Username, &user.FirstName, &user.LastName,
		&user.Phone, &user.LanguageCode, &user.TotalOrders, &user.TotalSpent,
		&user.BonusBalance, &user.BonusPercentAllowed, &user.ReferralCode,
		&user.IsActive, &user.IsBlocked, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = uuid.New()
	query := `INSERT INTO users (id, telegram_id, username, first_name, last_name, phone,
				language_code, total_orders, total_spent, bonus_balance, bonus_percent_allowed,
				referral_code, is_active, is_blocked, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, 0, $8, $9, true, false, NOW(), NOW())
			  RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		user.ID, user.TelegramID, user.Username, user.FirstName, user.LastName,
		user.Phone, user.LanguageCode, user.BonusPercentAllowed, user.ReferralCode,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	user.TotalSpent = decimal.Zero
	user.BonusBalance = decimal.Zero
	user.IsActive = true
	return nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (r *pgUserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	return user, nil
}

// LockForUpdate loads the user row under a row lock so concurrent
// checkouts by the same user serialize on the bonus balance and
// per-user promo checks.
func (r *pgUserRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.User, error) {
	user, err := scanUser(tx.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock user: %w", err)
	}
	return user, nil
}

func (r *pgUserRepo) UpdateBonusBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error {
	_, err := tx.Exec(ctx,
		`UPDATE users SET bonus_balance = $2, updated_at = NOW() WHERE id = $1`, id, balance)
	if err != nil {
		return fmt.Errorf("update bonus balance: %w", err)
	}
	return nil
}

func (r *pgUserRepo) IncrementOrderStats(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	_, err := tx.Exec(ctx,
		`UPDATE users SET total_orders = total_orders + 1, total_spent = total_spent + $2, updated_at = NOW()
		 WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("increment order stats: %w", err)
	}
	return nil
}
