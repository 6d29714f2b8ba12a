package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bitewave/go-food-ordering-api/internal/model"
)

type BonusRepository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	ListActiveRules(ctx context.Context) ([]model.BonusRule, error)
	InsertTransactionTx(ctx context.Context, tx pgx.Tx, t *model.BonusTransaction) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.BonusTransaction, error)
	LockGrantsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]model.BonusTransaction, error)
	LockDueGrantsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, now time.Time) ([]model.BonusTransaction, error)
	UpdateGrantTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, remaining decimal.Decimal, expired bool) error
	UsersWithDueGrants(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	BalanceTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (decimal.Decimal, error)
}

type pgBonusRepo struct{ pool *pgxpool.Pool }

func NewBonusRepository(pool *pgxpool.Pool) BonusRepository {
	return &pgBonusRepo{pool: pool}
}

func (r *pgBonusRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *pgBonusRepo) ListActiveRules(ctx context.Context) ([]model.BonusRule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, rule_type, bonus_amount, bonus_percentage, max_bonus_amount,
			min_order_amount, applicable_restaurant_ids, validity_days, is_active,
			created_at, updated_at
		 FROM bonus_rules WHERE is_active ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list bonus rules: %w", err)
	}
	defer rows.Close()

	var rules []model.BonusRule
	for rows.Next() {
		var rule model.BonusRule
		var restaurants []string
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.RuleType, &rule.BonusAmount,
			&rule.BonusPercentage, &rule.MaxBonusAmount, &rule.MinOrderAmount,
			&restaurants, &rule.ValidityDays, &rule.IsActive,
			&rule.CreatedAt, &rule.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan bonus rule: %w", err)
		}
		if rule.ApplicableRestaurantIDs, err = parseUUIDs(restaurants); err != nil {
			return nil, fmt.Errorf("bonus rule scope: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (r *pgBonusRepo) InsertTransactionTx(ctx context.Context, tx pgx.Tx, t *model.BonusTransaction) error {
	t.ID = uuid.New()
	err := tx.QueryRow(ctx,
		`INSERT INTO user_bonus_transactions (id, user_id, transaction_type, amount,
			remaining_amount, description, order_id, bonus_rule_id, expires_at, is_expired, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW()) RETURNING created_at`,
		t.ID, t.UserID, t.TransactionType, t.Amount, t.RemainingAmount,
		t.Description, t.OrderID, t.BonusRuleID, t.ExpiresAt, t.IsExpired,
	).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert bonus transaction: %w", err)
	}
	return nil
}

const bonusTxColumns = `id, user_id, transaction_type, amount, remaining_amount, description,
	order_id, bonus_rule_id, expires_at, is_expired, created_at`

func scanBonusTx(rows pgx.Rows) (*model.BonusTransaction, error) {
	t := &model.BonusTransaction{}
	err := rows.Scan(&t.ID, &t.UserID, &t.TransactionType, &t.Amount, &t.RemainingAmount,
		&t.Description, &t.OrderID, &t.BonusRuleID, &t.ExpiresAt, &t.IsExpired, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *pgBonusRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.BonusTransaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+bonusTxColumns+` FROM user_bonus_transactions
		 WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list bonus transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.BonusTransaction
	for rows.Next() {
		t, err := scanBonusTx(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bonus transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, nil
}

// LockGrantsTx loads the user's live grants soonest-expiring first, the
// order spend allocation draws them down in.
func (r *pgBonusRepo) LockGrantsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]model.BonusTransaction, error) {
	rows, err := tx.Query(ctx,
		`SELECT `+bonusTxColumns+` FROM user_bonus_transactions
		 WHERE user_id = $1 AND transaction_type = 'earned' AND NOT is_expired AND remaining_amount > 0
		 ORDER BY expires_at ASC NULLS LAST, created_at ASC
		 FOR UPDATE`, userID)
	if err != nil {
		return nil, fmt.Errorf("lock bonus grants: %w", err)
	}
	defer rows.Close()

	var grants []model.BonusTransaction
	for rows.Next() {
		t, err := scanBonusTx(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bonus grant: %w", err)
		}
		grants = append(grants, *t)
	}
	return grants, nil
}

func (r *pgBonusRepo) LockDueGrantsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, now time.Time) ([]model.BonusTransaction, error) {
	rows, err := tx.Query(ctx,
		`SELECT `+bonusTxColumns+` FROM user_bonus_transactions
		 WHERE user_id = $1 AND transaction_type = 'earned' AND NOT is_expired
			AND expires_at IS NOT NULL AND expires_at <= $2
		 ORDER BY expires_at ASC
		 FOR UPDATE`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("lock due bonus grants: %w", err)
	}
	defer rows.Close()

	var grants []model.BonusTransaction
	for rows.Next() {
		t, err := scanBonusTx(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due bonus grant: %w", err)
		}
		grants = append(grants, *t)
	}
	return grants, nil
}

func (r *pgBonusRepo) UpdateGrantTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, remaining decimal.Decimal, expired bool) error {
	_, err := tx.Exec(ctx,
		`UPDATE user_bonus_transactions SET remaining_amount = $2, is_expired = $3 WHERE id = $1`,
		id, remaining, expired)
	if err != nil {
		return fmt.Errorf("update bonus grant: %w", err)
	}
	return nil
}

func (r *pgBonusRepo) UsersWithDueGrants(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT user_id FROM user_bonus_transactions
		 WHERE transaction_type = 'earned' AND NOT is_expired
			AND expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return nil, fmt.Errorf("users with due grants: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// The ledger is the source of truth:
// balance = sum(earned) + sum(expired) + sum(adjustment) - sum(spent).
// "expired" rows carry a negative amount covering only the unspent
// portion of a grant, so a grant that was partly spent and then
// expired nets to zero instead of double-counting the spend.
const balanceQuery = `
	SELECT COALESCE(SUM(CASE
		WHEN transaction_type = 'spent' THEN -amount
		ELSE amount END), 0)
	FROM user_bonus_transactions WHERE user_id = $1`

func (r *pgBonusRepo) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	if err := r.pool.QueryRow(ctx, balanceQuery, userID).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("ledger balance: %w", err)
	}
	return balance, nil
}

func (r *pgBonusRepo) BalanceTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	if err := tx.QueryRow(ctx, balanceQuery, userID).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("ledger balance: %w", err)
	}
	return balance, nil
}
