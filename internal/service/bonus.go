package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bitewave/go-food-ordering-api/internal/model"
	"github.com/bitewave/go-food-ordering-api/internal/money"
	"github.com/bitewave/go-food-ordering-api/internal/repository"
)

type BonusService struct {
	bonusRepo repository.BonusRepository
	userRepo  repository.UserRepository
}

func NewBonusService(bonusRepo repository.BonusRepository, userRepo repository.UserRepository) *BonusService {
	return &BonusService{bonusRepo: bonusRepo, userRepo: userRepo}
}

func (s *BonusService) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return s.bonusRepo.Balance(ctx, userID)
}

// BalanceTx reads the ledger balance inside the caller's transaction,
// after the user row lock has serialized concurrent spenders.
func (s *BonusService) BalanceTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (decimal.Decimal, error) {
	return s.bonusRepo.BalanceTx(ctx, tx, userID)
}

func (s *BonusService) Transactions(ctx context.Context, userID uuid.UUID, limit int) ([]model.BonusTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.bonusRepo.ListByUser(ctx, userID, limit)
}

func (s *BonusService) Rules(ctx context.Context) ([]model.BonusRule, error) {
	return s.bonusRepo.ListActiveRules(ctx)
}

// ClampBonusSpend bounds a requested bonus spend by the user's ledger
// balance and by the per-order ceiling (a percentage of the subtotal).
// Pure function.
func ClampBonusSpend(requested, balance, subtotal decimal.Decimal, percentAllowed int) decimal.Decimal {
	if requested.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	ceiling := money.Percent(subtotal, decimal.NewFromInt(int64(percentAllowed)))
	return money.Trunc(money.Min(money.Min(requested, balance), ceiling))
}

// SpendTx records a bonus spend inside the caller's transaction,
// drawing earned grants down soonest-expiring first. The balance can
// exceed the grant-backed amount when adjustment rows funded part of
// it; a remainder after the grants are drained is absorbed by that
// part and leaves no grant to draw down. Requesting more than the
// replayed balance means the balance moved since the caller clamped
// and the transaction must abort.
func (s *BonusService) SpendTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, orderID uuid.UUID, description string) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	balance, err := s.bonusRepo.BalanceTx(ctx, tx, userID)
	if err != nil {
		return fmt.Errorf("spend bonus: %w", err)
	}
	if amount.GreaterThan(balance) {
		return ErrInsufficientBonus
	}

	grants, err := s.bonusRepo.LockGrantsTx(ctx, tx, userID)
	if err != nil {
		return fmt.Errorf("spend bonus: %w", err)
	}

	remaining := amount
	for _, grant := range grants {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		draw := money.Min(grant.RemainingAmount, remaining)
		if err := s.bonusRepo.UpdateGrantTx(ctx, tx, grant.ID, grant.RemainingAmount.Sub(draw), false); err != nil {
			return fmt.Errorf("spend bonus: %w", err)
		}
		remaining = remaining.Sub(draw)
	}

	spent := &model.BonusTransaction{
		UserID:          userID,
		TransactionType: model.BonusSpent,
		Amount:          amount,
		Description:     description,
		OrderID:         &orderID,
	}
	if err := s.bonusRepo.InsertTransactionTx(ctx, tx, spent); err != nil {
		return fmt.Errorf("spend bonus: %w", err)
	}
	return s.syncBalanceTx(ctx, tx, userID)
}

// EarnTx appends an earned grant inside the caller's transaction.
func (s *BonusService) EarnTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, rule *model.BonusRule, orderID *uuid.UUID, now time.Time) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	grant := &model.BonusTransaction{
		UserID:          userID,
		TransactionType: model.BonusEarned,
		Amount:          amount,
		RemainingAmount: amount,
		OrderID:         orderID,
	}
	if rule != nil {
		grant.BonusRuleID = &rule.ID
		grant.Description = rule.Name
		if rule.ValidityDays > 0 {
			expiresAt := now.AddDate(0, 0, rule.ValidityDays)
			grant.ExpiresAt = &expiresAt
		}
	}
	if err := s.bonusRepo.InsertTransactionTx(ctx, tx, grant); err != nil {
		return fmt.Errorf("earn bonus: %w", err)
	}
	return s.syncBalanceTx(ctx, tx, userID)
}

// Earn records a grant in its own transaction.
func (s *BonusService) Earn(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, rule *model.BonusRule, orderID *uuid.UUID) error {
	tx, err := s.bonusRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("earn bonus: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.EarnTx(ctx, tx, userID, amount, rule, orderID, time.Now()); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GrantRegistration gives a new user the sign-up grant, when an active
// registration rule exists.
func (s *BonusService) GrantRegistration(ctx context.Context, userID uuid.UUID) error {
	rules, err := s.bonusRepo.ListActiveRules(ctx)
	if err != nil {
		return fmt.Errorf("registration bonus: %w", err)
	}
	for i := range rules {
		if rules[i].RuleType != model.BonusRuleRegistration {
			continue
		}
		if err := s.Earn(ctx, userID, money.Trunc(rules[i].BonusAmount), &rules[i], nil); err != nil {
			return fmt.Errorf("registration bonus: %w", err)
		}
	}
	return nil
}

// EarnedBonus pairs a matched rule with the amount it grants.
type EarnedBonus struct {
	Rule   model.BonusRule
	Amount decimal.Decimal
}

// ComputeOrderEarn evaluates order-driven rules against a placed order.
// Percentage rules accrue on the subtotal, capped by the rule's
// maximum; a first-order rule grants its flat amount once. Pure
// function.
func ComputeOrderEarn(rules []model.BonusRule, order *model.Order, restaurantID uuid.UUID, firstOrder bool) []EarnedBonus {
	var earned []EarnedBonus
	for _, rule := range rules {
		if !rule.AppliesToRestaurant(restaurantID) {
			continue
		}
		if rule.MinOrderAmount != nil && order.Subtotal.LessThan(*rule.MinOrderAmount) {
			continue
		}
		switch rule.RuleType {
		case model.BonusRuleOrderPercentage:
			if rule.BonusPercentage == nil {
				continue
			}
			amount := money.Percent(order.Subtotal, *rule.BonusPercentage)
			if rule.MaxBonusAmount != nil {
				amount = money.Min(amount, money.Trunc(*rule.MaxBonusAmount))
			}
			if amount.GreaterThan(decimal.Zero) {
				earned = append(earned, EarnedBonus{Rule: rule, Amount: amount})
			}
		case model.BonusRuleFirstOrder:
			if firstOrder && rule.BonusAmount.GreaterThan(decimal.Zero) {
				earned = append(earned, EarnedBonus{Rule: rule, Amount: money.Trunc(rule.BonusAmount)})
			}
		}
	}
	return earned
}

// ExpireDue writes off the user's overdue grants: each live grant past
// its expiry gets a negative compensating row for its unspent portion
// and is marked expired. Safe to re-run; already-expired grants are
// not picked up again.
func (s *BonusService) ExpireDue(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	tx, err := s.bonusRepo.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("expire bonus: %w", err)
	}
	defer tx.Rollback(ctx)

	grants, err := s.bonusRepo.LockDueGrantsTx(ctx, tx, userID, now)
	if err != nil {
		return 0, fmt.Errorf("expire bonus: %w", err)
	}
	for _, grant := range grants {
		if grant.RemainingAmount.GreaterThan(decimal.Zero) {
			compensation := &model.BonusTransaction{
				UserID:          userID,
				TransactionType: model.BonusExpired,
				Amount:          grant.RemainingAmount.Neg(),
				Description:     "bonus expired",
				BonusRuleID:     grant.BonusRuleID,
			}
			if err := s.bonusRepo.InsertTransactionTx(ctx, tx, compensation); err != nil {
				return 0, fmt.Errorf("expire bonus: %w", err)
			}
		}
		if err := s.bonusRepo.UpdateGrantTx(ctx, tx, grant.ID, grant.RemainingAmount, true); err != nil {
			return 0, fmt.Errorf("expire bonus: %w", err)
		}
	}
	if len(grants) > 0 {
		if err := s.syncBalanceTx(ctx, tx, userID); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("expire bonus: %w", err)
	}
	return len(grants), nil
}

// ExpireAllDue sweeps every user holding an overdue grant, one user
// per transaction so a single failure does not roll back the sweep.
func (s *BonusService) ExpireAllDue(ctx context.Context, now time.Time) (int, error) {
	userIDs, err := s.bonusRepo.UsersWithDueGrants(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("expire bonus sweep: %w", err)
	}
	total := 0
	for _, userID := range userIDs {
		n, err := s.ExpireDue(ctx, userID, now)
		if err != nil {
			return total, fmt.Errorf("expire bonus sweep: user %s: %w", userID, err)
		}
		total += n
	}
	return total, nil
}

// The users.bonus_balance column is a cached projection of the ledger,
// refreshed inside every transaction that touches it.
func (s *BonusService) syncBalanceTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	balance, err := s.bonusRepo.BalanceTx(ctx, tx, userID)
	if err != nil {
		return fmt.Errorf("sync bonus balance: %w", err)
	}
	if err := s.userRepo.UpdateBonusBalance(ctx, tx, userID, balance); err != nil {
		return fmt.Errorf("sync bonus balance: %w", err)
	}
	return nil
}
