package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitewave/go-food-ordering-api/internal/model"
)

func TestClampBonusSpend(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		balance   string
		subtotal  string
		percent   int
		want      string
	}{
		{"zero requested", "0", "500.00", "1000.00", 10, "0"},
		{"negative requested", "-5.00", "500.00", "1000.00", 10, "0"},
		{"within all bounds", "50.00", "500.00", "1000.00", 10, "50.00"},
		{"capped by balance", "100.00", "50.00", "1000.00", 10, "50.00"},
		{"capped by percent ceiling", "200.00", "500.00", "1000.00", 10, "100.00"},
		{"ceiling truncates", "200.00", "500.00", "115.99", 10, "11.59"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampBonusSpend(d(tt.requested), d(tt.balance), d(tt.subtotal), tt.percent)
			assert.True(t, d(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestComputeOrderEarn_Percentage(t *testing.T) {
	maxBonus := d("40.00")
	pct := d("5")
	rules := []model.BonusRule{
		{ID: uuid.New(), Name: "cashback", RuleType: model.BonusRuleOrderPercentage, BonusPercentage: &pct, IsActive: true},
		{ID: uuid.New(), Name: "capped", RuleType: model.BonusRuleOrderPercentage, BonusPercentage: &pct, MaxBonusAmount: &maxBonus, IsActive: true},
	}
	order := &model.Order{Subtotal: d("1000.00")}

	earned := ComputeOrderEarn(rules, order, uuid.New(), false)
	require.Len(t, earned, 2)
	assert.True(t, d("50.00").Equal(earned[0].Amount))
	assert.True(t, d("40.00").Equal(earned[1].Amount))
}

func TestComputeOrderEarn_MinOrderGate(t *testing.T) {
	minAmount := d("500.00")
	pct := d("5")
	rules := []model.BonusRule{
		{RuleType: model.BonusRuleOrderPercentage, BonusPercentage: &pct, MinOrderAmount: &minAmount},
	}

	assert.Empty(t, ComputeOrderEarn(rules, &model.Order{Subtotal: d("499.99")}, uuid.New(), false))
	assert.Len(t, ComputeOrderEarn(rules, &model.Order{Subtotal: d("500.00")}, uuid.New(), false), 1)
}

func TestComputeOrderEarn_RestaurantScope(t *testing.T) {
	restaurantID := uuid.New()
	pct := d("5")
	rules := []model.BonusRule{
		{RuleType: model.BonusRuleOrderPercentage, BonusPercentage: &pct, ApplicableRestaurantIDs: []uuid.UUID{restaurantID}},
	}
	order := &model.Order{Subtotal: d("100.00")}

	assert.Len(t, ComputeOrderEarn(rules, order, restaurantID, false), 1)
	assert.Empty(t, ComputeOrderEarn(rules, order, uuid.New(), false))
}

func TestComputeOrderEarn_FirstOrderOnlyOnce(t *testing.T) {
	rules := []model.BonusRule{
		{RuleType: model.BonusRuleFirstOrder, BonusAmount: d("100.00")},
	}
	order := &model.Order{Subtotal: d("50.00")}

	earned := ComputeOrderEarn(rules, order, uuid.New(), true)
	require.Len(t, earned, 1)
	assert.True(t, d("100.00").Equal(earned[0].Amount))

	assert.Empty(t, ComputeOrderEarn(rules, order, uuid.New(), false))
}

func TestBonusService_SpendTx_DrawsDownSoonestExpiringFirst(t *testing.T) {
	bonusRepo := newMockBonusRepo()
	userRepo := newMockUserRepo()
	user := &model.User{}
	require.NoError(t, userRepo.Create(context.Background(), user))
	svc := NewBonusService(bonusRepo, userRepo)
	ctx := context.Background()

	laterRule := &model.BonusRule{ID: uuid.New(), Name: "later", ValidityDays: 30}
	soonRule := &model.BonusRule{ID: uuid.New(), Name: "soon", ValidityDays: 7}
	require.NoError(t, svc.Earn(ctx, user.ID, d("100.00"), laterRule, nil))
	require.NoError(t, svc.Earn(ctx, user.ID, d("60.00"), soonRule, nil))

	orderID := uuid.New()
	require.NoError(t, svc.SpendTx(ctx, &fakeTx{}, user.ID, d("80.00"), orderID, "spent on order"))

	// The week-long grant is drained before the month-long one is touched.
	var soon, later *model.BonusTransaction
	for _, entry := range bonusRepo.ledger {
		if entry.TransactionType != model.BonusEarned {
			continue
		}
		switch *entry.BonusRuleID {
		case soonRule.ID:
			soon = entry
		case laterRule.ID:
			later = entry
		}
	}
	require.NotNil(t, soon)
	require.NotNil(t, later)
	assert.True(t, soon.RemainingAmount.IsZero())
	assert.True(t, d("80.00").Equal(later.RemainingAmount))

	balance, err := svc.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, d("80.00").Equal(balance))
	assert.True(t, d("80.00").Equal(user.BonusBalance))
}

func TestBonusService_SpendTx_AdjustmentFundedBalance(t *testing.T) {
	bonusRepo := newMockBonusRepo()
	userRepo := newMockUserRepo()
	user := &model.User{}
	require.NoError(t, userRepo.Create(context.Background(), user))
	svc := NewBonusService(bonusRepo, userRepo)
	ctx := context.Background()

	require.NoError(t, svc.Earn(ctx, user.ID, d("20.00"), nil, nil))
	require.NoError(t, bonusRepo.InsertTransactionTx(ctx, &fakeTx{}, &model.BonusTransaction{
		UserID:          user.ID,
		TransactionType: model.BonusAdjustment,
		Amount:          d("30.00"),
		Description:     "support credit",
	}))

	// The full 50.00 balance is spendable even though only 20.00 of it
	// is grant-backed.
	require.NoError(t, svc.SpendTx(ctx, &fakeTx{}, user.ID, d("50.00"), uuid.New(), "spent on order"))

	balance, err := svc.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
	assert.True(t, user.BonusBalance.IsZero())
}

func TestBonusService_SpendTx_ShortfallAborts(t *testing.T) {
	bonusRepo := newMockBonusRepo()
	userRepo := newMockUserRepo()
	user := &model.User{}
	require.NoError(t, userRepo.Create(context.Background(), user))
	svc := NewBonusService(bonusRepo, userRepo)
	ctx := context.Background()

	require.NoError(t, svc.Earn(ctx, user.ID, d("20.00"), nil, nil))

	err := svc.SpendTx(ctx, &fakeTx{}, user.ID, d("50.00"), uuid.New(), "spent on order")
	assert.ErrorIs(t, err, ErrInsufficientBonus)
}

func TestBonusService_SpendTx_ZeroAmountIsNoop(t *testing.T) {
	bonusRepo := newMockBonusRepo()
	svc := NewBonusService(bonusRepo, newMockUserRepo())

	require.NoError(t, svc.SpendTx(context.Background(), &fakeTx{}, uuid.New(), decimal.Zero, uuid.New(), ""))
	assert.Empty(t, bonusRepo.ledger)
}

func TestBonusService_ExpireDue(t *testing.T) {
	bonusRepo := newMockBonusRepo()
	userRepo := newMockUserRepo()
	user := &model.User{}
	require.NoError(t, userRepo.Create(context.Background(), user))
	svc := NewBonusService(bonusRepo, userRepo)
	ctx := context.Background()

	rule := &model.BonusRule{ID: uuid.New(), Name: "short-lived", ValidityDays: 7}
	require.NoError(t, svc.Earn(ctx, user.ID, d("100.00"), rule, nil))
	require.NoError(t, svc.SpendTx(ctx, &fakeTx{}, user.ID, d("30.00"), uuid.New(), "spent on order"))

	expired, err := svc.ExpireDue(ctx, user.ID, time.Now().AddDate(0, 0, 8))
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	// Only the unspent 70.00 is written off.
	var compensation *model.BonusTransaction
	for _, entry := range bonusRepo.ledger {
		if entry.TransactionType == model.BonusExpired {
			compensation = entry
		}
	}
	require.NotNil(t, compensation)
	assert.True(t, d("-70.00").Equal(compensation.Amount))

	balance, err := svc.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
	assert.True(t, user.BonusBalance.IsZero())
}

func TestBonusService_ExpireDue_Idempotent(t *testing.T) {
	bonusRepo := newMockBonusRepo()
	userRepo := newMockUserRepo()
	user := &model.User{}
	require.NoError(t, userRepo.Create(context.Background(), user))
	svc := NewBonusService(bonusRepo, userRepo)
	ctx := context.Background()

	rule := &model.BonusRule{ID: uuid.New(), Name: "short-lived", ValidityDays: 1}
	require.NoError(t, svc.Earn(ctx, user.ID, d("50.00"), rule, nil))

	later := time.Now().AddDate(0, 0, 2)
	expired, err := svc.ExpireDue(ctx, user.ID, later)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	expired, err = svc.ExpireDue(ctx, user.ID, later)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestBonusService_ExpireAllDue_SweepsEveryHolder(t *testing.T) {
	bonusRepo := newMockBonusRepo()
	userRepo := newMockUserRepo()
	first := &model.User{}
	second := &model.User{}
	require.NoError(t, userRepo.Create(context.Background(), first))
	require.NoError(t, userRepo.Create(context.Background(), second))
	svc := NewBonusService(bonusRepo, userRepo)
	ctx := context.Background()

	rule := &model.BonusRule{ID: uuid.New(), Name: "short-lived", ValidityDays: 1}
	require.NoError(t, svc.Earn(ctx, first.ID, d("10.00"), rule, nil))
	require.NoError(t, svc.Earn(ctx, second.ID, d("20.00"), rule, nil))

	total, err := svc.ExpireAllDue(ctx, time.Now().AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.True(t, first.BonusBalance.IsZero())
	assert.True(t, second.BonusBalance.IsZero())
}

func TestBonusService_GrantRegistration(t *testing.T) {
	bonusRepo := newMockBonusRepo()
	bonusRepo.rules = []model.BonusRule{
		{ID: uuid.New(), Name: "welcome", RuleType: model.BonusRuleRegistration, BonusAmount: d("25.00"), ValidityDays: 30, IsActive: true},
		{ID: uuid.New(), Name: "cashback", RuleType: model.BonusRuleOrderPercentage, IsActive: true},
		{ID: uuid.New(), Name: "retired welcome", RuleType: model.BonusRuleRegistration, BonusAmount: d("99.00"), IsActive: false},
	}
	userRepo := newMockUserRepo()
	user := &model.User{}
	require.NoError(t, userRepo.Create(context.Background(), user))
	svc := NewBonusService(bonusRepo, userRepo)

	require.NoError(t, svc.GrantRegistration(context.Background(), user.ID))

	balance, err := svc.Balance(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, d("25.00").Equal(balance))

	require.Len(t, bonusRepo.ledger, 1)
	grant := bonusRepo.ledger[0]
	assert.Equal(t, model.BonusEarned, grant.TransactionType)
	require.NotNil(t, grant.ExpiresAt)
}
