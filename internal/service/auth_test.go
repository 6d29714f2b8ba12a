package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitewave/go-food-ordering-api/internal/dto"
	"github.com/bitewave/go-food-ordering-api/internal/model"
)

func newAuthService(userRepo *mockUserRepo, bonusRepo *mockBonusRepo) *AuthService {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	bonus := NewBonusService(bonusRepo, userRepo)
	return NewAuthService(userRepo, bonus, "test-secret", time.Hour, 10, log)
}

func TestAuthService_TelegramAuth_RegistersNewUser(t *testing.T) {
	userRepo := newMockUserRepo()
	bonusRepo := newMockBonusRepo()
	bonusRepo.rules = []model.BonusRule{
		{ID: uuid.New(), Name: "welcome", RuleType: model.BonusRuleRegistration, BonusAmount: d("25.00"), IsActive: true},
	}
	svc := newAuthService(userRepo, bonusRepo)

	resp, err := svc.TelegramAuth(context.Background(), dto.TelegramAuthRequest{
		TelegramID: 42,
		Username:   "ali",
		FirstName:  "Ali",
	})
	require.NoError(t, err)
	require.Len(t, userRepo.users, 1)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, int64(42), resp.User.TelegramID)
	assert.Len(t, resp.User.ReferralCode, 8)
	assert.Equal(t, 10, resp.User.BonusPercentAllowed)
	assert.True(t, d("25.00").Equal(resp.User.BonusBalance))
}

func TestAuthService_TelegramAuth_ExistingUserKeepsAccount(t *testing.T) {
	userRepo := newMockUserRepo()
	svc := newAuthService(userRepo, newMockBonusRepo())
	ctx := context.Background()

	first, err := svc.TelegramAuth(ctx, dto.TelegramAuthRequest{TelegramID: 42})
	require.NoError(t, err)
	second, err := svc.TelegramAuth(ctx, dto.TelegramAuthRequest{TelegramID: 42})
	require.NoError(t, err)

	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Len(t, userRepo.users, 1)
}

func TestAuthService_TelegramAuth_BlockedUserRejected(t *testing.T) {
	userRepo := newMockUserRepo()
	svc := newAuthService(userRepo, newMockBonusRepo())
	ctx := context.Background()

	resp, err := svc.TelegramAuth(ctx, dto.TelegramAuthRequest{TelegramID: 42})
	require.NoError(t, err)
	userRepo.users[uuid.MustParse(resp.User.ID)].IsBlocked = true

	_, err = svc.TelegramAuth(ctx, dto.TelegramAuthRequest{TelegramID: 42})
	assert.ErrorIs(t, err, ErrUserBlocked)
}

func TestAuthService_TokenClaims(t *testing.T) {
	userRepo := newMockUserRepo()
	svc := newAuthService(userRepo, newMockBonusRepo())

	resp, err := svc.TelegramAuth(context.Background(), dto.TelegramAuthRequest{TelegramID: 42})
	require.NoError(t, err)

	parsed, err := jwt.Parse(resp.Token, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, resp.User.ID, claims["sub"])
	assert.Equal(t, "customer", claims["role"])
	assert.EqualValues(t, 42, claims["telegram_id"])
}

func TestAuthService_TelegramAuth_NoRegistrationRule(t *testing.T) {
	userRepo := newMockUserRepo()
	svc := newAuthService(userRepo, newMockBonusRepo())

	resp, err := svc.TelegramAuth(context.Background(), dto.TelegramAuthRequest{TelegramID: 42})
	require.NoError(t, err)
	assert.True(t, resp.User.BonusBalance.IsZero())
}
