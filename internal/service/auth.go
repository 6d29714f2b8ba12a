package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bitewave/go-food-ordering-api/internal/dto"
	"github.com/bitewave/go-food-ordering-api/internal/model"
	"github.com/bitewave/go-food-ordering-api/internal/repository"
)

// AuthService exchanges an upstream-verified telegram identity for an
// API token, creating the account on first contact.
type AuthService struct {
	userRepo            repository.UserRepository
	bonus               *BonusService
	jwtSecret           string
	tokenTTL            time.Duration
	defaultBonusPercent int
	log                 *slog.Logger
}

func NewAuthService(userRepo repository.UserRepository, bonus *BonusService, jwtSecret string, tokenTTL time.Duration, defaultBonusPercent int, log *slog.Logger) *AuthService {
	return &AuthService{
		userRepo:            userRepo,
		bonus:               bonus,
		jwtSecret:           jwtSecret,
		tokenTTL:            tokenTTL,
		defaultBonusPercent: defaultBonusPercent,
		log:                 log,
	}
}

func (s *AuthService) TelegramAuth(ctx context.Context, req dto.TelegramAuthRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, req.TelegramID)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	if user == nil {
		user, err = s.register(ctx, req)
		if err != nil {
			return nil, err
		}
	}
	if user.IsBlocked {
		return nil, ErrUserBlocked
	}
	if !user.IsActive {
		return nil, ErrUserNotActive
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &dto.AuthResponse{Token: token, User: dto.ToUserResponse(user)}, nil
}

func (s *AuthService) User(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) register(ctx context.Context, req dto.TelegramAuthRequest) (*model.User, error) {
	user := &model.User{
		TelegramID:          req.TelegramID,
		Username:            req.Username,
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		LanguageCode:        req.LanguageCode,
		BonusPercentAllowed: s.defaultBonusPercent,
		ReferralCode:        newReferralCode(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	// The welcome grant is a perk, not part of the registration
	// contract; a failure must not block the sign-in.
	if err := s.bonus.GrantRegistration(ctx, user.ID); err != nil {
		s.log.Warn("registration bonus not granted",
			slog.String("user_id", user.ID.String()), slog.Any("error", err))
	} else if refreshed, err := s.userRepo.GetByID(ctx, user.ID); err == nil && refreshed != nil {
		user = refreshed
	}
	return user, nil
}

func (s *AuthService) generateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":         user.ID.String(),
		"telegram_id": user.TelegramID,
		"role":        "customer",
		"iat":         now.Unix(),
		"exp":         now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func newReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
}
