package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ifuryst/amplify/internal/models"
	"github.com/ifuryst/amplify/internal/service/platform"
)

var ErrUnsupportedPlatform = errors.New("unsupported platform")

type LinkAccountRequest struct {
	Platform          string     `json:"platform" binding:"required"`
	PlatformAccountID string     `json:"platform_account_id" binding:"required"`
	Username          string     `json:"username"`
	AccessToken       string     `json:"access_token" binding:"required"`
	TokenExpiresAt    *time.Time `json:"token_expires_at"`
	BusinessAccountID string     `json:"business_account_id"`
}

// AccountService stores social account credentials obtained elsewhere.
type AccountService struct {
	db       *gorm.DB
	cipher   *TokenCipher
	registry *platform.Registry
	logger   *zap.Logger
}

func NewAccountService(db *gorm.DB, cipher *TokenCipher, registry *platform.Registry, logger *zap.Logger) *AccountService {
	return &AccountService{
		db:       db,
		cipher:   cipher,
		registry: registry,
		logger:   logger,
	}
}

// Link encrypts the token and creates or refreshes the user's account on the platform.
func (s *AccountService) Link(ctx context.Context, userID uint, req LinkAccountRequest) (*models.SocialAccount, error) {
	platformName := strings.ToLower(strings.TrimSpace(req.Platform))
	if _, err := s.registry.Get(platformName); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, req.Platform)
	}

	token, err := s.cipher.Encrypt(req.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	account := &models.SocialAccount{
		UserID:            userID,
		Platform:          platformName,
		PlatformAccountID: req.PlatformAccountID,
		Username:          req.Username,
		AccessToken:       token,
		TokenExpiresAt:    req.TokenExpiresAt,
		BusinessAccountID: req.BusinessAccountID,
	}

	err = s.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "platform"}, {Name: "platform_account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"username",
			"access_token",
			"token_expires_at",
			"business_account_id",
			"updated_at",
		}),
	}).Create(account).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save social account: %w", err)
	}

	var saved models.SocialAccount
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND platform = ? AND platform_account_id = ?", userID, platformName, req.PlatformAccountID).
		First(&saved).Error; err != nil {
		return nil, fmt.Errorf("failed to reload social account: %w", err)
	}

	s.logger.Info("Social account linked",
		zap.Uint("user_id", userID),
		zap.String("platform", platformName),
		zap.String("platform_account_id", req.PlatformAccountID))

	return &saved, nil
}
