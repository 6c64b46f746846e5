package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/pushsync/internal/db"
	"github.com/example/pushsync/internal/models"
)

// userService implements the UserService interface.
type userService struct {
	userRepo db.UserRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(userRepo db.UserRepository, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// FetchOrCreateProfile looks up the user record and creates it lazily.
// A record created concurrently by another request is treated as existing.
func (s *userService) FetchOrCreateProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	now := s.now().UTC()

	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		user = &models.User{
			ID:            userID,
			Settings:      models.DefaultUserSettings(),
			Notifications: models.NotificationSettings{FCMTokens: []string{}},
			LastLoginAt:   now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		err = s.userRepo.Create(ctx, user)
		if err == nil {
			s.logger.Info("created user record", zap.String("userID", userID))
			profile := user.ToProfile()
			return &profile, nil
		}
		if !errors.Is(err, db.ErrAlreadyExists) {
			return nil, fmt.Errorf("creating user %s: %w", userID, err)
		}
		// Lost the creation race; continue with the record that won.
		user, err = s.userRepo.GetByID(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user %s: %w", userID, err)
	}

	if err := s.userRepo.TouchLogin(ctx, userID, now); err != nil {
		return nil, fmt.Errorf("updating last login for user %s: %w", userID, err)
	}
	user.LastLoginAt = now
	user.UpdatedAt = now

	profile := user.ToProfile()
	return &profile, nil
}

// UpdateSettings applies the non-nil fields of req to the user's settings.
func (s *userService) UpdateSettings(ctx context.Context, userID string, req models.UpdateSettingsRequest) (*models.Profile, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if req.Theme != nil && !models.IsValidTheme(*req.Theme) {
		return nil, ErrInvalidTheme
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("fetching user %s: %w", userID, err)
	}

	settings := user.Settings
	if req.Theme != nil {
		settings.Theme = *req.Theme
	}
	now := s.now().UTC()
	if err := s.userRepo.UpdateSettings(ctx, userID, settings, now); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("updating settings for user %s: %w", userID, err)
	}
	user.Settings = settings
	user.UpdatedAt = now

	profile := user.ToProfile()
	return &profile, nil
}
