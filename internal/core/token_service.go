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

// tokenService implements the TokenService interface.
type tokenService struct {
	userRepo db.UserRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewTokenService creates a new TokenService.
func NewTokenService(userRepo db.UserRepository, logger *zap.Logger) TokenService {
	return &tokenService{
		userRepo: userRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// parseTokenRequest validates the raw callable payload.
// An absent action means register; an explicit empty one is rejected.
func parseTokenRequest(req models.ManageTokenRequest) (token, action string, err error) {
	token, ok := req.Token.(string)
	if !ok || token == "" {
		return "", "", ErrInvalidToken
	}
	action = models.TokenActionRegister
	if req.Action != nil {
		action = *req.Action
	}
	if action != models.TokenActionRegister && action != models.TokenActionUnregister {
		return "", "", ErrInvalidAction
	}
	return token, action, nil
}

// Manage registers or unregisters a token. When the user record does not exist
// yet it is created with the token set seeded by this operation.
func (s *tokenService) Manage(ctx context.Context, userID string, req models.ManageTokenRequest) error {
	if userID == "" {
		return ErrInvalidUserID
	}
	token, action, err := parseTokenRequest(req)
	if err != nil {
		return err
	}
	now := s.now().UTC()

	_, err = s.userRepo.GetByID(ctx, userID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		created, err := s.createSeeded(ctx, userID, token, action, now)
		if err != nil {
			return err
		}
		if created {
			s.logger.Info("push token stored on new user record",
				zap.String("userID", userID), zap.String("action", action), zap.String("token", truncateToken(token)))
			return nil
		}
	case err != nil:
		return fmt.Errorf("fetching user %s: %w", userID, err)
	}

	if action == models.TokenActionRegister {
		err = s.userRepo.AddToken(ctx, userID, token, now)
	} else {
		err = s.userRepo.RemoveTokens(ctx, userID, now, token)
	}
	if err != nil {
		return fmt.Errorf("%s token for user %s: %w", action, userID, err)
	}

	s.logger.Info("push token updated",
		zap.String("userID", userID), zap.String("action", action), zap.String("token", truncateToken(token)))
	return nil
}

// createSeeded creates the user record with the token set implied by action.
// It reports false when another request created the record first.
func (s *tokenService) createSeeded(ctx context.Context, userID, token, action string, now time.Time) (bool, error) {
	tokens := []string{}
	if action == models.TokenActionRegister {
		tokens = []string{token}
	}
	user := &models.User{
		ID:            userID,
		Settings:      models.DefaultUserSettings(),
		Notifications: models.NotificationSettings{FCMTokens: tokens},
		LastLoginAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := s.userRepo.Create(ctx, user)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, db.ErrAlreadyExists) {
		return false, nil
	}
	return false, fmt.Errorf("creating user %s: %w", userID, err)
}

// truncateToken shortens a token for logging.
func truncateToken(token string) string {
	if len(token) > 20 {
		return token[:20] + "..."
	}
	return token
}
