package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/pushsync/internal/db"
	"github.com/example/pushsync/internal/models"
)

func TestFetchOrCreateProfile_CreatesThenTouches(t *testing.T) {
	ctx := context.Background()
	repo := db.NewMemoryUserRepository()
	svc := NewUserService(repo, zap.NewNop()).(*userService)

	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = fixedClock(first)

	profile, err := svc.FetchOrCreateProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", profile.UserID)
	assert.Equal(t, models.ThemeSystem, profile.Settings.Theme)
	assert.False(t, profile.Notifications.Enabled)
	assert.Equal(t, 0, profile.Notifications.TokenCount)
	assert.True(t, first.Equal(profile.LastLoginAt))

	stored, err := repo.GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, first.Equal(stored.CreatedAt))

	second := first.Add(time.Hour)
	svc.now = fixedClock(second)

	again, err := svc.FetchOrCreateProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", again.UserID)
	assert.Equal(t, models.ThemeSystem, again.Settings.Theme)
	assert.True(t, second.Equal(again.LastLoginAt))

	stored, err = repo.GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, first.Equal(stored.CreatedAt))
	assert.True(t, second.Equal(stored.LastLoginAt))
	assert.True(t, second.Equal(stored.UpdatedAt))
}

func TestFetchOrCreateProfile_ReportsTokenCount(t *testing.T) {
	ctx := context.Background()
	repo := db.NewMemoryUserRepository()
	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, &models.User{
		ID:            "user-1",
		Settings:      models.UserSettings{Theme: models.ThemeDark},
		Notifications: models.NotificationSettings{FCMTokens: []string{"a", "b"}},
		CreatedAt:     now,
		UpdatedAt:     now,
	}))

	profile, err := NewUserService(repo, zap.NewNop()).FetchOrCreateProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, profile.Notifications.Enabled)
	assert.Equal(t, 2, profile.Notifications.TokenCount)
	assert.Equal(t, models.ThemeDark, profile.Settings.Theme)
}

func TestFetchOrCreateProfile_RequiresUserID(t *testing.T) {
	_, err := NewUserService(db.NewMemoryUserRepository(), zap.NewNop()).FetchOrCreateProfile(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidUserID)
}

func TestUpdateSettings(t *testing.T) {
	ctx := context.Background()
	repo := db.NewMemoryUserRepository()
	svc := NewUserService(repo, zap.NewNop())

	dark := models.ThemeDark
	_, err := svc.UpdateSettings(ctx, "missing", models.UpdateSettingsRequest{Theme: &dark})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.FetchOrCreateProfile(ctx, "user-1")
	require.NoError(t, err)

	bogus := "sepia"
	_, err = svc.UpdateSettings(ctx, "user-1", models.UpdateSettingsRequest{Theme: &bogus})
	assert.ErrorIs(t, err, ErrInvalidTheme)

	profile, err := svc.UpdateSettings(ctx, "user-1", models.UpdateSettingsRequest{Theme: &dark})
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, profile.Settings.Theme)

	stored, err := repo.GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, stored.Settings.Theme)

	profile, err = svc.UpdateSettings(ctx, "user-1", models.UpdateSettingsRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, profile.Settings.Theme)
}
