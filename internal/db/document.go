package db

import (
	"fmt"
	"time"

	"github.com/example/pushsync/internal/models"
)

const (
	usersCollection  = "users"
	healthCollection = "_health"
	healthDocument   = "ping"

	fieldTokens      = "notifications.fcmTokens"
	fieldSettings    = "settings"
	fieldLastLoginAt = "lastLoginAt"
	fieldUpdatedAt   = "updatedAt"
)

// userDocument is the persisted layout of users/{userId}.
// Timestamps are stored as RFC 3339 strings.
type userDocument struct {
	UserID        string                `json:"userId" firestore:"userId"`
	Settings      settingsDocument      `json:"settings" firestore:"settings"`
	Notifications notificationsDocument `json:"notifications" firestore:"notifications"`
	LastLoginAt   string                `json:"lastLoginAt,omitempty" firestore:"lastLoginAt,omitempty"`
	CreatedAt     string                `json:"createdAt" firestore:"createdAt"`
	UpdatedAt     string                `json:"updatedAt" firestore:"updatedAt"`
}

type settingsDocument struct {
	Theme string `json:"theme" firestore:"theme"`
}

type notificationsDocument struct {
	FCMTokens []string `json:"fcmTokens" firestore:"fcmTokens"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func toDocument(u *models.User) userDocument {
	tokens := dedupeTokens(u.Notifications.FCMTokens)
	if tokens == nil {
		tokens = []string{}
	}
	return userDocument{
		UserID:        u.ID,
		Settings:      settingsDocument{Theme: u.Settings.Theme},
		Notifications: notificationsDocument{FCMTokens: tokens},
		LastLoginAt:   formatTime(u.LastLoginAt),
		CreatedAt:     formatTime(u.CreatedAt),
		UpdatedAt:     formatTime(u.UpdatedAt),
	}
}

func (d userDocument) toModel(id string) (*models.User, error) {
	lastLogin, err := parseTime(d.LastLoginAt)
	if err != nil {
		return nil, fmt.Errorf("invalid lastLoginAt for user '%s': %w", id, err)
	}
	created, err := parseTime(d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid createdAt for user '%s': %w", id, err)
	}
	updated, err := parseTime(d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updatedAt for user '%s': %w", id, err)
	}
	settings := models.UserSettings{Theme: d.Settings.Theme}
	if settings.Theme == "" {
		settings = models.DefaultUserSettings()
	}
	tokens := dedupeTokens(d.Notifications.FCMTokens)
	if tokens == nil {
		tokens = []string{}
	}
	return &models.User{
		ID:            id,
		Settings:      settings,
		Notifications: models.NotificationSettings{FCMTokens: tokens},
		LastLoginAt:   lastLogin,
		CreatedAt:     created,
		UpdatedAt:     updated,
	}, nil
}
