package models

import "time"

// Theme values accepted for UserSettings.Theme.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// UserSettings holds per-user preferences.
type UserSettings struct {
	Theme string `json:"theme"`
}

// NotificationSettings holds the push tokens believed live for a user.
// FCMTokens behaves as a set: it never contains duplicates.
type NotificationSettings struct {
	FCMTokens []string `json:"fcmTokens"`
}

// User represents a user record. The ID comes from Firebase Auth and is the document ID.
type User struct {
	ID            string               `json:"userId"`
	Settings      UserSettings         `json:"settings"`
	Notifications NotificationSettings `json:"notifications"`
	LastLoginAt   time.Time            `json:"lastLoginAt"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// DefaultUserSettings returns the settings given to new users.
func DefaultUserSettings() UserSettings {
	return UserSettings{Theme: ThemeSystem}
}

// IsValidTheme reports whether theme is one of the supported values.
func IsValidTheme(theme string) bool {
	switch theme {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// HasToken reports whether token is registered for the user.
func (u *User) HasToken(token string) bool {
	for _, t := range u.Notifications.FCMTokens {
		if t == token {
			return true
		}
	}
	return false
}

// NotificationStatus is the client-safe view of NotificationSettings.
type NotificationStatus struct {
	Enabled    bool `json:"enabled"`
	TokenCount int  `json:"tokenCount"`
}

// Profile is the redacted projection of a User returned to clients.
// The raw token list is never included.
type Profile struct {
	UserID        string             `json:"userId"`
	Settings      UserSettings       `json:"settings"`
	Notifications NotificationStatus `json:"notifications"`
	LastLoginAt   time.Time          `json:"lastLoginAt"`
}

// ToProfile builds the client-safe profile for u.
func (u *User) ToProfile() Profile {
	count := len(u.Notifications.FCMTokens)
	return Profile{
		UserID:   u.ID,
		Settings: u.Settings,
		Notifications: NotificationStatus{
			Enabled:    count > 0,
			TokenCount: count,
		},
		LastLoginAt: u.LastLoginAt,
	}
}
