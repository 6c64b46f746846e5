package core

import (
	"context"

	"firebase.google.com/go/v4/messaging"

	"github.com/example/pushsync/internal/models"
)

// UserService defines the profile operations exposed to authenticated callers.
type UserService interface {
	// FetchOrCreateProfile returns the caller's profile, creating the user record
	// with default settings on first use and refreshing lastLoginAt otherwise.
	FetchOrCreateProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateSettings(ctx context.Context, userID string, req models.UpdateSettingsRequest) (*models.Profile, error)
}

// TokenService defines push token registration.
type TokenService interface {
	// Manage registers or unregisters a push token. Both actions are idempotent.
	Manage(ctx context.Context, userID string, req models.ManageTokenRequest) error
}

// NotificationService defines push delivery.
type NotificationService interface {
	// SendNotification multicasts to tokens and prunes tokens reported as permanently invalid.
	SendNotification(ctx context.Context, userID string, tokens []string, opts models.SendOptions) (*models.SendResult, error)
	// SendToUser looks up the user's tokens before sending.
	SendToUser(ctx context.Context, userID string, opts models.SendOptions) (*models.SendToUserResult, error)
	// SendTest sends the fixed test notification to all of the user's devices.
	SendTest(ctx context.Context, userID, currentToken string) (*models.SendTestNotificationResponse, error)
}

// HealthService pings the backing store.
type HealthService interface {
	Check(ctx context.Context) models.HealthReport
}

// DispatchService moves notification requests through a message queue.
type DispatchService interface {
	// Enqueue publishes req and returns the notification ID assigned to it.
	Enqueue(ctx context.Context, req models.DispatchRequest) (string, error)
	// Run consumes requests until ctx is done.
	Run(ctx context.Context) error
}

// Messenger is the subset of the FCM client used for delivery.
// *messaging.Client satisfies it.
type Messenger interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// InvalidTokenClassifier reports whether a per-token delivery error means the
// token will never accept delivery again.
type InvalidTokenClassifier func(err error) bool
