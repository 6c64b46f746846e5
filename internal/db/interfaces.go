package db

import (
	"context"
	"errors"
	"time"

	"github.com/example/pushsync/internal/models"
)

var (
	// ErrNotFound is returned when a user document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned by Create when the document is already present.
	ErrAlreadyExists = errors.New("document already exists")
)

// UserRepository defines the storage operations on the users collection.
//
// Token mutations are set operations: AddToken never introduces a duplicate
// and RemoveTokens silently ignores tokens that are not present. Each call
// refreshes updatedAt.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	TouchLogin(ctx context.Context, userID string, at time.Time) error
	AddToken(ctx context.Context, userID, token string, at time.Time) error
	RemoveTokens(ctx context.Context, userID string, at time.Time, tokens ...string) error
	UpdateSettings(ctx context.Context, userID string, settings models.UserSettings, at time.Time) error
}

// HealthPinger performs a cheap read against the backing store.
type HealthPinger interface {
	Ping(ctx context.Context) error
}
