package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/pushsync/internal/models"
)

// MemoryUserRepository is an in-process UserRepository used for local
// development (STORAGE_DRIVER=memory) and tests. All mutations run under a
// single lock, so set operations are atomic per call.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*models.User
}

// NewMemoryUserRepository creates an empty in-memory repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*models.User)}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Notifications.FCMTokens = append([]string{}, u.Notifications.FCMTokens...)
	return &c
}

// GetByID returns a copy of the stored user.
func (r *MemoryUserRepository) GetByID(_ context.Context, userID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
	}
	return cloneUser(u), nil
}

// Create stores a new user.
func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return fmt.Errorf("user with ID '%s' already exists: %w", user.ID, ErrAlreadyExists)
	}
	stored := cloneUser(user)
	stored.Notifications.FCMTokens = dedupeTokens(stored.Notifications.FCMTokens)
	r.users[user.ID] = stored
	return nil
}

// TouchLogin records a login at the given time.
func (r *MemoryUserRepository) TouchLogin(_ context.Context, userID string, at time.Time) error {
	return r.mutate(userID, func(u *models.User) {
		u.LastLoginAt = at
		u.UpdatedAt = at
	})
}

// AddToken adds token to the user's token set.
func (r *MemoryUserRepository) AddToken(_ context.Context, userID, token string, at time.Time) error {
	return r.mutate(userID, func(u *models.User) {
		u.Notifications.FCMTokens = unionTokens(u.Notifications.FCMTokens, token)
		u.UpdatedAt = at
	})
}

// RemoveTokens removes tokens from the user's token set.
func (r *MemoryUserRepository) RemoveTokens(_ context.Context, userID string, at time.Time, tokens ...string) error {
	if len(tokens) == 0 {
		return nil
	}
	return r.mutate(userID, func(u *models.User) {
		u.Notifications.FCMTokens = differenceTokens(u.Notifications.FCMTokens, tokens)
		u.UpdatedAt = at
	})
}

// UpdateSettings replaces the user's settings.
func (r *MemoryUserRepository) UpdateSettings(_ context.Context, userID string, settings models.UserSettings, at time.Time) error {
	return r.mutate(userID, func(u *models.User) {
		u.Settings = settings
		u.UpdatedAt = at
	})
}

// Ping always succeeds.
func (r *MemoryUserRepository) Ping(context.Context) error {
	return nil
}

func (r *MemoryUserRepository) mutate(userID string, fn func(u *models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
	}
	fn(u)
	return nil
}
