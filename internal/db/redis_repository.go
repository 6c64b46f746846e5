package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/pushsync/internal/models"
)

// maxTxRetries bounds optimistic retries when a watched key changes mid-transaction.
const maxTxRetries = 10

// ErrTooMuchContention is returned when a mutation keeps losing the optimistic race.
var ErrTooMuchContention = errors.New("too much contention on user document")

// redisUserRepository stores users/{userId} as JSON under "users:{userId}".
// Redis has no array-set primitive, so every mutation is a WATCH/MULTI
// read-modify-write retried on conflict.
type redisUserRepository struct {
	client redis.UniversalClient
}

// NewRedisUserRepository creates a Redis-backed UserRepository.
func NewRedisUserRepository(client redis.UniversalClient) UserRepository {
	if client == nil {
		panic("Redis client is not initialized for UserRepository")
	}
	return &redisUserRepository{client: client}
}

func userKey(userID string) string {
	return usersCollection + ":" + userID
}

// GetByID loads and decodes the stored document.
func (r *redisUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	data, err := r.client.Get(ctx, userKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with ID '%s': %w", userID, err)
	}
	var d userDocument
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", userID, err)
	}
	return d.toModel(userID)
}

// Create stores the document only if the key is absent.
func (r *redisUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Create operation")
	}
	data, err := json.Marshal(toDocument(user))
	if err != nil {
		return fmt.Errorf("failed to encode user with ID '%s': %w", user.ID, err)
	}
	ok, err := r.client.SetNX(ctx, userKey(user.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create user with ID '%s': %w", user.ID, err)
	}
	if !ok {
		return fmt.Errorf("user with ID '%s' already exists: %w", user.ID, ErrAlreadyExists)
	}
	return nil
}

// TouchLogin records a login at the given time.
func (r *redisUserRepository) TouchLogin(ctx context.Context, userID string, at time.Time) error {
	return r.mutate(ctx, userID, func(d *userDocument) {
		d.LastLoginAt = formatTime(at)
		d.UpdatedAt = formatTime(at)
	})
}

// AddToken adds token to the user's token set.
func (r *redisUserRepository) AddToken(ctx context.Context, userID, token string, at time.Time) error {
	return r.mutate(ctx, userID, func(d *userDocument) {
		d.Notifications.FCMTokens = unionTokens(d.Notifications.FCMTokens, token)
		d.UpdatedAt = formatTime(at)
	})
}

// RemoveTokens removes tokens from the user's token set.
func (r *redisUserRepository) RemoveTokens(ctx context.Context, userID string, at time.Time, tokens ...string) error {
	if len(tokens) == 0 {
		return nil
	}
	return r.mutate(ctx, userID, func(d *userDocument) {
		d.Notifications.FCMTokens = differenceTokens(d.Notifications.FCMTokens, tokens)
		d.UpdatedAt = formatTime(at)
	})
}

// UpdateSettings replaces the user's settings.
func (r *redisUserRepository) UpdateSettings(ctx context.Context, userID string, settings models.UserSettings, at time.Time) error {
	return r.mutate(ctx, userID, func(d *userDocument) {
		d.Settings = settingsDocument{Theme: settings.Theme}
		d.UpdatedAt = formatTime(at)
	})
}

func (r *redisUserRepository) mutate(ctx context.Context, userID string, fn func(d *userDocument)) error {
	key := userKey(userID)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
			}
			return err
		}
		var d userDocument
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("failed to decode user data for ID '%s': %w", userID, err)
		}
		fn(&d)
		d.Notifications.FCMTokens = dedupeTokens(d.Notifications.FCMTokens)
		if d.Notifications.FCMTokens == nil {
			d.Notifications.FCMTokens = []string{}
		}
		out, err := json.Marshal(d)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to update user with ID '%s': %w", userID, err)
	}
	return fmt.Errorf("user with ID '%s': %w", userID, ErrTooMuchContention)
}

// redisPinger checks Redis connectivity.
type redisPinger struct {
	client redis.UniversalClient
}

// NewRedisPinger returns a HealthPinger backed by Redis PING.
func NewRedisPinger(client redis.UniversalClient) HealthPinger {
	return &redisPinger{client: client}
}

// Ping sends PING to the server.
func (p *redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
