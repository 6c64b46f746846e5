package db

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pushsync/internal/models"
)

// runRepositoryContract exercises the set semantics every UserRepository must provide.
func runRepositoryContract(t *testing.T, repo UserRepository) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	newUser := func(t *testing.T, tokens ...string) string {
		t.Helper()
		id := "user-" + uuid.NewString()
		require.NoError(t, repo.Create(ctx, &models.User{
			ID:            id,
			Settings:      models.DefaultUserSettings(),
			Notifications: models.NotificationSettings{FCMTokens: tokens},
			CreatedAt:     now,
			UpdatedAt:     now,
		}))
		return id
	}

	t.Run("get missing", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "user-"+uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("create twice", func(t *testing.T) {
		id := newUser(t)
		err := repo.Create(ctx, &models.User{ID: id, CreatedAt: now, UpdatedAt: now})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("add token is idempotent", func(t *testing.T) {
		id := newUser(t)
		later := now.Add(time.Hour)
		require.NoError(t, repo.AddToken(ctx, id, "tok-A", later))
		require.NoError(t, repo.AddToken(ctx, id, "tok-A", later))

		u, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"tok-A"}, u.Notifications.FCMTokens)
		assert.True(t, later.Equal(u.UpdatedAt))
	})

	t.Run("remove absent token", func(t *testing.T) {
		id := newUser(t, "tok-A")
		require.NoError(t, repo.RemoveTokens(ctx, id, now, "tok-B"))

		u, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"tok-A"}, u.Notifications.FCMTokens)
	})

	t.Run("remove several", func(t *testing.T) {
		id := newUser(t, "tok-A", "tok-B", "tok-C")
		require.NoError(t, repo.RemoveTokens(ctx, id, now, "tok-A", "tok-C"))

		u, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"tok-B"}, u.Notifications.FCMTokens)
	})

	t.Run("mutations on missing user", func(t *testing.T) {
		missing := "user-" + uuid.NewString()
		assert.ErrorIs(t, repo.AddToken(ctx, missing, "tok", now), ErrNotFound)
		assert.ErrorIs(t, repo.RemoveTokens(ctx, missing, now, "tok"), ErrNotFound)
		assert.ErrorIs(t, repo.TouchLogin(ctx, missing, now), ErrNotFound)
	})

	t.Run("touch login and settings", func(t *testing.T) {
		id := newUser(t)
		login := now.Add(2 * time.Hour)
		require.NoError(t, repo.TouchLogin(ctx, id, login))
		require.NoError(t, repo.UpdateSettings(ctx, id, models.UserSettings{Theme: models.ThemeLight}, login))

		u, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, login.Equal(u.LastLoginAt))
		assert.True(t, now.Equal(u.CreatedAt))
		assert.Equal(t, models.ThemeLight, u.Settings.Theme)
	})

	t.Run("concurrent adds are not lost", func(t *testing.T) {
		id := newUser(t)
		tokens := []string{"t1", "t2", "t3", "t4", "t5", "t6"}
		var wg sync.WaitGroup
		for _, tok := range tokens {
			tok := tok
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, repo.AddToken(ctx, id, tok, now))
			}()
		}
		wg.Wait()

		u, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.ElementsMatch(t, tokens, u.Notifications.FCMTokens)
	})
}

func TestMemoryUserRepository(t *testing.T) {
	runRepositoryContract(t, NewMemoryUserRepository())
}

func TestMemoryUserRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	require.NoError(t, repo.Create(ctx, &models.User{ID: "u", Notifications: models.NotificationSettings{FCMTokens: []string{"a"}}}))

	u, err := repo.GetByID(ctx, "u")
	require.NoError(t, err)
	u.Notifications.FCMTokens[0] = "mutated"

	again, err := repo.GetByID(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again.Notifications.FCMTokens)
	assert.NoError(t, repo.Ping(ctx))
}

// TestRedisUserRepository runs against a live server when REDIS_TEST_ADDRESS is set.
func TestRedisUserRepository(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDRESS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, NewRedisPinger(client).Ping(context.Background()))

	runRepositoryContract(t, NewRedisUserRepository(client))
}
