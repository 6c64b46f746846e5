package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/pushsync/internal/db"
	"github.com/example/pushsync/internal/models"
)

func register(token string) models.ManageTokenRequest {
	return models.ManageTokenRequest{Token: token, Action: models.TokenAction(models.TokenActionRegister)}
}

func unregister(token string) models.ManageTokenRequest {
	return models.ManageTokenRequest{Token: token, Action: models.TokenAction(models.TokenActionUnregister)}
}

func storedTokens(t *testing.T, repo db.UserRepository, userID string) []string {
	t.Helper()
	u, err := repo.GetByID(context.Background(), userID)
	require.NoError(t, err)
	return u.Notifications.FCMTokens
}

func TestManage_RegisterTwiceKeepsOneCopy(t *testing.T) {
	ctx := context.Background()
	repo := db.NewMemoryUserRepository()
	svc := NewTokenService(repo, zap.NewNop())

	require.NoError(t, svc.Manage(ctx, "user-1", register("tok-A")))
	require.NoError(t, svc.Manage(ctx, "user-1", register("tok-A")))

	assert.Equal(t, []string{"tok-A"}, storedTokens(t, repo, "user-1"))
}

func TestManage_DefaultActionIsRegister(t *testing.T) {
	ctx := context.Background()
	repo := db.NewMemoryUserRepository()
	svc := NewTokenService(repo, zap.NewNop())

	require.NoError(t, svc.Manage(ctx, "user-1", models.ManageTokenRequest{Token: "tok-A"}))
	assert.Equal(t, []string{"tok-A"}, storedTokens(t, repo, "user-1"))
}

func TestManage_UnregisterAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	repo := db.NewMemoryUserRepository()
	svc := NewTokenService(repo, zap.NewNop())

	require.NoError(t, svc.Manage(ctx, "user-1", register("tok-A")))
	require.NoError(t, svc.Manage(ctx, "user-1", unregister("tok-B")))

	assert.Equal(t, []string{"tok-A"}, storedTokens(t, repo, "user-1"))
}

func TestManage_UnregisterOnMissingUserCreatesEmptySet(t *testing.T) {
	ctx := context.Background()
	repo := db.NewMemoryUserRepository()
	svc := NewTokenService(repo, zap.NewNop())

	require.NoError(t, svc.Manage(ctx, "user-1", unregister("tok-A")))

	u, err := repo.GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, u.Notifications.FCMTokens)
	assert.Equal(t, models.ThemeSystem, u.Settings.Theme)
}

func TestManage_RegisterThenUnregister(t *testing.T) {
	ctx := context.Background()
	repo := db.NewMemoryUserRepository()
	svc := NewTokenService(repo, zap.NewNop())

	require.NoError(t, svc.Manage(ctx, "user-1", register("tok-A")))
	require.NoError(t, svc.Manage(ctx, "user-1", unregister("tok-A")))

	assert.NotContains(t, storedTokens(t, repo, "user-1"), "tok-A")
}

func TestManage_DisjointTokensCommuteUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	repo := db.NewMemoryUserRepository()
	svc := NewTokenService(repo, zap.NewNop())
	require.NoError(t, svc.Manage(ctx, "user-1", register("seed")))

	var wg sync.WaitGroup
	for _, ops := range [][2]models.ManageTokenRequest{
		{register("tok-A"), unregister("tok-B")},
		{register("tok-B"), unregister("tok-A")},
	} {
		ops := ops
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, op := range ops {
				assert.NoError(t, svc.Manage(ctx, "user-1", op))
			}
		}()
	}
	wg.Wait()

	tokens := storedTokens(t, repo, "user-1")
	assert.Contains(t, tokens, "seed")
	seen := map[string]int{}
	for _, tok := range tokens {
		seen[tok]++
	}
	for tok, n := range seen {
		assert.Equal(t, 1, n, "token %s duplicated", tok)
	}
}

func TestManage_RejectsInvalidInput(t *testing.T) {
	svc := NewTokenService(db.NewMemoryUserRepository(), zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.ManageTokenRequest
		want error
	}{
		{"missing token", models.ManageTokenRequest{}, ErrInvalidToken},
		{"empty token", models.ManageTokenRequest{Token: ""}, ErrInvalidToken},
		{"numeric token", models.ManageTokenRequest{Token: 42.0}, ErrInvalidToken},
		{"unknown action", models.ManageTokenRequest{Token: "tok", Action: models.TokenAction("delete")}, ErrInvalidAction},
		{"explicit empty action", models.ManageTokenRequest{Token: "tok", Action: models.TokenAction("")}, ErrInvalidAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, svc.Manage(ctx, "user-1", tt.req), tt.want)
		})
	}
}

func TestTruncateToken(t *testing.T) {
	assert.Equal(t, "short", truncateToken("short"))
	assert.Equal(t, "abcdefghijklmnopqrst...", truncateToken("abcdefghijklmnopqrstuvwxyz"))
}
