package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/example/pushsync/internal/db"
	"github.com/example/pushsync/internal/models"
)

type fcmFailure struct {
	httpStatus int
	status     string
	errorCode  string
}

// newFakeFCM serves the FCM v1 send endpoint. Tokens listed in failures get
// the matching error response, every other token is accepted.
func newFakeFCM(t *testing.T, failures map[string]fcmFailure) *messaging.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message struct {
				Token string `json:"token"`
			} `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		f, ok := failures[req.Message.Token]
		if !ok {
			_, _ = w.Write([]byte(`{"name":"projects/test-project/messages/1"}`))
			return
		}
		w.WriteHeader(f.httpStatus)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"status":  f.status,
				"message": "rejected",
				"details": []map[string]string{{
					"@type":     "type.googleapis.com/google.firebase.fcm.v1.FcmError",
					"errorCode": f.errorCode,
				}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	ctx := context.Background()
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: "test-project"},
		option.WithEndpoint(srv.URL),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	client, err := app.Messaging(ctx)
	require.NoError(t, err)
	return client
}

func TestSendNotification_ClassifiesFCMErrors(t *testing.T) {
	ctx := context.Background()
	repo := db.NewMemoryUserRepository()
	tokens := []string{"tok-ok", "tok-unregistered", "tok-invalid", "tok-quota", "tok-unavailable"}
	seedUser(t, repo, "user-1", tokens...)

	client := newFakeFCM(t, map[string]fcmFailure{
		"tok-unregistered": {http.StatusNotFound, "NOT_FOUND", "UNREGISTERED"},
		"tok-invalid":      {http.StatusBadRequest, "INVALID_ARGUMENT", "INVALID_ARGUMENT"},
		"tok-quota":        {http.StatusTooManyRequests, "RESOURCE_EXHAUSTED", "QUOTA_EXCEEDED"},
		"tok-unavailable":  {http.StatusInternalServerError, "INTERNAL", "INTERNAL"},
	})
	svc, err := NewNotificationService(NotificationServiceConfig{
		UserRepo:    repo,
		Messenger:   client,
		Logger:      zap.NewNop(),
		LinkBaseURL: "https://app.example.com",
	})
	require.NoError(t, err)

	result, err := svc.SendNotification(ctx, "user-1", tokens, sampleOptions)
	require.NoError(t, err)
	assert.Equal(t, models.SendResult{
		Success:              true,
		TotalTokens:          5,
		SuccessCount:         1,
		FailureCount:         4,
		InvalidTokensRemoved: 2,
	}, *result)
	assert.Equal(t, []string{"tok-ok", "tok-quota", "tok-unavailable"}, storedTokens(t, repo, "user-1"))
}

func TestIsPermanentlyInvalid_PlainErrors(t *testing.T) {
	assert.False(t, IsPermanentlyInvalid(nil))
	assert.False(t, IsPermanentlyInvalid(errors.New("UNREGISTERED")))
	assert.False(t, IsPermanentlyInvalid(context.DeadlineExceeded))
}
