// Package tokensync keeps the server's record of this device's push token in
// step with the token the platform SDK currently issues.
package tokensync

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/example/pushsync/internal/models"
)

// Permission is the platform notification permission state.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// PermissionSource reads and requests the notification permission.
type PermissionSource interface {
	Permission() Permission
	// Request prompts the user when the permission is still undecided.
	Request(ctx context.Context) (Permission, error)
}

// TokenProvider obtains the device's current push token from the platform SDK.
// An empty token with a nil error means no token is available, e.g. no active
// service worker registration or no delivery key.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Registrar is the client side of the registration callables.
type Registrar interface {
	ManageToken(ctx context.Context, token, action string) error
	SendTest(ctx context.Context, currentToken string) (*models.SendTestNotificationResponse, error)
}

// Action is the outcome of a sync.
type Action string

const (
	ActionNone       Action = "none"
	ActionRegistered Action = "registered"
	ActionError      Action = "error"
)

// Result describes a single Sync run.
type Result struct {
	Action  Action
	Token   string
	Message string
	Err     error
}

// Success reports whether the sync completed without error.
func (r Result) Success() bool {
	return r.Action != ActionError
}

// Session holds the per-signed-in-user sync state. Create one per session and
// pass it to the code that needs it; it is safe for concurrent use.
type Session struct {
	permission PermissionSource
	tokens     TokenProvider
	registrar  Registrar
	logger     *zap.Logger

	mu           sync.Mutex
	currentToken string
}

// NewSession creates a Session.
func NewSession(permission PermissionSource, tokens TokenProvider, registrar Registrar, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		permission: permission,
		tokens:     tokens,
		registrar:  registrar,
		logger:     logger,
	}
}

// CurrentToken returns the last token this session saw, or "".
func (s *Session) CurrentToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentToken
}

func (s *Session) setCurrentToken(token string) {
	s.mu.Lock()
	s.currentToken = token
	s.mu.Unlock()
}

// Sync registers the device's current token with the server. Without granted
// permission it returns ActionNone and makes no calls.
func (s *Session) Sync(ctx context.Context) Result {
	if s.permission.Permission() != PermissionGranted {
		s.logger.Debug("notifications not granted, skipping token sync")
		return Result{Action: ActionNone, Message: "Notifications not granted"}
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		s.logger.Warn("token sync failed to obtain token", zap.Error(err))
		return Result{Action: ActionError, Message: err.Error(), Err: err}
	}
	if token == "" {
		return Result{Action: ActionNone, Message: "No token available"}
	}

	if err := s.registrar.ManageToken(ctx, token, models.TokenActionRegister); err != nil {
		s.logger.Warn("token sync failed to register token", zap.Error(err))
		return Result{Action: ActionError, Message: err.Error(), Err: err}
	}

	s.setCurrentToken(token)
	s.logger.Debug("token synced with server", zap.String("token", truncate(token)))
	return Result{Action: ActionRegistered, Token: token, Message: "Token synced with server"}
}

// resolveToken returns the cached token, fetching it when none is cached.
func (s *Session) resolveToken(ctx context.Context) (string, error) {
	if token := s.CurrentToken(); token != "" {
		return token, nil
	}
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("getting device token: %w", err)
	}
	return token, nil
}

func truncate(token string) string {
	if len(token) > 20 {
		return token[:20] + "..."
	}
	return token
}
