package core

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrNoTokens        = errors.New("no notification tokens registered")
	ErrInvalidToken    = errors.New("token must be a non-empty string")
	ErrInvalidAction   = errors.New("action must be 'register' or 'unregister'")
	ErrInvalidTheme    = errors.New("theme must be 'light', 'dark' or 'system'")
	ErrInvalidUserID   = errors.New("user id is required")
	ErrInvalidOptions  = errors.New("invalid notification options")
	ErrCooldown        = errors.New("test notification sent too recently")
	ErrDispatchPayload = errors.New("malformed dispatch request")
)
