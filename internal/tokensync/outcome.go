package tokensync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/pushsync/internal/models"
)

// OutcomeKind classifies the result of a settings action for display.
type OutcomeKind string

const (
	OutcomeEnabled            OutcomeKind = "enabled"
	OutcomeDisabled           OutcomeKind = "disabled"
	OutcomeTestSent           OutcomeKind = "test_sent"
	OutcomePartialDelivery    OutcomeKind = "partial_delivery"
	OutcomePermissionBlocked  OutcomeKind = "permission_blocked"
	OutcomePermissionDenied   OutcomeKind = "permission_denied"
	OutcomeNoToken            OutcomeKind = "no_token"
	OutcomeTokenNotRegistered OutcomeKind = "token_not_registered"
	OutcomeSendFailed         OutcomeKind = "send_failed"
	OutcomeFailed             OutcomeKind = "failed"
)

// Outcome is a transient, user-facing message. It never blocks further actions.
type Outcome struct {
	Kind        OutcomeKind
	Title       string
	Description string
	// Destructive marks outcomes shown as errors.
	Destructive bool
	Result      *models.SendTestNotificationResponse
	Err         error
}

// Enable requests permission, obtains a token and registers it.
func (s *Session) Enable(ctx context.Context) Outcome {
	perm, err := s.permission.Request(ctx)
	if err != nil {
		s.logger.Error("failed to request notification permission", zap.Error(err))
		return failed("Failed to enable notifications.", err)
	}

	var token string
	if perm == PermissionGranted {
		token, err = s.tokens.Token(ctx)
		if err != nil {
			s.logger.Error("failed to get device token", zap.Error(err))
			return failed("Failed to enable notifications.", err)
		}
	}
	if token == "" {
		if perm == PermissionDenied {
			return Outcome{
				Kind:        OutcomePermissionBlocked,
				Title:       "Permission Denied",
				Description: "Notifications are blocked. Please enable them in your browser settings.",
				Destructive: true,
			}
		}
		return Outcome{
			Kind:        OutcomePermissionDenied,
			Title:       "Permission Denied",
			Description: "Could not get notification permission. Make sure VAPID key is configured.",
			Destructive: true,
		}
	}

	s.setCurrentToken(token)
	if err := s.registrar.ManageToken(ctx, token, models.TokenActionRegister); err != nil {
		s.logger.Error("failed to register device token", zap.Error(err))
		return failed("Failed to enable notifications.", err)
	}
	return Outcome{
		Kind:        OutcomeEnabled,
		Title:       "Notifications Enabled",
		Description: "You will receive push notifications.",
	}
}

// Disable unregisters this device's token.
func (s *Session) Disable(ctx context.Context) Outcome {
	token, err := s.resolveToken(ctx)
	if err != nil {
		s.logger.Error("failed to get device token", zap.Error(err))
		return failed("Failed to disable notifications.", err)
	}
	if token == "" {
		return Outcome{
			Kind:        OutcomeNoToken,
			Title:       "Error",
			Description: "Could not get device token to unregister.",
			Destructive: true,
		}
	}

	if err := s.registrar.ManageToken(ctx, token, models.TokenActionUnregister); err != nil {
		s.logger.Error("failed to unregister device token", zap.Error(err))
		return failed("Failed to disable notifications.", err)
	}
	s.setCurrentToken("")
	return Outcome{
		Kind:        OutcomeDisabled,
		Title:       "Notifications Disabled",
		Description: "You will no longer receive push notifications on this device.",
	}
}

// SendTest asks the server for a test notification and interprets the result.
func (s *Session) SendTest(ctx context.Context) Outcome {
	token, err := s.resolveToken(ctx)
	if err != nil {
		// Without a local token the send still proceeds; the server only uses it for diagnostics.
		s.logger.Warn("sending test without device token", zap.Error(err))
		token = ""
	}
	if token != "" {
		s.setCurrentToken(token)
	}

	res, err := s.registrar.SendTest(ctx, token)
	if err != nil {
		s.logger.Error("failed to send test notification", zap.Error(err))
		return failed("Failed to send test notification.", err)
	}

	switch {
	case res.Success && !res.TokenFound && token != "":
		return Outcome{
			Kind:  OutcomeTokenNotRegistered,
			Title: "Token Not Registered",
			Description: fmt.Sprintf("Your device token is not registered. Try disabling and re-enabling notifications. (%d/%d tokens succeeded)",
				res.SuccessCount, res.TotalTokens),
			Destructive: true,
			Result:      res,
		}
	case res.Success && res.FailureCount > 0:
		return Outcome{
			Kind:        OutcomePartialDelivery,
			Title:       "Test Partially Sent",
			Description: fmt.Sprintf("Notification sent to %d of %d device(s).", res.SuccessCount, res.TotalTokens),
			Result:      res,
		}
	case res.Success:
		return Outcome{
			Kind:        OutcomeTestSent,
			Title:       "Test Sent",
			Description: fmt.Sprintf("Notification sent to %d device(s). Check your device for the notification.", res.SuccessCount),
			Result:      res,
		}
	default:
		return Outcome{
			Kind:        OutcomeSendFailed,
			Title:       "Send Failed",
			Description: "All notification sends failed.",
			Destructive: true,
			Result:      res,
		}
	}
}

func failed(description string, err error) Outcome {
	return Outcome{
		Kind:        OutcomeFailed,
		Title:       "Error",
		Description: description,
		Destructive: true,
		Err:         err,
	}
}
