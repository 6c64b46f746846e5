package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"

	"github.com/example/pushsync/internal/db"
	"github.com/example/pushsync/internal/models"
	"github.com/example/pushsync/pkg/cache"
)

// Defaults applied to SendOptions fields left empty.
const (
	DefaultDeepLink         = "/"
	DefaultType             = "notification"
	DefaultIcon             = "/logo-192.png"
	DefaultBadge            = "/logo-192.png"
	DefaultAndroidChannelID = "default"

	androidIcon        = "ic_notification"
	androidClickAction = "OPEN_APP"
	apnsSound          = "default"

	// MaxPayloadBytes is the FCM limit for notification plus data content.
	MaxPayloadBytes = 4096
)

// reservedDataKeys are data keys FCM rejects with INVALID_ARGUMENT.
var reservedDataKeys = map[string]bool{
	"from":         true,
	"notification": true,
	"message_type": true,
	"collapse_key": true,
}

var reservedDataPrefixes = []string{"google", "gcm"}

// testNotification is the content sent by SendTest.
var testNotification = models.SendOptions{
	Title:              "🔔 Test Notification",
	Body:               "Your notifications are working correctly!",
	Type:               "test",
	DeepLink:           "/",
	RequireInteraction: true,
	Priority:           models.PriorityHigh,
}

// IsPermanentlyInvalid reports whether FCM rejected a token because the
// registration is unknown or malformed. Any other error is treated as transient.
func IsPermanentlyInvalid(err error) bool {
	return messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err)
}

// NotificationServiceConfig contains the dependencies of NotificationService.
type NotificationServiceConfig struct {
	UserRepo  db.UserRepository
	Messenger Messenger
	Logger    *zap.Logger
	// LinkBaseURL resolves relative deep links for the web push click link.
	// FCM only accepts absolute HTTPS links there.
	LinkBaseURL string
	// IsInvalidToken defaults to IsPermanentlyInvalid.
	IsInvalidToken InvalidTokenClassifier
	// Cache and TestCooldown rate-limit SendTest per user. Both are optional.
	Cache        cache.Cache
	TestCooldown time.Duration
}

// notificationService implements the NotificationService interface.
type notificationService struct {
	userRepo       db.UserRepository
	messenger      Messenger
	logger         *zap.Logger
	linkBase       *url.URL
	isInvalidToken InvalidTokenClassifier
	cache          cache.Cache
	testCooldown   time.Duration
	now            func() time.Time
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(cfg NotificationServiceConfig) (NotificationService, error) {
	if cfg.UserRepo == nil || cfg.Messenger == nil {
		return nil, errors.New("notification service requires a user repository and a messenger")
	}
	s := &notificationService{
		userRepo:       cfg.UserRepo,
		messenger:      cfg.Messenger,
		logger:         cfg.Logger,
		isInvalidToken: cfg.IsInvalidToken,
		cache:          cfg.Cache,
		testCooldown:   cfg.TestCooldown,
		now:            time.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.isInvalidToken == nil {
		s.isInvalidToken = IsPermanentlyInvalid
	}
	if cfg.LinkBaseURL != "" {
		base, err := url.Parse(cfg.LinkBaseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing link base URL: %w", err)
		}
		s.linkBase = base
	}
	return s, nil
}

// SendNotification multicasts opts to tokens and removes the tokens FCM
// reports as permanently invalid from the user's record.
func (s *notificationService) SendNotification(ctx context.Context, userID string, tokens []string, opts models.SendOptions) (*models.SendResult, error) {
	if len(tokens) == 0 {
		s.logger.Warn("no push tokens provided for notification", zap.String("userID", userID))
		return &models.SendResult{}, nil
	}
	if opts.Title == "" || opts.Body == "" {
		return nil, fmt.Errorf("%w: title and body are required", ErrInvalidOptions)
	}
	if err := validateData(opts.Data); err != nil {
		return nil, err
	}

	s.logger.Info("sending notification",
		zap.String("userID", userID),
		zap.Int("tokenCount", len(tokens)),
		zap.String("title", opts.Title),
		zap.String("type", opts.Type),
		zap.String("deepLink", opts.DeepLink),
	)

	message := s.buildMulticastMessage(tokens, opts)
	if size := payloadSize(message); size > MaxPayloadBytes {
		return nil, fmt.Errorf("%w: payload is %d bytes, limit is %d", ErrInvalidOptions, size, MaxPayloadBytes)
	}
	resp, err := s.messenger.SendEachForMulticast(ctx, message)
	if err != nil {
		s.logger.Error("failed to send notification", zap.String("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("sending multicast to user %s: %w", userID, err)
	}

	s.logger.Info("notification sent",
		zap.String("userID", userID),
		zap.Int("successCount", resp.SuccessCount),
		zap.Int("failureCount", resp.FailureCount),
	)

	var invalid []string
	for i, r := range resp.Responses {
		if i >= len(tokens) {
			break
		}
		if r == nil || r.Success {
			if r != nil {
				s.logger.Debug("notification delivered to token",
					zap.String("userID", userID),
					zap.String("token", truncateToken(tokens[i])),
					zap.String("messageID", r.MessageID),
				)
			}
			continue
		}
		s.logger.Error("notification failed for token",
			zap.String("userID", userID),
			zap.String("token", truncateToken(tokens[i])),
			zap.Error(r.Error),
		)
		if r.Error != nil && s.isInvalidToken(r.Error) {
			invalid = append(invalid, tokens[i])
		}
	}

	s.removeInvalidTokens(ctx, userID, invalid)

	return &models.SendResult{
		Success:              resp.SuccessCount > 0,
		TotalTokens:          len(tokens),
		SuccessCount:         resp.SuccessCount,
		FailureCount:         resp.FailureCount,
		InvalidTokensRemoved: len(invalid),
	}, nil
}

// validateData rejects keys FCM refuses for every recipient. Such a message
// fails each token with INVALID_ARGUMENT, which must not be read as a bad token.
func validateData(data map[string]string) error {
	for k := range data {
		lower := strings.ToLower(k)
		if k == "" || reservedDataKeys[lower] {
			return fmt.Errorf("%w: data key %q is reserved", ErrInvalidOptions, k)
		}
		for _, prefix := range reservedDataPrefixes {
			if strings.HasPrefix(lower, prefix) {
				return fmt.Errorf("%w: data key %q is reserved", ErrInvalidOptions, k)
			}
		}
	}
	return nil
}

// payloadSize approximates the FCM payload size as the encoded data map plus
// the notification title and body.
func payloadSize(msg *messaging.MulticastMessage) int {
	size := 0
	if encoded, err := json.Marshal(msg.Data); err == nil {
		size = len(encoded)
	}
	if msg.Notification != nil {
		size += len(msg.Notification.Title) + len(msg.Notification.Body)
	}
	return size
}

// removeInvalidTokens is best effort: delivery already happened, so a
// failure here is logged and never returned.
func (s *notificationService) removeInvalidTokens(ctx context.Context, userID string, invalid []string) {
	if len(invalid) == 0 {
		return
	}
	prefixes := make([]string, len(invalid))
	for i, t := range invalid {
		prefixes[i] = truncateToken(t)
	}
	s.logger.Info("removing invalid push tokens",
		zap.String("userID", userID),
		zap.Int("count", len(invalid)),
		zap.Strings("tokens", prefixes),
	)
	if err := s.userRepo.RemoveTokens(ctx, userID, s.now().UTC(), invalid...); err != nil {
		s.logger.Error("failed to remove invalid push tokens", zap.String("userID", userID), zap.Error(err))
		return
	}
	s.logger.Info("invalid push tokens removed", zap.String("userID", userID))
}

// SendToUser reads the user's token set and sends to it. A missing record and
// an empty set both report TokensFound=false without contacting FCM.
func (s *notificationService) SendToUser(ctx context.Context, userID string, opts models.SendOptions) (*models.SendToUserResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.logger.Warn("user not found for notification", zap.String("userID", userID))
			return &models.SendToUserResult{}, nil
		}
		return nil, fmt.Errorf("fetching user %s: %w", userID, err)
	}

	tokens := user.Notifications.FCMTokens
	if len(tokens) == 0 {
		s.logger.Info("no push tokens registered for user", zap.String("userID", userID))
		return &models.SendToUserResult{}, nil
	}

	result, err := s.SendNotification(ctx, userID, tokens, opts)
	if err != nil {
		return nil, err
	}
	return &models.SendToUserResult{SendResult: *result, TokensFound: true}, nil
}

// SendTest sends the fixed test notification. currentToken is only used to
// report whether the calling device is registered.
func (s *notificationService) SendTest(ctx context.Context, userID, currentToken string) (*models.SendTestNotificationResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.logger.Error("user not found for test notification", zap.String("userID", userID))
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("fetching user %s: %w", userID, err)
	}

	tokens := user.Notifications.FCMTokens
	if len(tokens) == 0 {
		s.logger.Error("no push tokens registered for test notification", zap.String("userID", userID))
		return nil, ErrNoTokens
	}

	tokenFound := currentToken != "" && user.HasToken(currentToken)
	if currentToken != "" && !tokenFound {
		s.logger.Warn("current device token not registered",
			zap.String("userID", userID),
			zap.String("token", truncateToken(currentToken)),
			zap.Int("registeredCount", len(tokens)),
		)
	}

	if err := s.acquireTestSlot(ctx, userID); err != nil {
		return nil, err
	}

	result, err := s.SendNotification(ctx, userID, tokens, testNotification)
	if err != nil {
		return nil, err
	}
	return &models.SendTestNotificationResponse{SendResult: *result, TokenFound: tokenFound}, nil
}

// acquireTestSlot enforces the per-user test cooldown. Cache failures do not block the send.
func (s *notificationService) acquireTestSlot(ctx context.Context, userID string) error {
	if s.cache == nil || s.testCooldown <= 0 {
		return nil
	}
	ok, err := s.cache.SetNX(ctx, "test-notification:"+userID, s.now().UTC().Format(time.RFC3339), s.testCooldown)
	if err != nil {
		s.logger.Warn("test notification cooldown unavailable", zap.String("userID", userID), zap.Error(err))
		return nil
	}
	if !ok {
		return ErrCooldown
	}
	return nil
}

// buildMulticastMessage applies defaults to opts and builds the per-platform message.
func (s *notificationService) buildMulticastMessage(tokens []string, opts models.SendOptions) *messaging.MulticastMessage {
	deepLink := valueOr(opts.DeepLink, DefaultDeepLink)
	notificationType := valueOr(opts.Type, DefaultType)
	icon := valueOr(opts.Icon, DefaultIcon)
	badge := valueOr(opts.Badge, DefaultBadge)
	priority := opts.Priority
	if priority != models.PriorityNormal {
		priority = models.PriorityHigh
	}
	channelID := valueOr(opts.AndroidChannelID, DefaultAndroidChannelID)

	data := map[string]string{
		"type":      notificationType,
		"timestamp": strconv.FormatInt(s.now().UnixMilli(), 10),
		"title":     opts.Title,
		"body":      opts.Body,
		"deepLink":  deepLink,
	}
	for k, v := range opts.Data {
		data[k] = v
	}
	if opts.NotificationID != "" {
		data["notificationId"] = opts.NotificationID
	}

	platformData := map[string]string{
		"deepLink":       deepLink,
		"notificationId": opts.NotificationID,
	}

	androidPriority := messaging.PriorityDefault
	if priority == models.PriorityHigh {
		androidPriority = messaging.PriorityHigh
	}
	apnsBadge := 1

	webpush := &messaging.WebpushConfig{
		Headers: map[string]string{"Urgency": priority},
		Notification: &messaging.WebpushNotification{
			Title:              opts.Title,
			Body:               opts.Body,
			Icon:               icon,
			Badge:              badge,
			RequireInteraction: opts.RequireInteraction,
		},
		Data: platformData,
	}
	if link := s.resolveLink(deepLink); link != "" {
		webpush.FCMOptions = &messaging.WebpushFCMOptions{Link: link}
	}

	return &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   data,
		Notification: &messaging.Notification{
			Title: opts.Title,
			Body:  opts.Body,
		},
		Webpush: webpush,
		Android: &messaging.AndroidConfig{
			Priority: priority,
			Notification: &messaging.AndroidNotification{
				ChannelID:   channelID,
				Priority:    androidPriority,
				Icon:        androidIcon,
				ClickAction: androidClickAction,
			},
			Data: platformData,
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Badge: &apnsBadge,
					Sound: apnsSound,
				},
				CustomData: map[string]interface{}{
					"deepLink":       deepLink,
					"notificationId": opts.NotificationID,
				},
			},
		},
	}
}

// resolveLink returns the absolute HTTPS form of deepLink, or "" when none can be built.
func (s *notificationService) resolveLink(deepLink string) string {
	ref, err := url.Parse(deepLink)
	if err != nil {
		return ""
	}
	if !ref.IsAbs() {
		if s.linkBase == nil {
			return ""
		}
		ref = s.linkBase.ResolveReference(ref)
	}
	if ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
