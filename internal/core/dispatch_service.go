package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/pushsync/internal/models"
	"github.com/example/pushsync/pkg/messagequeue"
)

// dispatchService implements the DispatchService interface.
type dispatchService struct {
	queue         messagequeue.MessageQueue
	queueName     string
	notifications NotificationService
	logger        *zap.Logger
}

// NewDispatchService creates a DispatchService that reads and writes queueName.
func NewDispatchService(queue messagequeue.MessageQueue, queueName string, notifications NotificationService, logger *zap.Logger) DispatchService {
	return &dispatchService{
		queue:         queue,
		queueName:     queueName,
		notifications: notifications,
		logger:        logger,
	}
}

func validateDispatch(req models.DispatchRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("%w: userId is required", ErrDispatchPayload)
	}
	if req.Notification.Title == "" || req.Notification.Body == "" {
		return fmt.Errorf("%w: %w: title and body are required", ErrDispatchPayload, ErrInvalidOptions)
	}
	if err := validateData(req.Notification.Data); err != nil {
		return fmt.Errorf("%w: %w", ErrDispatchPayload, err)
	}
	return nil
}

// Enqueue publishes req, assigning a notification ID when the caller did not.
func (s *dispatchService) Enqueue(ctx context.Context, req models.DispatchRequest) (string, error) {
	if err := validateDispatch(req); err != nil {
		return "", err
	}
	if req.Notification.NotificationID == "" {
		req.Notification.NotificationID = uuid.NewString()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding dispatch request: %w", err)
	}
	if err := s.queue.Publish(ctx, s.queueName, body); err != nil {
		return "", err
	}

	s.logger.Info("notification queued",
		zap.String("userID", req.UserID),
		zap.String("notificationID", req.Notification.NotificationID),
	)
	return req.Notification.NotificationID, nil
}

// Run consumes dispatch requests until ctx is done.
func (s *dispatchService) Run(ctx context.Context) error {
	err := s.queue.Consume(ctx, s.queueName, s.handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// handle delivers one request. Malformed requests are rejected so the queue
// drops them; dependency failures are returned as is so the queue redelivers.
func (s *dispatchService) handle(ctx context.Context, body []byte) error {
	var req models.DispatchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.logger.Warn("dropping malformed dispatch request", zap.Error(err))
		return messagequeue.Reject(fmt.Errorf("%w: %v", ErrDispatchPayload, err))
	}
	if err := validateDispatch(req); err != nil {
		s.logger.Warn("dropping invalid dispatch request", zap.String("userID", req.UserID), zap.Error(err))
		return messagequeue.Reject(err)
	}

	result, err := s.notifications.SendToUser(ctx, req.UserID, req.Notification)
	if err != nil {
		if errors.Is(err, ErrInvalidOptions) {
			s.logger.Warn("dropping undeliverable dispatch request", zap.String("userID", req.UserID), zap.Error(err))
			return messagequeue.Reject(fmt.Errorf("%w: %w", ErrDispatchPayload, err))
		}
		s.logger.Error("dispatch delivery failed, will retry", zap.String("userID", req.UserID), zap.Error(err))
		return err
	}

	s.logger.Info("dispatch delivered",
		zap.String("userID", req.UserID),
		zap.String("notificationID", req.Notification.NotificationID),
		zap.Bool("tokensFound", result.TokensFound),
		zap.Int("successCount", result.SuccessCount),
		zap.Int("failureCount", result.FailureCount),
		zap.Int("invalidTokensRemoved", result.InvalidTokensRemoved),
	)
	return nil
}
