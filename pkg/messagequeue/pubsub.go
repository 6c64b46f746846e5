package messagequeue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// PubSubService implements the MessageQueue interface on Google Cloud Pub/Sub.
// queueName is the topic; consumers read from a subscription attached to it.
type PubSubService struct {
	client       *pubsub.Client
	subscription string
	logger       *zap.Logger
}

// NewPubSubServiceConfig contains options for creating a new PubSubService.
type NewPubSubServiceConfig struct {
	ProjectID string
	// Subscription defaults to "<topic>-sub".
	Subscription string
}

// NewPubSubService creates a Pub/Sub client for the given project.
func NewPubSubService(ctx context.Context, cfg NewPubSubServiceConfig, logger *zap.Logger, opts ...option.ClientOption) (*PubSubService, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	logger.Info("connected to Pub/Sub", zap.String("projectID", cfg.ProjectID))
	return &PubSubService{client: client, subscription: cfg.Subscription, logger: logger}, nil
}

// Publish sends body to the topic and waits for the server acknowledgement.
func (s *PubSubService) Publish(ctx context.Context, queueName string, body []byte) error {
	result := s.client.Topic(queueName).Publish(ctx, &pubsub.Message{Data: body})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing to topic %s: %w", queueName, err)
	}
	return nil
}

// Consume receives messages from the topic's subscription, creating the
// subscription when the topic exists but the subscription does not.
func (s *PubSubService) Consume(ctx context.Context, queueName string, handler Handler) error {
	subName := s.subscription
	if subName == "" {
		subName = queueName + "-sub"
	}

	sub := s.client.Subscription(subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return fmt.Errorf("checking subscription %s: %w", subName, err)
	}
	if !exists {
		topic := s.client.Topic(queueName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			return fmt.Errorf("checking topic %s: %w", queueName, err)
		}
		if !topicExists {
			return fmt.Errorf("topic %s does not exist", queueName)
		}
		sub, err = s.client.CreateSubscription(ctx, subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 20 * time.Second,
			RetryPolicy: &pubsub.RetryPolicy{
				MinimumBackoff: time.Second,
				MaximumBackoff: time.Minute,
			},
		})
		if err != nil {
			return fmt.Errorf("creating subscription %s: %w", subName, err)
		}
		s.logger.Info("created subscription", zap.String("subscription", subName))
	}

	s.logger.Info("waiting for messages", zap.String("subscription", subName))
	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		err := handler(ctx, msg.Data)
		switch {
		case err == nil:
			msg.Ack()
		case errors.Is(err, ErrRejected):
			// Pub/Sub has no reject; ack so the message is not redelivered.
			s.logger.Warn("message rejected", zap.String("subscription", subName), zap.String("messageID", msg.ID), zap.Error(err))
			msg.Ack()
		default:
			s.logger.Warn("message nacked for redelivery", zap.String("subscription", subName), zap.String("messageID", msg.ID), zap.Error(err))
			msg.Nack()
		}
	})
}

// Close closes the Pub/Sub client.
func (s *PubSubService) Close() error {
	return s.client.Close()
}
