// Package dispatch opens the message queue carrying notification dispatch requests.
package dispatch

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/example/pushsync/internal/config"
	"github.com/example/pushsync/internal/firebase"
	"github.com/example/pushsync/pkg/messagequeue"
)

// ErrNotConfigured is returned when neither RabbitMQ nor Pub/Sub is configured.
var ErrNotConfigured = errors.New("no dispatch queue configured")

// OpenQueue connects to the configured broker and returns it together with
// the queue (RabbitMQ) or topic (Pub/Sub) name. RabbitMQ wins when both are set.
func OpenQueue(ctx context.Context, cfg *config.Config, logger *zap.Logger) (messagequeue.MessageQueue, string, error) {
	switch {
	case cfg.RabbitMQURL != "":
		q, err := messagequeue.NewRabbitMQService(messagequeue.NewRabbitMQServiceConfig{URL: cfg.RabbitMQURL}, logger)
		if err != nil {
			return nil, "", err
		}
		return q, cfg.RabbitMQQueue, nil
	case cfg.PubSubProjectID != "":
		opts, err := firebase.ClientOptions(cfg, logger)
		if err != nil {
			return nil, "", err
		}
		q, err := messagequeue.NewPubSubService(ctx, messagequeue.NewPubSubServiceConfig{
			ProjectID:    cfg.PubSubProjectID,
			Subscription: cfg.PubSubSubscription,
		}, logger, opts...)
		if err != nil {
			return nil, "", err
		}
		return q, cfg.PubSubTopic, nil
	default:
		return nil, "", ErrNotConfigured
	}
}
