// Command dispatch publishes a single notification request on the dispatch
// queue, for other backends and for manual checks against a running server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/pushsync/internal/config"
	"github.com/example/pushsync/internal/core"
	"github.com/example/pushsync/internal/dispatch"
	"github.com/example/pushsync/internal/models"
)

func main() {
	userID := flag.String("user", "", "target user ID (required)")
	title := flag.String("title", "", "notification title (required)")
	body := flag.String("body", "", "notification body (required)")
	deepLink := flag.String("link", "", "deep link opened on click")
	notifType := flag.String("type", "", "notification type")
	priority := flag.String("priority", "", "high or normal")
	requireInteraction := flag.Bool("require-interaction", false, "keep the notification until the user acts")
	data := flag.String("data", "", "extra data as comma separated key=value pairs")
	flag.Parse()

	if os.Getenv("GIN_MODE") != "release" {
		_ = godotenv.Load()
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	if !appConfig.DispatchEnabled() {
		log.Fatal("Neither RABBITMQ_URL nor PUBSUB_PROJECT_ID is set; nothing to publish to.")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	extra, err := parseData(*data)
	if err != nil {
		log.Fatalf("Invalid -data: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	queue, queueName, err := dispatch.OpenQueue(ctx, appConfig, logger)
	if err != nil {
		log.Fatalf("Error opening dispatch queue: %v", err)
	}
	defer queue.Close()

	// Publishing never delivers, so no NotificationService is needed here.
	dispatcher := core.NewDispatchService(queue, queueName, nil, logger)

	fmt.Printf("Publishing notification for user %s on %s...\n", *userID, queueName)
	id, err := dispatcher.Enqueue(ctx, models.DispatchRequest{
		UserID: *userID,
		Notification: models.SendOptions{
			Title:              *title,
			Body:               *body,
			DeepLink:           *deepLink,
			Type:               *notifType,
			Priority:           *priority,
			RequireInteraction: *requireInteraction,
			Data:               extra,
		},
	})
	if err != nil {
		log.Fatalf("Error publishing dispatch request: %v", err)
	}

	fmt.Printf("Dispatch request %s published.\n", id)
}

func parseData(raw string) (map[string]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}
