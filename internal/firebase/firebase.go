package firebase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/example/pushsync/internal/config"
)

// Clients bundles the Firebase Admin clients used by the server.
// Firestore is nil unless requested.
type Clients struct {
	App       *firebase.App
	Firestore *firestore.Client
	Auth      *auth.Client
	Messaging *messaging.Client
}

// ClientOptions resolves the credential option from the configuration.
// A credentials file wins over the base64 JSON; with neither, Application
// Default Credentials are used and no option is returned.
func ClientOptions(cfg *config.Config, logger *zap.Logger) ([]option.ClientOption, error) {
	switch {
	case cfg.GoogleApplicationCredentials != "":
		if _, err := os.Stat(cfg.GoogleApplicationCredentials); os.IsNotExist(err) {
			logger.Warn("credentials file does not exist", zap.String("path", cfg.GoogleApplicationCredentials))
		}
		logger.Info("using Firebase credentials file", zap.String("path", cfg.GoogleApplicationCredentials))
		return []option.ClientOption{option.WithCredentialsFile(cfg.GoogleApplicationCredentials)}, nil
	case cfg.FirebaseServiceAccountJSONBase64 != "":
		jsonKey, err := base64.StdEncoding.DecodeString(cfg.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, errors.New("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is not a valid base64 string")
		}
		logger.Info("using base64 encoded Firebase service account")
		return []option.ClientOption{option.WithCredentialsJSON(jsonKey)}, nil
	default:
		logger.Info("using Application Default Credentials")
		return nil, nil
	}
}

// InitFirebase initializes the Firebase Admin SDK and the clients the server needs.
func InitFirebase(ctx context.Context, cfg *config.Config, withFirestore bool, logger *zap.Logger) (*Clients, error) {
	if cfg == nil {
		return nil, errors.New("InitFirebase: config cannot be nil")
	}
	opts, err := ClientOptions(cfg, logger)
	if err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}
	clients := &Clients{App: app}

	clients.Auth, err = app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Auth: %w", err)
	}
	clients.Messaging, err = app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Messaging: %w", err)
	}
	if withFirestore {
		clients.Firestore, err = app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("app.Firestore: %w", err)
		}
	}

	logger.Info("Firebase Admin SDK initialized",
		zap.String("projectID", cfg.FirebaseProjectID),
		zap.Bool("firestore", withFirestore),
	)
	return clients, nil
}

// Close releases the clients that hold connections.
func (c *Clients) Close() error {
	if c.Firestore != nil {
		return c.Firestore.Close()
	}
	return nil
}
