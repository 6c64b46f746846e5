package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/pushsync/internal/models"
)

// firestoreUserRepository implements UserRepository using Firestore.
// Token mutations rely on ArrayUnion/ArrayRemove so that concurrent writers
// never lose each other's updates.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new Firestore-backed UserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	if client == nil {
		panic("Firestore client is not initialized for UserRepository")
	}
	return &firestoreUserRepository{client: client}
}

func (r *firestoreUserRepository) doc(userID string) *firestore.DocumentRef {
	return r.client.Collection(usersCollection).Doc(userID)
}

// GetByID retrieves a user document by its ID (Firebase Auth UID).
func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	snap, err := r.doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with ID '%s': %w", userID, err)
	}

	var d userDocument
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", userID, err)
	}
	return d.toModel(snap.Ref.ID)
}

// Create adds a new user document. The user ID is the document ID.
func (r *firestoreUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Create operation")
	}
	if _, err := r.doc(user.ID).Create(ctx, toDocument(user)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("user with ID '%s' already exists: %w", user.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user with ID '%s': %w", user.ID, err)
	}
	return nil
}

// TouchLogin records a login at the given time.
func (r *firestoreUserRepository) TouchLogin(ctx context.Context, userID string, at time.Time) error {
	return r.update(ctx, userID, []firestore.Update{
		{Path: fieldLastLoginAt, Value: formatTime(at)},
		{Path: fieldUpdatedAt, Value: formatTime(at)},
	})
}

// AddToken adds token to the user's token set.
func (r *firestoreUserRepository) AddToken(ctx context.Context, userID, token string, at time.Time) error {
	return r.update(ctx, userID, []firestore.Update{
		{Path: fieldTokens, Value: firestore.ArrayUnion(token)},
		{Path: fieldUpdatedAt, Value: formatTime(at)},
	})
}

// RemoveTokens removes every given token from the user's token set.
func (r *firestoreUserRepository) RemoveTokens(ctx context.Context, userID string, at time.Time, tokens ...string) error {
	if len(tokens) == 0 {
		return nil
	}
	values := make([]interface{}, len(tokens))
	for i, t := range tokens {
		values[i] = t
	}
	return r.update(ctx, userID, []firestore.Update{
		{Path: fieldTokens, Value: firestore.ArrayRemove(values...)},
		{Path: fieldUpdatedAt, Value: formatTime(at)},
	})
}

// UpdateSettings replaces the user's settings map.
func (r *firestoreUserRepository) UpdateSettings(ctx context.Context, userID string, settings models.UserSettings, at time.Time) error {
	return r.update(ctx, userID, []firestore.Update{
		{Path: fieldSettings, Value: map[string]interface{}{"theme": settings.Theme}},
		{Path: fieldUpdatedAt, Value: formatTime(at)},
	})
}

func (r *firestoreUserRepository) update(ctx context.Context, userID string, updates []firestore.Update) error {
	if userID == "" {
		return errors.New("userID cannot be empty for update operation")
	}
	if _, err := r.doc(userID).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to update user with ID '%s': %w", userID, err)
	}
	return nil
}

// firestorePinger reads the health document to verify connectivity.
type firestorePinger struct {
	client *firestore.Client
}

// NewFirestorePinger returns a HealthPinger backed by Firestore.
func NewFirestorePinger(client *firestore.Client) HealthPinger {
	return &firestorePinger{client: client}
}

// Ping reads _health/ping. A missing document still proves the read path works.
func (p *firestorePinger) Ping(ctx context.Context) error {
	_, err := p.client.Collection(healthCollection).Doc(healthDocument).Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return err
	}
	return nil
}
