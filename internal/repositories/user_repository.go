package repositories

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"centavo/internal/models"
)

type UserRepository struct {
	client *firestore.Client
}

func NewUserRepository(client *firestore.Client) *UserRepository {
	return &UserRepository{client: client}
}

// Get returns the profile for a phone, or nil when no document exists.
func (r *UserRepository) Get(ctx context.Context, phone string) (*models.UserProfile, error) {
	snap, err := r.client.Collection(usersCollection).Doc(phone).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get user %s: %w", phone, err)
	}

	var profile models.UserProfile
	if err := snap.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", phone, err)
	}
	profile.Phone = snap.Ref.ID
	return &profile, nil
}

// Save writes the full profile with merge semantics, creating the document
// when absent.
func (r *UserRepository) Save(ctx context.Context, profile *models.UserProfile) error {
	if profile.Phone == "" {
		return fmt.Errorf("save user: empty phone")
	}
	_, err := r.client.Collection(usersCollection).Doc(profile.Phone).Set(ctx, profile, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("save user %s: %w", profile.Phone, err)
	}
	return nil
}

// ListActive returns every profile the scheduled jobs should visit.
func (r *UserRepository) ListActive(ctx context.Context) ([]*models.UserProfile, error) {
	iter := r.client.Collection(usersCollection).
		Where("status", "==", models.StatusActive).
		Documents(ctx)
	defer iter.Stop()

	var profiles []*models.UserProfile
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate active users: %w", err)
		}
		var profile models.UserProfile
		if err := doc.DataTo(&profile); err != nil {
			return nil, fmt.Errorf("decode user %s: %w", doc.Ref.ID, err)
		}
		profile.Phone = doc.Ref.ID
		profiles = append(profiles, &profile)
	}
	return profiles, nil
}
