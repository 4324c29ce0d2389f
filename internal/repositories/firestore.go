package repositories

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"centavo/internal/config"
)

const (
	usersCollection        = "users"
	transactionsCollection = "transactions"
	sessionsCollection     = "verification_sessions"
	linksCollection        = "verification_links"
)

// NewFirestoreClient initializes the Firebase app and returns its Firestore
// client. With no credentials file configured it falls back to Application
// Default Credentials.
func NewFirestoreClient(ctx context.Context, cfg config.FirestoreConfig) (*firestore.Client, error) {
	var appConfig *firebase.Config
	if cfg.ProjectID != "" {
		appConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	var app *firebase.App
	var err error
	if cfg.CredentialsFile != "" {
		app, err = firebase.NewApp(ctx, appConfig, option.WithCredentialsFile(cfg.CredentialsFile))
	} else {
		app, err = firebase.NewApp(ctx, appConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Firestore: %w", err)
	}
	return client, nil
}
