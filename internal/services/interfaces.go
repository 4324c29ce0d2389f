package services

import (
	"context"
	"time"

	"centavo/internal/models"
)

// ProfileStore is the per-phone profile document access the services need.
// Get returns nil with no error when the profile does not exist.
type ProfileStore interface {
	Get(ctx context.Context, phone string) (*models.UserProfile, error)
	Save(ctx context.Context, profile *models.UserProfile) error
	ListActive(ctx context.Context) ([]*models.UserProfile, error)
}

// LedgerStore is the per-user transaction subcollection.
type LedgerStore interface {
	Append(ctx context.Context, phone string, tx *models.Transaction) error
	List(ctx context.Context, phone string) ([]models.Transaction, error)
	DeleteLatest(ctx context.Context, phone string) error
	DeleteAll(ctx context.Context, phone string) error
}

// VerificationStore keeps handshake sessions and permanent LID links.
// Lookups return nil with no error when nothing matches.
type VerificationStore interface {
	GetSession(ctx context.Context, lid string) (*models.VerificationSession, error)
	SaveSession(ctx context.Context, sess *models.VerificationSession) error
	DeleteSession(ctx context.Context, lid string) error
	SessionForPhone(ctx context.Context, phone string) (*models.VerificationSession, error)
	GetLink(ctx context.Context, lid string) (*models.VerifiedLink, error)
	SaveLink(ctx context.Context, link *models.VerifiedLink) error
	LinkForPhone(ctx context.Context, phone string) (*models.VerifiedLink, error)
	PurgePhone(ctx context.Context, phone string) error
}

// Transport is the outbound messaging collaborator. Send failures bubble up;
// SetTyping is best-effort and its errors are ignored by callers.
type Transport interface {
	Send(ctx context.Context, recipientID, text string) error
	SetTyping(ctx context.Context, recipientID string) error
	Disconnect() error
}

// CodeSender delivers a verification code to a claimed phone number over a
// channel that does not depend on an existing chat route.
type CodeSender interface {
	DeliverCode(ctx context.Context, phone, message string) error
}

// IntentExtractor is the LLM collaborator. The caller bounds it with a
// context timeout; failures propagate as errors.
type IntentExtractor interface {
	ExtractIntent(ctx context.Context, text string, ec models.ExtractionContext) (*models.Intent, error)
}

// JobLocker serializes scheduled job runs across instances.
type JobLocker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
}
