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

// VerificationRepository stores handshake sessions and permanent LID links,
// both keyed by the anonymous identifier.
type VerificationRepository struct {
	client *firestore.Client
}

func NewVerificationRepository(client *firestore.Client) *VerificationRepository {
	return &VerificationRepository{client: client}
}

func (r *VerificationRepository) GetSession(ctx context.Context, lid string) (*models.VerificationSession, error) {
	snap, err := r.client.Collection(sessionsCollection).Doc(lid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get session %s: %w", lid, err)
	}
	var sess models.VerificationSession
	if err := snap.DataTo(&sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", lid, err)
	}
	sess.LID = snap.Ref.ID
	return &sess, nil
}

func (r *VerificationRepository) SaveSession(ctx context.Context, sess *models.VerificationSession) error {
	_, err := r.client.Collection(sessionsCollection).Doc(sess.LID).Set(ctx, sess)
	if err != nil {
		return fmt.Errorf("save session %s: %w", sess.LID, err)
	}
	return nil
}

func (r *VerificationRepository) DeleteSession(ctx context.Context, lid string) error {
	if _, err := r.client.Collection(sessionsCollection).Doc(lid).Delete(ctx); err != nil {
		return fmt.Errorf("delete session %s: %w", lid, err)
	}
	return nil
}

// SessionForPhone finds an active session already targeting the phone. Used
// for the uniqueness check before a code is issued.
func (r *VerificationRepository) SessionForPhone(ctx context.Context, phone string) (*models.VerificationSession, error) {
	iter := r.client.Collection(sessionsCollection).
		Where("phone", "==", phone).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query session for phone %s: %w", phone, err)
	}
	var sess models.VerificationSession
	if err := doc.DataTo(&sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", doc.Ref.ID, err)
	}
	sess.LID = doc.Ref.ID
	return &sess, nil
}

func (r *VerificationRepository) GetLink(ctx context.Context, lid string) (*models.VerifiedLink, error) {
	snap, err := r.client.Collection(linksCollection).Doc(lid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get link %s: %w", lid, err)
	}
	var link models.VerifiedLink
	if err := snap.DataTo(&link); err != nil {
		return nil, fmt.Errorf("decode link %s: %w", lid, err)
	}
	link.LID = snap.Ref.ID
	return &link, nil
}

func (r *VerificationRepository) SaveLink(ctx context.Context, link *models.VerifiedLink) error {
	_, err := r.client.Collection(linksCollection).Doc(link.LID).Set(ctx, link)
	if err != nil {
		return fmt.Errorf("save link %s: %w", link.LID, err)
	}
	return nil
}

// LinkForPhone returns the permanent link targeting a phone, if one exists.
func (r *VerificationRepository) LinkForPhone(ctx context.Context, phone string) (*models.VerifiedLink, error) {
	iter := r.client.Collection(linksCollection).
		Where("phone", "==", phone).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query link for phone %s: %w", phone, err)
	}
	var link models.VerifiedLink
	if err := doc.DataTo(&link); err != nil {
		return nil, fmt.Errorf("decode link %s: %w", doc.Ref.ID, err)
	}
	link.LID = doc.Ref.ID
	return &link, nil
}

// PurgePhone removes every session and link targeting the phone. Hard reset
// uses this so the next anonymous message restarts the handshake cleanly.
func (r *VerificationRepository) PurgePhone(ctx context.Context, phone string) error {
	bw := r.client.BulkWriter(ctx)
	for _, coll := range []string{sessionsCollection, linksCollection} {
		iter := r.client.Collection(coll).Where("phone", "==", phone).Documents(ctx)
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				iter.Stop()
				return fmt.Errorf("purge %s for phone %s: %w", coll, phone, err)
			}
			if _, err := bw.Delete(doc.Ref); err != nil {
				iter.Stop()
				return fmt.Errorf("queue purge for phone %s: %w", phone, err)
			}
		}
		iter.Stop()
	}
	bw.End()
	return nil
}
