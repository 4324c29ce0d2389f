package repositories

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"centavo/internal/models"
)

type TransactionRepository struct {
	client *firestore.Client
}

func NewTransactionRepository(client *firestore.Client) *TransactionRepository {
	return &TransactionRepository{client: client}
}

func (r *TransactionRepository) ledger(phone string) *firestore.CollectionRef {
	return r.client.Collection(usersCollection).Doc(phone).Collection(transactionsCollection)
}

// Append writes one ledger entry. The document ID is generated here so the
// caller never has to care.
func (r *TransactionRepository) Append(ctx context.Context, phone string, tx *models.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if _, err := r.ledger(phone).Doc(tx.ID).Set(ctx, tx); err != nil {
		return fmt.Errorf("append transaction for %s: %w", phone, err)
	}
	return nil
}

// List returns the full ledger ordered by creation time ascending.
func (r *TransactionRepository) List(ctx context.Context, phone string) ([]models.Transaction, error) {
	iter := r.ledger(phone).OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var txs []models.Transaction
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate transactions for %s: %w", phone, err)
		}
		var tx models.Transaction
		if err := doc.DataTo(&tx); err != nil {
			return nil, fmt.Errorf("decode transaction %s: %w", doc.Ref.ID, err)
		}
		tx.ID = doc.Ref.ID
		txs = append(txs, tx)
	}
	return txs, nil
}

// DeleteLatest removes the most recently created entry, if any.
func (r *TransactionRepository) DeleteLatest(ctx context.Context, phone string) error {
	iter := r.ledger(phone).OrderBy("createdAt", firestore.Desc).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find latest transaction for %s: %w", phone, err)
	}
	if _, err := doc.Ref.Delete(ctx); err != nil {
		return fmt.Errorf("delete latest transaction for %s: %w", phone, err)
	}
	return nil
}

// DeleteAll wipes the ledger with a bulk writer.
func (r *TransactionRepository) DeleteAll(ctx context.Context, phone string) error {
	iter := r.ledger(phone).Documents(ctx)
	defer iter.Stop()

	bw := r.client.BulkWriter(ctx)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("iterate transactions for %s: %w", phone, err)
		}
		if _, err := bw.Delete(doc.Ref); err != nil {
			return fmt.Errorf("queue delete for %s: %w", phone, err)
		}
	}
	bw.End()
	return nil
}
