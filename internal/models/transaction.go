package models

import "time"

const (
	TxIncome  = "income"
	TxExpense = "expense"
	// TxError marks a soft-deleted row; excluded from every total.
	TxError = "error"
)

const (
	// CategoryAdjustment and CategoryOnboarding are balance-sync bookkeeping,
	// not real spend, and stay out of day/week/month spend buckets.
	CategoryAdjustment = "Adjustment"
	CategoryOnboarding = "Onboarding"
)

// Transaction — append-only ledger entry under users/{phone}/transactions.
// Deleted only by the delete-last and reset operations.
type Transaction struct {
	ID          string    `firestore:"-" json:"id"`
	Amount      float64   `firestore:"amount" json:"amount"`
	Type        string    `firestore:"type" json:"type"`
	Category    string    `firestore:"category" json:"category"`
	Description string    `firestore:"description" json:"description"`
	Intent      string    `firestore:"intent,omitempty" json:"intent,omitempty"`
	CreatedAt   time.Time `firestore:"createdAt" json:"created_at"`
}

// CountsTowardSpend reports whether the row belongs in spend aggregates.
func (t *Transaction) CountsTowardSpend() bool {
	if t.Type != TxExpense {
		return false
	}
	return t.Category != CategoryAdjustment && t.Category != CategoryOnboarding
}
