package models

import "time"

// Session states for the LID handshake. There is no stored "verified" state:
// success deletes the session and writes a permanent VerifiedLink instead, and
// abandonment deletes the session so the next message restarts from scratch.
const (
	VerifAwaitingPhone = "awaiting_phone"
	VerifAwaitingCode  = "awaiting_code"
)

// VerificationSession — ephemeral handshake state keyed by the anonymous LID.
// Only a bcrypt hash of the 6-digit code is stored.
type VerificationSession struct {
	LID       string    `firestore:"lid" json:"lid"`
	State     string    `firestore:"state" json:"state"`
	Phone     string    `firestore:"phone" json:"phone"`
	CodeHash  string    `firestore:"codeHash" json:"-"`
	ExpiresAt time.Time `firestore:"expiresAt" json:"expires_at"`
	Attempts  int       `firestore:"attempts" json:"attempts"`
	CreatedAt time.Time `firestore:"createdAt" json:"created_at"`
}

// VerifiedLink — permanent LID ↔ phone binding written when a handshake
// completes.
type VerifiedLink struct {
	LID       string    `firestore:"lid" json:"lid"`
	Phone     string    `firestore:"phone" json:"phone"`
	CreatedAt time.Time `firestore:"createdAt" json:"created_at"`
}
