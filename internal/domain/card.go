package domain

import "time"

// Card status values.
const (
	CardStatusActive = "active"
	CardStatusFrozen = "frozen"
	CardStatusClosed = "closed"
)

// Card is a credit card issued to a user. PANEncrypted holds the AES-GCM
// sealed card number; PANMasked is the only form ever returned to clients.
type Card struct {
	ID           string
	UserID       string
	PANEncrypted []byte
	PANMasked    string
	Status       string
	CreditLimit  int64
	Balance      int64
	CreatedAt    time.Time
}

// Frozen reports whether the card is currently frozen.
func (c Card) Frozen() bool {
	return c.Status == CardStatusFrozen
}
