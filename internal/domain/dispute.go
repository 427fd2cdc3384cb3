package domain

import "time"

// Dispute status values.
const (
	DisputeStatusOpen        = "open"
	DisputeStatusUnderReview = "under_review"
	DisputeStatusResolved    = "resolved"
	DisputeStatusRejected    = "rejected"
)

// Dispute is a cardholder challenge of a posted transaction.
type Dispute struct {
	ID            string    `json:"id"`
	UserID        string    `json:"-"`
	TransactionID string    `json:"transaction_id"`
	Reason        string    `json:"reason"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
