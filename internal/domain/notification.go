package domain

import "time"

// Notification kinds.
const (
	NotificationKindPayment = "payment"
	NotificationKindDispute = "dispute"
	NotificationKindCard    = "card"
	NotificationKindReward  = "reward"
)

// Notification is a per-user message with a read flag.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
