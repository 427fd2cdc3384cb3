package domain

import "time"

// Payment records a balance pay-down on a card.
type Payment struct {
	ID        string    `json:"id"`
	CardID    string    `json:"card_id"`
	UserID    string    `json:"-"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
